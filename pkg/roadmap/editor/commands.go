package editor

import (
	"context"
	"fmt"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// CreateRoadmap validates in, shows the new roadmap under a placeholder id
// and creates it on the server. On failure the placeholder is removed.
func (s *Store) CreateRoadmap(ctx context.Context, in roadmap.RoadmapInput) (roadmap.Roadmap, error) {
	const op = "create roadmap"
	if err := roadmap.Validate(op, &in); err != nil {
		return roadmap.Roadmap{}, err
	}

	draft := roadmap.Roadmap{
		ID:          roadmap.NewPlaceholderID(),
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Visibility:  in.Visibility,
		Status:      in.Status,
		Levels:      []roadmap.Level{},
	}
	var saved roadmap.Roadmap

	err := s.execute(ctx, &command{
		op:   op,
		kind: roadmap.KindRoadmap,
		id:   draft.ID,
		apply: func(rms []roadmap.Roadmap) ([]roadmap.Roadmap, error) {
			s.states[draft.ID] = StateUnsaved
			return append(roadmap.CloneAll(rms), draft.Clone()), nil
		},
		persist: func(ctx context.Context) error {
			body := draft.Clone()
			body.ID = ""
			var err error
			saved, err = s.backend.SaveRoadmap(ctx, body)
			return err
		},
		commit: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			delete(s.states, draft.ID)
			i := roadmap.RoadmapIndex(rms, draft.ID)
			if i < 0 {
				return rms
			}
			next := roadmap.CloneAll(rms)
			if saved.Levels == nil {
				saved.Levels = []roadmap.Level{}
			}
			next[i] = saved.Clone()
			s.states[saved.ID] = StateSaved
			return next
		},
		revert: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			delete(s.states, draft.ID)
			i := roadmap.RoadmapIndex(rms, draft.ID)
			if i < 0 {
				return rms
			}
			next := roadmap.CloneAll(rms)
			return append(next[:i], next[i+1:]...)
		},
	})
	if err != nil {
		return roadmap.Roadmap{}, err
	}
	return saved, nil
}

// CreateChild adds a Level, Milestone or Challenge under the given parent.
// input is a *LevelInput, *MilestoneInput or *ChallengeInput matching the
// parent's child kind. It returns the path of the created node.
func (s *Store) CreateChild(ctx context.Context, parentKind roadmap.Kind, parentID string, input any) (roadmap.Path, error) {
	kind, ok := parentKind.Child()
	if !ok {
		return roadmap.Path{}, roadmap.ValidationError("create", fmt.Sprintf("%s cannot have children", parentKind))
	}
	op := "create " + string(kind)
	draftID := roadmap.NewPlaceholderID()

	var (
		insert  func(parent any)
		persist func(ctx context.Context, parent roadmap.Path) (string, error)
		replace func(parent any)
		remove  func(parent any)
	)
	switch in := input.(type) {
	case *roadmap.LevelInput:
		if kind != roadmap.KindLevel {
			break
		}
		if err := roadmap.Validate(op, in); err != nil {
			return roadmap.Path{}, err
		}
		draft := roadmap.Level{ID: draftID, Title: in.Title, UnlockRequirements: in.UnlockRequirements, Milestones: []roadmap.Milestone{}}
		var saved roadmap.Level
		insert = func(parent any) {
			r := parent.(*roadmap.Roadmap)
			r.Levels = ordering.InsertAt(r.Levels, draft.Clone(), -1)
			draft.Order = r.Levels[len(r.Levels)-1].Order
		}
		persist = func(ctx context.Context, p roadmap.Path) (string, error) {
			body := draft.Clone()
			body.ID = ""
			var err error
			saved, err = s.backend.SaveLevel(ctx, p.RoadmapID, body)
			return saved.ID, err
		}
		replace = func(parent any) {
			r := parent.(*roadmap.Roadmap)
			if i := ordering.IndexOf(r.Levels, draftID); i >= 0 {
				c := saved.Clone()
				if c.Milestones == nil {
					c.Milestones = []roadmap.Milestone{}
				}
				r.Levels[i] = c
				ordering.Renumber(r.Levels)
			}
		}
		remove = func(parent any) {
			r := parent.(*roadmap.Roadmap)
			r.Levels, _ = ordering.RemoveAndRenumber(r.Levels, draftID)
		}
	case *roadmap.MilestoneInput:
		if kind != roadmap.KindMilestone {
			break
		}
		if err := roadmap.Validate(op, in); err != nil {
			return roadmap.Path{}, err
		}
		draft := roadmap.Milestone{ID: draftID, Title: in.Title, Description: in.Description, DueDate: in.DueDate, Reward: in.Reward, Challenges: []roadmap.Challenge{}}
		var saved roadmap.Milestone
		insert = func(parent any) {
			l := parent.(*roadmap.Level)
			l.Milestones = ordering.InsertAt(l.Milestones, draft.Clone(), -1)
			draft.Order = l.Milestones[len(l.Milestones)-1].Order
		}
		persist = func(ctx context.Context, p roadmap.Path) (string, error) {
			body := draft.Clone()
			body.ID = ""
			var err error
			saved, err = s.backend.SaveMilestone(ctx, p.RoadmapID, p.LevelID, body)
			return saved.ID, err
		}
		replace = func(parent any) {
			l := parent.(*roadmap.Level)
			if i := ordering.IndexOf(l.Milestones, draftID); i >= 0 {
				c := saved.Clone()
				if c.Challenges == nil {
					c.Challenges = []roadmap.Challenge{}
				}
				l.Milestones[i] = c
				ordering.Renumber(l.Milestones)
			}
		}
		remove = func(parent any) {
			l := parent.(*roadmap.Level)
			l.Milestones, _ = ordering.RemoveAndRenumber(l.Milestones, draftID)
		}
	case *roadmap.ChallengeInput:
		if kind != roadmap.KindChallenge {
			break
		}
		if err := roadmap.Validate(op, in); err != nil {
			return roadmap.Path{}, err
		}
		draft := roadmap.Challenge{ID: draftID, Title: in.Title, Description: in.Description, Type: in.Type, Resources: in.Resources}
		var saved roadmap.Challenge
		insert = func(parent any) {
			m := parent.(*roadmap.Milestone)
			m.Challenges = ordering.InsertAt(m.Challenges, draft.Clone(), -1)
			draft.Order = m.Challenges[len(m.Challenges)-1].Order
		}
		persist = func(ctx context.Context, p roadmap.Path) (string, error) {
			body := draft.Clone()
			body.ID = ""
			var err error
			saved, err = s.backend.SaveChallenge(ctx, p.RoadmapID, p.LevelID, p.MilestoneID, body)
			return saved.ID, err
		}
		replace = func(parent any) {
			m := parent.(*roadmap.Milestone)
			if i := ordering.IndexOf(m.Challenges, draftID); i >= 0 {
				c := saved.Clone()
				if c.Resources == nil {
					c.Resources = []string{}
				}
				m.Challenges[i] = c
				ordering.Renumber(m.Challenges)
			}
		}
		remove = func(parent any) {
			m := parent.(*roadmap.Milestone)
			m.Challenges, _ = ordering.RemoveAndRenumber(m.Challenges, draftID)
		}
	}
	if insert == nil {
		return roadmap.Path{}, roadmap.ValidationError(op, fmt.Sprintf("unexpected input %T for a %s", input, kind))
	}
	if roadmap.IsPlaceholderID(parentID) {
		return roadmap.Path{}, roadmap.ValidationError(op, fmt.Sprintf("%s %s is not saved yet", parentKind, parentID))
	}

	var (
		parent   roadmap.Path
		serverID string
	)
	err := s.execute(ctx, &command{
		op:   op,
		kind: kind,
		id:   draftID,
		apply: func(rms []roadmap.Roadmap) ([]roadmap.Roadmap, error) {
			p, ok := roadmap.Locate(rms, parentKind, parentID)
			if !ok {
				return nil, roadmap.NotFound(parentKind, parentID)
			}
			parent = p
			next := roadmap.CloneAll(rms)
			insert(nodeAt(next, p))
			s.states[draftID] = StateUnsaved
			return next, nil
		},
		persist: func(ctx context.Context) error {
			var err error
			serverID, err = persist(ctx, parent)
			return err
		},
		commit: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			delete(s.states, draftID)
			next := roadmap.CloneAll(rms)
			n := nodeAt(next, parent)
			if n == nil {
				return rms
			}
			replace(n)
			s.states[serverID] = StateSaved
			return next
		},
		revert: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			delete(s.states, draftID)
			next := roadmap.CloneAll(rms)
			n := nodeAt(next, parent)
			if n == nil {
				return rms
			}
			remove(n)
			return next
		},
	})
	if err != nil {
		return roadmap.Path{}, err
	}
	return childPath(parent, kind, serverID), nil
}

func childPath(parent roadmap.Path, kind roadmap.Kind, id string) roadmap.Path {
	p := parent
	switch kind {
	case roadmap.KindLevel:
		p.LevelID = id
	case roadmap.KindMilestone:
		p.MilestoneID = id
	case roadmap.KindChallenge:
		p.ChallengeID = id
	}
	return p
}

// Update applies patch to the node locally, then persists it. Roadmap
// fields go through PATCH unless the status changes, in which case the full
// roadmap is posted. On failure only this node's own fields are restored.
func (s *Store) Update(ctx context.Context, kind roadmap.Kind, id string, patch roadmap.Patch) error {
	op := "update " + string(kind)
	patch.Normalize()
	if patch.Empty() {
		return roadmap.ValidationError(op, "nothing to update")
	}
	if !patch.AppliesTo(kind) {
		return roadmap.ValidationError(op, fmt.Sprintf("patch has no %s fields", kind))
	}
	if roadmap.IsPlaceholderID(id) {
		return roadmap.ValidationError(op, fmt.Sprintf("%s %s is not saved yet", kind, id))
	}

	var (
		path      roadmap.Path
		before    any
		edited    any
		full      roadmap.Roadmap
		prevState EntityState
		saved     any
	)
	return s.execute(ctx, &command{
		op:   op,
		kind: kind,
		id:   id,
		apply: func(rms []roadmap.Roadmap) ([]roadmap.Roadmap, error) {
			p, ok := roadmap.Locate(rms, kind, id)
			if !ok {
				return nil, roadmap.NotFound(kind, id)
			}
			next := roadmap.CloneAll(rms)
			n := nodeAt(next, p)
			before = detach(n)
			edited = detach(n)
			applyPatch(edited, patch)
			if err := roadmap.Validate(op, roadmap.InputOf(edited)); err != nil {
				return nil, err
			}
			assignScalars(n, edited)
			path = p
			full = stripPlaceholders(next[roadmap.RoadmapIndex(next, p.RoadmapID)])
			prevState = s.states[id]
			s.states[id] = StateModified
			return next, nil
		},
		persist: func(ctx context.Context) error {
			var err error
			saved, err = s.persistUpdate(ctx, path, edited, full, patch)
			return err
		},
		commit: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			s.states[id] = StateSaved
			next := roadmap.CloneAll(rms)
			n := nodeAt(next, path)
			if n == nil {
				return rms
			}
			if saved != nil {
				assignScalars(n, saved)
			}
			return next
		},
		revert: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			switch prevState {
			case StateUnsaved:
				s.states[id] = StateUnsaved
			default:
				s.states[id] = StateSaved
			}
			next := roadmap.CloneAll(rms)
			n := nodeAt(next, path)
			if n == nil {
				return rms
			}
			assignScalars(n, before)
			return next
		},
	})
}

// persistUpdate sends one edited node and returns the server's copy of its
// fields, or nil when the server answered without an entity.
func (s *Store) persistUpdate(ctx context.Context, p roadmap.Path, edited any, full roadmap.Roadmap, patch roadmap.Patch) (any, error) {
	switch n := edited.(type) {
	case *roadmap.Roadmap:
		var (
			r   roadmap.Roadmap
			err error
		)
		if patch.Status != nil {
			r, err = s.backend.SaveRoadmap(ctx, full)
		} else {
			r, err = s.backend.PatchRoadmap(ctx, p.RoadmapID, client.RoadmapPatch{
				Title:       patch.Title,
				Description: patch.Description,
				Icon:        patch.Icon,
				Visibility:  patch.Visibility,
			})
		}
		if err != nil || r.ID == "" {
			return nil, err
		}
		return &r, nil
	case *roadmap.Level:
		l, err := s.backend.SaveLevel(ctx, p.RoadmapID, *n)
		if err != nil || l.ID == "" {
			return nil, err
		}
		return &l, nil
	case *roadmap.Milestone:
		m, err := s.backend.SaveMilestone(ctx, p.RoadmapID, p.LevelID, *n)
		if err != nil || m.ID == "" {
			return nil, err
		}
		return &m, nil
	case *roadmap.Challenge:
		c, err := s.backend.SaveChallenge(ctx, p.RoadmapID, p.LevelID, p.MilestoneID, *n)
		if err != nil || c.ID == "" {
			return nil, err
		}
		return &c, nil
	}
	return nil, roadmap.ValidationError("update", fmt.Sprintf("unsupported node %T", edited))
}

// Delete removes a node on the server first and then locally together with
// all its descendants. It returns the ids of the removed descendants. Nodes
// that were never persisted (imported, or still unsaved) are removed locally
// only.
func (s *Store) Delete(ctx context.Context, kind roadmap.Kind, id string) ([]string, error) {
	op := "delete " + string(kind)
	if roadmap.IsPlaceholderID(id) {
		return nil, roadmap.ValidationError(op, fmt.Sprintf("%s %s is not saved yet", kind, id))
	}

	s.mu.RLock()
	p, ok := roadmap.Locate(s.roadmaps, kind, id)
	localOnly := s.states[id] == StateUnsaved
	s.mu.RUnlock()
	if !ok {
		return nil, roadmap.NotFound(kind, id)
	}

	var removed []string
	err := s.execute(ctx, &command{
		op:   op,
		kind: kind,
		id:   id,
		persist: func(ctx context.Context) error {
			if localOnly {
				return nil
			}
			switch kind {
			case roadmap.KindRoadmap:
				return s.backend.DeleteRoadmap(ctx, p.RoadmapID)
			case roadmap.KindLevel:
				return s.backend.DeleteLevel(ctx, p.RoadmapID, p.LevelID)
			case roadmap.KindMilestone:
				return s.backend.DeleteMilestone(ctx, p.RoadmapID, p.LevelID, p.MilestoneID)
			default:
				return s.backend.DeleteChallenge(ctx, p.RoadmapID, p.LevelID, p.MilestoneID, p.ChallengeID)
			}
		},
		commit: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			removed = roadmap.Descendants(rms, kind, id)
			next := removeNode(rms, p)
			s.states[id] = StateDeleted
			for _, d := range removed {
				s.states[d] = StateDeleted
			}
			return next
		},
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// removeNode drops the node at p and renumbers its former siblings.
func removeNode(rms []roadmap.Roadmap, p roadmap.Path) []roadmap.Roadmap {
	next := roadmap.CloneAll(rms)
	if p.Kind() == roadmap.KindRoadmap {
		if i := roadmap.RoadmapIndex(next, p.RoadmapID); i >= 0 {
			next = append(next[:i], next[i+1:]...)
		}
		return next
	}
	parentKind, _ := p.Kind().Parent()
	parentPath := p
	switch parentKind {
	case roadmap.KindRoadmap:
		parentPath = roadmap.Path{RoadmapID: p.RoadmapID}
	case roadmap.KindLevel:
		parentPath.MilestoneID, parentPath.ChallengeID = "", ""
	case roadmap.KindMilestone:
		parentPath.ChallengeID = ""
	}
	switch n := nodeAt(next, parentPath).(type) {
	case *roadmap.Roadmap:
		n.Levels, _ = ordering.RemoveAndRenumber(n.Levels, p.LevelID)
	case *roadmap.Level:
		n.Milestones, _ = ordering.RemoveAndRenumber(n.Milestones, p.MilestoneID)
	case *roadmap.Milestone:
		n.Challenges, _ = ordering.RemoveAndRenumber(n.Challenges, p.ChallengeID)
	}
	return next
}

// Move reorders the children of parentID (a roadmap, level or milestone):
// the sibling at from moves to to, clamped into range. The whole sibling
// group is sent in a single reorder call and the previous order is restored
// if it fails.
func (s *Store) Move(ctx context.Context, kind roadmap.Kind, parentID string, from, to int) error {
	op := "move " + string(kind)
	parentKind, ok := kind.Parent()
	if !ok {
		return roadmap.ValidationError(op, "roadmaps have no persisted order")
	}
	if roadmap.IsPlaceholderID(parentID) {
		return roadmap.ValidationError(op, fmt.Sprintf("%s %s is not saved yet", parentKind, parentID))
	}

	var (
		parent  roadmap.Path
		prev    []ordering.OrderEntry
		payload []ordering.OrderEntry
	)
	return s.execute(ctx, &command{
		op:   op,
		kind: kind,
		id:   parentID,
		apply: func(rms []roadmap.Roadmap) ([]roadmap.Roadmap, error) {
			p, ok := roadmap.Locate(rms, parentKind, parentID)
			if !ok {
				return nil, roadmap.NotFound(parentKind, parentID)
			}
			next := roadmap.CloneAll(rms)
			var err error
			switch n := nodeAt(next, p).(type) {
			case *roadmap.Roadmap:
				prev, payload, err = reorderGroup(&n.Levels, from, to)
			case *roadmap.Level:
				prev, payload, err = reorderGroup(&n.Milestones, from, to)
			case *roadmap.Milestone:
				prev, payload, err = reorderGroup(&n.Challenges, from, to)
			}
			if err != nil {
				return nil, err
			}
			parent = p
			return next, nil
		},
		persist: func(ctx context.Context) error {
			return s.backend.Reorder(ctx, parent, withoutPlaceholders(payload))
		},
		revert: func(rms []roadmap.Roadmap) []roadmap.Roadmap {
			next := roadmap.CloneAll(rms)
			switch n := nodeAt(next, parent).(type) {
			case *roadmap.Roadmap:
				n.Levels = ordering.Apply(n.Levels, prev)
			case *roadmap.Level:
				n.Milestones = ordering.Apply(n.Milestones, prev)
			case *roadmap.Milestone:
				n.Challenges = ordering.Apply(n.Challenges, prev)
			default:
				return rms
			}
			return next
		},
	})
}
