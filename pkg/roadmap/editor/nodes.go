package editor

import (
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// nodeAt returns a pointer into rms for the node p points at, or nil.
func nodeAt(rms []roadmap.Roadmap, p roadmap.Path) any {
	ri := roadmap.RoadmapIndex(rms, p.RoadmapID)
	if ri < 0 {
		return nil
	}
	r := &rms[ri]
	if p.LevelID == "" {
		return r
	}
	li := ordering.IndexOf(r.Levels, p.LevelID)
	if li < 0 {
		return nil
	}
	l := &r.Levels[li]
	if p.MilestoneID == "" {
		return l
	}
	mi := ordering.IndexOf(l.Milestones, p.MilestoneID)
	if mi < 0 {
		return nil
	}
	m := &l.Milestones[mi]
	if p.ChallengeID == "" {
		return m
	}
	ci := ordering.IndexOf(m.Challenges, p.ChallengeID)
	if ci < 0 {
		return nil
	}
	return &m.Challenges[ci]
}

// detach returns a copy of the node's own fields without its children.
func detach(n any) any {
	switch v := n.(type) {
	case *roadmap.Roadmap:
		c := v.Clone()
		c.Levels = nil
		return &c
	case *roadmap.Level:
		c := v.Clone()
		c.Milestones = nil
		return &c
	case *roadmap.Milestone:
		c := v.Clone()
		c.Challenges = nil
		return &c
	case *roadmap.Challenge:
		c := v.Clone()
		return &c
	}
	return nil
}

// assignScalars copies the fields of src onto dst. The id, order and
// children of dst are kept.
func assignScalars(dst, src any) {
	switch d := dst.(type) {
	case *roadmap.Roadmap:
		s := src.(*roadmap.Roadmap).Clone()
		s.ID, s.Levels = d.ID, d.Levels
		*d = s
	case *roadmap.Level:
		s := src.(*roadmap.Level).Clone()
		s.ID, s.Order, s.Milestones = d.ID, d.Order, d.Milestones
		*d = s
	case *roadmap.Milestone:
		s := src.(*roadmap.Milestone).Clone()
		s.ID, s.Order, s.Challenges = d.ID, d.Order, d.Challenges
		*d = s
	case *roadmap.Challenge:
		s := src.(*roadmap.Challenge).Clone()
		s.ID, s.Order = d.ID, d.Order
		*d = s
	}
}

func applyPatch(n any, p roadmap.Patch) {
	switch v := n.(type) {
	case *roadmap.Roadmap:
		p.ApplyToRoadmap(v)
	case *roadmap.Level:
		p.ApplyToLevel(v)
	case *roadmap.Milestone:
		p.ApplyToMilestone(v)
	case *roadmap.Challenge:
		p.ApplyToChallenge(v)
	}
}

// stripPlaceholders drops every node the server has not issued an id for.
func stripPlaceholders(r roadmap.Roadmap) roadmap.Roadmap {
	out := r.Clone()
	levels := make([]roadmap.Level, 0, len(out.Levels))
	for _, l := range out.Levels {
		if roadmap.IsPlaceholderID(l.ID) {
			continue
		}
		milestones := make([]roadmap.Milestone, 0, len(l.Milestones))
		for _, m := range l.Milestones {
			if roadmap.IsPlaceholderID(m.ID) {
				continue
			}
			challenges := make([]roadmap.Challenge, 0, len(m.Challenges))
			for _, c := range m.Challenges {
				if !roadmap.IsPlaceholderID(c.ID) {
					challenges = append(challenges, c)
				}
			}
			m.Challenges = challenges
			milestones = append(milestones, m)
		}
		l.Milestones = milestones
		levels = append(levels, l)
	}
	out.Levels = levels
	return out
}

// withoutPlaceholders filters a reorder payload down to server-issued ids.
func withoutPlaceholders(entries []ordering.OrderEntry) []ordering.OrderEntry {
	out := make([]ordering.OrderEntry, 0, len(entries))
	for _, e := range entries {
		if !roadmap.IsPlaceholderID(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// reorderGroup moves one sibling in place and returns the payloads before
// and after the move.
func reorderGroup[T any, P ordering.Sequenced[T]](items *[]T, from, to int) (prev, next []ordering.OrderEntry, err error) {
	n := len(*items)
	if from < 0 || from >= n {
		return nil, nil, roadmap.ValidationError("move", "from index out of range")
	}
	if to < 0 {
		to = 0
	}
	if to > n-1 {
		to = n - 1
	}
	if from == to {
		return nil, nil, errNoChange
	}
	prev = ordering.Payload[T, P](*items)
	*items = ordering.Reorder[T, P](*items, from, to)
	return prev, ordering.Payload[T, P](*items), nil
}
