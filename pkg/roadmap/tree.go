package roadmap

// Path locates a node in the collection. Fields deeper than the node's own
// kind are empty.
type Path struct {
	RoadmapID   string `json:"roadmapId"`
	LevelID     string `json:"levelId,omitempty"`
	MilestoneID string `json:"milestoneId,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
}

// Kind returns the kind of the node the path points at.
func (p Path) Kind() Kind {
	switch {
	case p.ChallengeID != "":
		return KindChallenge
	case p.MilestoneID != "":
		return KindMilestone
	case p.LevelID != "":
		return KindLevel
	}
	return KindRoadmap
}

// ParentID returns the id of the node that owns the one the path points at.
func (p Path) ParentID() string {
	switch p.Kind() {
	case KindChallenge:
		return p.MilestoneID
	case KindMilestone:
		return p.LevelID
	case KindLevel:
		return p.RoadmapID
	}
	return ""
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Clone returns a deep copy of r; nothing is shared with the original.
func (r Roadmap) Clone() Roadmap {
	out := r
	if r.Levels != nil {
		out.Levels = make([]Level, len(r.Levels))
		for i, l := range r.Levels {
			out.Levels[i] = l.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of l.
func (l Level) Clone() Level {
	out := l
	if l.Milestones != nil {
		out.Milestones = make([]Milestone, len(l.Milestones))
		for i, m := range l.Milestones {
			out.Milestones[i] = m.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of m.
func (m Milestone) Clone() Milestone {
	out := m
	out.DueDate = cloneString(m.DueDate)
	out.Reward = cloneString(m.Reward)
	if m.Challenges != nil {
		out.Challenges = make([]Challenge, len(m.Challenges))
		for i, c := range m.Challenges {
			out.Challenges[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of c.
func (c Challenge) Clone() Challenge {
	out := c
	if c.Resources != nil {
		out.Resources = append([]string(nil), c.Resources...)
	}
	return out
}

// CloneAll deep-copies a collection.
func CloneAll(roadmaps []Roadmap) []Roadmap {
	if roadmaps == nil {
		return nil
	}
	out := make([]Roadmap, len(roadmaps))
	for i, r := range roadmaps {
		out[i] = r.Clone()
	}
	return out
}

// Locate finds the node of the given kind and id. Ids are unique across the
// collection, so the first hit wins.
func Locate(roadmaps []Roadmap, kind Kind, id string) (Path, bool) {
	for _, r := range roadmaps {
		if kind == KindRoadmap && r.ID == id {
			return Path{RoadmapID: r.ID}, true
		}
		for _, l := range r.Levels {
			if kind == KindLevel && l.ID == id {
				return Path{RoadmapID: r.ID, LevelID: l.ID}, true
			}
			for _, m := range l.Milestones {
				if kind == KindMilestone && m.ID == id {
					return Path{RoadmapID: r.ID, LevelID: l.ID, MilestoneID: m.ID}, true
				}
				if kind != KindChallenge {
					continue
				}
				for _, c := range m.Challenges {
					if c.ID == id {
						return Path{RoadmapID: r.ID, LevelID: l.ID, MilestoneID: m.ID, ChallengeID: c.ID}, true
					}
				}
			}
		}
	}
	return Path{}, false
}

// FindAny locates id without knowing its kind.
func FindAny(roadmaps []Roadmap, id string) (Path, bool) {
	for _, k := range []Kind{KindRoadmap, KindLevel, KindMilestone, KindChallenge} {
		if p, ok := Locate(roadmaps, k, id); ok {
			return p, true
		}
	}
	return Path{}, false
}

// Descendants lists the ids of every node below the given one, depth first.
// The node itself is not included.
func Descendants(roadmaps []Roadmap, kind Kind, id string) []string {
	var out []string
	addMilestone := func(m Milestone) {
		for _, c := range m.Challenges {
			out = append(out, c.ID)
		}
	}
	addLevel := func(l Level) {
		for _, m := range l.Milestones {
			out = append(out, m.ID)
			addMilestone(m)
		}
	}
	for _, r := range roadmaps {
		if kind == KindRoadmap && r.ID == id {
			for _, l := range r.Levels {
				out = append(out, l.ID)
				addLevel(l)
			}
			return out
		}
		for _, l := range r.Levels {
			if kind == KindLevel && l.ID == id {
				addLevel(l)
				return out
			}
			for _, m := range l.Milestones {
				if kind == KindMilestone && m.ID == id {
					addMilestone(m)
					return out
				}
			}
		}
	}
	return out
}

// RoadmapIndex returns the position of the roadmap with the given id, or -1.
func RoadmapIndex(roadmaps []Roadmap, id string) int {
	for i := range roadmaps {
		if roadmaps[i].ID == id {
			return i
		}
	}
	return -1
}

// Titles returns every title in the tree, root first. Used by search and
// duplicate detection.
func (r Roadmap) Titles() []string {
	out := []string{r.Title}
	for _, l := range r.Levels {
		out = append(out, l.Title)
		for _, m := range l.Milestones {
			out = append(out, m.Title)
			for _, c := range m.Challenges {
				out = append(out, c.Title)
			}
		}
	}
	return out
}
