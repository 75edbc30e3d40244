// Package roadmap holds the roadmap hierarchy model shared by the editor,
// the console backend and the CLI: Roadmap → Level → Milestone → Challenge.
//
// A parent exclusively owns its children. Sibling groups carry a dense 1-based
// order field that is always derived from slice position.
package roadmap

import (
	"strings"

	"github.com/google/uuid"
)

// Visibility 路线图可见性
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Status 路线图发布状态
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ChallengeType 挑战类型
type ChallengeType string

const (
	ChallengeQuiz    ChallengeType = "quiz"
	ChallengeProject ChallengeType = "project"
	ChallengeReading ChallengeType = "reading"
)

// Roadmap is the root entity; it owns all Levels.
type Roadmap struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Visibility  Visibility `json:"visibility"`
	Status      Status     `json:"status"`
	Levels      []Level    `json:"levels"`
}

// Level is owned by exactly one Roadmap.
type Level struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Order              int         `json:"order"`
	UnlockRequirements string      `json:"unlockRequirements"`
	Milestones         []Milestone `json:"milestones"`
}

// Milestone is owned by exactly one Level.
type Milestone struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DueDate     *string     `json:"dueDate,omitempty"`
	Reward      *string     `json:"reward,omitempty"`
	Order       int         `json:"order"`
	Challenges  []Challenge `json:"challenges"`
}

// Challenge is owned by exactly one Milestone.
type Challenge struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        ChallengeType `json:"type"`
	Resources   []string      `json:"resources"`
	Order       int           `json:"order"`
}

// Key, Position and SetOrder let the ordering engine sequence sibling groups.

func (l *Level) Key() string    { return l.ID }
func (l *Level) Position() int  { return l.Order }
func (l *Level) SetOrder(n int) { l.Order = n }

func (m *Milestone) Key() string    { return m.ID }
func (m *Milestone) Position() int  { return m.Order }
func (m *Milestone) SetOrder(n int) { m.Order = n }

func (c *Challenge) Key() string    { return c.ID }
func (c *Challenge) Position() int  { return c.Order }
func (c *Challenge) SetOrder(n int) { c.Order = n }

// Kind names one level of the hierarchy.
type Kind string

const (
	KindRoadmap   Kind = "roadmap"
	KindLevel     Kind = "level"
	KindMilestone Kind = "milestone"
	KindChallenge Kind = "challenge"
)

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "roadmap":
		return KindRoadmap, true
	case "level":
		return KindLevel, true
	case "milestone":
		return KindMilestone, true
	case "challenge":
		return KindChallenge, true
	}
	return "", false
}

// Parent returns the kind that owns k. Roadmaps have no parent.
func (k Kind) Parent() (Kind, bool) {
	switch k {
	case KindLevel:
		return KindRoadmap, true
	case KindMilestone:
		return KindLevel, true
	case KindChallenge:
		return KindMilestone, true
	}
	return "", false
}

// Child returns the kind owned by k. Challenges have no children.
func (k Kind) Child() (Kind, bool) {
	switch k {
	case KindRoadmap:
		return KindLevel, true
	case KindLevel:
		return KindMilestone, true
	case KindMilestone:
		return KindChallenge, true
	}
	return "", false
}

const placeholderPrefix = "tmp_"

// NewPlaceholderID returns a local id for an entity the server has not seen.
func NewPlaceholderID() string {
	return placeholderPrefix + uuid.NewString()
}

// IsPlaceholderID reports whether id was minted locally by NewPlaceholderID.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// Stats 各层级实体数量汇总
type Stats struct {
	Roadmaps   int `json:"roadmaps"`
	Levels     int `json:"levels"`
	Milestones int `json:"milestones"`
	Challenges int `json:"challenges"`
}

// Counts tallies every entity in the collection.
func Counts(roadmaps []Roadmap) Stats {
	var s Stats
	s.Roadmaps = len(roadmaps)
	for _, r := range roadmaps {
		s.Levels += len(r.Levels)
		for _, l := range r.Levels {
			s.Milestones += len(l.Milestones)
			for _, m := range l.Milestones {
				s.Challenges += len(m.Challenges)
			}
		}
	}
	return s
}
