// Package selection tracks which roadmap cards are checked for bulk actions.
package selection

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// CheckState is the tri-state of the "select all" checkbox.
type CheckState string

const (
	StateNone    CheckState = "none"
	StatePartial CheckState = "partial"
	StateAll     CheckState = "all"
)

// Action is a bulk operation over the selected roadmaps.
type Action string

const (
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
	ActionArchive Action = "archive"
)

// ParseAction validates a user-supplied action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionDelete, ActionPublish, ActionArchive:
		return a, nil
	}
	return "", roadmap.ValidationError("bulk", fmt.Sprintf("unknown bulk action %q", s))
}

// TargetStatus is the status a status-changing action sets. Delete has none.
func (a Action) TargetStatus() (roadmap.Status, bool) {
	switch a {
	case ActionPublish:
		return roadmap.StatusPublished, true
	case ActionArchive:
		return roadmap.StatusArchived, true
	}
	return "", false
}

// Set is the selected-id set. The zero value is not usable; call New.
// Set is safe for concurrent use.
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
	// visible is the last visible ordering seen, used to sort Selected.
	visible []string
}

// New creates an empty selection.
func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Toggle checks or unchecks a single id.
func (s *Set) Toggle(id string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if checked {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

// SelectAll checks every visible id, or clears the selection.
func (s *Set) SelectAll(checked bool, visibleIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = slices.Clone(visibleIDs)
	if !checked {
		clear(s.ids)
		return
	}
	for _, id := range visibleIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Remove unchecks the given ids, e.g. after they were deleted.
func (s *Set) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Reconcile drops every selected id that is not visible. It returns the ids
// that were dropped.
func (s *Set) Reconcile(visibleIDs []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = slices.Clone(visibleIDs)
	keep := make(map[string]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		keep[id] = struct{}{}
	}
	var dropped []string
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
			dropped = append(dropped, id)
		}
	}
	slices.Sort(dropped)
	return dropped
}

// Has reports whether id is selected.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Selected returns the selected ids in the last known visible order. Ids not
// in that ordering follow, sorted.
func (s *Set) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	seen := make(map[string]struct{}, len(s.ids))
	for _, id := range s.visible {
		if _, ok := s.ids[id]; ok {
			if _, dup := seen[id]; !dup {
				out = append(out, id)
				seen[id] = struct{}{}
			}
		}
	}
	var rest []string
	for id := range s.ids {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// State computes the "select all" checkbox for the visible ids: all when
// every visible id is selected, none when no visible id is, partial otherwise.
// An empty visible list is none.
func (s *Set) State(visibleIDs []string) CheckState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(visibleIDs) == 0 {
		return StateNone
	}
	n := 0
	for _, id := range visibleIDs {
		if _, ok := s.ids[id]; ok {
			n++
		}
	}
	switch n {
	case 0:
		return StateNone
	case len(visibleIDs):
		return StateAll
	}
	return StatePartial
}
