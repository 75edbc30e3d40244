// Package treeview holds the UI-agnostic state of the roadmap browser:
// which nodes are expanded, which roadmap card has keyboard focus, and which
// roadmap is open in the detail panel.
//
// Default: every node collapsed. Only explicit expansions are stored.
package treeview

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// Key is a navigation key understood by HandleKey.
type Key string

const (
	KeyUp     Key = "up"
	KeyDown   Key = "down"
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeyHome   Key = "home"
	KeyEnd    Key = "end"
	KeyEnter  Key = "enter"
	KeyEscape Key = "escape"
	KeySpace  Key = "space"
)

// ParseKey normalizes key names as sent by browsers and terminals.
func ParseKey(s string) (Key, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "arrowup":
		return KeyUp, true
	case "down", "arrowdown":
		return KeyDown, true
	case "left", "arrowleft":
		return KeyLeft, true
	case "right", "arrowright":
		return KeyRight, true
	case "home":
		return KeyHome, true
	case "end":
		return KeyEnd, true
	case "enter":
		return KeyEnter, true
	case "escape", "esc":
		return KeyEscape, true
	case "space", " ", "spacebar":
		return KeySpace, true
	}
	return "", false
}

// Controller is safe for concurrent use. The zero value is not usable; call New.
type Controller struct {
	mu       sync.RWMutex
	expanded map[string]bool
	visible  []string
	focus    int // index into visible, -1 when nothing is visible
	panel    string
}

// New creates a controller with everything collapsed and nothing focused.
func New() *Controller {
	return &Controller{expanded: make(map[string]bool), focus: -1}
}

// Toggle flips the expansion of a node and returns the new state.
func (c *Controller) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggleLocked(id)
}

func (c *Controller) toggleLocked(id string) bool {
	if c.expanded[id] {
		delete(c.expanded, id)
		return false
	}
	c.expanded[id] = true
	return true
}

// SetExpanded sets the expansion of a node explicitly.
func (c *Controller) SetExpanded(id string, expanded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expanded {
		c.expanded[id] = true
	} else {
		delete(c.expanded, id)
	}
}

// IsExpanded reports whether a node is expanded.
func (c *Controller) IsExpanded(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expanded[id]
}

// ExpandAll expands every node that has children.
func (c *Controller) ExpandAll(roadmaps []roadmap.Roadmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range roadmaps {
		if len(r.Levels) > 0 {
			c.expanded[r.ID] = true
		}
		for _, l := range r.Levels {
			if len(l.Milestones) > 0 {
				c.expanded[l.ID] = true
			}
			for _, m := range l.Milestones {
				if len(m.Challenges) > 0 {
					c.expanded[m.ID] = true
				}
			}
		}
	}
}

// CollapseAll collapses every node.
func (c *Controller) CollapseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.expanded)
}

// SetVisible replaces the list of visible roadmap cards. Focus stays on the
// same roadmap when it is still visible; otherwise it is clamped into range.
func (c *Controller) SetVisible(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.focusedLocked()
	c.visible = slices.Clone(ids)
	switch {
	case len(c.visible) == 0:
		c.focus = -1
	case prev != "" && slices.Contains(c.visible, prev):
		c.focus = slices.Index(c.visible, prev)
	case c.focus < 0:
		c.focus = 0
	default:
		c.focus = min(c.focus, len(c.visible)-1)
	}
}

// Focus moves focus to a visible roadmap. It reports false when id is not visible.
func (c *Controller) Focus(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.visible, id)
	if i < 0 {
		return false
	}
	c.focus = i
	return true
}

// Focused returns the id of the focused roadmap, or "".
func (c *Controller) Focused() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focusedLocked()
}

func (c *Controller) focusedLocked() string {
	if c.focus < 0 || c.focus >= len(c.visible) {
		return ""
	}
	return c.visible[c.focus]
}

// HandleKey applies a navigation key. Focus clamps at both ends.
// It reports whether the key was handled.
func (c *Controller) HandleKey(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.visible)
	switch k {
	case KeyUp, KeyLeft:
		if n > 0 {
			c.focus = max(c.focus-1, 0)
		}
	case KeyDown, KeyRight:
		if n > 0 {
			c.focus = min(c.focus+1, n-1)
		}
	case KeyHome:
		if n > 0 {
			c.focus = 0
		}
	case KeyEnd:
		if n > 0 {
			c.focus = n - 1
		}
	case KeyEnter:
		if id := c.focusedLocked(); id != "" {
			c.panel = id
		}
	case KeyEscape:
		c.panel = ""
	case KeySpace:
		if id := c.focusedLocked(); id != "" {
			c.toggleLocked(id)
		}
	default:
		return false
	}
	return true
}

// Open shows a roadmap in the detail panel.
func (c *Controller) Open(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = id
}

// Close hides the detail panel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = ""
}

// Panel returns the roadmap shown in the detail panel, or "".
func (c *Controller) Panel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panel
}

// Forget drops every trace of deleted nodes: expansion, visibility and the
// detail panel when it showed one of them.
func (c *Controller) Forget(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.focusedLocked()
	for _, id := range ids {
		delete(c.expanded, id)
		if c.panel == id {
			c.panel = ""
		}
	}
	c.visible = slices.DeleteFunc(c.visible, func(v string) bool { return slices.Contains(ids, v) })
	switch {
	case len(c.visible) == 0:
		c.focus = -1
	case slices.Contains(c.visible, prev):
		c.focus = slices.Index(c.visible, prev)
	default:
		c.focus = min(max(c.focus, 0), len(c.visible)-1)
	}
}

// Row is one line of the flattened tree.
type Row struct {
	Depth       int          `json:"depth"`
	Kind        roadmap.Kind `json:"kind"`
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	HasChildren bool         `json:"hasChildren"`
	Expanded    bool         `json:"expanded"`
	Focused     bool         `json:"focused"`
}

// Rows flattens the given roadmaps honoring expansion. Children of a
// collapsed node are omitted.
func (c *Controller) Rows(roadmaps []roadmap.Roadmap) []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	focused := c.focusedLocked()
	var rows []Row
	for _, r := range roadmaps {
		open := c.expanded[r.ID]
		rows = append(rows, Row{Depth: 0, Kind: roadmap.KindRoadmap, ID: r.ID, Title: r.Title,
			HasChildren: len(r.Levels) > 0, Expanded: open, Focused: r.ID == focused})
		if !open {
			continue
		}
		for _, l := range r.Levels {
			lopen := c.expanded[l.ID]
			rows = append(rows, Row{Depth: 1, Kind: roadmap.KindLevel, ID: l.ID, Title: l.Title,
				HasChildren: len(l.Milestones) > 0, Expanded: lopen})
			if !lopen {
				continue
			}
			for _, m := range l.Milestones {
				mopen := c.expanded[m.ID]
				rows = append(rows, Row{Depth: 2, Kind: roadmap.KindMilestone, ID: m.ID, Title: m.Title,
					HasChildren: len(m.Challenges) > 0, Expanded: mopen})
				if !mopen {
					continue
				}
				for _, ch := range m.Challenges {
					rows = append(rows, Row{Depth: 3, Kind: roadmap.KindChallenge, ID: ch.ID, Title: ch.Title})
				}
			}
		}
	}
	return rows
}

// StateVersion is the current schema version of State.
const StateVersion = 1

// State is the persisted part of the controller.
type State struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
	Focused  string          `json:"focused,omitempty"`
	Panel    string          `json:"panel,omitempty"`
}

// State captures expansion, focus and panel.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exp := make(map[string]bool, len(c.expanded))
	for id := range c.expanded {
		exp[id] = true
	}
	return State{Version: StateVersion, Expanded: exp, Focused: c.focusedLocked(), Panel: c.panel}
}

// Restore applies a saved state. Unknown ids are kept and simply never match.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = make(map[string]bool, len(s.Expanded))
	for id, on := range s.Expanded {
		if on {
			c.expanded[id] = true
		}
	}
	c.panel = s.Panel
	if i := slices.Index(c.visible, s.Focused); s.Focused != "" && i >= 0 {
		c.focus = i
	}
}

// SaveState writes the state as indented JSON, creating parent directories.
func (c *Controller) SaveState(path string) error {
	data, err := json.MarshalIndent(c.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadState restores state from path. A missing file is not an error; a
// corrupted one is reported and leaves the controller unchanged.
func (c *Controller) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read tree state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid tree state file: %w", err)
	}
	c.Restore(s)
	return nil
}
