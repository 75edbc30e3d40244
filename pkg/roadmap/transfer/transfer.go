// Package transfer converts roadmap collections to and from the portable JSON
// document format: a bare array of Roadmap objects.
package transfer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// Scope tells whether an export covers the selection or everything.
type Scope string

const (
	ScopeSelected Scope = "selected"
	ScopeAll      Scope = "all"
)

// Document is an export ready to be written or downloaded.
type Document struct {
	Filename string `json:"filename"`
	Scope    Scope  `json:"scope"`
	Count    int    `json:"count"`
	Body     []byte `json:"-"`
}

// Export serialises the selected roadmaps, or all of them when selected is
// empty, in collection order. now stamps the filename.
func Export(roadmaps []roadmap.Roadmap, selected []string, now time.Time) (Document, error) {
	scope := ScopeAll
	out := make([]roadmap.Roadmap, 0, len(roadmaps))
	if len(selected) == 0 {
		for _, r := range roadmaps {
			out = append(out, withSlices(r.Clone()))
		}
	} else {
		scope = ScopeSelected
		want := make(map[string]struct{}, len(selected))
		for _, id := range selected {
			want[id] = struct{}{}
		}
		for _, r := range roadmaps {
			if _, ok := want[r.ID]; ok {
				out = append(out, withSlices(r.Clone()))
			}
		}
	}

	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("marshal export: %w", err)
	}
	return Document{
		Filename: fmt.Sprintf("roadmaps-%s-%s.json", scope, now.Format("20060102-150405")),
		Scope:    scope,
		Count:    len(out),
		Body:     body,
	}, nil
}

// Import decodes an exported document. The top level must be an array and
// every element an object with a non-empty id (string or number) and a
// non-empty title; anything else fails the whole import with
// KindImportFormat. Nested data is decoded leniently: malformed fields are
// dropped instead of failing the element. Ids are not deduplicated.
func Import(raw []byte) ([]roadmap.Roadmap, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, roadmap.ImportFormatError("document must be a JSON array of roadmaps", nil)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, roadmap.ImportFormatError("document is not valid JSON", err)
	}

	out := make([]roadmap.Roadmap, 0, len(elems))
	for i, elem := range elems {
		r, err := decodeRoadmap(elem)
		if err != nil {
			return nil, roadmap.ImportFormatError(fmt.Sprintf("element %d: %s", i, err.Error()), nil)
		}
		out = append(out, r)
	}
	return out, nil
}

type fields map[string]json.RawMessage

func decodeRoadmap(raw json.RawMessage) (roadmap.Roadmap, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return roadmap.Roadmap{}, fmt.Errorf("not an object")
	}
	id, ok := identifier(f["id"])
	if !ok {
		return roadmap.Roadmap{}, fmt.Errorf("missing id")
	}
	var title string
	if err := json.Unmarshal(f["title"], &title); err != nil || strings.TrimSpace(title) == "" {
		return roadmap.Roadmap{}, fmt.Errorf("missing title")
	}

	var r roadmap.Roadmap
	f["id"], _ = json.Marshal(id)
	if whole, err := json.Marshal(f); err != nil || json.Unmarshal(whole, &r) != nil {
		r = roadmap.Roadmap{ID: id, Title: title}
		lenient(f, "description", &r.Description)
		lenient(f, "icon", &r.Icon)
		lenient(f, "visibility", &r.Visibility)
		lenient(f, "status", &r.Status)
		r.Levels = decodeList(f["levels"], decodeLevel)
	}
	return normalize(r), nil
}

func decodeLevel(raw json.RawMessage) (roadmap.Level, bool) {
	var l roadmap.Level
	if json.Unmarshal(raw, &l) == nil {
		return l, true
	}
	f, ok := objectFields(raw)
	if !ok {
		return l, false
	}
	l.ID, _ = identifier(f["id"])
	lenient(f, "title", &l.Title)
	lenient(f, "unlockRequirements", &l.UnlockRequirements)
	l.Milestones = decodeList(f["milestones"], decodeMilestone)
	return l, true
}

func decodeMilestone(raw json.RawMessage) (roadmap.Milestone, bool) {
	var m roadmap.Milestone
	if json.Unmarshal(raw, &m) == nil {
		return m, true
	}
	f, ok := objectFields(raw)
	if !ok {
		return m, false
	}
	m.ID, _ = identifier(f["id"])
	lenient(f, "title", &m.Title)
	lenient(f, "description", &m.Description)
	lenient(f, "dueDate", &m.DueDate)
	lenient(f, "reward", &m.Reward)
	m.Challenges = decodeList(f["challenges"], decodeChallenge)
	return m, true
}

func decodeChallenge(raw json.RawMessage) (roadmap.Challenge, bool) {
	var c roadmap.Challenge
	if json.Unmarshal(raw, &c) == nil {
		return c, true
	}
	f, ok := objectFields(raw)
	if !ok {
		return c, false
	}
	c.ID, _ = identifier(f["id"])
	lenient(f, "title", &c.Title)
	lenient(f, "description", &c.Description)
	lenient(f, "type", &c.Type)
	lenient(f, "resources", &c.Resources)
	return c, true
}

// decodeList decodes a JSON array element by element, skipping elements that
// are not objects. A missing or non-array value yields an empty list.
func decodeList[T any](raw json.RawMessage, decode func(json.RawMessage) (T, bool)) []T {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil {
		return []T{}
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		if v, ok := decode(e); ok {
			out = append(out, v)
		}
	}
	return out
}

func objectFields(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

// lenient decodes f[key] into dst and leaves dst untouched on any error.
func lenient[T any](f fields, key string, dst *T) {
	raw, ok := f[key]
	if !ok {
		return
	}
	var v T
	if json.Unmarshal(raw, &v) == nil {
		*dst = v
	}
}

// identifier accepts a non-empty string or a JSON number.
func identifier(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil && n.String() != "" {
		return n.String(), true
	}
	return "", false
}

// normalize fills defaults, replaces nil lists with empty ones and renumbers
// every sibling group from its array position.
func normalize(r roadmap.Roadmap) roadmap.Roadmap {
	if r.Visibility != roadmap.VisibilityPublic && r.Visibility != roadmap.VisibilityPrivate {
		r.Visibility = roadmap.VisibilityPrivate
	}
	if !r.Status.Valid() {
		r.Status = roadmap.StatusDraft
	}
	r = withSlices(r)
	ordering.Renumber(r.Levels)
	for i := range r.Levels {
		ordering.Renumber(r.Levels[i].Milestones)
		for j := range r.Levels[i].Milestones {
			ordering.Renumber(r.Levels[i].Milestones[j].Challenges)
		}
	}
	return r
}

func withSlices(r roadmap.Roadmap) roadmap.Roadmap {
	if r.Levels == nil {
		r.Levels = []roadmap.Level{}
	}
	for i := range r.Levels {
		l := &r.Levels[i]
		if l.Milestones == nil {
			l.Milestones = []roadmap.Milestone{}
		}
		for j := range l.Milestones {
			m := &l.Milestones[j]
			if m.Challenges == nil {
				m.Challenges = []roadmap.Challenge{}
			}
			for k := range m.Challenges {
				if m.Challenges[k].Resources == nil {
					m.Challenges[k].Resources = []string{}
				}
			}
		}
	}
	return r
}

// Hint flags an incoming roadmap whose title closely resembles an existing
// one. Hints are advisory; they never block an import.
type Hint struct {
	IncomingIndex int    `json:"incomingIndex"`
	IncomingID    string `json:"incomingId"`
	IncomingTitle string `json:"incomingTitle"`
	ExistingID    string `json:"existingId"`
	ExistingTitle string `json:"existingTitle"`
	SameID        bool   `json:"sameId"`
	Distance      int    `json:"distance"`
}

// NearDuplicates compares every incoming title against the existing ones and
// reports the closest existing roadmap within DuplicateThreshold.
func NearDuplicates(existing, incoming []roadmap.Roadmap) []Hint {
	prints := make([]uint64, len(existing))
	for i, r := range existing {
		prints[i] = Fingerprint(r.Title)
	}
	var hints []Hint
	for i, in := range incoming {
		fp := Fingerprint(in.Title)
		best, bestDist := -1, DuplicateThreshold+1
		for j, ex := range existing {
			d := Distance(fp, prints[j])
			if d > DuplicateThreshold {
				continue
			}
			if d < bestDist || (d == bestDist && ex.ID == in.ID) {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			continue
		}
		hints = append(hints, Hint{
			IncomingIndex: i,
			IncomingID:    in.ID,
			IncomingTitle: in.Title,
			ExistingID:    existing[best].ID,
			ExistingTitle: existing[best].Title,
			SameID:        existing[best].ID == in.ID,
			Distance:      bestDist,
		})
	}
	return hints
}
