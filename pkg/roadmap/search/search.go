// Package search implements the deep, case-insensitive title search used to
// filter roadmap cards and highlight matches.
package search

import (
	"regexp"
	"strings"
	"sync"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// pattern 构造大小写不敏感的字面量匹配
func pattern(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

func blank(term string) bool {
	return strings.TrimSpace(term) == ""
}

// Matches reports whether term occurs in the title of r or of any node in its
// tree. A blank term matches everything; any other term is matched as given,
// surrounding spaces included.
func Matches(r roadmap.Roadmap, term string) bool {
	if blank(term) {
		return true
	}
	return matches(r, pattern(term))
}

func matches(r roadmap.Roadmap, re *regexp.Regexp) bool {
	for _, title := range r.Titles() {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// Span splits a title around the first occurrence of the search term.
type Span struct {
	Before string `json:"before"`
	Match  string `json:"match"`
	After  string `json:"after"`
	Found  bool   `json:"found"`
}

// Highlight locates the first case-insensitive occurrence of term in text.
// The matched segment keeps the original casing of text.
func Highlight(text, term string) Span {
	if blank(term) {
		return Span{Before: text}
	}
	return highlight(text, pattern(term))
}

func highlight(text string, re *regexp.Regexp) Span {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return Span{Before: text}
	}
	return Span{Before: text[:loc[0]], Match: text[loc[0]:loc[1]], After: text[loc[1]:], Found: true}
}

// StatusAll disables the status filter.
const StatusAll = "all"

// Filter returns the roadmaps matching term and status, in collection order.
// An empty status or "all" accepts every status.
func Filter(roadmaps []roadmap.Roadmap, term, status string) []roadmap.Roadmap {
	var re *regexp.Regexp
	if !blank(term) {
		re = pattern(term)
	}
	out := make([]roadmap.Roadmap, 0, len(roadmaps))
	for _, r := range roadmaps {
		if !statusMatches(r, status) {
			continue
		}
		if re != nil && !matches(r, re) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func statusMatches(r roadmap.Roadmap, status string) bool {
	return status == "" || status == StatusAll || string(r.Status) == status
}

// Hit is one matched node in a roadmap tree.
type Hit struct {
	Kind  roadmap.Kind `json:"kind"`
	Path  roadmap.Path `json:"path"`
	Title string       `json:"title"`
	Span  Span         `json:"span"`
	// Trail holds the ancestor titles below the roadmap, e.g. [Level, Milestone].
	Trail []string `json:"trail"`
}

// Hits lists every node of r whose title contains term, depth first.
func Hits(r roadmap.Roadmap, term string) []Hit {
	if blank(term) {
		return nil
	}
	re := pattern(term)
	var out []Hit
	add := func(kind roadmap.Kind, p roadmap.Path, title string, trail []string) {
		if s := highlight(title, re); s.Found {
			out = append(out, Hit{Kind: kind, Path: p, Title: title, Span: s, Trail: append([]string(nil), trail...)})
		}
	}
	add(roadmap.KindRoadmap, roadmap.Path{RoadmapID: r.ID}, r.Title, nil)
	for _, l := range r.Levels {
		lp := roadmap.Path{RoadmapID: r.ID, LevelID: l.ID}
		add(roadmap.KindLevel, lp, l.Title, nil)
		for _, m := range l.Milestones {
			mp := lp
			mp.MilestoneID = m.ID
			add(roadmap.KindMilestone, mp, m.Title, []string{l.Title})
			for _, c := range m.Challenges {
				cp := mp
				cp.ChallengeID = c.ID
				add(roadmap.KindChallenge, cp, c.Title, []string{l.Title, m.Title})
			}
		}
	}
	return out
}

// Index memoizes per-term match results for each roadmap. Results are bound
// to a collection revision and keyed by position, so callers must always pass
// the full collection of that revision. A different revision drops the cache.
// Index is safe for concurrent use.
type Index struct {
	mu       sync.Mutex
	revision uint64
	terms    map[string]map[int]bool // term -> collection position -> match
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{terms: make(map[string]map[int]bool)}
}

// Filter behaves like the package-level Filter but reuses cached results for
// the same revision and term.
func (x *Index) Filter(revision uint64, roadmaps []roadmap.Roadmap, term, status string) []roadmap.Roadmap {
	if blank(term) {
		return Filter(roadmaps, "", status)
	}
	key := strings.ToLower(term)

	x.mu.Lock()
	if revision != x.revision {
		x.revision = revision
		x.terms = make(map[string]map[int]bool)
	}
	cached, ok := x.terms[key]
	if !ok {
		cached = make(map[int]bool, len(roadmaps))
		x.terms[key] = cached
	}
	x.mu.Unlock()

	var re *regexp.Regexp
	out := make([]roadmap.Roadmap, 0, len(roadmaps))
	for i, r := range roadmaps {
		if !statusMatches(r, status) {
			continue
		}
		x.mu.Lock()
		hit, known := cached[i]
		x.mu.Unlock()
		if !known {
			if re == nil {
				re = pattern(key)
			}
			hit = matches(r, re)
			x.mu.Lock()
			cached[i] = hit
			x.mu.Unlock()
		}
		if hit {
			out = append(out, r)
		}
	}
	return out
}

// Len reports how many terms are cached. Used by tests.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.terms)
}
