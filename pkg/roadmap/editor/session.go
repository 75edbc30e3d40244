package editor

import (
	"context"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/search"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/selection"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/transfer"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/treeview"
)

// Session ties one user's view state (search, selection, tree view) to a
// Store. The console keeps one Session per process; the CLI browser keeps
// one per run.
type Session struct {
	Store     *Store
	Selection *selection.Set
	View      *treeview.Controller

	index *search.Index
}

// NewSession wraps store with empty view state.
func NewSession(store *Store) *Session {
	return &Session{
		Store:     store,
		Selection: selection.New(),
		View:      treeview.New(),
		index:     search.NewIndex(),
	}
}

// Card is one visible roadmap with its highlight and selection flag.
type Card struct {
	Roadmap  roadmap.Roadmap `json:"roadmap"`
	Title    search.Span     `json:"title"`
	Hits     []search.Hit    `json:"hits,omitempty"`
	Selected bool            `json:"selected"`
	Focused  bool            `json:"focused"`
}

// Listing is the result of a filtered listing.
type Listing struct {
	Term      string               `json:"term"`
	Status    string               `json:"status"`
	Cards     []Card               `json:"cards"`
	Total     int                  `json:"total"`
	SelectAll selection.CheckState `json:"selectAll"`
	Dropped   []string             `json:"droppedFromSelection,omitempty"`
}

// Visible filters the collection by term and status. The selection is
// reconciled against the result and the tree view's focus list updated.
func (s *Session) Visible(term, status string) Listing {
	rms, rev := s.Store.SnapshotAt()
	visible := s.index.Filter(rev, rms, term, status)

	ids := make([]string, len(visible))
	for i, r := range visible {
		ids[i] = r.ID
	}
	dropped := s.Selection.Reconcile(ids)
	s.View.SetVisible(ids)
	focused := s.View.Focused()

	cards := make([]Card, len(visible))
	for i, r := range visible {
		cards[i] = Card{
			Roadmap:  r,
			Title:    search.Highlight(r.Title, term),
			Hits:     search.Hits(r, term),
			Selected: s.Selection.Has(r.ID),
			Focused:  r.ID == focused,
		}
	}
	return Listing{
		Term:      term,
		Status:    status,
		Cards:     cards,
		Total:     len(rms),
		SelectAll: s.Selection.State(ids),
		Dropped:   dropped,
	}
}

// Delete removes a node and clears it and its descendants from the view
// state.
func (s *Session) Delete(ctx context.Context, kind roadmap.Kind, id string) ([]string, error) {
	removed, err := s.Store.Delete(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	gone := append([]string{id}, removed...)
	s.View.Forget(gone...)
	s.Selection.Remove(gone...)
	return removed, nil
}

// Bulk runs action against the current selection. Deleted roadmaps leave
// the selection and the view.
func (s *Session) Bulk(ctx context.Context, action selection.Action, confirmed bool) (BulkResult, error) {
	res, err := s.Store.Bulk(ctx, action, s.Selection.Selected(), confirmed)
	if err != nil {
		return res, err
	}
	if action == selection.ActionDelete {
		s.Selection.Remove(res.Succeeded...)
		s.View.Forget(res.Succeeded...)
	}
	return res, nil
}

// Export exports the selection, or everything when nothing is selected.
func (s *Session) Export() (transfer.Document, error) {
	return s.Store.Export(s.Selection.Selected())
}
