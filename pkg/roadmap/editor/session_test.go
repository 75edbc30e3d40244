package editor_test

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/selection"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/treeview"
)

func cardIDs(l editor.Listing) []string {
	out := make([]string, len(l.Cards))
	for i, c := range l.Cards {
		out[i] = c.Roadmap.ID
	}
	return out
}

func TestSession_VisibleReconcilesSelection(t *testing.T) {
	f := newFixture(t, roadmaptest.Sample())
	s := editor.NewSession(f.store)

	all := s.Visible("", "")
	assert.Equal(t, []string{"rm-go", "rm-sys"}, cardIDs(all))
	assert.Equal(t, selection.StateNone, all.SelectAll)

	s.Selection.SelectAll(true, cardIDs(all))
	assert.Equal(t, selection.StateAll, s.Visible("", "all").SelectAll)

	l := s.Visible("PROCESS", "")
	assert.Equal(t, []string{"rm-sys"}, cardIDs(l))
	assert.Equal(t, []string{"rm-go"}, l.Dropped)
	assert.Equal(t, selection.StateAll, l.SelectAll)
	assert.Equal(t, 2, l.Total)
	require.Len(t, l.Cards[0].Hits, 1)
	assert.Equal(t, roadmap.KindMilestone, l.Cards[0].Hits[0].Kind)
	assert.Equal(t, []string{"Operating Systems"}, l.Cards[0].Hits[0].Trail)
	assert.False(t, l.Cards[0].Title.Found)

	l = s.Visible("", string(roadmap.StatusPublished))
	assert.Equal(t, []string{"rm-go"}, cardIDs(l))
	assert.Equal(t, selection.StateNone, l.SelectAll)
}

func TestSession_VisibleSeesNewRevision(t *testing.T) {
	f := newFixture(t, roadmaptest.Sample())
	s := editor.NewSession(f.store)
	ctx := context.Background()

	assert.Empty(t, s.Visible("kubernetes", "").Cards)
	_, err := f.store.CreateChild(ctx, roadmap.KindLevel, "lv-3", &roadmap.MilestoneInput{Title: "Kubernetes operators", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rm-go"}, cardIDs(s.Visible("kubernetes", "")))
}

func TestSession_DeleteForgetsViewState(t *testing.T) {
	f := newFixture(t, roadmaptest.Sample())
	s := editor.NewSession(f.store)
	s.Visible("", "")
	s.Selection.Toggle("rm-sys", true)
	s.View.ExpandAll(f.store.Snapshot())
	require.True(t, s.View.Focus("rm-sys"))
	s.View.HandleKey(treeview.KeyEnter)
	require.Equal(t, "rm-sys", s.View.Panel())

	removed, err := s.Delete(context.Background(), roadmap.KindRoadmap, "rm-sys")
	require.NoError(t, err)
	assert.Equal(t, []string{"lv-4", "ms-3"}, removed)
	assert.False(t, s.Selection.Has("rm-sys"))
	assert.False(t, s.View.IsExpanded("lv-4"))
	assert.Empty(t, s.View.Panel())
	assert.Equal(t, "rm-go", s.View.Focused())
}

func TestSession_BulkUsesSelection(t *testing.T) {
	f := newFixture(t, roadmaptest.Sample())
	s := editor.NewSession(f.store)
	s.Visible("", "")

	res, err := s.Bulk(context.Background(), selection.ActionArchive, false)
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)

	s.Selection.Toggle("rm-go", true)
	res, err = s.Bulk(context.Background(), selection.ActionArchive, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm-go"}, res.Succeeded)
	r, _ := f.store.Roadmap("rm-go")
	assert.Equal(t, roadmap.StatusArchived, r.Status)
	assert.Equal(t, roadmap.VisibilityPublic, r.Visibility)

	_, err = s.Bulk(context.Background(), selection.ActionDelete, false)
	assert.True(t, roadmap.IsKind(err, roadmap.KindConfirmationRequired))
	assert.True(t, s.Selection.Has("rm-go"))

	res, err = s.Bulk(context.Background(), selection.ActionDelete, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm-go"}, res.Succeeded)
	assert.Zero(t, s.Selection.Len())
	assert.Equal(t, []string{"rm-sys"}, roadmaptest.IDs(f.store.Snapshot()))
}

func TestSession_ExportFollowsSelection(t *testing.T) {
	f := newFixture(t, roadmaptest.Sample())
	s := editor.NewSession(f.store)
	s.Visible("", "")

	doc, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Count)

	s.Selection.Toggle("rm-sys", true)
	doc, err = s.Export()
	require.NoError(t, err)
	var out []roadmap.Roadmap
	require.NoError(t, json.Unmarshal(doc.Body, &out))
	assert.Equal(t, []string{"rm-sys"}, roadmaptest.IDs(out))

	imported, err := f.store.Import(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm-sys"}, imported.Added)
	assert.Len(t, f.store.Snapshot(), 3)
}
