package transfer

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestExport_AllWhenNothingSelected(t *testing.T) {
	doc, err := Export(roadmaptest.Sample(), nil, stamp)
	require.NoError(t, err)

	assert.Equal(t, "roadmaps-all-20240309-140507.json", doc.Filename)
	assert.Equal(t, ScopeAll, doc.Scope)
	assert.Equal(t, 2, doc.Count)
	assert.Contains(t, string(doc.Body), "\n  {\n    \"id\": \"rm-go\"", "two-space indentation")

	var back []roadmap.Roadmap
	require.NoError(t, json.Unmarshal(doc.Body, &back))
	assert.Equal(t, roadmaptest.Sample(), back)
}

func TestExport_OnlySelected(t *testing.T) {
	doc, err := Export(roadmaptest.Sample(), []string{"rm-sys"}, stamp)
	require.NoError(t, err)

	assert.Equal(t, "roadmaps-selected-20240309-140507.json", doc.Filename)
	assert.Equal(t, 1, doc.Count)

	var back []roadmap.Roadmap
	require.NoError(t, json.Unmarshal(doc.Body, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "rm-sys", back[0].ID)
}

func TestImport_RejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"object at top level", `{"a":1}`},
		{"missing id", `[{"title":"x"}]`},
		{"empty id", `[{"id":"","title":"x"}]`},
		{"missing title", `[{"id":"1"}]`},
		{"element not an object", `[1]`},
		{"broken json", `[{"id":"1",`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Import([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, roadmap.IsKind(err, roadmap.KindImportFormat), err.Error())
		})
	}
}

func TestImport_MinimalElement(t *testing.T) {
	got, err := Import([]byte(`[{"id":"1","title":"x"}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, roadmap.StatusDraft, got[0].Status)
	assert.Equal(t, roadmap.VisibilityPrivate, got[0].Visibility)
	assert.NotNil(t, got[0].Levels)
}

func TestImport_NumericIDAndDuplicates(t *testing.T) {
	got, err := Import([]byte(`[{"id":42,"title":"a"},{"id":42,"title":"a"}]`))
	require.NoError(t, err)
	require.Len(t, got, 2, "no dedup by id")
	assert.Equal(t, "42", got[0].ID)
}

func TestImport_LenientNestedData(t *testing.T) {
	raw := `[{
		"id": "r1", "title": "Lenient", "status": "published", "icon": 7,
		"levels": [
			{"id": "l1", "title": "ok", "milestones": [
				{"id": "m1", "title": "m", "description": "d", "dueDate": 5,
				 "challenges": [{"id": "c1", "title": "c", "resources": "not a list"}]}
			]},
			"garbage",
			{"id": "l2", "title": "second", "order": 9}
		]
	}]`
	got, err := Import([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, roadmap.StatusPublished, r.Status)
	assert.Empty(t, r.Icon, "malformed icon dropped")
	require.Len(t, r.Levels, 2, "non-object level dropped")
	assert.Equal(t, 2, r.Levels[1].Order, "orders follow array position")

	m := r.Levels[0].Milestones[0]
	assert.Nil(t, m.DueDate)
	require.Len(t, m.Challenges, 1)
	assert.Equal(t, "c", m.Challenges[0].Title)
	assert.Equal(t, []string{}, m.Challenges[0].Resources)
}

func TestImport_RoundTripsExport(t *testing.T) {
	doc, err := Export(roadmaptest.Sample(), nil, stamp)
	require.NoError(t, err)

	got, err := Import(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, roadmaptest.Sample(), got)
}

func TestNearDuplicates(t *testing.T) {
	existing := roadmaptest.Sample()
	incoming := []roadmap.Roadmap{
		{ID: "new-1", Title: "go fundamentals"},
		{ID: "new-2", Title: "Data Science"},
	}

	hints := NearDuplicates(existing, incoming)
	require.Len(t, hints, 1)
	assert.Equal(t, 0, hints[0].IncomingIndex)
	assert.Equal(t, "rm-go", hints[0].ExistingID)
	assert.Equal(t, 0, hints[0].Distance)
	assert.False(t, hints[0].SameID)

	assert.Empty(t, NearDuplicates(nil, incoming))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("Go Fundamentals"), Fingerprint("  GO FUNDAMENTALS "))
	assert.Equal(t, 0, Distance(42, 42))
	assert.Equal(t, 64, Distance(0, ^uint64(0)))
}
