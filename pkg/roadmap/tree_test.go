package roadmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

func TestClone_IsDeep(t *testing.T) {
	src := roadmaptest.Sample()
	due := "2025-01-01"
	src[0].Levels[0].Milestones[0].DueDate = &due

	cp := roadmap.CloneAll(src)
	cp[0].Title = "changed"
	cp[0].Levels[0].Title = "changed"
	cp[0].Levels[0].Milestones[0].Challenges[1].Resources[0] = "changed"
	*cp[0].Levels[0].Milestones[0].DueDate = "1999-12-31"

	assert.Equal(t, "Go Fundamentals", src[0].Title)
	assert.Equal(t, "Basics", src[0].Levels[0].Title)
	assert.Equal(t, "https://go.dev/tour", src[0].Levels[0].Milestones[0].Challenges[1].Resources[0])
	assert.Equal(t, "2025-01-01", *src[0].Levels[0].Milestones[0].DueDate)
}

func TestLocate(t *testing.T) {
	rms := roadmaptest.Sample()

	p, ok := roadmap.Locate(rms, roadmap.KindChallenge, "ch-3")
	require.True(t, ok)
	assert.Equal(t, roadmap.Path{RoadmapID: "rm-go", LevelID: "lv-2", MilestoneID: "ms-2", ChallengeID: "ch-3"}, p)
	assert.Equal(t, roadmap.KindChallenge, p.Kind())
	assert.Equal(t, "ms-2", p.ParentID())

	p, ok = roadmap.Locate(rms, roadmap.KindLevel, "lv-4")
	require.True(t, ok)
	assert.Equal(t, "rm-sys", p.ParentID())

	_, ok = roadmap.Locate(rms, roadmap.KindLevel, "ms-1")
	assert.False(t, ok, "kind must match")

	p, ok = roadmap.FindAny(rms, "ms-3")
	require.True(t, ok)
	assert.Equal(t, roadmap.KindMilestone, p.Kind())
}

func TestDescendants(t *testing.T) {
	rms := roadmaptest.Sample()

	assert.Equal(t, []string{"ms-1", "ch-1", "ch-2"}, roadmap.Descendants(rms, roadmap.KindLevel, "lv-1"))
	assert.Equal(t, []string{"ch-3"}, roadmap.Descendants(rms, roadmap.KindMilestone, "ms-2"))
	assert.Empty(t, roadmap.Descendants(rms, roadmap.KindLevel, "lv-3"))
	assert.Equal(t, []string{"lv-4", "ms-3"}, roadmap.Descendants(rms, roadmap.KindRoadmap, "rm-sys"))
}

func TestCounts(t *testing.T) {
	s := roadmap.Counts(roadmaptest.Sample())
	assert.Equal(t, roadmap.Stats{Roadmaps: 2, Levels: 4, Milestones: 3, Challenges: 3}, s)
}

func TestParseKind(t *testing.T) {
	tests := map[string]roadmap.Kind{
		"roadmap":     roadmap.KindRoadmap,
		"Levels":      roadmap.KindLevel,
		" milestone ": roadmap.KindMilestone,
		"challenges":  roadmap.KindChallenge,
	}
	for in, want := range tests {
		got, ok := roadmap.ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := roadmap.ParseKind("task")
	assert.False(t, ok)

	parent, ok := roadmap.KindChallenge.Parent()
	assert.True(t, ok)
	assert.Equal(t, roadmap.KindMilestone, parent)
	_, ok = roadmap.KindRoadmap.Parent()
	assert.False(t, ok)
}

func TestPlaceholderID(t *testing.T) {
	id := roadmap.NewPlaceholderID()
	assert.True(t, roadmap.IsPlaceholderID(id))
	assert.False(t, roadmap.IsPlaceholderID("rm_123"))
	assert.NotEqual(t, id, roadmap.NewPlaceholderID())
}

func TestTitles(t *testing.T) {
	rms := roadmaptest.Sample()
	assert.Equal(t, []string{"Introduction to Systems", "Operating Systems", "Processes"}, rms[1].Titles())
}
