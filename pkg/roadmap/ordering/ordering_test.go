package ordering

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

func keys(levels []roadmap.Level) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = fmt.Sprintf("%s(%d)", l.ID, l.Order)
	}
	return out
}

func TestReorder_MoveLastToFront(t *testing.T) {
	levels := roadmaptest.Levels(3)

	got := Reorder(levels, 2, 0)

	assert.Equal(t, []string{"L3(1)", "L1(2)", "L2(3)"}, keys(got))
	assert.Equal(t, []string{"L1(1)", "L2(2)", "L3(3)"}, keys(levels), "input must not change")
}

func TestReorder_SameIndexIsIdentity(t *testing.T) {
	levels := roadmaptest.Levels(3)
	levels[1].Order = 7 // deliberately sparse

	got := Reorder(levels, 1, 1)
	assert.Equal(t, []string{"L1(1)", "L2(7)", "L3(3)"}, keys(got))
}

func TestReorder_ClampsTarget(t *testing.T) {
	levels := roadmaptest.Levels(3)

	assert.Equal(t, []string{"L2(1)", "L3(2)", "L1(3)"}, keys(Reorder(levels, 0, 99)))
	assert.Equal(t, []string{"L3(1)", "L1(2)", "L2(3)"}, keys(Reorder(levels, 2, -5)))
	assert.Equal(t, keys(levels), keys(Reorder(levels, 5, 0)), "out of range source is a no-op")
}

func TestInsertAtAndRemove(t *testing.T) {
	levels := roadmaptest.Levels(2)
	extra := roadmap.Level{ID: "X"}

	got := InsertAt(levels, extra, 1)
	assert.Equal(t, []string{"L1(1)", "X(2)", "L2(3)"}, keys(got))

	got = InsertAt(levels, extra, -1)
	assert.Equal(t, []string{"L1(1)", "L2(2)", "X(3)"}, keys(got))

	got, ok := RemoveAndRenumber(got, "L1")
	require.True(t, ok)
	assert.Equal(t, []string{"L2(1)", "X(2)"}, keys(got))

	_, ok = RemoveAndRenumber(got, "missing")
	assert.False(t, ok)
}

func TestPayloadAndApply(t *testing.T) {
	levels := Reorder(roadmaptest.Levels(3), 0, 2)
	payload := Payload(levels)
	assert.Equal(t, []OrderEntry{{ID: "L2", Order: 1}, {ID: "L3", Order: 2}, {ID: "L1", Order: 3}}, payload)

	restored := Apply(roadmaptest.Levels(3), payload)
	assert.Equal(t, keys(levels), keys(restored))

	// unknown items trail the listed ones
	partial := Apply(roadmaptest.Levels(3), []OrderEntry{{ID: "L3", Order: 1}})
	assert.Equal(t, []string{"L3(1)", "L1(2)", "L2(3)"}, keys(partial))
}

func TestIsDense(t *testing.T) {
	levels := roadmaptest.Levels(3)
	assert.True(t, IsDense(levels))
	levels[2].Order = 5
	assert.False(t, IsDense(levels))
	assert.True(t, IsDense([]roadmap.Challenge{}))
}

func TestDenseAfterAnySequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := roadmaptest.Levels(rapid.IntRange(0, 8).Draw(t, "initial"))
		next := 0
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				next++
				idx := rapid.IntRange(-1, len(items)+1).Draw(t, "index")
				items = InsertAt(items, roadmap.Level{ID: fmt.Sprintf("N%d", next)}, idx)
			case 1:
				if len(items) == 0 {
					continue
				}
				victim := items[rapid.IntRange(0, len(items)-1).Draw(t, "victim")].ID
				items, _ = RemoveAndRenumber(items, victim)
			case 2:
				if len(items) == 0 {
					continue
				}
				from := rapid.IntRange(0, len(items)-1).Draw(t, "from")
				to := rapid.IntRange(-2, len(items)+2).Draw(t, "to")
				before := len(items)
				items = Reorder(items, from, to)
				if len(items) != before {
					t.Fatalf("reorder changed length %d -> %d", before, len(items))
				}
			}
			if !IsDense(items) {
				t.Fatalf("orders not dense: %v", keys(items))
			}
		}
	})
}

func TestReorderSameIndexProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		items := roadmaptest.Levels(n)
		i := rapid.IntRange(0, n-1).Draw(t, "i")
		got := Reorder(items, i, i)
		for k := range items {
			if got[k].ID != items[k].ID || got[k].Order != items[k].Order {
				t.Fatalf("Reorder(%d,%d) changed position %d", i, i, k)
			}
		}
	})
}
