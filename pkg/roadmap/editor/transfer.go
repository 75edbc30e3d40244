package editor

import (
	"github.com/houzhh15/roadmap-console/pkg/metrics"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/transfer"
)

// ImportResult lists the appended roadmaps and any near-duplicate hints.
type ImportResult struct {
	Added []string        `json:"added"`
	Hints []transfer.Hint `json:"hints"`
}

// Import decodes raw and appends every roadmap in it to the local
// collection. Nothing is sent to the server and ids are not deduplicated.
// A malformed document leaves the collection untouched.
func (s *Store) Import(raw []byte) (ImportResult, error) {
	incoming, err := transfer.Import(raw)
	metrics.RecordImport(err == nil)
	if err != nil {
		s.log.Warn("import rejected", "error", err)
		return ImportResult{}, err
	}

	s.mu.Lock()
	res := ImportResult{
		Added: make([]string, 0, len(incoming)),
		Hints: transfer.NearDuplicates(s.roadmaps, incoming),
	}
	next := roadmap.CloneAll(s.roadmaps)
	for _, r := range incoming {
		next = append(next, r)
		res.Added = append(res.Added, r.ID)
		s.markImportedLocked(r)
	}
	s.roadmaps = next
	s.revision++
	s.history.add(Entry{Op: "import", Kind: roadmap.KindRoadmap, At: s.now()})
	s.mu.Unlock()

	if res.Hints == nil {
		res.Hints = []transfer.Hint{}
	}
	s.log.Info("roadmaps imported", "count", len(incoming), "hints", len(res.Hints))
	return res, nil
}

// Export serialises the selected roadmaps, or all of them when selected is
// empty.
func (s *Store) Export(selected []string) (transfer.Document, error) {
	return transfer.Export(s.Snapshot(), selected, s.now())
}

// markImportedLocked marks an imported tree Unsaved. Ids that collide with
// live nodes keep their state.
func (s *Store) markImportedLocked(r roadmap.Roadmap) {
	ids := append([]string{r.ID}, roadmap.Descendants([]roadmap.Roadmap{r}, roadmap.KindRoadmap, r.ID)...)
	for _, id := range ids {
		switch s.states[id] {
		case StateUnknown, StateDeleted:
			s.states[id] = StateUnsaved
		}
	}
}
