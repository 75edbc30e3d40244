package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/roadmap-console/pkg/logger"
	"github.com/houzhh15/roadmap-console/pkg/metrics"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

const (
	DefaultHistorySize     = 50
	DefaultBulkConcurrency = 4
)

// Options tunes a Store. Zero values select defaults.
type Options struct {
	Logger          *slog.Logger
	HistorySize     int
	BulkConcurrency int
	Now             func() time.Time
}

// Store owns the loaded collection. It is safe for concurrent use; the lock
// is never held across a Backend call, and when requests overlap the last
// response to arrive wins.
type Store struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time
	bulk    int

	mu       sync.RWMutex
	roadmaps []roadmap.Roadmap
	states   map[string]EntityState
	revision uint64
	history  *journal
}

// NewStore creates an empty store on top of backend.
func NewStore(backend Backend, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = DefaultBulkConcurrency
	}
	return &Store{
		backend:  backend,
		log:      opts.Logger.With("component", "editor"),
		now:      opts.Now,
		bulk:     opts.BulkConcurrency,
		roadmaps: []roadmap.Roadmap{},
		states:   make(map[string]EntityState),
		history:  newJournal(opts.HistorySize),
	}
}

// Load replaces the collection with the server's. On failure the current
// state is left untouched.
func (s *Store) Load(ctx context.Context) ([]roadmap.Roadmap, error) {
	list, err := s.backend.ListRoadmaps(ctx)
	if err != nil {
		s.log.Warn("load roadmaps failed", "error", err)
		return nil, err
	}
	if list == nil {
		list = []roadmap.Roadmap{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roadmaps = roadmap.CloneAll(list)
	s.states = make(map[string]EntityState)
	for _, r := range s.roadmaps {
		s.markTreeLocked(r, StateSaved)
	}
	s.revision++
	s.log.Info("roadmaps loaded", "count", len(list))
	return roadmap.CloneAll(s.roadmaps), nil
}

// LoadOne refreshes a single roadmap, appending it when it is not loaded yet.
func (s *Store) LoadOne(ctx context.Context, id string) (roadmap.Roadmap, error) {
	r, err := s.backend.GetRoadmap(ctx, id)
	if err != nil {
		return roadmap.Roadmap{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := roadmap.RoadmapIndex(s.roadmaps, id); i >= 0 {
		s.roadmaps[i] = r.Clone()
	} else {
		s.roadmaps = append(s.roadmaps, r.Clone())
	}
	s.markTreeLocked(r, StateSaved)
	s.revision++
	return r, nil
}

// Snapshot returns a deep copy of the collection.
func (s *Store) Snapshot() []roadmap.Roadmap {
	rms, _ := s.SnapshotAt()
	return rms
}

// SnapshotAt returns a deep copy of the collection with its revision. The
// revision changes whenever the collection does.
func (s *Store) SnapshotAt() ([]roadmap.Roadmap, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roadmap.CloneAll(s.roadmaps), s.revision
}

// Revision returns the current collection revision.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Roadmap returns a deep copy of one roadmap.
func (s *Store) Roadmap(id string) (roadmap.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := roadmap.RoadmapIndex(s.roadmaps, id)
	if i < 0 {
		return roadmap.Roadmap{}, roadmap.NotFound(roadmap.KindRoadmap, id)
	}
	return s.roadmaps[i].Clone(), nil
}

// Locate finds a node in the current collection.
func (s *Store) Locate(kind roadmap.Kind, id string) (roadmap.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := roadmap.Locate(s.roadmaps, kind, id)
	if !ok {
		return roadmap.Path{}, roadmap.NotFound(kind, id)
	}
	return p, nil
}

// State reports the lifecycle state of a node.
func (s *Store) State(id string) EntityState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[id]
}

// History returns the most recent committed mutations, newest first.
func (s *Store) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.list()
}

// RemoteStats asks the collaborator for its entity counts.
func (s *Store) RemoteStats(ctx context.Context) (roadmap.Stats, error) {
	return s.backend.Stats(ctx)
}

// markTreeLocked sets the state of a roadmap and all its descendants.
func (s *Store) markTreeLocked(r roadmap.Roadmap, st EntityState) {
	s.states[r.ID] = st
	for _, id := range roadmap.Descendants([]roadmap.Roadmap{r}, roadmap.KindRoadmap, r.ID) {
		s.states[id] = st
	}
}

// errNoChange aborts a command whose apply step found nothing to do.
var errNoChange = errors.New("no change")

// command is one mutation. apply runs under the lock before the network
// call; persist runs without the lock; commit or revert runs under the lock
// afterwards. Each step returns the collection to install.
type command struct {
	op   string
	kind roadmap.Kind
	id   string

	apply   func(rms []roadmap.Roadmap) ([]roadmap.Roadmap, error)
	persist func(ctx context.Context) error
	commit  func(rms []roadmap.Roadmap) []roadmap.Roadmap
	revert  func(rms []roadmap.Roadmap) []roadmap.Roadmap
}

// execute runs cmd: apply, persist, then commit or revert.
func (s *Store) execute(ctx context.Context, cmd *command) error {
	start := s.now()

	if cmd.apply != nil {
		s.mu.Lock()
		next, err := cmd.apply(s.roadmaps)
		if err == nil {
			s.roadmaps = next
			s.revision++
		}
		s.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	err := cmd.persist(ctx)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	if err != nil {
		if cmd.revert != nil {
			s.roadmaps = cmd.revert(s.roadmaps)
		}
	} else {
		if cmd.commit != nil {
			s.roadmaps = cmd.commit(s.roadmaps)
		}
		s.history.add(Entry{Op: cmd.op, Kind: cmd.kind, ID: cmd.id, At: start, DurationMs: elapsed.Milliseconds()})
	}
	s.revision++
	s.mu.Unlock()

	if err != nil {
		metrics.RecordRollback(cmd.op)
		logger.LogMutation(s.log, cmd.op, string(cmd.kind), cmd.id, elapsed.Milliseconds(), string(roadmap.KindOf(err)))
		return err
	}
	logger.LogMutation(s.log, cmd.op, string(cmd.kind), cmd.id, elapsed.Milliseconds(), "")
	return nil
}
