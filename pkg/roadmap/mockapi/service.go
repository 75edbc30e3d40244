// Package mockapi is an in-memory stand-in for the roadmap collaborator REST
// API, used for local development and integration tests. It optionally
// persists its state to a JSON file.
package mockapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
)

// Service 路线图存储服务
type Service struct {
	mu       sync.RWMutex
	path     string
	roadmaps []roadmap.Roadmap

	failNext   int
	failStatus int
	calls      []string
}

// NewService creates a service. When path is non-empty the collection is
// loaded from it (a missing file means empty) and written back after every
// mutation.
func NewService(path string) (*Service, error) {
	s := &Service{path: path, roadmaps: []roadmap.Roadmap{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	if err := json.Unmarshal(data, &s.roadmaps); err != nil {
		return nil, fmt.Errorf("解析数据文件失败: %w", err)
	}
	return s, nil
}

// Seed replaces the collection. Ids are kept as given.
func (s *Service) Seed(roadmaps []roadmap.Roadmap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roadmaps = roadmap.CloneAll(roadmaps)
}

// FailNext makes the next n requests fail with status.
func (s *Service) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failStatus = status
}

// takeFailure consumes one injected failure, returning its status or 0.
func (s *Service) takeFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext <= 0 {
		return 0
	}
	s.failNext--
	if s.failStatus == 0 {
		return http.StatusInternalServerError
	}
	return s.failStatus
}

func (s *Service) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns "METHOD path" for every request received, in order.
func (s *Service) Calls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.calls...)
}

// List returns a copy of the collection.
func (s *Service) List() []roadmap.Roadmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roadmap.CloneAll(s.roadmaps)
}

// Get returns one roadmap.
func (s *Service) Get(id string) (roadmap.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := roadmap.RoadmapIndex(s.roadmaps, id)
	if i < 0 {
		return roadmap.Roadmap{}, roadmap.NotFound(roadmap.KindRoadmap, id)
	}
	return s.roadmaps[i].Clone(), nil
}

// Stats counts every entity.
func (s *Service) Stats() roadmap.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roadmap.Counts(s.roadmaps)
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func needsID(id string) bool {
	return id == "" || roadmap.IsPlaceholderID(id)
}

// assignIDs gives server ids to every node without one and renumbers every
// sibling group.
func assignIDs(r *roadmap.Roadmap) {
	if needsID(r.ID) {
		r.ID = newID("rm")
	}
	if r.Levels == nil {
		r.Levels = []roadmap.Level{}
	}
	for i := range r.Levels {
		assignLevelIDs(&r.Levels[i])
	}
	ordering.Renumber(r.Levels)
}

func assignLevelIDs(l *roadmap.Level) {
	if needsID(l.ID) {
		l.ID = newID("lv")
	}
	if l.Milestones == nil {
		l.Milestones = []roadmap.Milestone{}
	}
	for i := range l.Milestones {
		assignMilestoneIDs(&l.Milestones[i])
	}
	ordering.Renumber(l.Milestones)
}

func assignMilestoneIDs(m *roadmap.Milestone) {
	if needsID(m.ID) {
		m.ID = newID("ms")
	}
	if m.Challenges == nil {
		m.Challenges = []roadmap.Challenge{}
	}
	for i := range m.Challenges {
		assignChallengeID(&m.Challenges[i])
	}
	ordering.Renumber(m.Challenges)
}

func assignChallengeID(c *roadmap.Challenge) {
	if needsID(c.ID) {
		c.ID = newID("ch")
	}
	if c.Resources == nil {
		c.Resources = []string{}
	}
}

// SaveRoadmap creates the roadmap when its id is unknown and replaces it
// otherwise.
func (s *Service) SaveRoadmap(r roadmap.Roadmap) (roadmap.Roadmap, error) {
	in := roadmap.InputOf(&r).(*roadmap.RoadmapInput)
	if err := roadmap.Validate("save_roadmap", in); err != nil {
		return roadmap.Roadmap{}, err
	}
	r.Title, r.Description, r.Icon, r.Visibility, r.Status = in.Title, in.Description, in.Icon, in.Visibility, in.Status
	assignIDs(&r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := roadmap.RoadmapIndex(s.roadmaps, r.ID); i >= 0 {
		s.roadmaps[i] = r
	} else {
		s.roadmaps = append(s.roadmaps, r)
	}
	return r.Clone(), s.persistLocked()
}

// PatchRoadmap updates title, description, icon and visibility.
func (s *Service) PatchRoadmap(id string, p roadmap.Patch) (roadmap.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := roadmap.RoadmapIndex(s.roadmaps, id)
	if i < 0 {
		return roadmap.Roadmap{}, roadmap.NotFound(roadmap.KindRoadmap, id)
	}
	p.Status = nil
	p.Normalize()
	next := s.roadmaps[i].Clone()
	p.ApplyToRoadmap(&next)
	if err := roadmap.Validate("patch_roadmap", roadmap.InputOf(&next)); err != nil {
		return roadmap.Roadmap{}, err
	}
	s.roadmaps[i] = next
	return next.Clone(), s.persistLocked()
}

// DeleteRoadmap removes a roadmap and everything it owns.
func (s *Service) DeleteRoadmap(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := roadmap.RoadmapIndex(s.roadmaps, id)
	if i < 0 {
		return roadmap.NotFound(roadmap.KindRoadmap, id)
	}
	s.roadmaps = append(s.roadmaps[:i], s.roadmaps[i+1:]...)
	return s.persistLocked()
}

func (s *Service) roadmapRef(id string) (*roadmap.Roadmap, error) {
	i := roadmap.RoadmapIndex(s.roadmaps, id)
	if i < 0 {
		return nil, roadmap.NotFound(roadmap.KindRoadmap, id)
	}
	return &s.roadmaps[i], nil
}

func (s *Service) levelRef(roadmapID, levelID string) (*roadmap.Level, error) {
	r, err := s.roadmapRef(roadmapID)
	if err != nil {
		return nil, err
	}
	i := ordering.IndexOf(r.Levels, levelID)
	if i < 0 {
		return nil, roadmap.NotFound(roadmap.KindLevel, levelID)
	}
	return &r.Levels[i], nil
}

func (s *Service) milestoneRef(roadmapID, levelID, milestoneID string) (*roadmap.Milestone, error) {
	l, err := s.levelRef(roadmapID, levelID)
	if err != nil {
		return nil, err
	}
	i := ordering.IndexOf(l.Milestones, milestoneID)
	if i < 0 {
		return nil, roadmap.NotFound(roadmap.KindMilestone, milestoneID)
	}
	return &l.Milestones[i], nil
}

// SaveLevel creates a level at the end of the roadmap, or replaces the level
// with the same id in place. Omitted milestones are kept on replace.
func (s *Service) SaveLevel(roadmapID string, l roadmap.Level) (roadmap.Level, error) {
	if err := roadmap.Validate("save_level", roadmap.InputOf(&l)); err != nil {
		return roadmap.Level{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.roadmapRef(roadmapID)
	if err != nil {
		return roadmap.Level{}, err
	}
	if i := ordering.IndexOf(r.Levels, l.ID); !needsID(l.ID) && i >= 0 {
		if l.Milestones == nil {
			l.Milestones = r.Levels[i].Milestones
		}
		assignLevelIDs(&l)
		r.Levels[i] = l
	} else {
		assignLevelIDs(&l)
		r.Levels = ordering.InsertAt(r.Levels, l, -1)
	}
	ordering.Renumber(r.Levels)
	saved := r.Levels[ordering.IndexOf(r.Levels, l.ID)].Clone()
	return saved, s.persistLocked()
}

// DeleteLevel removes a level with its milestones and challenges.
func (s *Service) DeleteLevel(roadmapID, levelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.roadmapRef(roadmapID)
	if err != nil {
		return err
	}
	levels, ok := ordering.RemoveAndRenumber(r.Levels, levelID)
	if !ok {
		return roadmap.NotFound(roadmap.KindLevel, levelID)
	}
	r.Levels = levels
	return s.persistLocked()
}

// SaveMilestone creates or replaces a milestone. Omitted challenges are kept
// on replace.
func (s *Service) SaveMilestone(roadmapID, levelID string, m roadmap.Milestone) (roadmap.Milestone, error) {
	if err := roadmap.Validate("save_milestone", roadmap.InputOf(&m)); err != nil {
		return roadmap.Milestone{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.levelRef(roadmapID, levelID)
	if err != nil {
		return roadmap.Milestone{}, err
	}
	if i := ordering.IndexOf(l.Milestones, m.ID); !needsID(m.ID) && i >= 0 {
		if m.Challenges == nil {
			m.Challenges = l.Milestones[i].Challenges
		}
		assignMilestoneIDs(&m)
		l.Milestones[i] = m
	} else {
		assignMilestoneIDs(&m)
		l.Milestones = ordering.InsertAt(l.Milestones, m, -1)
	}
	ordering.Renumber(l.Milestones)
	saved := l.Milestones[ordering.IndexOf(l.Milestones, m.ID)].Clone()
	return saved, s.persistLocked()
}

// DeleteMilestone removes a milestone with its challenges.
func (s *Service) DeleteMilestone(roadmapID, levelID, milestoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.levelRef(roadmapID, levelID)
	if err != nil {
		return err
	}
	ms, ok := ordering.RemoveAndRenumber(l.Milestones, milestoneID)
	if !ok {
		return roadmap.NotFound(roadmap.KindMilestone, milestoneID)
	}
	l.Milestones = ms
	return s.persistLocked()
}

// SaveChallenge creates or replaces a challenge.
func (s *Service) SaveChallenge(roadmapID, levelID, milestoneID string, c roadmap.Challenge) (roadmap.Challenge, error) {
	in := roadmap.InputOf(&c).(*roadmap.ChallengeInput)
	if err := roadmap.Validate("save_challenge", in); err != nil {
		return roadmap.Challenge{}, err
	}
	c.Type = in.Type
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.milestoneRef(roadmapID, levelID, milestoneID)
	if err != nil {
		return roadmap.Challenge{}, err
	}
	assignChallengeID(&c)
	if i := ordering.IndexOf(m.Challenges, c.ID); i >= 0 {
		m.Challenges[i] = c
	} else {
		m.Challenges = ordering.InsertAt(m.Challenges, c, -1)
	}
	ordering.Renumber(m.Challenges)
	saved := m.Challenges[ordering.IndexOf(m.Challenges, c.ID)].Clone()
	return saved, s.persistLocked()
}

// DeleteChallenge removes a challenge.
func (s *Service) DeleteChallenge(roadmapID, levelID, milestoneID, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.milestoneRef(roadmapID, levelID, milestoneID)
	if err != nil {
		return err
	}
	cs, ok := ordering.RemoveAndRenumber(m.Challenges, challengeID)
	if !ok {
		return roadmap.NotFound(roadmap.KindChallenge, challengeID)
	}
	m.Challenges = cs
	return s.persistLocked()
}

// Reorder applies an {id, order} mapping to the children of parent.
func (s *Service) Reorder(parent roadmap.Path, entries []ordering.OrderEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch parent.Kind() {
	case roadmap.KindRoadmap:
		r, err := s.roadmapRef(parent.RoadmapID)
		if err != nil {
			return err
		}
		r.Levels = ordering.Apply(r.Levels, entries)
	case roadmap.KindLevel:
		l, err := s.levelRef(parent.RoadmapID, parent.LevelID)
		if err != nil {
			return err
		}
		l.Milestones = ordering.Apply(l.Milestones, entries)
	case roadmap.KindMilestone:
		m, err := s.milestoneRef(parent.RoadmapID, parent.LevelID, parent.MilestoneID)
		if err != nil {
			return err
		}
		m.Challenges = ordering.Apply(m.Challenges, entries)
	default:
		return roadmap.ValidationError("reorder", "challenges have no children to reorder")
	}
	return s.persistLocked()
}

// persistLocked 保存到文件；调用方必须持有写锁
func (s *Service) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.roadmaps, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("写入数据文件失败: %w", err)
	}
	return nil
}
