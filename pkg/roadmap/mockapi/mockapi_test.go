package mockapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSeeded(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("")
	require.NoError(t, err)
	s.Seed(roadmaptest.Sample())
	return s
}

func TestService_CreateAssignsIDsAndOrder(t *testing.T) {
	s := newSeeded(t)

	l, err := s.SaveLevel("rm-go", roadmap.Level{ID: roadmap.NewPlaceholderID(), Title: "Testing"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(l.ID, "lv_"))
	assert.Equal(t, 4, l.Order)

	m, err := s.SaveMilestone("rm-go", l.ID, roadmap.Milestone{Title: "Table tests", Description: "d"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.ID, "ms_"))
	assert.Equal(t, 1, m.Order)

	ch, err := s.SaveChallenge("rm-go", l.ID, m.ID, roadmap.Challenge{Title: "Write one", Description: "d"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ch.ID, "ch_"))
	assert.Equal(t, roadmap.ChallengeQuiz, ch.Type)

	assert.Equal(t, roadmap.Stats{Roadmaps: 2, Levels: 5, Milestones: 4, Challenges: 4}, s.Stats())
}

func TestService_UpdateKeepsChildren(t *testing.T) {
	s := newSeeded(t)

	l, err := s.SaveLevel("rm-go", roadmap.Level{ID: "lv-1", Title: "Basics v2"})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Order)
	require.Len(t, l.Milestones, 1)
	assert.Equal(t, "ms-1", l.Milestones[0].ID)
}

func TestService_ValidationAndNotFound(t *testing.T) {
	s := newSeeded(t)

	_, err := s.SaveMilestone("rm-go", "lv-1", roadmap.Milestone{Title: "no description"})
	assert.True(t, roadmap.IsKind(err, roadmap.KindValidation))

	_, err = s.SaveLevel("missing", roadmap.Level{Title: "x"})
	assert.True(t, roadmap.IsKind(err, roadmap.KindNotFound))

	assert.True(t, roadmap.IsKind(s.DeleteChallenge("rm-go", "lv-1", "ms-1", "nope"), roadmap.KindNotFound))
}

func TestService_DeleteRenumbers(t *testing.T) {
	s := newSeeded(t)

	require.NoError(t, s.DeleteLevel("rm-go", "lv-1"))
	r, err := s.Get("rm-go")
	require.NoError(t, err)
	require.Len(t, r.Levels, 2)
	assert.True(t, ordering.IsDense(r.Levels))
	assert.Equal(t, "lv-2", r.Levels[0].ID)
}

func TestService_Reorder(t *testing.T) {
	s := newSeeded(t)

	err := s.Reorder(roadmap.Path{RoadmapID: "rm-go"}, []ordering.OrderEntry{{ID: "lv-3", Order: 1}, {ID: "lv-1", Order: 2}, {ID: "lv-2", Order: 3}})
	require.NoError(t, err)
	r, _ := s.Get("rm-go")
	assert.Equal(t, "lv-3", r.Levels[0].ID)
	assert.Equal(t, 1, r.Levels[0].Order)

	err = s.Reorder(roadmap.Path{RoadmapID: "rm-go", LevelID: "lv-1", MilestoneID: "ms-1"}, []ordering.OrderEntry{{ID: "ch-2", Order: 1}, {ID: "ch-1", Order: 2}})
	require.NoError(t, err)
	r, _ = s.Get("rm-go")
	assert.Equal(t, "ch-2", r.Levels[1].Milestones[0].Challenges[0].ID)
}

func TestService_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "roadmaps.json")
	s, err := NewService(path)
	require.NoError(t, err)

	_, err = s.SaveRoadmap(roadmap.Roadmap{Title: "Persisted"})
	require.NoError(t, err)

	reloaded, err := NewService(path)
	require.NoError(t, err)
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Persisted", list[0].Title)
	assert.Equal(t, roadmap.StatusDraft, list[0].Status)
}

func TestHandler_EnvelopeAndFaults(t *testing.T) {
	s := newSeeded(t)
	router := NewRouter(NewHandler(s))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/roadmaps/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool          `json:"success"`
		Data    roadmap.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Data.Roadmaps)

	s.FailNext(1, http.StatusServiceUnavailable)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/roadmaps", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/roadmaps/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{"GET /api/roadmaps/stats", "GET /api/roadmaps", "GET /api/roadmaps/nope"}, s.Calls())
}

func TestHandler_BareReorder(t *testing.T) {
	s := newSeeded(t)
	h := NewHandler(s)
	h.Bare = true
	router := NewRouter(h)

	body := `{"order":[{"id":"ms-1","order":1}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/roadmaps/rm-go/levels/lv-1/milestones/reorder", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/roadmaps/rm-sys", nil))
	var r roadmap.Roadmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, "Introduction to Systems", r.Title)
}
