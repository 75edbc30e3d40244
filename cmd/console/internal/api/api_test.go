package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/cmd/console/internal/middleware"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/mockapi"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router  *gin.Engine
	svc     *mockapi.Service
	session *editor.Session
	handler *Handler
}

func newTestServer(t *testing.T, secret []byte) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := mockapi.NewService("")
	require.NoError(t, err)
	svc.Seed(roadmaptest.Sample())
	backend := httptest.NewServer(mockapi.NewRouter(mockapi.NewHandler(svc)))
	t.Cleanup(backend.Close)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := editor.NewStore(client.New(backend.URL+"/api", "", 5*time.Second), editor.Options{Logger: quiet})
	_, err = store.Load(context.Background())
	require.NoError(t, err)

	session := editor.NewSession(store)
	h := NewHandler(session, quiet, 5*time.Second)
	return &testServer{router: NewRouter(h, secret), svc: svc, session: session, handler: h}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && path != "/api/v1/export" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodGet, "/api/v1/roadmaps", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "roadmap_console_http_requests_total")
}

func TestAuthProtectsAPI(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	s := newTestServer(t, secret)

	w, env := s.do(t, http.MethodGet, "/api/v1/roadmaps", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	tok, err := middleware.IssueToken(secret, "alice", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	w, _ = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListFiltersAndHighlights(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/roadmaps?q=process", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing editor.Listing
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Cards, 1)
	assert.Equal(t, "rm-sys", listing.Cards[0].Roadmap.ID)
	assert.NotEmpty(t, listing.Cards[0].Hits)

	_, env = s.do(t, http.MethodGet, "/api/v1/roadmaps?status=published", nil)
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Cards, 1)
	assert.Equal(t, "rm-go", listing.Cards[0].Roadmap.ID)
}

func TestGetRoadmap(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/roadmaps/rm-go?q=quiz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Hits []struct {
			Path struct {
				ChallengeID string `json:"challengeId"`
			} `json:"path"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Hits, 1)
	assert.Equal(t, "ch-1", data.Hits[0].Path.ChallengeID)

	w, env = s.do(t, http.MethodGet, "/api/v1/roadmaps/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateAndEdit(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodPost, "/api/v1/roadmaps", map[string]any{"title": "Rust"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "draft", created.Status)

	w, env = s.do(t, http.MethodPost, "/api/v1/roadmaps/"+created.ID+"/levels", map[string]any{"title": "Ownership"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		RoadmapID string `json:"roadmapId"`
		LevelID   string `json:"levelId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, created.ID, p.RoadmapID)
	assert.NotEmpty(t, p.LevelID)

	w, env = s.do(t, http.MethodPost, "/api/v1/levels/"+p.LevelID+"/milestones", map[string]any{"title": "Borrowing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/entities/level/"+p.LevelID, map[string]any{"title": "Ownership & Borrowing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	r, err := s.session.Store.Roadmap(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ownership & Borrowing", r.Levels[0].Title)

	w, env = s.do(t, http.MethodPatch, "/api/v1/entities/widget/x", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestBackendFailureMapsToBadGateway(t *testing.T) {
	s := newTestServer(t, nil)
	s.svc.FailNext(1, http.StatusServiceUnavailable)

	w, env := s.do(t, http.MethodPatch, "/api/v1/entities/roadmap/rm-go", map[string]any{"title": "Go!"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "FETCH_FAILED", env.Error.Code)

	r, err := s.session.Store.Roadmap("rm-go")
	require.NoError(t, err)
	assert.Equal(t, "Go Fundamentals", r.Title)
}

func TestDeleteAndMove(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(t, http.MethodPost, "/api/v1/move", map[string]any{"kind": "level", "parentId": "rm-go", "from": 2, "to": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	r, err := s.session.Store.Roadmap("rm-go")
	require.NoError(t, err)
	assert.Equal(t, "lv-3", r.Levels[0].ID)

	w, _ = s.do(t, http.MethodPost, "/api/v1/move", map[string]any{"kind": "level", "parentId": "rm-go"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodDelete, "/api/v1/entities/milestone/ms-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var del struct {
		Removed []string `json:"removedDescendants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &del))
	assert.Equal(t, []string{"ch-1", "ch-2"}, del.Removed)
}

func TestSelectionAndBulk(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodPost, "/api/v1/selection/all", map[string]any{"checked": true})
	require.Equal(t, http.StatusOK, w.Code)
	var sel struct {
		Selected  []string `json:"selected"`
		SelectAll string   `json:"selectAll"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Equal(t, []string{"rm-go", "rm-sys"}, sel.Selected)
	assert.Equal(t, "all", sel.SelectAll)

	w, env = s.do(t, http.MethodPost, "/api/v1/bulk", map[string]any{"action": "delete"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/bulk", map[string]any{"action": "archive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum editor.BulkSummary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 0, sum.Failure)

	w, _ = s.do(t, http.MethodPost, "/api/v1/selection/toggle", map[string]any{"id": "rm-go", "checked": false})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/bulk", map[string]any{"action": "delete", "confirmed": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.session.Store.Snapshot(), 1)

	w, env = s.do(t, http.MethodDelete, "/api/v1/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Empty(t, sel.Selected)

	w, env = s.do(t, http.MethodPost, "/api/v1/bulk", map[string]any{"action": "explode"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestExportAndImport(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(t, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="roadmaps-all-`)
	assert.Equal(t, "2", w.Header().Get("X-Export-Count"))

	doc := `[{"id":"rm-new","title":"Go Fundamentals!"}]`
	w, env := s.do(t, http.MethodPost, "/api/v1/import", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Hints []struct {
			IncomingID string `json:"incomingId"`
			ExistingID string `json:"existingId"`
		} `json:"hints"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Hints, 1)
	assert.Equal(t, "rm-go", res.Hints[0].ExistingID)
	assert.Len(t, s.session.Store.Snapshot(), 3)
	assert.Equal(t, editor.StateUnsaved, s.session.Store.State("rm-new"))

	w, env = s.do(t, http.MethodPost, "/api/v1/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IMPORT_FORMAT_ERROR", env.Error.Code)
}

func TestStatsAndHistory(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Local  struct{ Challenges int } `json:"local"`
		Remote *struct{ Roadmaps int }  `json:"remote"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.Local.Challenges)
	require.NotNil(t, stats.Remote)
	assert.Equal(t, 2, stats.Remote.Roadmaps)

	s.svc.FailNext(1, http.StatusInternalServerError)
	w, env = s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "remoteError")

	s.do(t, http.MethodPatch, "/api/v1/entities/roadmap/rm-go", map[string]any{"icon": "gopher"})
	w, env = s.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist []editor.Entry
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	require.NotEmpty(t, hist)
	assert.Equal(t, "update roadmap", hist[0].Op)
	assert.Equal(t, "rm-go", hist[0].ID)
}

func TestViewNavigation(t *testing.T) {
	s := newTestServer(t, nil)
	s.handler.ViewStateFile = filepath.Join(t.TempDir(), "view.json")

	w, env := s.do(t, http.MethodGet, "/api/v1/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v viewResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Len(t, v.Rows, 2)

	w, env = s.do(t, http.MethodPost, "/api/v1/view/key", map[string]any{"key": "down"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "rm-sys", v.Focused)

	_, env = s.do(t, http.MethodPost, "/api/v1/view/key", map[string]any{"key": "space"})
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Len(t, v.Rows, 3, "rm-sys expanded shows lv-4")

	_, env = s.do(t, http.MethodPost, "/api/v1/view/expand", map[string]any{"all": true})
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Len(t, v.Rows, 12)

	w, _ = s.do(t, http.MethodPost, "/api/v1/view/key", map[string]any{"key": "tab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/view/panel", map[string]any{"id": "rm-go"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rm-go", s.session.View.Panel())

	restored := editor.NewSession(s.session.Store)
	require.NoError(t, restored.View.LoadState(s.handler.ViewStateFile))
	assert.Equal(t, "rm-go", restored.View.Panel())
	assert.True(t, restored.View.IsExpanded("lv-1"))

	w, _ = s.do(t, http.MethodDelete, "/api/v1/view/panel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.session.View.Panel())
}
