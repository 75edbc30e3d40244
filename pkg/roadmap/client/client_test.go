package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/mockapi"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/ordering"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/roadmaptest"
)

func newServer(t *testing.T, bare bool) (*client.Client, *mockapi.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := mockapi.NewService("")
	require.NoError(t, err)
	svc.Seed(roadmaptest.Sample())
	h := mockapi.NewHandler(svc)
	h.Bare = bare
	srv := httptest.NewServer(mockapi.NewRouter(h))
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/api", "secret", 5*time.Second), svc
}

func TestClient_EnvelopeAndBareBodies(t *testing.T) {
	for _, bare := range []bool{false, true} {
		c, _ := newServer(t, bare)
		ctx := context.Background()

		list, err := c.ListRoadmaps(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"rm-go", "rm-sys"}, roadmaptest.IDs(list))

		r, err := c.GetRoadmap(ctx, "rm-sys")
		require.NoError(t, err)
		assert.Equal(t, "Introduction to Systems", r.Title)

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Roadmaps)
	}
}

func TestClient_CRUD(t *testing.T) {
	c, svc := newServer(t, false)
	ctx := context.Background()

	r, err := c.SaveRoadmap(ctx, roadmap.Roadmap{Title: "Rust", Levels: []roadmap.Level{}})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	title := "Rust 2024"
	r, err = c.PatchRoadmap(ctx, r.ID, client.RoadmapPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Rust 2024", r.Title)

	l, err := c.SaveLevel(ctx, r.ID, roadmap.Level{Title: "Ownership"})
	require.NoError(t, err)
	m, err := c.SaveMilestone(ctx, r.ID, l.ID, roadmap.Milestone{Title: "Borrowing", Description: "d"})
	require.NoError(t, err)
	ch, err := c.SaveChallenge(ctx, r.ID, l.ID, m.ID, roadmap.Challenge{Title: "Quiz", Description: "d", Type: roadmap.ChallengeQuiz})
	require.NoError(t, err)

	require.NoError(t, c.DeleteChallenge(ctx, r.ID, l.ID, m.ID, ch.ID))
	require.NoError(t, c.DeleteMilestone(ctx, r.ID, l.ID, m.ID))
	require.NoError(t, c.DeleteLevel(ctx, r.ID, l.ID))
	require.NoError(t, c.DeleteRoadmap(ctx, r.ID))

	assert.Equal(t, 2, svc.Stats().Roadmaps)
}

func TestClient_Reorder(t *testing.T) {
	c, svc := newServer(t, false)
	ctx := context.Background()

	err := c.Reorder(ctx, roadmap.Path{RoadmapID: "rm-go"}, []ordering.OrderEntry{{ID: "lv-2", Order: 1}, {ID: "lv-1", Order: 2}, {ID: "lv-3", Order: 3}})
	require.NoError(t, err)
	r, _ := svc.Get("rm-go")
	assert.Equal(t, "lv-2", r.Levels[0].ID)

	err = c.Reorder(ctx, roadmap.Path{RoadmapID: "rm-go", LevelID: "lv-1", MilestoneID: "ms-1", ChallengeID: "ch-1"}, nil)
	assert.True(t, roadmap.IsKind(err, roadmap.KindValidation))
}

func TestClient_Errors(t *testing.T) {
	c, svc := newServer(t, false)
	ctx := context.Background()

	svc.FailNext(1, http.StatusInternalServerError)
	_, err := c.ListRoadmaps(ctx)
	require.Error(t, err)
	assert.True(t, roadmap.IsKind(err, roadmap.KindFetchFailed))
	var e *roadmap.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusInternalServerError, e.Status)

	_, err = c.GetRoadmap(ctx, "missing")
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, roadmap.KindFetchFailed, e.Kind)

	unreachable := client.New("http://127.0.0.1:1/api", "", time.Second)
	_, err = unreachable.ListRoadmaps(ctx)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 0, e.Status)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer wrong", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, "wrong", 0).ListRoadmaps(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed (401)")
}

func TestClient_EnvelopeFailureWith2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"X","message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, "", 0).Stats(context.Background())
	require.Error(t, err)
	assert.True(t, roadmap.IsKind(err, roadmap.KindFetchFailed))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClient_LongErrorBodyIsCutOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("错", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, "", 0).ListRoadmaps(context.Background())
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.True(t, strings.HasSuffix(err.Error(), strings.Repeat("错", 66)+"..."))
	assert.NotContains(t, err.Error(), strings.Repeat("错", 67))
}
