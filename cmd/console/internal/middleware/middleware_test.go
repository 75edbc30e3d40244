package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/roadmap-console/pkg/logger"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log, err := logger.NewWithWriter(logger.Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/roadmaps/:id", func(c *gin.Context) {
		_, ok := c.Get("request_id")
		assert.True(t, ok, "request_id not set in context")
		c.Set("user", "alice")
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmaps/rm-go?q=proc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/roadmaps/missing", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-42", w.Header().Get("X-Request-ID"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "console_request", first["msg"])
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "/roadmaps/:id", first["route"])
	assert.Equal(t, "proc", first["q"])
	assert.Equal(t, "alice", first["user"])

	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, "rid-42", second["rid"])
	assert.EqualValues(t, http.StatusNotFound, second["status"])
	assert.NotContains(t, second, "q")
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("0123456789abcdef0123456789abcdef")
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(Auth(secret, quiet))
	r.GET("/who", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user"))
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	other, err := IssueToken([]byte("another-secret-another-secret-xx"), "mallory", 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+other).Code)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}).SignedString(secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+expired).Code)

	tok, err := IssueToken(secret, "alice", time.Hour)
	require.NoError(t, err)
	w := do("Bearer " + tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestAuth_DisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(nil, slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
