package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/roadmap-console/cmd/console/internal/middleware"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
)

// NewRouter 构建控制台路由
// jwtSecret 为空时 /api/v1 不鉴权
func NewRouter(h *Handler, jwtSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(jwtSecret, h.log))
	h.Register(v1)
	return r
}

// Register mounts every console route on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/load", h.HandleLoad)
	g.GET("/stats", h.HandleStats)
	g.GET("/history", h.HandleHistory)

	g.GET("/roadmaps", h.HandleList)
	g.POST("/roadmaps", h.HandleCreateRoadmap)
	g.GET("/roadmaps/:id", h.HandleGet)
	g.POST("/roadmaps/:id/levels", h.HandleCreateChild(roadmap.KindRoadmap, func() any { return &roadmap.LevelInput{} }))
	g.POST("/levels/:id/milestones", h.HandleCreateChild(roadmap.KindLevel, func() any { return &roadmap.MilestoneInput{} }))
	g.POST("/milestones/:id/challenges", h.HandleCreateChild(roadmap.KindMilestone, func() any { return &roadmap.ChallengeInput{} }))

	g.PATCH("/entities/:kind/:id", h.HandleUpdate)
	g.DELETE("/entities/:kind/:id", h.HandleDelete)
	g.POST("/move", h.HandleMove)

	g.GET("/selection", h.HandleSelection)
	g.POST("/selection/toggle", h.HandleToggle)
	g.POST("/selection/all", h.HandleSelectAll)
	g.DELETE("/selection", h.HandleClearSelection)
	g.POST("/bulk", h.HandleBulk)

	g.GET("/export", h.HandleExport)
	g.POST("/import", h.HandleImport)

	g.GET("/view", h.HandleView)
	g.POST("/view/key", h.HandleKey)
	g.POST("/view/expand", h.HandleExpand)
	g.POST("/view/panel", h.HandleOpenPanel)
	g.DELETE("/view/panel", h.HandleClosePanel)
}
