package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/client"
)

// Handler exposes a Service over the collaborator REST surface.
type Handler struct {
	service *Service
	// Bare makes successful responses plain JSON bodies instead of the
	// {success, data} envelope.
	Bare bool
}

// NewHandler 创建 Handler 实例
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts every route on group (typically the "/api" group).
func (h *Handler) Register(group *gin.RouterGroup) {
	group.Use(h.faultInjection())

	group.GET("/roadmaps", h.HandleList)
	group.POST("/roadmaps", h.HandleSaveRoadmap)
	group.GET("/roadmaps/stats", h.HandleStats)
	group.GET("/roadmaps/:id", h.HandleGet)
	group.PATCH("/roadmaps/:id", h.HandlePatchRoadmap)
	group.DELETE("/roadmaps/:id", h.HandleDeleteRoadmap)

	group.GET("/roadmaps/:id/levels", h.HandleListLevels)
	group.POST("/roadmaps/:id/levels", h.HandleSaveLevel)
	group.POST("/roadmaps/:id/levels/reorder", h.HandleReorder)
	group.DELETE("/roadmaps/:id/levels/:lid", h.HandleDeleteLevel)

	group.GET("/roadmaps/:id/levels/:lid/milestones", h.HandleListMilestones)
	group.POST("/roadmaps/:id/levels/:lid/milestones", h.HandleSaveMilestone)
	group.POST("/roadmaps/:id/levels/:lid/milestones/reorder", h.HandleReorder)
	group.DELETE("/roadmaps/:id/levels/:lid/milestones/:mid", h.HandleDeleteMilestone)

	group.GET("/roadmaps/:id/levels/:lid/milestones/:mid/challenges", h.HandleListChallenges)
	group.POST("/roadmaps/:id/levels/:lid/milestones/:mid/challenges", h.HandleSaveChallenge)
	group.POST("/roadmaps/:id/levels/:lid/milestones/:mid/challenges/reorder", h.HandleReorder)
	group.DELETE("/roadmaps/:id/levels/:lid/milestones/:mid/challenges/:cid", h.HandleDeleteChallenge)
}

// NewRouter builds a gin engine serving the API under /api.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r.Group("/api"))
	return r
}

func (h *Handler) faultInjection() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.service.record(c.Request.Method + " " + c.Request.URL.Path)
		if status := h.service.takeFailure(); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INJECTED_FAILURE",
					"message": "injected failure",
				},
			})
			return
		}
		c.Next()
	}
}

func (h *Handler) ok(c *gin.Context, status int, data any) {
	if h.Bare {
		if data == nil {
			c.Status(status)
			return
		}
		c.JSON(status, data)
		return
	}
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(roadmap.HTTPStatus(err), gin.H{
		"success": false,
		"error": gin.H{
			"code":    string(roadmap.KindOf(err)),
			"message": err.Error(),
		},
	})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_INPUT",
				"message": "请求参数错误",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

// HandleList GET /roadmaps
func (h *Handler) HandleList(c *gin.Context) {
	h.ok(c, http.StatusOK, h.service.List())
}

// HandleGet GET /roadmaps/:id
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, r)
}

// HandleStats GET /roadmaps/stats
func (h *Handler) HandleStats(c *gin.Context) {
	h.ok(c, http.StatusOK, h.service.Stats())
}

// HandleSaveRoadmap POST /roadmaps
func (h *Handler) HandleSaveRoadmap(c *gin.Context) {
	var req roadmap.Roadmap
	if !h.bind(c, &req) {
		return
	}
	r, err := h.service.SaveRoadmap(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, r)
}

// HandlePatchRoadmap PATCH /roadmaps/:id
func (h *Handler) HandlePatchRoadmap(c *gin.Context) {
	var req client.RoadmapPatch
	if !h.bind(c, &req) {
		return
	}
	r, err := h.service.PatchRoadmap(c.Param("id"), roadmap.Patch{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Visibility:  req.Visibility,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, r)
}

// HandleDeleteRoadmap DELETE /roadmaps/:id
func (h *Handler) HandleDeleteRoadmap(c *gin.Context) {
	if err := h.service.DeleteRoadmap(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil)
}

// HandleListLevels GET /roadmaps/:id/levels
func (h *Handler) HandleListLevels(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, r.Levels)
}

// HandleSaveLevel POST /roadmaps/:id/levels
func (h *Handler) HandleSaveLevel(c *gin.Context) {
	var req roadmap.Level
	if !h.bind(c, &req) {
		return
	}
	l, err := h.service.SaveLevel(c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, l)
}

// HandleDeleteLevel DELETE /roadmaps/:id/levels/:lid
func (h *Handler) HandleDeleteLevel(c *gin.Context) {
	if err := h.service.DeleteLevel(c.Param("id"), c.Param("lid")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil)
}

// HandleListMilestones GET …/levels/:lid/milestones
func (h *Handler) HandleListMilestones(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	for _, l := range r.Levels {
		if l.ID == c.Param("lid") {
			h.ok(c, http.StatusOK, l.Milestones)
			return
		}
	}
	h.fail(c, roadmap.NotFound(roadmap.KindLevel, c.Param("lid")))
}

// HandleSaveMilestone POST …/levels/:lid/milestones
func (h *Handler) HandleSaveMilestone(c *gin.Context) {
	var req roadmap.Milestone
	if !h.bind(c, &req) {
		return
	}
	m, err := h.service.SaveMilestone(c.Param("id"), c.Param("lid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, m)
}

// HandleDeleteMilestone DELETE …/milestones/:mid
func (h *Handler) HandleDeleteMilestone(c *gin.Context) {
	if err := h.service.DeleteMilestone(c.Param("id"), c.Param("lid"), c.Param("mid")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil)
}

// HandleListChallenges GET …/milestones/:mid/challenges
func (h *Handler) HandleListChallenges(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p, ok := roadmap.Locate([]roadmap.Roadmap{r}, roadmap.KindMilestone, c.Param("mid"))
	if !ok || p.LevelID != c.Param("lid") {
		h.fail(c, roadmap.NotFound(roadmap.KindMilestone, c.Param("mid")))
		return
	}
	for _, l := range r.Levels {
		for _, m := range l.Milestones {
			if m.ID == p.MilestoneID {
				h.ok(c, http.StatusOK, m.Challenges)
				return
			}
		}
	}
}

// HandleSaveChallenge POST …/milestones/:mid/challenges
func (h *Handler) HandleSaveChallenge(c *gin.Context) {
	var req roadmap.Challenge
	if !h.bind(c, &req) {
		return
	}
	ch, err := h.service.SaveChallenge(c.Param("id"), c.Param("lid"), c.Param("mid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, ch)
}

// HandleDeleteChallenge DELETE …/challenges/:cid
func (h *Handler) HandleDeleteChallenge(c *gin.Context) {
	if err := h.service.DeleteChallenge(c.Param("id"), c.Param("lid"), c.Param("mid"), c.Param("cid")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil)
}

// HandleReorder POST …/reorder at every level. The scope is derived from the
// path parameters present.
func (h *Handler) HandleReorder(c *gin.Context) {
	var req client.ReorderRequest
	if !h.bind(c, &req) {
		return
	}
	parent := roadmap.Path{RoadmapID: c.Param("id"), LevelID: c.Param("lid"), MilestoneID: c.Param("mid")}
	if err := h.service.Reorder(parent, req.Order); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil)
}
