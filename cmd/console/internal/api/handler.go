package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/roadmap-console/cmd/console/internal/metrics"
	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/search"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/selection"
)

// maxImportSize caps the uploaded import document.
const maxImportSize = 10 << 20

// Handler 控制台 API 处理器
type Handler struct {
	session *editor.Session
	log     *slog.Logger
	timeout time.Duration
	// ViewStateFile, when set, receives the tree view state after every
	// view change.
	ViewStateFile string
}

// NewHandler 创建 Handler 实例
func NewHandler(session *editor.Session, log *slog.Logger, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{session: session, log: log.With("component", "console-api"), timeout: timeout}
}

// backendContext outlives the client connection: a save that is already in
// flight completes even if the browser goes away.
func (h *Handler) backendContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := roadmap.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	body := gin.H{
		"code":    string(roadmap.KindOf(err)),
		"message": err.Error(),
	}
	var re *roadmap.Error
	if errors.As(err, &re) && re.Status != 0 {
		body["details"] = gin.H{"upstreamStatus": re.Status}
	}
	c.JSON(status, gin.H{"success": false, "error": body})
}

func bind(c *gin.Context, dst any) bool {
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

func (h *Handler) parseKind(c *gin.Context) (roadmap.Kind, bool) {
	kind, valid := roadmap.ParseKind(c.Param("kind"))
	if !valid {
		h.fail(c, roadmap.ValidationError("parse kind", fmt.Sprintf("unknown entity kind %q", c.Param("kind"))))
	}
	return kind, valid
}

// HandleLoad 从后端重新加载全部路线图
// POST /api/v1/load
func (h *Handler) HandleLoad(c *gin.Context) {
	ctx, cancel := h.backendContext(c)
	defer cancel()
	rms, err := h.session.Store.Load(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.SetCollectionSize(len(rms))
	ok(c, http.StatusOK, gin.H{"count": len(rms), "counts": roadmap.Counts(rms)})
}

// HandleList 搜索、过滤并返回可见路线图卡片
// GET /api/v1/roadmaps?q=&status=
func (h *Handler) HandleList(c *gin.Context) {
	ok(c, http.StatusOK, h.session.Visible(c.Query("q"), c.Query("status")))
}

// HandleGet 获取单个路线图，带 q 时附加命中节点
// GET /api/v1/roadmaps/:id?q=
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.session.Store.Roadmap(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{"roadmap": r}
	if q := c.Query("q"); q != "" {
		data["hits"] = search.Hits(r, q)
	}
	ok(c, http.StatusOK, data)
}

// HandleCreateRoadmap POST /api/v1/roadmaps
func (h *Handler) HandleCreateRoadmap(c *gin.Context) {
	var in roadmap.RoadmapInput
	if !bind(c, &in) {
		return
	}
	ctx, cancel := h.backendContext(c)
	defer cancel()
	r, err := h.session.Store.CreateRoadmap(ctx, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// HandleCreateChild returns a handler creating children of parentKind. The
// request body is decoded into a fresh value from newInput.
func (h *Handler) HandleCreateChild(parentKind roadmap.Kind, newInput func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := newInput()
		if !bind(c, in) {
			return
		}
		ctx, cancel := h.backendContext(c)
		defer cancel()
		p, err := h.session.Store.CreateChild(ctx, parentKind, c.Param("id"), in)
		if err != nil {
			h.fail(c, err)
			return
		}
		ok(c, http.StatusCreated, p)
	}
}

// HandleUpdate PATCH /api/v1/entities/:kind/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	kind, valid := h.parseKind(c)
	if !valid {
		return
	}
	var patch roadmap.Patch
	if !bind(c, &patch) {
		return
	}
	ctx, cancel := h.backendContext(c)
	defer cancel()
	if err := h.session.Store.Update(ctx, kind, c.Param("id"), patch); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.session.Store.Locate(kind, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// HandleDelete DELETE /api/v1/entities/:kind/:id
func (h *Handler) HandleDelete(c *gin.Context) {
	kind, valid := h.parseKind(c)
	if !valid {
		return
	}
	ctx, cancel := h.backendContext(c)
	defer cancel()
	removed, err := h.session.Delete(ctx, kind, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	h.persistView()
	ok(c, http.StatusOK, gin.H{"id": c.Param("id"), "removedDescendants": removed})
}

type moveRequest struct {
	Kind     string `json:"kind" binding:"required"`
	ParentID string `json:"parentId" binding:"required"`
	From     *int   `json:"from" binding:"required"`
	To       *int   `json:"to" binding:"required"`
}

// HandleMove POST /api/v1/move
func (h *Handler) HandleMove(c *gin.Context) {
	var req moveRequest
	if !bind(c, &req) {
		return
	}
	kind, valid := roadmap.ParseKind(req.Kind)
	if !valid {
		h.fail(c, roadmap.ValidationError("move", fmt.Sprintf("unknown entity kind %q", req.Kind)))
		return
	}
	ctx, cancel := h.backendContext(c)
	defer cancel()
	if err := h.session.Store.Move(ctx, kind, req.ParentID, *req.From, *req.To); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"kind": kind, "parentId": req.ParentID})
}

type toggleRequest struct {
	ID      string `json:"id" binding:"required"`
	Checked bool   `json:"checked"`
}

type selectAllRequest struct {
	Checked bool   `json:"checked"`
	Query   string `json:"q"`
	Status  string `json:"status"`
}

func (h *Handler) selectionState(q, status string) gin.H {
	listing := h.session.Visible(q, status)
	return gin.H{
		"selected":  h.session.Selection.Selected(),
		"selectAll": listing.SelectAll,
	}
}

// HandleSelection GET /api/v1/selection?q=&status=
func (h *Handler) HandleSelection(c *gin.Context) {
	ok(c, http.StatusOK, h.selectionState(c.Query("q"), c.Query("status")))
}

// HandleToggle POST /api/v1/selection/toggle
func (h *Handler) HandleToggle(c *gin.Context) {
	var req toggleRequest
	if !bind(c, &req) {
		return
	}
	h.session.Selection.Toggle(req.ID, req.Checked)
	ok(c, http.StatusOK, h.selectionState(c.Query("q"), c.Query("status")))
}

// HandleSelectAll POST /api/v1/selection/all
func (h *Handler) HandleSelectAll(c *gin.Context) {
	var req selectAllRequest
	if !bind(c, &req) {
		return
	}
	listing := h.session.Visible(req.Query, req.Status)
	ids := make([]string, len(listing.Cards))
	for i, card := range listing.Cards {
		ids[i] = card.Roadmap.ID
	}
	h.session.Selection.SelectAll(req.Checked, ids)
	ok(c, http.StatusOK, h.selectionState(req.Query, req.Status))
}

// HandleClearSelection DELETE /api/v1/selection
func (h *Handler) HandleClearSelection(c *gin.Context) {
	h.session.Selection.Clear()
	ok(c, http.StatusOK, gin.H{"selected": []string{}, "selectAll": selection.StateNone})
}

type bulkRequest struct {
	Action    string `json:"action" binding:"required"`
	Confirmed bool   `json:"confirmed"`
}

// HandleBulk POST /api/v1/bulk
func (h *Handler) HandleBulk(c *gin.Context) {
	var req bulkRequest
	if !bind(c, &req) {
		return
	}
	action, err := selection.ParseAction(req.Action)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx, cancel := h.backendContext(c)
	defer cancel()
	res, err := h.session.Bulk(ctx, action, req.Confirmed)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.persistView()
	ok(c, http.StatusOK, res.Summary())
}

// HandleExport GET /api/v1/export
// 选中为空时导出全部
func (h *Handler) HandleExport(c *gin.Context) {
	doc, err := h.session.Export()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Header("X-Export-Count", fmt.Sprint(doc.Count))
	c.Data(http.StatusOK, "application/json", doc.Body)
}

// HandleImport POST /api/v1/import
// 请求体为导出的 JSON 数组
func (h *Handler) HandleImport(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize+1))
	if err != nil {
		h.fail(c, roadmap.ImportFormatError("read upload", err))
		return
	}
	if len(raw) > maxImportSize {
		h.fail(c, roadmap.ImportFormatError("document is too large", nil))
		return
	}
	res, err := h.session.Store.Import(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.SetCollectionSize(len(h.session.Store.Snapshot()))
	ok(c, http.StatusOK, res)
}

// HandleStats GET /api/v1/stats
// 后端不可用时仍返回本地统计
func (h *Handler) HandleStats(c *gin.Context) {
	local := roadmap.Counts(h.session.Store.Snapshot())
	ctx, cancel := h.backendContext(c)
	defer cancel()
	remote, err := h.session.Store.RemoteStats(ctx)
	data := gin.H{"local": local}
	if err != nil {
		h.log.Warn("remote stats unavailable", "error", err)
		data["remoteError"] = err.Error()
	} else {
		data["remote"] = remote
	}
	ok(c, http.StatusOK, data)
}

// HandleHistory GET /api/v1/history
func (h *Handler) HandleHistory(c *gin.Context) {
	ok(c, http.StatusOK, h.session.Store.History())
}
