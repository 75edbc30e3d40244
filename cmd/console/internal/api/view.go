package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/treeview"
)

// viewResponse 树视图状态
type viewResponse struct {
	Rows    []treeview.Row `json:"rows"`
	Focused string         `json:"focused,omitempty"`
	Panel   string         `json:"panel,omitempty"`
}

func (h *Handler) view(q, status string) viewResponse {
	listing := h.session.Visible(q, status)
	rms := make([]roadmap.Roadmap, len(listing.Cards))
	for i, card := range listing.Cards {
		rms[i] = card.Roadmap
	}
	rows := h.session.View.Rows(rms)
	if rows == nil {
		rows = []treeview.Row{}
	}
	return viewResponse{Rows: rows, Focused: h.session.View.Focused(), Panel: h.session.View.Panel()}
}

func (h *Handler) persistView() {
	if h.ViewStateFile == "" {
		return
	}
	if err := h.session.View.SaveState(h.ViewStateFile); err != nil {
		h.log.Warn("failed to save view state", "file", h.ViewStateFile, "error", err)
	}
}

// HandleView GET /api/v1/view?q=&status=
func (h *Handler) HandleView(c *gin.Context) {
	ok(c, http.StatusOK, h.view(c.Query("q"), c.Query("status")))
}

type keyRequest struct {
	Key    string `json:"key" binding:"required"`
	Query  string `json:"q"`
	Status string `json:"status"`
}

// HandleKey POST /api/v1/view/key
// 键盘导航：up/down/left/right/home/end/enter/escape/space
func (h *Handler) HandleKey(c *gin.Context) {
	var req keyRequest
	if !bind(c, &req) {
		return
	}
	key, valid := treeview.ParseKey(req.Key)
	if !valid {
		h.fail(c, roadmap.ValidationError("view key", "unknown key "+req.Key))
		return
	}
	// refresh the focus list before moving
	h.session.Visible(req.Query, req.Status)
	handled := h.session.View.HandleKey(key)
	if handled {
		h.persistView()
	}
	resp := h.view(req.Query, req.Status)
	c.Header("X-Key-Handled", boolHeader(handled))
	ok(c, http.StatusOK, resp)
}

type expandRequest struct {
	ID       string `json:"id"`
	Expanded *bool  `json:"expanded"`
	All      *bool  `json:"all"`
	Query    string `json:"q"`
	Status   string `json:"status"`
}

// HandleExpand POST /api/v1/view/expand
// all=true 全部展开，all=false 全部折叠；否则按 id 切换或设置
func (h *Handler) HandleExpand(c *gin.Context) {
	var req expandRequest
	if !bind(c, &req) {
		return
	}
	switch {
	case req.All != nil && *req.All:
		h.session.View.ExpandAll(h.session.Store.Snapshot())
	case req.All != nil:
		h.session.View.CollapseAll()
	case req.ID == "":
		h.fail(c, roadmap.ValidationError("expand", "id or all is required"))
		return
	case req.Expanded != nil:
		h.session.View.SetExpanded(req.ID, *req.Expanded)
	default:
		h.session.View.Toggle(req.ID)
	}
	h.persistView()
	ok(c, http.StatusOK, h.view(req.Query, req.Status))
}

type panelRequest struct {
	ID string `json:"id" binding:"required"`
}

// HandleOpenPanel POST /api/v1/view/panel
func (h *Handler) HandleOpenPanel(c *gin.Context) {
	var req panelRequest
	if !bind(c, &req) {
		return
	}
	if _, err := h.session.Store.Roadmap(req.ID); err != nil {
		h.fail(c, err)
		return
	}
	h.session.View.Open(req.ID)
	h.persistView()
	ok(c, http.StatusOK, gin.H{"panel": req.ID})
}

// HandleClosePanel DELETE /api/v1/view/panel
func (h *Handler) HandleClosePanel(c *gin.Context) {
	h.session.View.Close()
	h.persistView()
	ok(c, http.StatusOK, gin.H{"panel": ""})
}

func boolHeader(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
