package handlers

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/web"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Page is the data of the dashboard template.
type Page struct {
	Title        string
	Site         string
	SidebarTitle template.HTML
	Form         dashboard.Form
	Choices      dashboard.Choices
	View         *dashboard.View
	// Message replaces the chart with the help text and an error.
	Message template.HTML
	Hint    string
}

// SelectionRequest is the body of a lasso selection.
type SelectionRequest struct {
	Indices []int `json:"indices"`
}

// SelectionResponse is the selection table plus its download link.
type SelectionResponse struct {
	*dashboard.SelectionView
	Download string `json:"download"`
}

// DashboardHandler serves the HTML dashboard.
type DashboardHandler struct {
	svc     dashboard.Service
	logger  logging.Logger
	sidebar template.HTML
	prompt  template.HTML
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc dashboard.Service, logger logging.Logger) (*DashboardHandler, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sidebar, err := dashboard.RenderMarkdown(dashboard.SidebarTitle)
	if err != nil {
		return nil, err
	}
	prompt, err := dashboard.RenderMarkdown(dashboard.MessageMarkdown(errors.Validation(dashboard.UploadPrompt)))
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{svc: svc, logger: logger, sidebar: sidebar, prompt: prompt}, nil
}

// RegisterRoutes registers the page routes. The run middleware applies to
// POST /run only.
func (h *DashboardHandler) RegisterRoutes(r gin.IRouter, run ...gin.HandlerFunc) {
	r.GET("/", h.Index)
	r.POST("/run", append(run, h.Run)...)
	r.GET("/results/:id", h.Result)
	r.POST("/results/:id/selection", h.Selection)
	r.GET("/results/:id/download/:kind", h.Download)
	r.GET("/results/:id/image/:row", h.Image)
}

func (h *DashboardHandler) page(view *dashboard.View) Page {
	p := Page{
		Title:        dashboard.Title,
		Site:         dashboard.Site,
		SidebarTitle: h.sidebar,
		Form:         h.svc.Defaults(),
		Choices:      dashboard.AvailableChoices(),
		View:         view,
		Hint:         dashboard.SelectionHint,
	}
	if view != nil {
		p.Form = view.Form
		p.Message = view.Message
	}
	if !view.OK() && p.Message == "" {
		p.Message = h.prompt
	}
	return p
}

// Index handles GET / with the default sidebar and the upload prompt.
func (h *DashboardHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageTemplate, h.page(nil))
}

// Run handles POST /run. Rejected input renders the page with the help
// text and the message.
func (h *DashboardHandler) Run(c *gin.Context) {
	in, err := readRunInput(c, h.svc.Defaults())
	if err != nil {
		h.renderError(c, &dashboard.View{Form: in.Form, FileName: in.FileName}, err)
		return
	}
	view, err := h.svc.Run(c.Request.Context(), in)
	if err != nil {
		if view == nil {
			logging.FromContext(c.Request.Context(), h.logger).Error("dashboard run failed", logging.Err(err))
			view = &dashboard.View{Form: in.Form, FileName: in.FileName}
		}
		h.renderError(c, view, err)
		return
	}
	c.HTML(http.StatusOK, web.PageTemplate, h.page(view))
}

// renderError shows err in the main panel. Input errors keep status 200 so
// the browser shows the form as submitted.
func (h *DashboardHandler) renderError(c *gin.Context, view *dashboard.View, err error) {
	status, body := errorBody(c, err)
	if view.Message == "" {
		shown := err
		if status >= http.StatusInternalServerError {
			shown = errors.New(errors.GetCode(err), body.Message)
		}
		msg, rerr := dashboard.RenderMarkdown(dashboard.MessageMarkdown(shown))
		if rerr != nil {
			writeAppError(c, rerr)
			return
		}
		view.Message = msg
	}
	if errors.IsClientError(errors.GetCode(err)) {
		status = http.StatusOK
	}
	c.HTML(status, web.PageTemplate, h.page(view))
}

// Result handles GET /results/:id.
func (h *DashboardHandler) Result(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, body := errorBody(c, err)
		msg, _ := dashboard.RenderMarkdown(dashboard.MessageMarkdown(errors.New(errors.GetCode(err), body.Message)))
		c.HTML(status, web.PageTemplate, h.page(&dashboard.View{Form: h.svc.Defaults(), Message: msg}))
		return
	}
	c.HTML(http.StatusOK, web.PageTemplate, h.page(view))
}

// Selection handles POST /results/:id/selection.
func (h *DashboardHandler) Selection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.InvalidParam("invalid selection body").WithDetail(err.Error()))
		return
	}
	id := c.Param("id")
	sel, err := h.svc.Selection(c.Request.Context(), id, req.Indices)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, SelectionResponse{
		SelectionView: sel,
		Download:      selectionURL(id, sel.Indices),
	})
}

func selectionURL(id string, indices []int) string {
	return "/results/" + id + "/download/" + string(result.ExportSelection) + "?index=" + formatIndices(indices)
}

// Download handles GET /results/:id/download/:kind.
func (h *DashboardHandler) Download(c *gin.Context) {
	kind, err := result.ParseExportKind(c.Param("kind"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	indices, err := parseIndices(c.QueryArray("index"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	dl, err := h.svc.Export(c.Request.Context(), c.Param("id"), kind, indices)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+dl.FileName+`"`)
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}

// Image handles GET /results/:id/image/:row.
func (h *DashboardHandler) Image(c *gin.Context) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		writeAppError(c, errors.InvalidParam("row must be a number"))
		return
	}
	img, err := h.svc.Image(c.Request.Context(), c.Param("id"), row)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, "image/png", img)
}
