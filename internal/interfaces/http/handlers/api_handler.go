package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/middleware"
)

// MethodsResponse lists the sidebar choices and their defaults.
type MethodsResponse struct {
	dashboard.Choices
	Defaults dashboard.Form `json:"defaults"`
}

// RunErrorResponse is returned for rejected input. Form carries the values
// as used, such as a clamped Top N.
type RunErrorResponse struct {
	middleware.ErrorBody
	Form *dashboard.Form `json:"form,omitempty"`
}

// APIHandler serves the JSON API.
type APIHandler struct {
	svc    dashboard.Service
	logger logging.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(svc dashboard.Service, logger logging.Logger) *APIHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &APIHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the API routes on an /api/v1 group. The run
// middleware applies to POST /clusters only.
func (h *APIHandler) RegisterRoutes(r gin.IRouter, run ...gin.HandlerFunc) {
	r.POST("/clusters", append(run, h.CreateCluster)...)
	r.GET("/clusters/:id", h.GetCluster)
	r.GET("/methods", h.Methods)
}

// CreateCluster handles POST /api/v1/clusters with the same multipart
// fields as the dashboard form.
func (h *APIHandler) CreateCluster(c *gin.Context) {
	in, err := readRunInput(c, h.svc.Defaults())
	if err != nil {
		h.writeRunError(c, nil, err)
		return
	}
	view, err := h.svc.Run(c.Request.Context(), in)
	if err != nil {
		h.writeRunError(c, view, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *APIHandler) writeRunError(c *gin.Context, view *dashboard.View, err error) {
	status, body := errorBody(c, err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), h.logger).Error("cluster run failed", logging.Err(err))
	}
	resp := RunErrorResponse{ErrorBody: body}
	if view != nil {
		resp.Form = &view.Form
	}
	c.AbortWithStatusJSON(status, resp)
}

// GetCluster handles GET /api/v1/clusters/:id.
func (h *APIHandler) GetCluster(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Methods handles GET /api/v1/methods.
func (h *APIHandler) Methods(c *gin.Context) {
	c.JSON(http.StatusOK, MethodsResponse{
		Choices:  dashboard.AvailableChoices(),
		Defaults: h.svc.Defaults(),
	})
}
