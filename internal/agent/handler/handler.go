// Package handler exposes the agent over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"

	"leadagent_backend/internal/agent"
	"leadagent_backend/internal/agent/transport"
	apphttp "leadagent_backend/internal/http"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/httpkit"
	"leadagent_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingID        = "missing id"
)

// Service is the agent surface the handler drives.
type Service interface {
	State(ctx context.Context) agent.State
	Thoughts() []agent.Thought
	Notifications() []agent.Notification
	Toggle(ctx context.Context) (bool, error)
	RunCycleNow(ctx context.Context) (agent.TickResult, error)
	UpdateConfig(ctx context.Context, patch agent.ConfigPatch) (agent.Config, error)
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	SetLeadStatus(ctx context.Context, leadID, status string) (domain.Lead, error)
	ApproveDraft(ctx context.Context, leadID string, edit agent.DraftEdit) (agent.ApprovalResult, error)
	RejectDraft(ctx context.Context, leadID string) (domain.Lead, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CloseTask(ctx context.Context, taskID string) (domain.Task, error)
	ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error)
}

// Handler handles HTTP requests for the agent and its leads.
type Handler struct {
	svc    Service
	val    *validator.Validator
	stream gin.HandlerFunc
}

// New creates the handler. stream serves the live event feed and may be nil.
func New(svc Service, val *validator.Validator, stream gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, val: val, stream: stream}
}

func (h *Handler) Name() string { return "agent" }

// RegisterRoutes mounts the agent, leads and tasks routes under /api/v1.
func (h *Handler) RegisterRoutes(rc *apphttp.RouterContext) {
	ag := rc.V1.Group("/agent")
	ag.GET("", h.GetState)
	ag.GET("/thoughts", h.ListThoughts)
	ag.GET("/notifications", h.ListNotifications)
	ag.POST("/toggle", h.Toggle)
	ag.POST("/run", h.RunCycle)
	ag.PATCH("/config", h.UpdateConfig)
	if h.stream != nil {
		ag.GET("/stream", h.stream)
	}

	leads := rc.V1.Group("/leads")
	leads.GET("", h.ListLeads)
	leads.PATCH("/:id/status", h.SetLeadStatus)
	leads.POST("/:id/draft/approve", h.ApproveDraft)
	leads.POST("/:id/draft/reject", h.RejectDraft)

	rc.V1.GET("/tasks", h.ListTasks)
	rc.V1.POST("/tasks/:id/close", h.CloseTask)
	rc.V1.GET("/actions", h.ListActions)
}

// GetState returns the agent's running flag, status, usage and config.
// GET /api/v1/agent
func (h *Handler) GetState(c *gin.Context) {
	httpkit.OK(c, h.svc.State(c.Request.Context()))
}

// GET /api/v1/agent/thoughts
func (h *Handler) ListThoughts(c *gin.Context) {
	httpkit.OK(c, h.svc.Thoughts())
}

// GET /api/v1/agent/notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	httpkit.OK(c, h.svc.Notifications())
}

// Toggle starts or stops the agent.
// POST /api/v1/agent/toggle
func (h *Handler) Toggle(c *gin.Context) {
	running, err := h.svc.Toggle(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToggleResponse{IsRunning: running, State: h.svc.State(c.Request.Context())})
}

// RunCycle runs one decision pass and reports what it did.
// POST /api/v1/agent/run
func (h *Handler) RunCycle(c *gin.Context) {
	result, err := h.svc.RunCycleNow(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateConfig applies a partial targeting edit.
// PATCH /api/v1/agent/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req transport.UpdateConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cfg, err := h.svc.UpdateConfig(c.Request.Context(), req.Patch())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, cfg)
}

// GET /api/v1/leads
func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.svc.ListLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadsResponse(leads))
}

// SetLeadStatus applies an explicit status edit by the operator.
// PATCH /api/v1/leads/:id/status
func (h *Handler) SetLeadStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.SetLeadStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ApproveDraft sends the pending reply draft, optionally edited.
// POST /api/v1/leads/:id/draft/approve
func (h *Handler) ApproveDraft(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.ApproveDraftRequest
	// Edits are optional; an empty body approves the draft as written.
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.ApproveDraft(c.Request.Context(), id, req.Edit())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToApprovalResponse(result))
}

// POST /api/v1/leads/:id/draft/reject
func (h *Handler) RejectDraft(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	lead, err := h.svc.RejectDraft(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// GET /api/v1/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.svc.ListTasks(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTasksResponse(tasks))
}

// POST /api/v1/tasks/:id/close
func (h *Handler) CloseTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	task, err := h.svc.CloseTask(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(task))
}

// ListActions returns the newest action log entries.
// GET /api/v1/actions?limit=50
func (h *Handler) ListActions(c *gin.Context) {
	var req transport.ListActionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldMessages(err))
		return
	}

	entries, err := h.svc.ListActions(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToActionsResponse(entries))
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldMessages(err))
		return false
	}
	return true
}

func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingID, nil)
		return "", false
	}
	return id, true
}
