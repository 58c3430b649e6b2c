// Package transport holds the request and response shapes of the agent API.
package transport

import (
	"time"

	"leadagent_backend/internal/agent"
	"leadagent_backend/internal/email"
	"leadagent_backend/internal/leads/domain"
)

// UpdateConfigRequest is a partial targeting edit. Omitted fields are unchanged;
// an empty district or sector means "pick at random".
type UpdateConfigRequest struct {
	District  *string `json:"district" validate:"omitempty,max=100"`
	Sector    *string `json:"sector" validate:"omitempty,max=100"`
	FocusMode *string `json:"focusMode" validate:"omitempty,oneof=balanced discovery outreach"`
}

// Patch converts the request into the agent's patch type.
func (r UpdateConfigRequest) Patch() agent.ConfigPatch {
	patch := agent.ConfigPatch{District: r.District, Sector: r.Sector}
	if r.FocusMode != nil {
		mode := agent.FocusMode(*r.FocusMode)
		patch.FocusMode = &mode
	}
	return patch
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
}

// ApproveDraftRequest carries optional operator edits to the draft.
type ApproveDraftRequest struct {
	Subject *string `json:"subject" validate:"omitempty,max=200"`
	Body    *string `json:"body" validate:"omitempty,max=10000"`
}

func (r ApproveDraftRequest) Edit() agent.DraftEdit {
	return agent.DraftEdit{Subject: r.Subject, Body: r.Body}
}

type ListActionsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

type ToggleResponse struct {
	IsRunning bool        `json:"isRunning"`
	State     agent.State `json:"state"`
}

type LeadResponse struct {
	ID              string                `json:"id"`
	CompanyName     string                `json:"companyName"`
	Sector          string                `json:"sector"`
	District        string                `json:"district"`
	Address         string                `json:"address,omitempty"`
	Phone           string                `json:"phone,omitempty"`
	Email           string                `json:"email,omitempty"`
	Website         string                `json:"website,omitempty"`
	Status          string                `json:"status"`
	Score           int                   `json:"score"`
	MissingFields   []string              `json:"missingFields"`
	LastContactDate string                `json:"lastContactDate,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	SocialProfile   *domain.SocialProfile `json:"socialProfile,omitempty"`
	DraftResponse   *domain.DraftResponse `json:"draftResponse,omitempty"`
	ScoreDetails    map[string]int        `json:"scoreDetails,omitempty"`
	Source          string                `json:"source,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:            l.ID,
		CompanyName:   l.CompanyName,
		Sector:        l.Sector,
		District:      l.District,
		Address:       l.Address,
		Phone:         l.Phone,
		Email:         l.Email,
		Website:       l.Website,
		Status:        string(l.Status),
		Score:         l.Score,
		MissingFields: l.MissingFields,
		Notes:         l.Notes,
		SocialProfile: l.SocialProfile,
		DraftResponse: l.DraftResponse,
		ScoreDetails:  l.ScoreDetails,
		Source:        l.Source,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if resp.MissingFields == nil {
		resp.MissingFields = []string{}
	}
	if l.LastContactDate != nil {
		resp.LastContactDate = l.LastContactDate.Format(domain.DateLayout)
	}
	return resp
}

type LeadsResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

func ToLeadsResponse(leads []domain.Lead) LeadsResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, ToLeadResponse(l))
	}
	return LeadsResponse{Items: items, Total: len(items)}
}

type TaskResponse struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"leadId"`
	CompanyName string    `json:"companyName"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		LeadID:      t.LeadID,
		CompanyName: t.CompanyName,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}

type TasksResponse struct {
	Items []TaskResponse `json:"items"`
}

func ToTasksResponse(tasks []domain.Task) TasksResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, ToTaskResponse(t))
	}
	return TasksResponse{Items: items}
}

type ActionResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActionsResponse struct {
	Items []ActionResponse `json:"items"`
}

func ToActionsResponse(entries []domain.ActionLogEntry) ActionsResponse {
	items := make([]ActionResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, ActionResponse{
			ID:        e.ID,
			Action:    e.Action,
			Detail:    e.Detail,
			Severity:  string(e.Severity),
			CreatedAt: e.CreatedAt,
		})
	}
	return ActionsResponse{Items: items}
}

type ApprovalResponse struct {
	Lead    LeadResponse  `json:"lead"`
	Task    *TaskResponse `json:"task,omitempty"`
	Receipt email.Receipt `json:"receipt"`
}

func ToApprovalResponse(r agent.ApprovalResult) ApprovalResponse {
	resp := ApprovalResponse{Lead: ToLeadResponse(r.Lead), Receipt: r.Receipt}
	if r.Task != nil {
		task := ToTaskResponse(*r.Task)
		resp.Task = &task
	}
	return resp
}
