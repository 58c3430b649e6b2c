package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadagent_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// nestedColumns holds the JSON-encoded nested records of a lead.
type nestedColumns struct {
	missingFields []byte
	social        []byte
	draft         []byte
	scoreDetails  []byte
}

func encodeNested(lead domain.Lead) (nestedColumns, error) {
	var cols nestedColumns
	var err error

	missing := lead.MissingFields
	if missing == nil {
		missing = []string{}
	}
	if cols.missingFields, err = json.Marshal(missing); err != nil {
		return cols, fmt.Errorf("encode missing fields: %w", err)
	}
	details := lead.ScoreDetails
	if details == nil {
		details = map[string]int{}
	}
	if cols.scoreDetails, err = json.Marshal(details); err != nil {
		return cols, fmt.Errorf("encode score details: %w", err)
	}
	if lead.SocialProfile != nil {
		if cols.social, err = json.Marshal(lead.SocialProfile); err != nil {
			return cols, fmt.Errorf("encode social profile: %w", err)
		}
	}
	if lead.DraftResponse != nil {
		if cols.draft, err = json.Marshal(lead.DraftResponse); err != nil {
			return cols, fmt.Errorf("encode draft response: %w", err)
		}
	}
	return cols, nil
}

func decodeNested(cols nestedColumns, lead *domain.Lead) error {
	lead.MissingFields = []string{}
	if len(cols.missingFields) > 0 {
		if err := json.Unmarshal(cols.missingFields, &lead.MissingFields); err != nil {
			return fmt.Errorf("decode missing fields: %w", err)
		}
	}
	if len(cols.scoreDetails) > 0 {
		if err := json.Unmarshal(cols.scoreDetails, &lead.ScoreDetails); err != nil {
			return fmt.Errorf("decode score details: %w", err)
		}
	}
	if len(cols.social) > 0 && string(cols.social) != "null" {
		var profile domain.SocialProfile
		if err := json.Unmarshal(cols.social, &profile); err != nil {
			return fmt.Errorf("decode social profile: %w", err)
		}
		lead.SocialProfile = &profile
	}
	if len(cols.draft) > 0 && string(cols.draft) != "null" {
		var draft domain.DraftResponse
		if err := json.Unmarshal(cols.draft, &draft); err != nil {
			return fmt.Errorf("decode draft response: %w", err)
		}
		lead.DraftResponse = &draft
	}
	return nil
}

// prepareCreate fills identity, defaults and timestamps for a new lead.
func prepareCreate(lead domain.Lead, now time.Time) domain.Lead {
	if strings.TrimSpace(lead.ID) == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = domain.StatusActive
	}
	lead.Score = domain.ClampScore(lead.Score)
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	return lead
}

func prepareTask(task domain.Task, now time.Time) domain.Task {
	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskOpen
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	return task
}
