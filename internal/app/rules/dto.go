package rules

import (
	"time"

	"gamesage/internal/domain/inference"

	"github.com/goccy/go-json"
)

// RuleInput is the admin payload for create and update. The conditions and
// actions documents may be JSON arrays or JSON strings holding one.
type RuleInput struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=2000"`
	Category       string          `json:"category" validate:"max=64"`
	Priority       int             `json:"priority" validate:"required,min=1,max=100"`
	IsActive       *bool           `json:"is_active"`
	ConditionsJSON json.RawMessage `json:"conditions_json" validate:"required"`
	ActionsJSON    json.RawMessage `json:"actions_json" validate:"required"`
}

type RuleView struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Priority    int                      `json:"priority"`
	Specificity int                      `json:"specificity"`
	IsActive    bool                     `json:"is_active"`
	Conditions  []inference.ConditionDoc `json:"conditions"`
	Actions     []inference.ActionDoc    `json:"actions"`
	TimesFired  int64                    `json:"times_fired"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

type ListRequest struct {
	Category string `json:"category" validate:"max=64"`
	Active   *bool  `json:"active"`
	Page     int    `json:"page" validate:"gte=0,lte=1000000"`
	PageSize int    `json:"page_size" validate:"gte=0,lte=100"`
}

type ListResponse struct {
	Items      []RuleView `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func toView(r inference.Rule) RuleView {
	return RuleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
		Specificity: r.Specificity,
		IsActive:    r.Active,
		Conditions:  inference.ConditionDocs(r.Conditions),
		Actions:     inference.ActionDocs(r.Actions),
		TimesFired:  r.TimesFired,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
