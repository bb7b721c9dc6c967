package assignments

import (
	"time"

	"github.com/hearth-erp/hearth-erp/internal/projects"
)

// Status is the lifecycle of a subcontracted job assignment.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an assignment may move between two statuses.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Assignment binds one invoice, one team and one job type into a priced unit
// of work. Quantity is sized from the project topology once, at creation,
// and the price is persisted rather than derived on read.
type Assignment struct {
	ID           int64            `json:"id"`
	InvoiceID    int64            `json:"invoice_id"`
	TeamID       int64            `json:"team_id"`
	JobType      projects.JobType `json:"job_type"`
	Quantity     int              `json:"quantity"`
	UnitPrice    float64          `json:"unit_price"`
	Price        float64          `json:"price"`
	Status       Status           `json:"status"`
	AssignedAt   time.Time        `json:"assigned_at"`
	PlannedStart *time.Time       `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time       `json:"planned_end,omitempty"`
	ActualStart  *time.Time       `json:"actual_start,omitempty"`
	ActualEnd    *time.Time       `json:"actual_end,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
