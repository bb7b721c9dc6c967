package assignments

import (
	"time"

	"github.com/hearth-erp/hearth-erp/internal/projects"
)

// CreateAssignmentRequest prices a unit of subcontracted work.
type CreateAssignmentRequest struct {
	InvoiceID    int64            `json:"invoice_id" validate:"required,gt=0"`
	TeamID       int64            `json:"team_id" validate:"required,gt=0"`
	JobType      projects.JobType `json:"job_type" validate:"required,oneof=riser boiler_install internal_install full_install"`
	UnitPrice    float64          `json:"unit_price" validate:"required,gt=0"`
	PlannedStart *time.Time       `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time       `json:"planned_end,omitempty"`
}

// UpdateStatusRequest moves an assignment through its lifecycle.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=assigned in_progress completed cancelled"`
}

// ListAssignmentsRequest filters the assignment listing.
type ListAssignmentsRequest struct {
	TeamID    *int64 `json:"team_id,omitempty"`
	InvoiceID *int64 `json:"invoice_id,omitempty"`
}
