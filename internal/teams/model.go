package teams

import "time"

// Team is a subcontractor crew that takes job assignments.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payment is an append-only payment to a team, optionally tied to one
// assignment.
type Payment struct {
	ID              int64     `json:"id"`
	TeamID          int64     `json:"team_id"`
	AssignmentID    *int64    `json:"assignment_id,omitempty"`
	Amount          float64   `json:"amount"`
	Method          string    `json:"method"`
	PaidAt          time.Time `json:"paid_at"`
	ReferenceNumber string    `json:"reference_number"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// AssignmentBalance is the per-assignment ledger line. Remaining is not
// clamped here: an overpaid assignment shows a negative remainder.
type AssignmentBalance struct {
	AssignmentID int64   `json:"assignment_id"`
	JobType      string  `json:"job_type"`
	Price        float64 `json:"price"`
	Paid         float64 `json:"paid"`
	Remaining    float64 `json:"remaining"`
}

// Ledger is the aggregate balance of one team. TotalRemaining is clamped to
// zero at this level, unlike the per-assignment lines.
type Ledger struct {
	TeamID         int64               `json:"team_id"`
	TeamName       string              `json:"team_name"`
	TotalWork      float64             `json:"total_work"`
	TotalPaid      float64             `json:"total_paid"`
	TotalRemaining float64             `json:"total_remaining"`
	Assignments    []AssignmentBalance `json:"assignments"`
}

// DashboardRow is one team's line on the cross-team dashboard, with amounts
// preformatted for the operator view.
type DashboardRow struct {
	TeamID             int64   `json:"team_id"`
	TeamName           string  `json:"team_name"`
	TotalWork          float64 `json:"total_work"`
	TotalPaid          float64 `json:"total_paid"`
	TotalRemaining     float64 `json:"total_remaining"`
	FormattedWork      string  `json:"formatted_work"`
	FormattedPaid      string  `json:"formatted_paid"`
	FormattedRemaining string  `json:"formatted_remaining"`
}

// Dashboard aggregates every team's balance.
type Dashboard struct {
	Rows        []DashboardRow `json:"rows"`
	GeneratedAt time.Time      `json:"generated_at"`
}
