package teams

import "time"

// CreateTeamRequest registers a subcontractor team.
type CreateTeamRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,max=200"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// RecordPaymentRequest appends a payment to a team, optionally scoped to one
// of its assignments.
type RecordPaymentRequest struct {
	AssignmentID    *int64     `json:"assignment_id,omitempty" validate:"omitempty,gt=0"`
	Amount          float64    `json:"amount" validate:"required,gt=0"`
	Method          string     `json:"method" validate:"required,max=40"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ReferenceNumber *string    `json:"reference_number,omitempty" validate:"omitempty,max=60"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}
