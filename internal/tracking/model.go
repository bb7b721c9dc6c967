package tracking

import "time"

// Status is the coarse lifecycle marker of a tracked installation. It is
// independent of the current step: operators move both by hand.
type Status string

const (
	StatusSold                 Status = "sold"
	StatusWorkStarted          Status = "work_started"
	StatusInProgress           Status = "in_progress"
	StatusGasTransitionStarted Status = "gas_transition_started"
	StatusGasTransitionDone    Status = "gas_transition_done"
	StatusCompleted            Status = "completed"
)

// Step is one stage of the installation sequence.
type Step string

const (
	StepBoilerInstall      Step = "boiler_install"
	StepInternalGasInstall Step = "internal_gas_install"
	StepRiser              Step = "riser"
	StepHeaderRelocation   Step = "header_relocation"
	StepWaterRelocation    Step = "water_relocation"
	StepFullInstall        Step = "full_install"
	StepProject            Step = "project"
	StepGasTurnOn          Step = "gas_turn_on"
)

// Steps lists the vocabulary in work order. Position in this slice defines
// forward and backward movement.
var Steps = []Step{
	StepBoilerInstall,
	StepInternalGasInstall,
	StepRiser,
	StepHeaderRelocation,
	StepWaterRelocation,
	StepFullInstall,
	StepProject,
	StepGasTurnOn,
}

// StepIndex returns the step's position in the sequence, or -1 for an
// unknown step.
func StepIndex(s Step) int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Field names the record attribute a transition touched.
type Field string

const (
	FieldStatus Field = "status"
	FieldStep   Field = "step"
)

// Record is the tracking state of one invoice. There is at most one per
// invoice and it is never deleted. CurrentStep and Status are projections
// of the latest transition for each field.
type Record struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoice_id"`
	Status      Status    `json:"status"`
	CurrentStep *Step     `json:"current_step,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transition is one entry in the append-only change log of a record.
type Transition struct {
	ID        int64     `json:"id"`
	RecordID  int64     `json:"record_id"`
	Field     Field     `json:"field"`
	FromValue *string   `json:"from_value,omitempty"`
	ToValue   string    `json:"to_value"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail pairs a record with its full transition history.
type Detail struct {
	Record
	Transitions []Transition `json:"transitions"`
}
