package tracking

// SetStatusRequest moves the coarse lifecycle marker.
type SetStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=sold work_started in_progress gas_transition_started gas_transition_done completed"`
}

// SetStepRequest moves the current installation step.
type SetStepRequest struct {
	Step Step `json:"step" validate:"required,oneof=boiler_install internal_gas_install riser header_relocation water_relocation full_install project gas_turn_on"`
}
