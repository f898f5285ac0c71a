package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldRunID     = "run_id"

	// Run fields
	FieldDuration  = "duration"
	FieldRemaining = "remaining"
	FieldShape     = "shape"
	FieldPolicy    = "policy"
	FieldParticles = "particles"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	FieldPath = "path"
)
