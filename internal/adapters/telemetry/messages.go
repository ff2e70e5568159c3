package telemetry

import (
	"time"
)

// MsgStepStart indicates a step (span) has started.
type MsgStepStart struct {
	SpanID    string
	ParentID  string // empty for top-level steps
	Name      string
	StartTime time.Time
}

// MsgStepComplete indicates a step (span) has finished.
type MsgStepComplete struct {
	SpanID    string
	EndTime   time.Time
	Err       error
	Inherited bool
}

// MsgStepLog carries a chunk of output for a specific step.
type MsgStepLog struct {
	SpanID string
	Data   []byte
}

// MsgInitSteps resets the step list in the UI to a new plan.
type MsgInitSteps struct {
	Steps        []string
	Dependencies map[string][]string
	Targets      []string
}
