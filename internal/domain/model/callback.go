package model

import "time"

// Action names a step-machine transition carried by a callback record.
type Action string

const (
	ActionStart        Action = "start"
	ActionNextStep     Action = "next_step"
	ActionPreviousStep Action = "previous_step"
	ActionCurrentStep  Action = "current_step"
	ActionCancel       Action = "cancel"
)

// Reserved keys inside CallbackRecord.Data.
const (
	// CorrelationKey groups every record created during one run of a command.
	CorrelationKey = "correlation_key"
	// StepsBackKey holds how many steps a previous_step transition rewinds (default 1).
	StepsBackKey = "_steps_back"
	// MessageKey names the data entry a free-text reply is injected into.
	MessageKey = "_message_key"
	// CancelTextKey overrides the cancellation message for a cancel transition.
	CancelTextKey = "cancel_text"
)

// CallbackRecord is the structured state behind one opaque callback token.
// Records are immutable after creation; each interaction point produces a new one.
type CallbackRecord struct {
	Token     string         `json:"token"`
	Command   string         `json:"command"` // command string including leading slash, e.g. "/poll"
	Step      string         `json:"step"`
	Action    Action         `json:"action"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// Correlation returns the record's correlation key, or "" when absent.
func (r *CallbackRecord) Correlation() string {
	key, _ := r.Data[CorrelationKey].(string)
	return key
}
