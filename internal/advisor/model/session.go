package model

import (
	"github.com/cloudwego/eino/schema"
)

// Step is one phase of the fixed conversation lifecycle. The engine advances
// by exactly one step per inbound message.
type Step string

const (
	StepAssessContext      Step = "assess_context"
	StepGatherContext      Step = "gather_context"
	StepProvideInitialInfo Step = "provide_initial_info"
	StepIntelligentQnA     Step = "intelligent_qna"
	StepEnd                Step = "end"
	StepError              Step = "error"
)

// String returns the wire representation of the step.
func (s Step) String() string {
	return string(s)
}

// Terminal reports whether the step closes the conversation.
func (s Step) Terminal() bool {
	return s == StepEnd || s == StepError
}

// ParseStep normalises a caller-supplied step value. Unknown or legacy
// values map to StepEnd, which the engine answers with the canned closing
// message rather than guessing the caller's intent.
func ParseStep(v string) Step {
	switch Step(v) {
	case StepAssessContext:
		return StepAssessContext
	case StepGatherContext:
		return StepGatherContext
	case StepProvideInitialInfo:
		return StepProvideInitialInfo
	case StepIntelligentQnA:
		return StepIntelligentQnA
	case StepError:
		return StepError
	default:
		return StepEnd
	}
}

// SessionState is the caller-held conversation state. The engine is a pure
// function of (stored profile, session state, new message); nothing here is
// persisted server-side, the caller round-trips it on every call. Any
// instance can therefore serve any turn of any conversation.
type SessionState struct {
	CurrentStep    string            `json:"current_step"`
	MessageHistory []*schema.Message `json:"message_history"`
	LastQuestion   string            `json:"last_question,omitempty"`
}
