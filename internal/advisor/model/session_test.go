package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStep(t *testing.T) {
	assert.Equal(t, StepAssessContext, ParseStep("assess_context"))
	assert.Equal(t, StepGatherContext, ParseStep("gather_context"))
	assert.Equal(t, StepProvideInitialInfo, ParseStep("provide_initial_info"))
	assert.Equal(t, StepIntelligentQnA, ParseStep("intelligent_qna"))
	assert.Equal(t, StepError, ParseStep("error"))
	assert.Equal(t, StepEnd, ParseStep("end"))

	// anything unrecognised terminates rather than misroutes
	assert.Equal(t, StepEnd, ParseStep(""))
	assert.Equal(t, StepEnd, ParseStep("bogus"))
}

func TestStepTerminal(t *testing.T) {
	assert.True(t, StepEnd.Terminal())
	assert.False(t, StepAssessContext.Terminal())
	assert.False(t, StepIntelligentQnA.Terminal())
}
