package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBare(t *testing.T) {
	got, err := ExtractJSON(`{"nationality": "French"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"nationality": "French"}, got)
}

func TestExtractJSONFencedWithTag(t *testing.T) {
	got, err := ExtractJSON("Here you go:\n```json\n{\"visa_intent\": \"Work visa\"}\n```\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"visa_intent": "Work visa"}, got)
}

func TestExtractJSONFencedWithoutTag(t *testing.T) {
	got, err := ExtractJSON("```\n{\"timeline\": \"3 months\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"timeline": "3 months"}, got)
}

func TestExtractJSONFencedWithBareTag(t *testing.T) {
	got, err := ExtractJSON("```\njson\n{\"duration\": \"2 years\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"duration": "2 years"}, got)
}

func TestExtractJSONInvalid(t *testing.T) {
	_, err := ExtractJSON("I could not produce JSON, sorry.")
	assert.Error(t, err)

	_, err = ExtractJSON(`["an", "array"]`)
	assert.Error(t, err)
}
