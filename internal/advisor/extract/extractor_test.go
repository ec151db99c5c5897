package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandry-ai/server/internal/advisor/model"
)

// stubProvider returns canned structured output, or fails every call.
type stubProvider struct {
	json       map[string]any
	err        error
	lastPrompt string
}

func (s *stubProvider) Call(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubProvider) CallForJSON(_ context.Context, systemPrompt, _ string) (map[string]any, error) {
	s.lastPrompt = systemPrompt
	if s.err != nil {
		return nil, s.err
	}
	return s.json, nil
}

func TestExtractPrimary(t *testing.T) {
	e := New(&stubProvider{json: map[string]any{
		"nationality":     "Brazilian",
		"visa_intent":     "Work visa",
		"timeline":        "next spring",
		"unknown_key":     "dropped",
		"duration":        42, // non-string values are ignored
		"background":      "not specified",
		"purpose_details": "None",
	}})

	got := e.Extract(context.Background(), "I'm Brazilian looking for a work visa", "No information gathered yet.", "")
	assert.Equal(t, model.Extraction{
		"nationality": "Brazilian",
		"visa_intent": "Work visa",
		"timeline":    "next spring",
	}, got)
}

func TestExtractEmptyResultIsValid(t *testing.T) {
	e := New(&stubProvider{json: map[string]any{}})
	got := e.Extract(context.Background(), "hello there", "", "")
	assert.Empty(t, got)
}

func TestExtractTruncatesOnRuneBoundary(t *testing.T) {
	provider := &stubProvider{json: map[string]any{}}
	e := New(provider)

	// three-byte runes past the length guard, byte positions off-boundary
	message := strings.Repeat("日", maxMessageLen+100)
	e.Extract(context.Background(), message, "", "")

	require.NotEmpty(t, provider.lastPrompt)
	assert.True(t, utf8.ValidString(provider.lastPrompt))
	assert.NotContains(t, provider.lastPrompt, string(utf8.RuneError))
}

func TestExtractFallbackPreviousQuestion(t *testing.T) {
	e := New(&stubProvider{err: errors.New("provider down")})

	got := e.Extract(context.Background(), "brazil", "", "What is your nationality?")
	require.Equal(t, "Brazil", got[model.KeyNationality])

	got = e.Extract(context.Background(), "toronto", "", "Where are you currently residing?")
	assert.Equal(t, "Toronto", got[model.KeyCurrentLocation])

	got = e.Extract(context.Background(), "canada", "", "Which destination country are you planning to move to?")
	assert.Equal(t, "Canada", got[model.KeyDestinationCountry])

	// visa intent keeps the user's wording verbatim
	got = e.Extract(context.Background(), "skilled worker", "", "What type of visa are you interested in?")
	assert.Equal(t, "skilled worker", got[model.KeyVisaIntent])
}

func TestExtractFallbackLexicons(t *testing.T) {
	e := New(&stubProvider{err: errors.New("provider down")})

	got := e.Extract(context.Background(), "I am French and want to study abroad", "", "")
	assert.Equal(t, "French", got[model.KeyNationality])
	assert.Equal(t, "Student visa", got[model.KeyVisaIntent])
}

func TestPreviousQuestionOverridesLexicon(t *testing.T) {
	e := New(&stubProvider{err: errors.New("provider down")})

	// "german" alone would hit the nationality lexicon, but the previous
	// question binds the whole answer first
	got := e.Extract(context.Background(), "german", "", "What is your nationality?")
	assert.Equal(t, "German", got[model.KeyNationality])
}

func TestPreviousQuestionSkipsPopulatedKey(t *testing.T) {
	e := New(&stubProvider{json: map[string]any{
		"nationality": "Brazilian",
	}})

	// the structured result wins over the raw-message override
	got := e.Extract(context.Background(), "I'm Brazilian by the way", "", "What is your nationality?")
	assert.Equal(t, "Brazilian", got[model.KeyNationality])
}
