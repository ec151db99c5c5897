package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandry-ai/server/internal/advisor/extract"
	"github.com/mandry-ai/server/internal/advisor/model"
	"github.com/mandry-ai/server/internal/advisor/rag"
	"github.com/mandry-ai/server/internal/advisor/repo"
	"github.com/mandry-ai/server/internal/llm"
	"github.com/mandry-ai/server/internal/search"
)

// downLLM fails every call, forcing the engine onto its deterministic
// fallbacks (canned questions, keyword extraction).
type downLLM struct{}

func (downLLM) Call(context.Context, string, string) (string, error) {
	return "", errors.New("provider down")
}

func (downLLM) CallForJSON(context.Context, string, string) (map[string]any, error) {
	return nil, errors.New("provider down")
}

// cannedLLM answers every call with a fixed completion.
type cannedLLM struct{ text string }

func (c cannedLLM) Call(context.Context, string, string) (string, error) {
	return c.text, nil
}

func (c cannedLLM) CallForJSON(context.Context, string, string) (map[string]any, error) {
	return nil, errors.New("no structured output")
}

// jsonLLM serves structured extraction output and fails plain-text calls.
type jsonLLM struct{ fields map[string]any }

func (j jsonLLM) Call(context.Context, string, string) (string, error) {
	return "", errors.New("text generation down")
}

func (j jsonLLM) CallForJSON(context.Context, string, string) (map[string]any, error) {
	return j.fields, nil
}

type cannedSearch struct{ sources []search.Source }

func (c cannedSearch) Search(context.Context, string, int) ([]search.Source, error) {
	return c.sources, nil
}

// brokenRepo fails every profile operation.
type brokenRepo struct{}

func (brokenRepo) Get(context.Context, string) (*model.Profile, error) {
	return nil, errors.New("storage down")
}

func (brokenRepo) GetOrCreate(context.Context, string) (*model.Profile, bool, error) {
	return nil, false, errors.New("storage down")
}

func (brokenRepo) Save(context.Context, *model.Profile) error {
	return errors.New("storage down")
}

func (brokenRepo) Clear(context.Context, string) error {
	return errors.New("storage down")
}

// saveFailingRepo loads profiles fine but loses every write.
type saveFailingRepo struct {
	*repo.MemoryProfileRepository
}

func (saveFailingRepo) Save(context.Context, *model.Profile) error {
	return errors.New("storage down")
}

func newTestEngine(profiles repo.ProfileRepository, provider llm.Provider) *Engine {
	return NewEngine(
		profiles,
		extract.New(provider),
		rag.NewAnswerBuilder(
			cannedSearch{sources: []search.Source{{Title: "Guide", URL: "https://gov.uk/check-uk-visa", Snippet: "Guidance."}}},
			provider,
			rag.Config{},
		),
		provider,
		Config{},
	)
}

func TestNewUserGreetingStartsGathering(t *testing.T) {
	e := newTestEngine(repo.NewMemoryProfileRepository(), downLLM{})

	res := e.ProcessMessage(context.Background(), "u1", "Hello", nil)

	assert.Equal(t, model.StepGatherContext, res.CurrentStep)
	assert.False(t, res.ContextSufficient)
	assert.Equal(t, "What is your nationality?", res.Response)
	assert.Equal(t, res.Response, res.LastQuestion)
	assert.Equal(t, []string{
		"nationality",
		"visa_intent",
		"current_location",
		"destination_country",
		"additional_details",
	}, res.MissingContextAreas)
	require.Len(t, res.MessageHistory, 2)
	assert.Equal(t, "Hello", res.MessageHistory[0].Content)
	assert.Equal(t, res.Response, res.MessageHistory[1].Content)
	assert.Equal(t, true, res.SessionData["created_profile"])
	assert.Equal(t, "u1", res.SessionData["profile_id"])
}

func TestGatherPicksUpBareAnswer(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository()
	e := newTestEngine(profiles, downLLM{})

	res := e.ProcessMessage(context.Background(), "u1", "Hello", nil)
	res = e.ProcessMessage(context.Background(), "u1", "french", res.Session())

	assert.Equal(t, model.StepGatherContext, res.CurrentStep)
	assert.Equal(t, "What type of visa are you interested in?", res.Response)

	stored, err := profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "French", stored.Nationality)
	assert.NotContains(t, res.MissingContextAreas, "nationality")
}

func TestGatherCompletionHandsOffToInitialInfo(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository()
	p, _, err := profiles.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	p.Nationality = "French"
	p.VisaIntent = "Work visa"
	p.CurrentLocation = "Lyon"
	p.DestinationCountry = "United Kingdom"
	require.NoError(t, profiles.Save(context.Background(), p))

	e := newTestEngine(profiles, jsonLLM{fields: map[string]any{
		"background": "business management graduate",
	}})
	session := &model.SessionState{
		CurrentStep:  model.StepGatherContext.String(),
		LastQuestion: "Could you share any additional details about your situation, such as your timeline or background?",
	}

	res := e.ProcessMessage(context.Background(), "u1", "I have a business management degree", session)

	assert.Equal(t, model.StepProvideInitialInfo, res.CurrentStep)
	assert.True(t, res.ContextSufficient)
	assert.Empty(t, res.MissingContextAreas)
	assert.Contains(t, res.Response, "French national")
	assert.Equal(t, 100, res.SessionData["context_completeness"])
}

func TestProvideInitialInfoMovesToQnA(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository()
	p, _, err := profiles.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	p.Nationality = "French"
	p.VisaIntent = "Work visa"
	p.CurrentLocation = "Lyon"
	p.DestinationCountry = "United Kingdom"
	p.ProfileContext = "timeline: 3 months"
	require.NoError(t, profiles.Save(context.Background(), p))

	e := newTestEngine(profiles, cannedLLM{text: "Here is your personalised overview [Source 1]."})
	session := &model.SessionState{CurrentStep: model.StepProvideInitialInfo.String()}

	res := e.ProcessMessage(context.Background(), "u1", "Go ahead", session)

	assert.Equal(t, model.StepIntelligentQnA, res.CurrentStep)
	assert.Equal(t, "Here is your personalised overview [Source 1].", res.Response)
	citations, ok := res.SessionData["citations"].([]search.Source)
	require.True(t, ok)
	require.Len(t, citations, 1)
	assert.Equal(t, "https://gov.uk/check-uk-visa", citations[0].URL)
}

func TestProvideInitialInfoFallbackWhenGenerationFails(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository()
	p, _, err := profiles.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	p.Nationality = "French"
	p.VisaIntent = "Work visa"
	p.CurrentLocation = "Lyon"
	p.DestinationCountry = "United Kingdom"
	p.ProfileContext = "timeline: 3 months"
	require.NoError(t, profiles.Save(context.Background(), p))

	e := newTestEngine(profiles, downLLM{})
	session := &model.SessionState{CurrentStep: model.StepProvideInitialInfo.String()}

	res := e.ProcessMessage(context.Background(), "u1", "Go ahead", session)

	assert.Equal(t, model.StepIntelligentQnA, res.CurrentStep)
	assert.Contains(t, res.Response, "French national")
}

func TestQnAEndPhraseClosesConversation(t *testing.T) {
	e := newTestEngine(repo.NewMemoryProfileRepository(), downLLM{})
	session := &model.SessionState{CurrentStep: model.StepIntelligentQnA.String()}

	res := e.ProcessMessage(context.Background(), "u1", "Thanks, bye!", session)

	assert.Equal(t, model.StepEnd, res.CurrentStep)
	assert.Equal(t, "Thank you for using Mandry! Feel free to return anytime with more visa questions.", res.Response)
}

func TestQnAFallbackWhenAnswerFails(t *testing.T) {
	e := newTestEngine(repo.NewMemoryProfileRepository(), downLLM{})
	session := &model.SessionState{CurrentStep: model.StepIntelligentQnA.String()}

	res := e.ProcessMessage(context.Background(), "u1", "How much does it cost?", session)

	assert.Equal(t, model.StepIntelligentQnA, res.CurrentStep)
	assert.Contains(t, res.Response, "rephrase")
}

func TestUnknownStepEndsConversation(t *testing.T) {
	e := newTestEngine(repo.NewMemoryProfileRepository(), downLLM{})
	session := &model.SessionState{CurrentStep: "bogus"}

	res := e.ProcessMessage(context.Background(), "u1", "anything", session)

	assert.Equal(t, model.StepEnd, res.CurrentStep)
	assert.Contains(t, res.Response, "Thank you for using Mandry!")
}

func TestErrorStepResumesAsAssessment(t *testing.T) {
	e := newTestEngine(repo.NewMemoryProfileRepository(), downLLM{})
	session := &model.SessionState{CurrentStep: model.StepError.String()}

	res := e.ProcessMessage(context.Background(), "u1", "Hello again", session)

	// a failed turn does not strand the conversation
	assert.Equal(t, model.StepGatherContext, res.CurrentStep)
}

func TestProfileSaveFailureYieldsApology(t *testing.T) {
	profiles := saveFailingRepo{MemoryProfileRepository: repo.NewMemoryProfileRepository()}
	e := newTestEngine(profiles, downLLM{})

	// the extracted nationality cannot be persisted, so the turn must not
	// pretend it was
	res := e.ProcessMessage(context.Background(), "u1", "I am french", nil)

	assert.Equal(t, model.StepError, res.CurrentStep)
	assert.Equal(t, apologyMessage, res.Response)
	require.Len(t, res.MessageHistory, 2)
	assert.Equal(t, apologyMessage, res.MessageHistory[1].Content)
}

func TestCustomAssistantNameInClosing(t *testing.T) {
	e := NewEngine(
		repo.NewMemoryProfileRepository(),
		extract.New(downLLM{}),
		rag.NewAnswerBuilder(cannedSearch{}, downLLM{}, rag.Config{}),
		downLLM{},
		Config{AssistantName: "Aurora"},
	)
	session := &model.SessionState{CurrentStep: model.StepIntelligentQnA.String()}

	res := e.ProcessMessage(context.Background(), "u1", "goodbye", session)

	assert.Equal(t, model.StepEnd, res.CurrentStep)
	assert.Equal(t, "Thank you for using Aurora! Feel free to return anytime with more visa questions.", res.Response)
}

func TestStorageFailureYieldsApology(t *testing.T) {
	e := newTestEngine(brokenRepo{}, downLLM{})

	res := e.ProcessMessage(context.Background(), "u1", "Hello", nil)

	assert.Equal(t, model.StepError, res.CurrentStep)
	assert.Equal(t, apologyMessage, res.Response)
	require.Len(t, res.MessageHistory, 2)
	assert.Equal(t, apologyMessage, res.MessageHistory[1].Content)
}

func TestReturningCompleteUserGoesStraightToQnA(t *testing.T) {
	profiles := repo.NewMemoryProfileRepository()
	p, _, err := profiles.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	p.Nationality = "French"
	p.VisaIntent = "Work visa"
	p.CurrentLocation = "Lyon"
	p.DestinationCountry = "United Kingdom"
	p.ConversationInsights = "• wants fast processing"
	require.NoError(t, profiles.Save(context.Background(), p))

	e := newTestEngine(profiles, downLLM{})

	res := e.ProcessMessage(context.Background(), "u1", "Hi, I'm back", nil)

	assert.Equal(t, model.StepIntelligentQnA, res.CurrentStep)
	assert.True(t, res.ContextSufficient)
	assert.Contains(t, res.Response, "French national")
	assert.Equal(t, false, res.SessionData["created_profile"])
}

func TestIsEndPhrase(t *testing.T) {
	assert.True(t, isEndPhrase("Goodbye!"))
	assert.True(t, isEndPhrase("ok thanks, that's all"))
	assert.True(t, isEndPhrase("quit"))
	assert.False(t, isEndPhrase("What about my passport?"))
}
