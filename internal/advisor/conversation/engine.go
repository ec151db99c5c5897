// Package conversation contains the dialogue orchestration engine: a
// finite-step controller that advances a conversation by exactly one
// transition per inbound message, extracting facts into the profile until it
// is sufficient and then serving retrieval-augmented answers.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mandry-ai/server/internal/advisor/extract"
	"github.com/mandry-ai/server/internal/advisor/model"
	"github.com/mandry-ai/server/internal/advisor/rag"
	"github.com/mandry-ai/server/internal/advisor/repo"
	"github.com/mandry-ai/server/internal/llm"
	"github.com/mandry-ai/server/internal/search"
	logx "github.com/mandry-ai/server/pkg/logger"
)

const (
	apologyMessage = "I'm having trouble right now. Could you please try again?"

	defaultHistoryMaxTurns = 10
	defaultAssistantName   = "Mandry"
)

type Config struct {
	// HistoryMaxTurns bounds how much round-tripped history is rendered
	// into generation prompts. The session history itself is never trimmed.
	HistoryMaxTurns int

	// AssistantName is the persona used in generation prompts and canned
	// messages.
	AssistantName string
}

// Engine orchestrates one conversation turn at a time. All collaborators are
// injected; the engine holds no per-conversation memory between calls.
type Engine struct {
	profiles        repo.ProfileRepository
	extractor       *extract.Extractor
	answers         *rag.AnswerBuilder
	llm             llm.Provider
	historyMaxTurns int
	assistantName   string
	closing         string

	// locks serializes turns per user: concurrent messages for the same
	// user would otherwise race on the profile document.
	locks sync.Map
}

func NewEngine(
	profiles repo.ProfileRepository,
	extractor *extract.Extractor,
	answers *rag.AnswerBuilder,
	provider llm.Provider,
	cfg Config,
) *Engine {
	if cfg.HistoryMaxTurns <= 0 {
		cfg.HistoryMaxTurns = defaultHistoryMaxTurns
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = defaultAssistantName
	}
	return &Engine{
		profiles:        profiles,
		extractor:       extractor,
		answers:         answers,
		llm:             provider,
		historyMaxTurns: cfg.HistoryMaxTurns,
		assistantName:   cfg.AssistantName,
		closing:         fmt.Sprintf("Thank you for using %s! Feel free to return anytime with more visa questions.", cfg.AssistantName),
	}
}

// Result is the full outcome of one processed message. The session fields
// must be round-tripped by the caller on the next call.
type Result struct {
	Response            string            `json:"response"`
	CurrentStep         model.Step        `json:"current_step"`
	ContextSufficient   bool              `json:"context_sufficient"`
	MissingContextAreas []string          `json:"missing_context_areas"`
	SessionData         map[string]any    `json:"session_data"`
	MessageHistory      []*schema.Message `json:"message_history"`
	LastQuestion        string            `json:"last_question,omitempty"`
}

// Session rebuilds the caller-held state blob from the result.
func (r *Result) Session() *model.SessionState {
	return &model.SessionState{
		CurrentStep:    r.CurrentStep.String(),
		MessageHistory: r.MessageHistory,
		LastQuestion:   r.LastQuestion,
	}
}

// turnOutcome is what a single step handler produces.
type turnOutcome struct {
	response  string
	next      model.Step
	question  string
	citations []search.Source
}

// ProcessMessage runs exactly one state transition for the inbound message
// and always returns a result: any failure inside the turn is converted to
// an apology response with the error step, never propagated to the caller.
func (e *Engine) ProcessMessage(ctx context.Context, userID, message string, session *model.SessionState) (result *Result) {
	step := model.StepAssessContext
	var history []*schema.Message
	lastQuestion := ""
	if session != nil {
		step = model.ParseStep(session.CurrentStep)
		history = session.MessageHistory
		lastQuestion = session.LastQuestion
	}
	// a failed turn is recoverable: the next message restarts the assessment
	if step == model.StepError {
		step = model.StepAssessContext
	}

	history = append(history, schema.UserMessage(message))

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("user_id", userID).Msgf("panic during message processing: %v", r)
			result = errorResult(history)
		}
	}()

	mu := e.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	profile, created, err := e.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		return errorResult(history)
	}

	outcome, err := e.dispatch(ctx, step, profile, message, lastQuestion, history)
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Str("step", step.String()).Msg("turn failed")
		return errorResult(history)
	}
	history = append(history, schema.AssistantMessage(outcome.response, nil))

	sessionData := map[string]any{
		"profile_id":           profile.UserID,
		"context_completeness": profile.Completeness(),
		"created_profile":      created,
	}
	if len(outcome.citations) > 0 {
		sessionData["citations"] = outcome.citations
	}

	logx.Debug().
		Str("user_id", userID).
		Str("step", step.String()).
		Str("next_step", outcome.next.String()).
		Int("completeness", profile.Completeness()).
		Msg("processed message")

	return &Result{
		Response:            outcome.response,
		CurrentStep:         outcome.next,
		ContextSufficient:   profile.ContextSufficient,
		MissingContextAreas: profile.MissingContext,
		SessionData:         sessionData,
		MessageHistory:      history,
		LastQuestion:        outcome.question,
	}
}

// dispatch routes the message to exactly one step handler. The switch is
// exhaustive over the closed step set; ParseStep has already normalised
// anything else to StepEnd. A non-nil error means the turn failed and the
// caller must produce the apology result.
func (e *Engine) dispatch(ctx context.Context, step model.Step, profile *model.Profile, message, lastQuestion string, history []*schema.Message) (turnOutcome, error) {
	switch step {
	case model.StepAssessContext:
		return e.assessContext(ctx, profile, message, history)
	case model.StepGatherContext:
		return e.gatherContext(ctx, profile, message, lastQuestion, history)
	case model.StepProvideInitialInfo:
		return e.provideInitialInfo(ctx, profile), nil
	case model.StepIntelligentQnA:
		return e.intelligentQnA(ctx, profile, message), nil
	case model.StepEnd, model.StepError:
		return turnOutcome{response: e.closing, next: model.StepEnd}, nil
	}
	return turnOutcome{response: e.closing, next: model.StepEnd}, nil
}

// assessContext decides between direct Q&A hand-off and context gathering.
// When gathering is needed it already runs one extraction pass on the
// incoming message so no user input is wasted.
func (e *Engine) assessContext(ctx context.Context, profile *model.Profile, message string, history []*schema.Message) (turnOutcome, error) {
	if profile.IsComplete() {
		if e.reassess(ctx, profile) {
			if err := e.save(ctx, profile); err != nil {
				return turnOutcome{}, err
			}
		}
		welcome := e.generateWelcome(ctx, profile)
		return turnOutcome{response: welcome, next: model.StepIntelligentQnA}, nil
	}

	extraction := e.extractor.Extract(ctx, message, profile.ContextSummary(), "")
	changed := model.ApplyExtraction(profile, extraction)
	if e.reassess(ctx, profile) || changed {
		if err := e.save(ctx, profile); err != nil {
			return turnOutcome{}, err
		}
	}

	question := e.askNext(ctx, profile, history)
	return turnOutcome{response: question, next: model.StepGatherContext, question: question}, nil
}

// gatherContext extracts facts from the answer to the previous question and
// either keeps asking or, once the profile is complete, hands off to the
// initial-info step.
func (e *Engine) gatherContext(ctx context.Context, profile *model.Profile, message, lastQuestion string, history []*schema.Message) (turnOutcome, error) {
	extraction := e.extractor.Extract(ctx, message, profile.ContextSummary(), lastQuestion)
	changed := model.ApplyExtraction(profile, extraction)
	if e.reassess(ctx, profile) || changed {
		if err := e.save(ctx, profile); err != nil {
			return turnOutcome{}, err
		}
	}

	if profile.IsComplete() {
		response := fmt.Sprintf(
			"Perfect! Now I understand your situation: %s. Just say the word and I'll pull together some initial guidance for you.",
			profile.CoreContext(),
		)
		return turnOutcome{response: response, next: model.StepProvideInitialInfo}, nil
	}

	question := e.askNext(ctx, profile, history)
	return turnOutcome{response: question, next: model.StepGatherContext, question: question}, nil
}

// provideInitialInfo serves the one-shot personalised overview, then moves
// permanently into Q&A.
func (e *Engine) provideInitialInfo(ctx context.Context, profile *model.Profile) turnOutcome {
	text, citations, err := e.answers.InitialInfo(ctx, profile)
	if err != nil {
		logx.Warn().Err(err).Str("user_id", profile.UserID).Msg("initial info generation failed, using fallback")
		text = fmt.Sprintf(
			"Here's what I know so far: %s. Ask me anything about requirements, timelines or next steps for your application.",
			profile.CoreContext(),
		)
		citations = nil
	}
	return turnOutcome{response: text, next: model.StepIntelligentQnA, citations: citations}
}

// intelligentQnA answers domain questions until the user closes the
// conversation with an end phrase.
func (e *Engine) intelligentQnA(ctx context.Context, profile *model.Profile, message string) turnOutcome {
	if isEndPhrase(message) {
		return turnOutcome{response: e.closing, next: model.StepEnd}
	}

	text, citations, err := e.answers.Answer(ctx, message, profile)
	if err != nil {
		logx.Warn().Err(err).Str("user_id", profile.UserID).Msg("answer generation failed, using fallback")
		return turnOutcome{
			response: "I'd like to help with your visa question. Could you please rephrase it?",
			next:     model.StepIntelligentQnA,
		}
	}
	return turnOutcome{response: text, next: model.StepIntelligentQnA, citations: citations}
}

// reassess refreshes the cached completeness assessment and reports whether
// it changed, so unchanged turns skip the persistence write.
func (e *Engine) reassess(_ context.Context, profile *model.Profile) bool {
	sufficient := profile.IsComplete()
	missing := profile.MissingAreas()
	changed := profile.ContextSufficient != sufficient || !equalAreas(profile.MissingContext, missing)
	profile.ContextSufficient = sufficient
	profile.MissingContext = missing
	profile.LastAssessedAt = time.Now().UTC()
	return changed
}

// save persists the profile. A failure fails the whole turn: proceeding
// would hand the user a normal response while their facts were lost.
func (e *Engine) save(ctx context.Context, profile *model.Profile) error {
	if err := e.profiles.Save(ctx, profile); err != nil {
		logx.Error().Err(err).Str("user_id", profile.UserID).Msg("failed to persist profile")
		return err
	}
	return nil
}

// askNext produces the question for the most specific missing profile area,
// generated conversationally with a canned per-field fallback.
func (e *Engine) askNext(ctx context.Context, profile *model.Profile, history []*schema.Message) string {
	fq := nextQuestion(profile)
	question, err := e.generateQuestion(ctx, profile, fq, history)
	if err != nil {
		logx.Warn().Err(err).Str("area", fq.area).Msg("question generation failed, using canned question")
		return fq.fallback
	}
	return question
}

func (e *Engine) generateQuestion(ctx context.Context, profile *model.Profile, fq fieldQuestion, history []*schema.Message) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly visa consultant gathering information.\n\n", e.assistantName)
	b.WriteString("What you already know:\n")
	b.WriteString(profile.ContextSummary())
	b.WriteString("\n\nRecent conversation:\n")
	b.WriteString(transcript(history, e.historyMaxTurns))
	fmt.Fprintf(&b, "\n\nAsk the user one short, natural question about their %s.", strings.ReplaceAll(fq.area, "_", " "))
	if fq.anchor != "" {
		fmt.Fprintf(&b, " The question must contain the phrase %q.", fq.anchor)
	}
	b.WriteString(" Return only the question itself.")

	question, err := e.llm.Call(ctx, b.String(), "")
	if err != nil {
		return "", err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question for area %s", fq.area)
	}
	return question, nil
}

func (e *Engine) generateWelcome(ctx context.Context, profile *model.Profile) string {
	fallback := fmt.Sprintf(
		"Great! I understand your situation: %s. What specific visa questions do you have?",
		profile.CoreContext(),
	)
	prompt := fmt.Sprintf(
		"You are %s, a friendly visa consultant. The user returns with a known situation: %s. "+
			"Welcome them back in one or two sentences and invite their visa questions. Return only the message.",
		e.assistantName, profile.CoreContext(),
	)
	welcome, err := e.llm.Call(ctx, prompt, "")
	if err != nil || strings.TrimSpace(welcome) == "" {
		if err != nil {
			logx.Warn().Err(err).Str("user_id", profile.UserID).Msg("welcome generation failed, using fallback")
		}
		return fallback
	}
	return strings.TrimSpace(welcome)
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// transcript renders the most recent turns as plain text for prompts.
func transcript(messages []*schema.Message, maxTurns int) string {
	if len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("User: " + msg.Content + "\n")
		case schema.Assistant:
			b.WriteString("Assistant: " + msg.Content + "\n")
		}
	}
	if b.Len() == 0 {
		return "(no prior messages)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func errorResult(history []*schema.Message) *Result {
	history = append(history, schema.AssistantMessage(apologyMessage, nil))
	return &Result{
		Response:            apologyMessage,
		CurrentStep:         model.StepError,
		ContextSufficient:   false,
		MissingContextAreas: nil,
		SessionData:         map[string]any{},
		MessageHistory:      history,
	}
}

func equalAreas(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
