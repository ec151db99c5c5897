// Package rag builds retrieval-augmented answers: it turns the profile and
// the user's question into a search query, grounds a single generation call
// in the retrieved sources, and returns the answer together with the exact
// source set that grounded it.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mandry-ai/server/internal/advisor/model"
	"github.com/mandry-ai/server/internal/llm"
	"github.com/mandry-ai/server/internal/search"
	logx "github.com/mandry-ai/server/pkg/logger"
)

const defaultMaxSources = 3

// acknowledgements are bare turn-keeping messages that add nothing to a
// search query.
var acknowledgements = map[string]struct{}{
	"ok":       {},
	"okay":     {},
	"yes":      {},
	"sure":     {},
	"continue": {},
	"please":   {},
	"go ahead": {},
	"yep":      {},
}

type Config struct {
	MaxSources int
	Region     string
}

type AnswerBuilder struct {
	search     search.Provider
	llm        llm.Provider
	maxSources int
	region     string
}

func NewAnswerBuilder(searchProvider search.Provider, llmProvider llm.Provider, cfg Config) *AnswerBuilder {
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = defaultMaxSources
	}
	if cfg.Region == "" {
		cfg.Region = "United Kingdom"
	}
	return &AnswerBuilder{
		search:     searchProvider,
		llm:        llmProvider,
		maxSources: cfg.MaxSources,
		region:     cfg.Region,
	}
}

// Answer generates a grounded answer to the question for this profile. The
// returned citations are the exact ordered source set embedded in the
// generation prompt, never re-queried, so displayed citations always match
// what grounded the answer. Retrieval failures degrade silently to the fixed
// fallback sources; only generation failures surface as errors.
func (b *AnswerBuilder) Answer(ctx context.Context, question string, profile *model.Profile) (string, []search.Source, error) {
	query := b.buildQuery(question, profile)
	sources := b.retrieve(ctx, query)

	promptText, err := renderAnswerPrompt(ctx, b.region, profile.ContextSummary(), question, sources)
	if err != nil {
		return "", sources, err
	}

	text, err := b.llm.Call(ctx, promptText, "")
	if err != nil {
		return "", sources, err
	}
	return text, sources, nil
}

// InitialInfo generates the one-shot personalised overview served when the
// profile first becomes complete.
func (b *AnswerBuilder) InitialInfo(ctx context.Context, profile *model.Profile) (string, []search.Source, error) {
	question := "What are the key requirements, typical timelines and recommended next steps for my visa application?"
	return b.Answer(ctx, question, profile)
}

// buildQuery combines the profile's core fields into a templated search
// sentence, appending the literal question unless it is a bare
// acknowledgement.
func (b *AnswerBuilder) buildQuery(question string, profile *model.Profile) string {
	var sb strings.Builder
	if profile.Nationality != "" {
		sb.WriteString(profile.Nationality)
		sb.WriteString(" citizen ")
	}
	sb.WriteString("visa requirements")
	if profile.VisaIntent != "" {
		fmt.Fprintf(&sb, " for %s", profile.VisaIntent)
	}
	destination := profile.DestinationCountry
	if destination == "" {
		destination = b.region
	}
	fmt.Fprintf(&sb, " in %s", destination)
	if profile.CurrentLocation != "" {
		fmt.Fprintf(&sb, ", applying from %s", profile.CurrentLocation)
	}

	if q := strings.TrimSpace(question); q != "" && !isAcknowledgement(q) {
		sb.WriteString(": ")
		sb.WriteString(q)
	}
	return sb.String()
}

func (b *AnswerBuilder) retrieve(ctx context.Context, query string) []search.Source {
	sources, err := b.search.Search(ctx, query, b.maxSources)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("retrieval failed, using fallback sources")
		return search.FallbackSources(query)
	}
	if len(sources) == 0 {
		logx.Warn().Str("query", query).Msg("retrieval returned nothing, using fallback sources")
		return search.FallbackSources(query)
	}
	if len(sources) > b.maxSources {
		sources = sources[:b.maxSources]
	}
	return sources
}

func isAcknowledgement(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.Trim(normalized, ".!?,")
	_, ok := acknowledgements[normalized]
	return ok
}
