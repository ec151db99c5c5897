// Package extract turns a free-text message into a bounded set of typed
// facts. The primary path asks the completion provider for structured JSON;
// on provider failure it degrades silently to a deterministic keyword
// fallback. Either path honours the previous-question override that resolves
// one-word answers like "Canada".
package extract

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mandry-ai/server/internal/advisor/model"
	"github.com/mandry-ai/server/internal/llm"
	logx "github.com/mandry-ai/server/pkg/logger"
)

// maxMessageLen guards the prompt against pathological inputs.
const maxMessageLen = 8 * 1024

// noValueSentinels are provider outputs that mean "nothing recognised".
var noValueSentinels = map[string]struct{}{
	"":              {},
	"not specified": {},
	"none":          {},
	"n/a":           {},
}

var titleCaser = cases.Title(language.English)

type Extractor struct {
	provider llm.Provider
}

func New(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

// Extract recognises facts in one message. An empty result is valid; the
// extractor never errors towards the caller.
func (e *Extractor) Extract(ctx context.Context, message, profileSummary, previousQuestion string) model.Extraction {
	if len(message) > maxMessageLen {
		// cut on rune boundaries so the prompt never carries invalid UTF-8
		if runes := []rune(message); len(runes) > maxMessageLen {
			logx.Warn().Int("orig_len", len(message)).Int("max_len", maxMessageLen).Msg("message truncated for extraction")
			message = string(runes[:maxMessageLen])
		}
	}

	extraction, err := e.extractPrimary(ctx, message, profileSummary, previousQuestion)
	if err != nil {
		logx.Warn().Err(err).Msg("structured extraction failed, using keyword fallback")
		extraction = model.Extraction{}
		applyPreviousQuestion(extraction, message, previousQuestion)
		applyLexicons(extraction, message)
		return extraction
	}

	applyPreviousQuestion(extraction, message, previousQuestion)
	return extraction
}

func (e *Extractor) extractPrimary(ctx context.Context, message, profileSummary, previousQuestion string) (model.Extraction, error) {
	raw, err := e.provider.CallForJSON(ctx, buildExtractionPrompt(message, profileSummary, previousQuestion), "")
	if err != nil {
		return nil, err
	}

	extraction := model.Extraction{}
	for key, value := range raw {
		if !model.IsExtractionKey(key) {
			continue
		}
		text, ok := value.(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if _, sentinel := noValueSentinels[strings.ToLower(text)]; sentinel {
			continue
		}
		extraction[key] = text
	}
	return extraction, nil
}

func buildExtractionPrompt(message, profileSummary, previousQuestion string) string {
	var b strings.Builder
	b.WriteString("Extract visa consultation facts from the user's message.\n\n")
	b.WriteString("Known profile:\n")
	b.WriteString(profileSummary)
	b.WriteString("\n\n")
	if previousQuestion != "" {
		fmt.Fprintf(&b, "The assistant's previous question was: %q\n\n", previousQuestion)
	}
	fmt.Fprintf(&b, "User message: %q\n\n", message)
	b.WriteString("Return only a JSON object. Allowed keys: ")
	b.WriteString(strings.Join(model.ExtractionKeys, ", "))
	b.WriteString(".\n")
	b.WriteString("Include only fields clearly stated or strongly implied by the message; do not guess. Omit anything unknown rather than writing placeholders.")
	return b.String()
}

// questionTopic binds recognisable question wording to the extraction key a
// one-word answer should land on.
type questionTopic struct {
	key       string
	terms     []string
	allTerms  bool
	titleCase bool
}

var questionTopics = []questionTopic{
	{key: model.KeyNationality, terms: []string{"nationality", "citizenship"}, titleCase: true},
	{key: model.KeyCurrentLocation, terms: []string{"current location", "residing"}, titleCase: true},
	{key: model.KeyDestinationCountry, terms: []string{"destination", "country"}, allTerms: true, titleCase: true},
	{key: model.KeyVisaIntent, terms: []string{"visa", "type"}, allTerms: true},
}

// applyPreviousQuestion assigns the whole raw message to the key the previous
// question asked about, when the extraction has not already filled it. This
// resolves answers a general extractor drops, such as a bare "Canada".
func applyPreviousQuestion(extraction model.Extraction, message, previousQuestion string) {
	question := strings.ToLower(previousQuestion)
	answer := strings.TrimSpace(message)
	if question == "" || answer == "" {
		return
	}

	for _, topic := range questionTopics {
		if !topicMatches(question, topic) {
			continue
		}
		if extraction[topic.key] != "" {
			return
		}
		if topic.titleCase {
			answer = titleCaser.String(answer)
		}
		extraction[topic.key] = answer
		return
	}
}

func topicMatches(question string, topic questionTopic) bool {
	if topic.allTerms {
		for _, term := range topic.terms {
			if !strings.Contains(question, term) {
				return false
			}
		}
		return true
	}
	for _, term := range topic.terms {
		if strings.Contains(question, term) {
			return true
		}
	}
	return false
}

// applyLexicons fills unset nationality and intent keys by deterministic
// substring match against the fixed lexicons.
func applyLexicons(extraction model.Extraction, message string) {
	lower := strings.ToLower(message)

	if extraction[model.KeyNationality] == "" {
		for _, entry := range nationalityLexicon {
			if strings.Contains(lower, entry.term) {
				extraction[model.KeyNationality] = entry.nationality
				break
			}
		}
	}

	if extraction[model.KeyVisaIntent] == "" {
	intents:
		for _, entry := range intentLexicon {
			for _, term := range entry.terms {
				if strings.Contains(lower, term) {
					extraction[model.KeyVisaIntent] = entry.intent
					break intents
				}
			}
		}
	}
}
