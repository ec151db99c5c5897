package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/mandry-ai/server/internal/core/error"
	logx "github.com/mandry-ai/server/pkg/logger"
)

// Provider is the completion capability consumed by the engine. A call
// either returns generated text or fails; there is no internal retry.
type Provider interface {
	// Call sends a system instruction and an optional user message and
	// returns the generated text. When only a system prompt is given it is
	// sent as the sole instruction.
	Call(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// CallForJSON expects the completion to be a JSON object, tolerating
	// markdown code fences around it.
	CallForJSON(ctx context.Context, systemPrompt, userMessage string) (map[string]any, error)
}

// ChatModelProvider adapts an Eino chat model to the Provider contract.
type ChatModelProvider struct {
	model     einomodel.BaseChatModel
	modelName string
}

// NewChatModelProvider wraps the given chat model. modelName is used for
// usage-cost logging only.
func NewChatModelProvider(cm einomodel.BaseChatModel, modelName string) *ChatModelProvider {
	return &ChatModelProvider{model: cm, modelName: modelName}
}

func (p *ChatModelProvider) Call(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var messages []*schema.Message
	switch {
	case systemPrompt != "" && userMessage != "":
		messages = []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(userMessage),
		}
	case systemPrompt != "":
		// single-instruction call: the prompt is the sole user turn
		messages = []*schema.Message{schema.UserMessage(systemPrompt)}
	default:
		messages = []*schema.Message{schema.UserMessage(userMessage)}
	}

	out, err := p.model.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", p.modelName).Msg("completion call failed")
		return "", errx.WrapLLM(err)
	}
	if out == nil {
		return "", errx.WrapLLM(fmt.Errorf("empty completion from %s", p.modelName))
	}
	logUsage(p.modelName, out)
	return strings.TrimSpace(out.Content), nil
}

func (p *ChatModelProvider) CallForJSON(ctx context.Context, systemPrompt, userMessage string) (map[string]any, error) {
	content, err := p.Call(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, err
	}
	parsed, err := ExtractJSON(content)
	if err != nil {
		logx.Warn().Err(err).Str("model", p.modelName).Msg("completion was not valid JSON")
		return nil, err
	}
	return parsed, nil
}

var _ Provider = (*ChatModelProvider)(nil)

// ExtractJSON parses a JSON object out of a completion, stripping markdown
// code fences and an optional leading "json" language tag.
func ExtractJSON(response string) (map[string]any, error) {
	jsonStr := strings.TrimSpace(response)

	if start := strings.Index(jsonStr, "```json"); start >= 0 {
		rest := jsonStr[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		jsonStr = strings.TrimSpace(rest)
	} else if start := strings.Index(jsonStr, "```"); start >= 0 {
		rest := jsonStr[start+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		jsonStr = strings.TrimSpace(rest)
		jsonStr = strings.TrimSpace(strings.TrimPrefix(jsonStr, "json"))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("parse completion JSON: %w", err)
	}
	return parsed, nil
}
