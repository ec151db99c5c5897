package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	logx "github.com/mandry-ai/server/pkg/logger"
)

// ModelConfig holds the tuning for one chat model.
type ModelConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// GeminiConfig holds everything needed to build the provider pair.
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Extractor ModelConfig
	Answer    ModelConfig
}

// Providers holds the two completion providers the engine consumes: a
// low-temperature model for structured extraction and a conversational
// model for question and answer generation.
type Providers struct {
	Extractor Provider
	Answer    Provider
}

// NewGeminiProviders creates both providers from a single Gemini client.
func NewGeminiProviders(ctx context.Context, config GeminiConfig) (*Providers, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	newModel := func(mc ModelConfig) (*gemini.ChatModel, error) {
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       mc.Model,
			Temperature: &mc.Temperature,
			MaxTokens:   &mc.MaxTokens,
		})
	}

	extractorModel, err := newModel(config.Extractor)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extractor model")
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}

	answerModel, err := newModel(config.Answer)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating answer model")
		return nil, fmt.Errorf("error creating answer model: %w", err)
	}

	return &Providers{
		Extractor: NewChatModelProvider(extractorModel, config.Extractor.Model),
		Answer:    NewChatModelProvider(answerModel, config.Answer.Model),
	}, nil
}
