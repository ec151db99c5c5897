package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mandry-ai/server/internal/advisor/conversation"
	"github.com/mandry-ai/server/internal/advisor/extract"
	"github.com/mandry-ai/server/internal/advisor/model"
	"github.com/mandry-ai/server/internal/advisor/rag"
	"github.com/mandry-ai/server/internal/advisor/repo"
	"github.com/mandry-ai/server/internal/llm"
	"github.com/mandry-ai/server/internal/search"
	logx "github.com/mandry-ai/server/pkg/logger"
	pkgredis "github.com/mandry-ai/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the advisor example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis  pkgredis.Config
	Search search.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Advisor configs
	Extractor    model.ExtractorModelConfig
	Answer       model.AnswerModelConfig
	Prompt       model.AdvisorPromptConfig
	Conversation model.ConversationConfig
}

func main() {
	fmt.Println("Testing Visa Advisor Conversation Engine...")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logx.Init()

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.ProfileTTL)
	if err != nil {
		log.Fatalf("Invalid PROFILE_TTL '%s': %v", envCfg.Conversation.ProfileTTL, err)
	}

	providers, err := llm.NewGeminiProviders(ctx, llm.GeminiConfig{
		APIKey:  envCfg.APIKey,
		BaseURL: envCfg.BaseURL,
		Extractor: llm.ModelConfig{
			Model:       envCfg.Extractor.Model,
			MaxTokens:   envCfg.Extractor.MaxTokens,
			Temperature: envCfg.Extractor.Temperature,
		},
		Answer: llm.ModelConfig{
			Model:       envCfg.Answer.Model,
			MaxTokens:   envCfg.Answer.MaxTokens,
			Temperature: envCfg.Answer.Temperature,
		},
	})
	if err != nil {
		log.Fatalf("Failed to build completion providers: %v", err)
	}

	engine := conversation.NewEngine(
		repo.NewRedisProfileRepository(rdb, ttl),
		extract.New(providers.Extractor),
		rag.NewAnswerBuilder(
			search.NewClient(envCfg.Search),
			providers.Answer,
			rag.Config{
				MaxSources: envCfg.Conversation.MaxSources,
				Region:     envCfg.Prompt.Region,
			},
		),
		providers.Answer,
		conversation.Config{
			HistoryMaxTurns: envCfg.Conversation.HistoryMaxTurns,
			AssistantName:   envCfg.Prompt.AssistantName,
		},
	)

	testMessages := []struct {
		description string
		message     string
	}{
		{
			description: "Initial greeting",
			message:     "Hi! I need some help with visas.",
		},
		{
			description: "Nationality answer",
			message:     "I'm Ukrainian",
		},
		{
			description: "Visa type answer",
			message:     "I want to work in tech",
		},
		{
			description: "Current location answer",
			message:     "I'm in Warsaw right now",
		},
		{
			description: "Destination answer",
			message:     "The UK",
		},
		{
			description: "Additional details",
			message:     "I'd like to move within the next 6 months, I have 5 years of backend experience",
		},
		{
			description: "Trigger initial guidance",
			message:     "Sounds good, go ahead",
		},
		{
			description: "Follow-up question",
			message:     "How much does the application cost?",
		},
		{
			description: "Closing",
			message:     "Great, thanks, bye!",
		},
	}

	userID := "test-user-123451"
	var session *model.SessionState

	for i, test := range testMessages {
		fmt.Printf("\n🚀 Turn %d: %s\n", i+1, test.description)
		fmt.Printf("Message: \"%s\"\n", test.message)
		fmt.Println("Processing...")

		result := engine.ProcessMessage(ctx, userID, test.message, session)
		session = result.Session()

		fmt.Printf("✅ [%s] %s\n", result.CurrentStep, result.Response)
		fmt.Printf("   completeness=%v sufficient=%v missing=%v\n",
			result.SessionData["context_completeness"],
			result.ContextSufficient,
			result.MissingContextAreas)

		if result.CurrentStep.Terminal() {
			break
		}

		// add slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("🎉 Conversation completed!")
}
