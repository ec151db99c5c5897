package model

// ================ Config ================

type ExtractorModelConfig struct {
	Model       string  `envconfig:"EXTRACTOR_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"300"`
	Temperature float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0.1"`
}

type AnswerModelConfig struct {
	Model       string  `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANSWER_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.3"`
}

type ConversationConfig struct {
	// ProfileTTL of "0" keeps profiles forever; clearing is an admin action.
	ProfileTTL      string `envconfig:"PROFILE_TTL" default:"0"`
	HistoryMaxTurns int    `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"10"`
	MaxSources      int    `envconfig:"ANSWER_MAX_SOURCES" default:"3"`
}

type AdvisorPromptConfig struct {
	Region        string `envconfig:"PROMPT_REGION" default:"United Kingdom"`
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Mandry"`
}
