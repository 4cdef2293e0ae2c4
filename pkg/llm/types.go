package llm

import (
	"context"
)

// Client proposes additional training phrases for a node based on the
// phrases the author already wrote. Advisory only; callers never persist the
// output without the author's confirmation.
type Client interface {
	SuggestTrainingPhrases(ctx context.Context, intentName string, existing []string, count int) ([]string, error)
	GetModelInfo() ModelInfo
}

// ModelInfo contains information about the LLM model
type ModelInfo struct {
	Name     string
	Provider string
}

// Config holds configuration for LLM clients
type Config struct {
	Provider string
	Model    string
	APIKey   string
}
