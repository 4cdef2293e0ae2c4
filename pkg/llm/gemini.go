package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(config Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client: client,
		model:  config.Model,
	}, nil
}

func (c *GeminiClient) SuggestTrainingPhrases(ctx context.Context, intentName string, existing []string, count int) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(suggestionSystemPrompt),
		genai.Text(buildSuggestionPrompt(intentName, existing, count)),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	raw := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw += string(text)
		}
	}

	return parseSuggestionResponse(raw)
}

func (c *GeminiClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:     c.model,
		Provider: "gemini",
	}
}
