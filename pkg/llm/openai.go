package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openAI API key is required")
	}
	return &OpenAIClient{
		client: openai.NewClient(config.APIKey),
		model:  config.Model,
	}, nil
}

func (c *OpenAIClient) SuggestTrainingPhrases(ctx context.Context, intentName string, existing []string, count int) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildSuggestionPrompt(intentName, existing, count)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openAI completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openAI returned no choices")
	}

	return parseSuggestionResponse(resp.Choices[0].Message.Content)
}

func (c *OpenAIClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:     c.model,
		Provider: "openai",
	}
}
