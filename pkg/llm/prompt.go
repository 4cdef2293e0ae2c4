package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const suggestionSystemPrompt = `You help conversational bot authors expand intent training data.
Given an intent name and its existing training phrases, propose new phrases a real user could plausibly type.
Rules:
- Stay in the same language as the existing phrases.
- Do not repeat or trivially rephrase an existing phrase.
- Respond with a JSON array of strings and nothing else.`

func buildSuggestionPrompt(intentName string, existing []string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", intentName)
	fmt.Fprintf(&b, "Existing training phrases:\n")
	for _, phrase := range existing {
		fmt.Fprintf(&b, "- %s\n", phrase)
	}
	fmt.Fprintf(&b, "Propose %d new phrases.", count)
	return b.String()
}

// parseSuggestionResponse accepts a raw model reply and extracts the phrase
// list. Models sometimes wrap JSON in code fences, strip those first.
func parseSuggestionResponse(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var phrases []string
	if err := json.Unmarshal([]byte(cleaned), &phrases); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %v", err)
	}

	var result []string
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase != "" {
			result = append(result, phrase)
		}
	}
	return result, nil
}
