package services

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

const defaultChatModel = "gemini-2.5-flash"
const defaultJudgeModel = "gemini-2.5-flash"

// NewGeminiClient builds a genai client; with an empty key the SDK falls
// back to its environment-based credentials.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	config := &genai.ClientConfig{}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	return genai.NewClient(ctx, config)
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
