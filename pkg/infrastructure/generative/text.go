// Package generative wraps the Gemini SDK behind the shared TextGenerator and
// MediaGenerator interfaces so the orchestration core can be tested without
// monkey-patching globals.
package generative

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultTextModel = "gemini-2.0-flash"

// TextClient generates campaign copy and plans with Gemini.
type TextClient struct {
	apiKey string
	model  string
}

func NewTextClient(apiKey string) *TextClient {
	return &TextClient{apiKey: apiKey, model: defaultTextModel}
}

func (c *TextClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	model.SetTemperature(0.7)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(2048)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	rawOutput := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			rawOutput += string(text)
		}
	}
	return rawOutput, nil
}
