package generative

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultImageModel = "gemini-2.0-flash-exp"
	defaultVideoModel = "veo-2.0-generate-001"
)

// MediaClient renders campaign assets with Gemini image/video models. Calls
// can take tens of seconds and fail on quota or model errors; callers handle
// the fallback ladder.
type MediaClient struct {
	apiKey     string
	imageModel string
	videoModel string
}

func NewMediaClient(apiKey string) *MediaClient {
	return &MediaClient{
		apiKey:     apiKey,
		imageModel: defaultImageModel,
		videoModel: defaultVideoModel,
	}
}

func (c *MediaClient) GenerateImage(ctx context.Context, prompt, style string) ([]byte, error) {
	return c.generate(ctx, c.imageModel, "image/png", prompt, style)
}

func (c *MediaClient) GenerateVideo(ctx context.Context, prompt, style string) ([]byte, error) {
	return c.generate(ctx, c.videoModel, "video/mp4", prompt, style)
}

func (c *MediaClient) generate(ctx context.Context, modelName, mimeType, prompt, style string) ([]byte, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.8)
	model.GenerationConfig.ResponseMIMEType = mimeType

	fullPrompt := prompt
	if style != "" {
		fullPrompt = fmt.Sprintf("%s\nStyle: %s", prompt, style)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate media: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no media generated")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return blob.Data, nil
		}
		// Handle base64-encoded data returned as text
		if text, ok := part.(genai.Text); ok {
			data, err := base64.StdEncoding.DecodeString(string(text))
			if err == nil && len(data) > 0 {
				return data, nil
			}
		}
	}

	return nil, fmt.Errorf("no media data in response")
}
