package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ImagenProvider is a prompt-only text-to-image provider on the Gemini API.
type ImagenProvider struct {
	apiKey string
	model  string
}

func NewImagenProvider(apiKey, model string) *ImagenProvider {
	if model == "" {
		model = "imagen-4.0-generate-001"
	}
	return &ImagenProvider{apiKey: apiKey, model: model}
}

func (p *ImagenProvider) Name() string      { return "imagen" }
func (p *ImagenProvider) NeedsSource() bool { return false }

func (p *ImagenProvider) Attempt(ctx context.Context, in Input) (string, error) {
	if p.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return "", fmt.Errorf("genai client: %w", err)
	}
	res, err := client.Models.GenerateImages(ctx, p.model, in.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
	})
	if err != nil {
		return "", fmt.Errorf("imagen generate: %w", err)
	}
	for _, img := range res.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			continue
		}
		return DataURI(img.Image.MIMEType, img.Image.ImageBytes), nil
	}
	return "", fmt.Errorf("%w: imagen returned no image", ErrInvalidOutput)
}
