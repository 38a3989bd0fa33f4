// Package vision extracts ledger lines from rendered document pages using a
// multimodal model. The model is asked for pipe-delimited text rather than
// JSON; a malformed line then costs one record, not the whole response.
package vision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Analyzer answers a prompt about a single page image.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error)
}

// GeminiAnalyzer calls the Gemini API. Credentials come from the environment
// (GEMINI_API_KEY or application default credentials).
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

func NewGeminiAnalyzer(ctx context.Context, model string, log zerolog.Logger) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAnalyzer: create genai client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: model, log: log}, nil
}

func (a *GeminiAnalyzer) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "image/png",
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiAnalyzer.AnalyzeImage: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GeminiAnalyzer.AnalyzeImage: empty response from model")
	}
	a.log.Debug().Int("response_bytes", len(text)).Msg("vision model responded")
	return text, nil
}

var _ Analyzer = (*GeminiAnalyzer)(nil)
