package llmclient

import (
	"context"

	genai "google.golang.org/genai"
)

// generationTemperature is fixed low so repeated refinement passes drift
// as little as possible structurally.
const generationTemperature = 0.1

// GeminiClient is a thin wrapper around the official genai client. It
// only focuses on the API call itself; prompt construction and response
// parsing belong to the caller.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateVision sends one text part and one inline image part and
// returns the first candidate's text verbatim.
func (g *GeminiClient) GenerateVision(ctx context.Context, prompt string, image []byte, mime string) (string, error) {
	if mime == "" {
		mime = "image/png"
	}
	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: mime, Data: image}},
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](generationTemperature)},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
