package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiInvoker adapts the generative-ai-go client to the invoker contract.
// The client is created once at engine start and shared; GenerativeModel
// handles are cheap per-call values, so each call carries its own temperature
// without mutating shared state.
type geminiInvoker struct {
	client *genai.Client
	model  string
}

func newGeminiInvoker(ctx context.Context, apiKey, model string) (*geminiInvoker, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return nil, err
	}
	return &geminiInvoker{client: client, model: strings.TrimSpace(model)}, nil
}

func (g *geminiInvoker) Generate(ctx context.Context, system, user string, temperature float32) (string, error) {
	m := g.client.GenerativeModel(g.model)
	temp := temperature
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("model returned no text candidates")
	}
	return text, nil
}

func (g *geminiInvoker) Close() error {
	return g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}
