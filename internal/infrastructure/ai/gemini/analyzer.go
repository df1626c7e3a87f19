package gemini

import (
	"context"
	"fmt"
	"strings"

	domainerrors "github.com/crashlens/crashlens/internal/domain/errors"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"google.golang.org/genai"
)

const systemInstruction = "You are an expert debugging assistant. Provide clear, actionable analysis based only on the provided context."

// Generation is pinned low and bounded: analysis should be deterministic and
// not ramble past what the prompt supports.
const (
	temperature     float32 = 0.1
	maxOutputTokens int32   = 2000
)

var _ ports.Analyzer = (*Analyzer)(nil)
var _ ports.TokenCounter = (*Analyzer)(nil)

// Analyzer implements ports.Analyzer on top of the Gemini API.
type Analyzer struct {
	client *genai.Client
	model  string
}

func NewAnalyzer(ctx context.Context, apiKey, model string) (*Analyzer, error) {
	if apiKey == "" {
		return nil, domainerrors.NewAnalyzerNotConfiguredError("gemini", "missing API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}

	return &Analyzer{client: client, model: model}, nil
}

// GenerateAnalysis implements ports.Analyzer.
func (a *Analyzer) GenerateAnalysis(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
		MaxOutputTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("error generating analysis: %w", err)
	}

	text := formatResponse(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", a.model)
	}
	return strings.TrimSpace(text), nil
}

// GetModelName implements ports.Analyzer.
func (a *Analyzer) GetModelName() string {
	return a.model
}

// CountTokens implements ports.TokenCounter.
func (a *Analyzer) CountTokens(ctx context.Context, content string) (int, error) {
	resp, err := a.client.Models.CountTokens(ctx, a.model, genai.Text(content), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var formatted strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				formatted.WriteString(part.Text)
			}
		}
	}
	return formatted.String()
}
