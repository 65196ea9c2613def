package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

var (
	ErrEmptyResponse = errors.New("no text content in LLM response")
	ErrBlocked       = errors.New("prompt blocked by LLM safety filters")
	ErrTruncated     = errors.New("LLM response cut off at the token limit")
)

// LLMProvider asks a language model for JSON and decodes it into output.
type LLMProvider interface {
	GenerateStructured(ctx context.Context, prompt string, output any) error
	Close()
}

type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiProvider) GenerateStructured(ctx context.Context, prompt string, output any) error {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return err
	}
	return decodeResponse(resp, output)
}

// decodeResponse joins the text parts of the first candidate and decodes them
// as JSON. Blocked prompts, empty candidates and cut-off output are errors
// that name the model's reason.
func decodeResponse(resp *genai.GenerateContentResponse, output any) error {
	if resp == nil {
		return ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return fmt.Errorf("%w: %s", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			}
		}
	}

	raw := stripFence(text.String())
	if raw == "" {
		return fmt.Errorf("%w (finish reason %s)", ErrEmptyResponse, candidate.FinishReason)
	}
	if err := json.Unmarshal([]byte(raw), output); err != nil {
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
