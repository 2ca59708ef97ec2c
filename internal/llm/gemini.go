package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient implements the Client interface for Google's Gemini API.
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Suggest sends a payee synthesis request to Gemini.
func (c *geminiClient) Suggest(ctx context.Context, prompt string) (SuggestionResponse, error) {
	// Gemini takes the instructions inline with the user content.
	resp, err := c.model.GenerateContent(ctx, genai.Text(suggestionSystemPrompt+"\n\n"+prompt))
	if err != nil {
		return SuggestionResponse{}, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return SuggestionResponse{}, fmt.Errorf("no response from gemini")
	}

	return parseSuggestion(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}

// Close releases the underlying API connection.
func (c *geminiClient) Close() error {
	return c.client.Close()
}
