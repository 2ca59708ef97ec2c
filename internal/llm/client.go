package llm

import (
	"context"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Suggest asks the provider for a cleaned payee name and an optional
	// rule proposal for the prepared prompt.
	Suggest(ctx context.Context, prompt string) (SuggestionResponse, error)
}

// SuggestionResponse contains the provider's parsed suggestion. Draft is nil
// when the model declined to propose a rule, and has not been validated yet.
type SuggestionResponse struct {
	Cleaned string
	Draft   *model.RuleDraft
}

// suggestionSystemPrompt is shared by all providers. Keeping it identical
// across calls lets providers with prompt caching reuse it.
const suggestionSystemPrompt = `You are a bank transaction payee normalizer. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }.`
