package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// cleanMarkdownWrapper strips the code fences some models wrap around JSON
// payloads despite being told not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		// Drop the opening fence line, including any language tag.
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```")
		}
		content = strings.TrimSpace(content)
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}

// parseSuggestion extracts the cleaned name and optional rule proposal from
// a provider response.
func parseSuggestion(content string) (SuggestionResponse, error) {
	// Expected JSON structure:
	// {
	//   "cleaned": "Starbucks",
	//   "rule": {
	//     "pattern": "STARBUCKS",
	//     "patternType": "CONTAINS",
	//     "replacement": "Starbucks",
	//     "confidence": 0.9
	//   }
	// }
	var jsonResp struct {
		Cleaned string `json:"cleaned"`
		Rule    *struct {
			Pattern     string  `json:"pattern"`
			PatternType string  `json:"patternType"`
			Replacement string  `json:"replacement"`
			Confidence  float64 `json:"confidence"`
		} `json:"rule,omitempty"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return SuggestionResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	cleaned := strings.TrimSpace(jsonResp.Cleaned)
	if cleaned == "" {
		return SuggestionResponse{}, fmt.Errorf("no cleaned name found in response")
	}

	response := SuggestionResponse{Cleaned: cleaned}

	if jsonResp.Rule != nil {
		confidence := jsonResp.Rule.Confidence
		if confidence <= 0 {
			// Unscored proposals get a neutral confidence.
			confidence = 0.5
		}
		response.Draft = &model.RuleDraft{
			Pattern:     strings.TrimSpace(jsonResp.Rule.Pattern),
			Replacement: strings.TrimSpace(jsonResp.Rule.Replacement),
			PatternType: model.PatternType(strings.ToUpper(strings.TrimSpace(jsonResp.Rule.PatternType))),
			Confidence:  confidence,
		}
	}

	return response, nil
}
