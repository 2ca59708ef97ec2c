package pattern

import (
	"sort"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// MatchResult pairs a rule with the specificity score it achieved.
type MatchResult struct {
	Rule  model.Rule
	Score int
}

// FindBest returns the winning approved rule for a payee, or false when no
// approved rule matches. Selection is deterministic: score first, then
// confidence, then success rate, then lowest id.
func FindBest(raw string, rules []model.Rule) (*model.Rule, bool) {
	matches := scoreMatches(raw, rules)
	if len(matches) == 0 {
		return nil, false
	}
	best := matches[0].Rule
	return &best, true
}

// FindAll returns every approved rule matching the payee with its score,
// ordered the same way FindBest ranks candidates.
func FindAll(raw string, rules []model.Rule) []MatchResult {
	return scoreMatches(raw, rules)
}

func scoreMatches(raw string, rules []model.Rule) []MatchResult {
	var matches []MatchResult
	for _, rule := range rules {
		if !rule.IsActive() {
			continue
		}
		if score, ok := Match(raw, rule); ok {
			matches = append(matches, MatchResult{Rule: rule, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Rule.Confidence != b.Rule.Confidence {
			return a.Rule.Confidence > b.Rule.Confidence
		}
		if a.Rule.SuccessRate != b.Rule.SuccessRate {
			return a.Rule.SuccessRate > b.Rule.SuccessRate
		}
		return a.Rule.ID < b.Rule.ID
	})

	return matches
}
