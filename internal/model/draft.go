package model

// RuleDraft is a rule proposal extracted from a model response. It has not
// been validated or persisted; ToRule decides whether it becomes a real rule.
type RuleDraft struct {
	Pattern     string
	Replacement string
	PatternType PatternType
	Confidence  float64
}

// ToRule validates the draft and promotes it to a pending rule.
func (d RuleDraft) ToRule() (Rule, error) {
	return NewSuggestedRule(d.Pattern, d.PatternType, d.Replacement, d.Confidence)
}
