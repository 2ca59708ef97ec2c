// Package pattern implements pure payee matching and deterministic rule
// selection over the closed set of pattern types.
package pattern

import (
	"regexp"
	"strings"
	"sync"

	"github.com/Veraticus/the-names-must-flow/internal/model"
)

// Normalize returns the canonical form of a payee or pattern for comparison:
// surrounding whitespace trimmed, lowercased. No stemming, no locale folding.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	regexMu    sync.RWMutex
	regexCache = make(map[string]*regexp.Regexp)
)

// compiledPattern returns the compiled regex for a rule pattern, cached
// process-wide. Malformed patterns cache as nil so a bad rule costs one
// compile attempt, not one per payee.
func compiledPattern(pattern string) *regexp.Regexp {
	regexMu.RLock()
	re, ok := regexCache[pattern]
	regexMu.RUnlock()
	if ok {
		return re
	}

	compiled, err := model.CompilePattern(pattern)
	if err != nil {
		compiled = nil
	}

	regexMu.Lock()
	regexCache[pattern] = compiled
	regexMu.Unlock()
	return compiled
}

// Match evaluates one rule against a raw payee. The score ranks match
// specificity: normalized pattern length for the literal types, matched
// substring length for regex. Malformed regex patterns never match.
func Match(raw string, rule model.Rule) (int, bool) {
	switch rule.PatternType {
	case model.PatternExact:
		p := Normalize(rule.Pattern)
		if Normalize(raw) == p {
			return len(p), true
		}
	case model.PatternStartsWith:
		p := Normalize(rule.Pattern)
		if strings.HasPrefix(Normalize(raw), p) {
			return len(p), true
		}
	case model.PatternContains:
		p := Normalize(rule.Pattern)
		if strings.Contains(Normalize(raw), p) {
			return len(p), true
		}
	case model.PatternRegex:
		re := compiledPattern(rule.Pattern)
		if re == nil {
			return 0, false
		}
		if loc := re.FindStringIndex(raw); loc != nil {
			return loc[1] - loc[0], true
		}
	}
	return 0, false
}
