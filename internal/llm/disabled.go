package llm

import (
	"context"

	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// Disabled is the synthesizer used when model calls are switched off. Every
// miss falls back to the raw payee, so cleanup degrades to a pure rule
// engine instead of failing over a missing API key.
type Disabled struct{}

// Synthesize returns the raw payee unchanged as a fallback result.
func (Disabled) Synthesize(_ context.Context, rawPayee string, _ map[string]string) service.SynthesisResult {
	return service.SynthesisResult{Cleaned: rawPayee, Source: service.SynthesisFallback}
}

// Stats reports no activity.
func (Disabled) Stats() service.SynthesisStats {
	return service.SynthesisStats{}
}
