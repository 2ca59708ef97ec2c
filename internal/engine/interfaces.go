package engine

import (
	"context"

	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// Synthesizer defines the contract for LLM-backed payee synthesis. It is
// total: implementations fold their failures into fallback results.
type Synthesizer interface {
	Synthesize(ctx context.Context, rawPayee string, txnContext map[string]string) service.SynthesisResult
	Stats() service.SynthesisStats
}
