package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// MockSynthesizer is a test implementation of the Synthesizer interface.
// It returns scripted results per raw payee and records every call.
type MockSynthesizer struct {
	results map[string]service.SynthesisResult
	calls   []string
	mu      sync.Mutex
}

// NewMockSynthesizer creates a new mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{
		results: make(map[string]service.SynthesisResult),
		calls:   make([]string, 0),
	}
}

// SetResult scripts the result returned for a raw payee.
func (m *MockSynthesizer) SetResult(rawPayee string, result service.SynthesisResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[rawPayee] = result
}

// Synthesize returns the scripted result for the payee. Unscripted payees
// behave like an unreachable provider and fall back to the raw name.
func (m *MockSynthesizer) Synthesize(_ context.Context, rawPayee string, _ map[string]string) service.SynthesisResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, rawPayee)

	if result, ok := m.results[rawPayee]; ok {
		return result
	}

	return service.SynthesisResult{
		Cleaned: rawPayee,
		Source:  service.SynthesisFallback,
	}
}

// Stats reports one call per Synthesize invocation.
func (m *MockSynthesizer) Stats() service.SynthesisStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return service.SynthesisStats{Calls: int64(len(m.calls))}
}

// Calls returns the raw payees seen, in order.
func (m *MockSynthesizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of Synthesize invocations.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all recorded calls.
func (m *MockSynthesizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]string, 0)
}
