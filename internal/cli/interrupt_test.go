package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.interrupted)
		})
	}
}

func TestInterruptCancelsContext(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx := handler.HandleInterrupts(context.Background(), true)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	handler.interrupt()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be canceled after interrupt")
	}

	assert.True(t, handler.WasInterrupted())
	outputStr := output.String()
	assert.Contains(t, outputStr, "Cleanup interrupted!")
	assert.Contains(t, outputStr, "Verdicts already recorded are saved")
	assert.Contains(t, outputStr, "Resume with: names review")
}

func TestInterruptWithoutResumeHint(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	_ = handler.HandleInterrupts(context.Background(), false)
	handler.interrupt()

	outputStr := output.String()
	assert.Contains(t, outputStr, "Cleanup interrupted!")
	assert.NotContains(t, outputStr, "Resume with")
}

func TestInterruptMessageShownOnce(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	_ = handler.HandleInterrupts(context.Background(), false)
	handler.interrupt()
	handler.interrupt()

	assert.Equal(t, 1, bytes.Count([]byte(output.String()), []byte("Cleanup interrupted!")))
}

func TestWasInterruptedDefaultsFalse(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{})
	_ = handler.HandleInterrupts(context.Background(), false)

	assert.False(t, handler.WasInterrupted())
}
