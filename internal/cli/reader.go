package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads terminal input without letting a blocked read outlive
// context cancellation. A read abandoned by cancellation keeps running until
// the user presses enter; the mutex keeps it from racing the next read.
type LineReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewLineReader creates a line reader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}

	return &LineReader{
		reader: bufio.NewReader(r),
	}
}

// ReadLine reads one line, trimmed of surrounding whitespace. It returns
// ErrInputCancelled as soon as ctx is done, even if the underlying read is
// still pending. A final line without a trailing newline is still returned.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	default:
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		line := strings.TrimSpace(res.value)
		if res.err != nil && line == "" {
			return "", res.err
		}
		return line, nil
	}
}
