package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/pattern"
	"github.com/Veraticus/the-names-must-flow/internal/service"
)

// Synthesizer implements the engine.Synthesizer interface using LLM APIs.
// Every call returns a usable result: provider failures fold into a
// fallback that keeps the raw payee.
type Synthesizer struct {
	client      Client
	cache       *suggestionCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	timeout     time.Duration
	calls       atomic.Int64
	cacheHits   atomic.Int64
	failures    atomic.Int64
}

// Config holds configuration for the LLM synthesizer.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// NewSynthesizer creates a new LLM-based payee synthesizer.
func NewSynthesizer(cfg Config, logger *slog.Logger) (*Synthesizer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Synthesizer{
		client:      client,
		cache:       newSuggestionCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		timeout:     timeout,
	}, nil
}

// Synthesize produces a cleaned payee name and an optional rule draft for a
// raw payee. It never fails: when the provider is unreachable or keeps
// returning garbage, the raw payee comes back unchanged as a fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, rawPayee string, txnContext map[string]string) service.SynthesisResult {
	key := pattern.Normalize(rawPayee)

	if cached, found := s.cache.get(key); found {
		s.cacheHits.Add(1)
		s.logger.Debug("cache hit for payee", "payee", rawPayee)
		cached.Source = service.SynthesisCache
		return cached
	}

	result, err := s.synthesize(ctx, rawPayee, txnContext)
	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("payee synthesis failed, keeping raw payee",
			"payee", rawPayee,
			"error", err)
		return service.SynthesisResult{Cleaned: rawPayee, Source: service.SynthesisFallback}
	}

	s.cache.set(key, result)

	s.logger.Info("payee synthesized",
		"payee", rawPayee,
		"cleaned", result.Cleaned,
		"has_draft", result.Draft != nil)

	return result
}

// synthesize performs the rate-limited, retried provider call.
func (s *Synthesizer) synthesize(ctx context.Context, rawPayee string, txnContext map[string]string) (service.SynthesisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rateLimiter.wait(ctx); err != nil {
		return service.SynthesisResult{}, fmt.Errorf("rate limit error: %w", err)
	}

	prompt := buildPrompt(rawPayee, txnContext)

	var response SuggestionResponse
	err := common.WithRetry(ctx, func() error {
		s.calls.Add(1)

		resp, err := s.client.Suggest(ctx, prompt)
		if err != nil {
			s.logger.Warn("suggestion attempt failed",
				"error", err,
				"payee", rawPayee)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		response = resp
		return nil
	}, s.retryOpts)
	if err != nil {
		return service.SynthesisResult{}, fmt.Errorf("%w: %v", common.ErrLLMService, err)
	}

	result := service.SynthesisResult{
		Cleaned: response.Cleaned,
		Source:  service.SynthesisLLM,
	}

	// A bad rule proposal never spoils a good cleaned name.
	if response.Draft != nil {
		if _, err := response.Draft.ToRule(); err != nil {
			s.logger.Warn("discarding invalid rule proposal",
				"payee", rawPayee,
				"pattern", response.Draft.Pattern,
				"error", err)
		} else {
			result.Draft = response.Draft
		}
	}

	return result, nil
}

// Stats returns the synthesizer's counters. Calls counts provider attempts,
// including retries.
func (s *Synthesizer) Stats() service.SynthesisStats {
	return service.SynthesisStats{
		Calls:     s.calls.Load(),
		CacheHits: s.cacheHits.Load(),
		Failures:  s.failures.Load(),
	}
}

// Close stops background goroutines and cleans up resources.
func (s *Synthesizer) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	if closer, ok := s.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// buildPrompt creates the prompt for payee synthesis.
func buildPrompt(rawPayee string, txnContext map[string]string) string {
	contextDetails := ""
	if len(txnContext) > 0 {
		keys := make([]string, 0, len(txnContext))
		for k := range txnContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		contextDetails = "\nTransaction context:\n"
		for _, k := range keys {
			contextDetails += fmt.Sprintf("- %s: %s\n", k, txnContext[k])
		}
	}

	return fmt.Sprintf(`Normalize this bank transaction payee into a clean, human-readable merchant name.

Raw payee: %s
%s
IMPORTANT GUIDELINES:
- Strip processor prefixes (POS, SQ *, PAYPAL *, TST*), store numbers, card suffixes, and city/state noise
- Keep the merchant's brand name the way a customer would write it ("Starbucks", not "STARBUCKS #4821")
- Never guess a different merchant than the text supports; when unsure, tidy the casing and keep the rest

If the payee contains a stable marker that will recur on future transactions, also propose a reusable rule:
- "pattern" is the marker to match and "patternType" is one of EXACT, CONTAINS, STARTS_WITH, REGEX
- Literal patterns match case-insensitively, so prefer CONTAINS with the brand token
- Only use REGEX when no literal marker can isolate the merchant
- "confidence" is your 0.0-1.0 trust that the rule applies to future transactions
- Omit "rule" entirely when nothing recurring stands out

Respond in this exact format:
{"cleaned": "<merchant name>", "rule": {"pattern": "<marker>", "patternType": "<type>", "replacement": "<merchant name>", "confidence": <0.0-1.0>}}`,
		rawPayee,
		contextDetails)
}
