// Package llm provides language model interfaces for payee name synthesis.
// It supports multiple LLM providers including OpenAI, Anthropic, and Gemini,
// with features like retry logic, rate limiting, and response caching.
package llm
