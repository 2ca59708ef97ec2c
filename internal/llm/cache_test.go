package llm

import (
	"testing"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionCache(t *testing.T) {
	cache := newSuggestionCache(time.Minute)
	defer cache.Close()

	result := service.SynthesisResult{
		Cleaned: "Starbucks",
		Source:  service.SynthesisLLM,
	}

	t.Run("miss on empty cache", func(t *testing.T) {
		_, found := cache.get("starbucks #4821")
		assert.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		cache.set("starbucks #4821", result)

		got, found := cache.get("starbucks #4821")
		require.True(t, found)
		assert.Equal(t, "Starbucks", got.Cleaned)
		assert.Equal(t, service.SynthesisLLM, got.Source)
	})

	t.Run("size and clear", func(t *testing.T) {
		cache.set("another key", result)
		assert.Equal(t, 2, cache.size())

		cache.clear()
		assert.Equal(t, 0, cache.size())

		_, found := cache.get("starbucks #4821")
		assert.False(t, found)
	})
}

func TestSuggestionCacheExpiry(t *testing.T) {
	cache := newSuggestionCache(10 * time.Millisecond)
	defer cache.Close()

	cache.set("key", service.SynthesisResult{Cleaned: "Target"})

	_, found := cache.get("key")
	require.True(t, found)

	time.Sleep(20 * time.Millisecond)

	_, found = cache.get("key")
	assert.False(t, found, "expired entry should not be returned")
}

func TestSuggestionCacheDefaultTTL(t *testing.T) {
	cache := newSuggestionCache(0)
	defer cache.Close()

	assert.Equal(t, 15*time.Minute, cache.ttl)
}
