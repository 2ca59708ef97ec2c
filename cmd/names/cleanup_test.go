package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContextPairs(t *testing.T) {
	tests := []struct {
		expected map[string]string
		name     string
		pairs    []string
		wantErr  bool
	}{
		{
			name:     "no pairs",
			pairs:    nil,
			expected: nil,
		},
		{
			name:     "single pair",
			pairs:    []string{"amount=42.17"},
			expected: map[string]string{"amount": "42.17"},
		},
		{
			name:     "multiple pairs",
			pairs:    []string{"amount=42.17", "date=2024-01-17"},
			expected: map[string]string{"amount": "42.17", "date": "2024-01-17"},
		},
		{
			name:     "value containing equals",
			pairs:    []string{"memo=total=42"},
			expected: map[string]string{"memo": "total=42"},
		},
		{
			name:     "empty value allowed",
			pairs:    []string{"memo="},
			expected: map[string]string{"memo": ""},
		},
		{
			name:     "whitespace trimmed",
			pairs:    []string{" date = 2024-01-17 "},
			expected: map[string]string{"date": "2024-01-17"},
		},
		{
			name:    "missing separator",
			pairs:   []string{"amount"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=42.17"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseContextPairs(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
