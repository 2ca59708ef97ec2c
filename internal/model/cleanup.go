package model

// CleanupSource records which path produced a cleaned payee.
type CleanupSource string

const (
	// CleanedByRule indicates an approved rule matched the payee.
	CleanedByRule CleanupSource = "RULE"
	// CleanedByAI indicates the name came from a model response.
	CleanedByAI CleanupSource = "AI"
	// CleanedByNone indicates the raw payee passed through unchanged.
	CleanedByNone CleanupSource = "NONE"
)

// CleanupResult is the outcome of cleaning a single raw payee. Cleaned is
// always populated; in the worst case it echoes the raw input.
type CleanupResult struct {
	Cleaned         string
	CleanedBy       CleanupSource
	AppliedRuleID   *int64
	GeneratedRuleID *int64
}
