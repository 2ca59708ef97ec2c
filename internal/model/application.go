package model

import "time"

// RuleApplication is the append-only audit record of a rule firing against a
// transaction. Confirmed stays nil until feedback arrives.
type RuleApplication struct {
	AppliedAt      time.Time
	Confirmed      *bool
	TransactionRef string
	ID             int64
	RuleID         int64
}
