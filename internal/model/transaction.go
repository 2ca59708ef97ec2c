package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single bank transaction whose payee needs cleaning.
type Transaction struct {
	Date     time.Time
	Ref      string // Stable reference from the source, if it provides one
	Payee    string // Raw payee descriptor as the bank exported it
	Account  string
	Currency string
	Memo     string
	Amount   decimal.Decimal
}

// GenerateRef derives a stable reference for transactions that arrive without
// one. Same date, amount, payee, and account always hash to the same ref.
func (t *Transaction) GenerateRef() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Payee,
		t.Account)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
