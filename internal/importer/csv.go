package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Row maps one line of a transaction CSV export. Cleanup appends the two
// cleaned columns to whatever the bank provided.
type Row struct {
	Date         string `csv:"Date"`
	Ref          string `csv:"Ref"`
	Payee        string `csv:"Payee"`
	Amount       string `csv:"Amount"`
	Currency     string `csv:"Currency"`
	Account      string `csv:"Account"`
	Memo         string `csv:"Memo"`
	CleanedPayee string `csv:"CleanedPayee"`
	CleanedBy    string `csv:"CleanedBy"`
}

// dateLayouts are tried in order when parsing export dates.
var dateLayouts = []string{"2006-01-02", "01/02/2006", "02.01.2006"}

// transactionRef returns the row's source reference, deriving a stable hash
// when the export has none.
func (r *Row) transactionRef() string {
	if r.Ref != "" {
		return r.Ref
	}

	txn := model.Transaction{
		Payee:   r.Payee,
		Account: r.Account,
	}
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, r.Date); err == nil {
			txn.Date = date
			break
		}
	}
	if amount, err := decimal.NewFromString(strings.ReplaceAll(r.Amount, ",", "")); err == nil {
		txn.Amount = amount
	}

	return txn.GenerateRef()
}

// context assembles the transaction hints handed to the synthesizer.
func (r *Row) context() map[string]string {
	hints := make(map[string]string)
	if r.Date != "" {
		hints["date"] = r.Date
	}
	if r.Amount != "" {
		hints["amount"] = r.Amount
	}
	if r.Currency != "" {
		hints["currency"] = r.Currency
	}
	if r.Memo != "" {
		hints["memo"] = r.Memo
	}
	if len(hints) == 0 {
		return nil
	}
	return hints
}

// readRows reads a transaction export into rows using gocsv.
func readRows(path string) ([]*Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var rows []*Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}

	return rows, nil
}

// writeRows writes the annotated rows to the output path.
func writeRows(path string, rows []*Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(file))); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
