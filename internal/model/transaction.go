package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one parsed bank statement row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = exit, positive = entry
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)

	// Balance is the account balance after this row, when the export has one.
	Balance    decimal.Decimal
	HasBalance bool
}

// PeriodLabel returns the monthly bucket label, e.g. "2025-01".
func (t BankTransaction) PeriodLabel() string {
	return t.Date.Format(PeriodLayout)
}

// PeriodLayout is the time layout of monthly period labels.
const PeriodLayout = "2006-01"
