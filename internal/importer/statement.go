package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

// layout describes a header-driven statement export. Columns are found by
// header name, so exports that reorder or add columns still parse.
type layout struct {
	format     string
	dateLayout string

	date        string
	description string
	amount      string
	kind        string // optional
	balance     string // optional
}

// columns holds header positions; -1 marks an optional column that is absent.
type columns struct {
	date, description, amount, kind, balance int
}

func (l layout) locate(header []string) (columns, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	c := columns{
		date:        find(l.date),
		description: find(l.description),
		amount:      find(l.amount),
		kind:        -1,
		balance:     -1,
	}
	required := []struct {
		name string
		idx  int
	}{{l.date, c.date}, {l.description, c.description}, {l.amount, c.amount}}
	for _, r := range required {
		if r.idx < 0 {
			return columns{}, fmt.Errorf("missing %q column", r.name)
		}
	}
	if l.kind != "" {
		c.kind = find(l.kind)
	}
	if l.balance != "" {
		c.balance = find(l.balance)
	}
	return c, nil
}

func (l layout) parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", l.format, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols, err := l.locate(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s header: %w", l.format, err)
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := l.parseRow(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (l layout) parseRow(c columns, rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(l.dateLayout, strings.TrimSpace(rec[c.date]))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[c.date], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[c.amount]))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[c.amount], err)
	}

	txn := model.BankTransaction{
		Date:        date,
		Description: rec[c.description],
		Amount:      amount,
		Reference:   statementRef(l.format, date, rec[c.description]),
	}
	if c.kind >= 0 {
		txn.Type = rec[c.kind]
	}
	if c.balance >= 0 {
		if s := strings.TrimSpace(rec[c.balance]); s != "" {
			txn.Balance, err = decimal.NewFromString(s)
			if err != nil {
				return model.BankTransaction{}, fmt.Errorf("parsing balance %q: %w", s, err)
			}
			txn.HasBalance = true
		}
	}
	return txn, nil
}

// statementRef creates a reference like chase_20250103_GITHUBPROS.
func statementRef(format string, date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", format, date.Format("20060102"), prefix)
}

// ChaseParser parses Chase checking CSV exports.
type ChaseParser struct{}

var chaseLayout = layout{
	format:      "chase",
	dateLayout:  "01/02/2006",
	date:        "Posting Date",
	description: "Description",
	amount:      "Amount",
	kind:        "Type",
	balance:     "Balance",
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return chaseLayout.format }

// Parse reads a Chase CSV and returns BankTransactions.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	return chaseLayout.parse(r)
}

// ISOParser parses plain exports with date,description,amount columns
// (and optional type and balance) using YYYY-MM-DD dates.
type ISOParser struct{}

var isoLayout = layout{
	format:      "iso",
	dateLayout:  time.DateOnly,
	date:        "date",
	description: "description",
	amount:      "amount",
	kind:        "type",
	balance:     "balance",
}

// Format returns the parser name.
func (p *ISOParser) Format() string { return isoLayout.format }

// Parse reads an ISO-dated CSV and returns BankTransactions.
func (p *ISOParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	return isoLayout.parse(r)
}

// ClosingBalance returns the balance reported on the latest-dated row that
// carries one. Among rows on the same date the last one in input order wins.
func ClosingBalance(txns []model.BankTransaction) (decimal.Decimal, time.Time, bool) {
	var (
		bal   decimal.Decimal
		when  time.Time
		found bool
	)
	for _, t := range txns {
		if !t.HasBalance {
			continue
		}
		if !found || !t.Date.Before(when) {
			bal, when, found = t.Balance, t.Date, true
		}
	}
	return bal, when, found
}
