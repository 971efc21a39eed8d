// Package organizer categorises parsed transactions and totals them by
// category and month.
package organizer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// UnknownMonth is the month of records whose date could not be read.
const UnknownMonth = "Unknown"

// Record is a transaction with its derived month and category.
type Record struct {
	Date        string          `json:"date" csv:"date"`
	Description string          `json:"description" csv:"description"`
	Amount      decimal.Decimal `json:"amount" csv:"-"`
	AmountText  string          `json:"-" csv:"amount"`
	Balance     string          `json:"balance" csv:"balance"`
	Type        string          `json:"type" csv:"type"`
	MonthYear   string          `json:"month_year" csv:"month_year"`
	Category    Category        `json:"category" csv:"category"`
}

// dateLayouts are the date forms the parser recognises, as time layouts.
var dateLayouts = []string{
	"02-Jan-2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02",
	"02-Jan-06",
}

// Organizer accumulates categorised records and their totals.
type Organizer struct {
	categorizer *Categorizer
	log         *zap.Logger

	records        []Record
	categoryTotals map[Category]decimal.Decimal
	monthlyTotals  map[string]map[Category]decimal.Decimal
}

// New returns an Organizer using rules, or DefaultRules when rules is nil.
func New(rules []Rule, log *zap.Logger) *Organizer {
	if rules == nil {
		rules = DefaultRules()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Organizer{
		categorizer:    NewCategorizer(rules),
		log:            log,
		categoryTotals: make(map[Category]decimal.Decimal),
		monthlyTotals:  make(map[string]map[Category]decimal.Decimal),
	}
}

// LoadCSV reads transactions written by the CSV writer. Metadata rows
// starting with '#' are skipped.
func LoadCSV(r io.Reader) ([]models.Transaction, error) {
	var body bytes.Buffer
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), "#") {
			continue
		}
		body.WriteString(sc.Text())
		body.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var txns []models.Transaction
	if err := gocsv.Unmarshal(&body, &txns); err != nil {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}
	return txns, nil
}

// Organize categorises txns and adds them to the running totals. Only
// positive amounts count towards totals.
func (o *Organizer) Organize(txns []models.Transaction) []Record {
	out := make([]Record, 0, len(txns))
	for _, t := range txns {
		rec := Record{
			Date:        t.Date,
			Description: t.Description,
			Amount:      parseAmount(t.Amount),
			Balance:     firstField(t.Balance),
			Type:        t.Type,
			MonthYear:   monthOf(t.Date),
			Category:    o.categorizer.Categorize(t.Description),
		}
		rec.AmountText = rec.Amount.StringFixed(2)

		if rec.Amount.IsPositive() {
			o.categoryTotals[rec.Category] = o.categoryTotals[rec.Category].Add(rec.Amount)
			month := o.monthlyTotals[rec.MonthYear]
			if month == nil {
				month = make(map[Category]decimal.Decimal)
				o.monthlyTotals[rec.MonthYear] = month
			}
			month[rec.Category] = month[rec.Category].Add(rec.Amount)
		}
		out = append(out, rec)
	}
	o.records = append(o.records, out...)
	o.log.Debug("transactions organised", zap.Int("count", len(out)), zap.Int("total", len(o.records)))
	return out
}

// Records returns every organised record in load order.
func (o *Organizer) Records() []Record {
	return o.records
}

// ExportCSV writes the organised records as CSV.
func (o *Organizer) ExportCSV(w io.Writer) error {
	records := o.records
	if records == nil {
		records = []Record{}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write organised CSV: %w", err)
	}
	return nil
}

func parseAmount(s string) decimal.Decimal {
	if s == "" || s == models.NotAvailable {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstField(balance string) string {
	if balance == models.NotAvailable {
		return "0"
	}
	fields := strings.Fields(balance)
	if len(fields) == 0 {
		return "0"
	}
	return fields[0]
}

// monthOf returns "YYYY-MM" for a recognised date, else UnknownMonth.
func monthOf(date string) string {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01")
		}
	}
	return UnknownMonth
}
