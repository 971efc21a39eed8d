package parser

import (
	"strings"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// Row decomposition methods, recorded in debug output.
const (
	methodColumns        = "columns"
	methodTrailingFields = "trailing-fields"
)

// decomposed is a row split into its fields plus how the split was made.
type decomposed struct {
	txn       models.Transaction
	layout    string
	method    string
	malformed bool
}

// DecomposeRow splits a dated line into a transaction. It returns false when
// the line does not start with a recognised date.
func DecomposeRow(line string) (models.Transaction, bool) {
	d, ok := decomposeRow(line)
	return d.txn, ok
}

func decomposeRow(line string) (decomposed, bool) {
	line = normalizeLine(line)
	date, layout, ok := matchDate(line)
	if !ok {
		return decomposed{}, false
	}

	d := decomposed{
		layout: layout,
		method: methodColumns,
		txn: models.Transaction{
			Date:    date,
			Amount:  models.NotAvailable,
			Balance: models.NotAvailable,
			Type:    models.NotAvailable,
		},
	}

	rest := line[len(date):]
	if m := typeCodePattern.FindStringSubmatch(rest); m != nil {
		d.txn.Code = m[1]
		rest = rest[len(m[0]):]
	}

	cells := splitColumns(rest)
	candidates := candidateIndexes(cells)

	// Text flattened with single spaces gives one cell; peel money values off
	// its end instead.
	if len(cells) == 1 && len(candidates) == 0 {
		if peeled := peelTrailingMoney(cells[0]); len(peeled) > 1 {
			cells = peeled
			candidates = candidateIndexes(cells)
			d.method = methodTrailingFields
		}
	}

	amountIdx, balanceIdx := -1, -1
	switch {
	case len(candidates) >= 2:
		amountIdx = candidates[len(candidates)-2]
		balanceIdx = candidates[len(candidates)-1]
	case len(candidates) == 1:
		amountIdx = candidates[0]
	default:
		d.malformed = true
	}

	desc := make([]string, 0, len(cells))
	for i, c := range cells {
		if i == amountIdx || i == balanceIdx {
			continue
		}
		desc = append(desc, c)
	}
	d.txn.Description = strings.Join(desc, " ")

	if amountIdx >= 0 {
		d.txn.Amount = cleanAmount(cells[amountIdx])
	}
	if balanceIdx >= 0 {
		d.txn.Balance, d.txn.Type = cleanBalance(cells[balanceIdx])
	}
	return d, true
}

func candidateIndexes(cells []string) []int {
	var idx []int
	for i, c := range cells {
		if isAmountCandidate(c) {
			idx = append(idx, i)
		}
	}
	return idx
}

// peelTrailingMoney splits up to two money-shaped words off the end of a
// single-spaced cell. The result is the leading text followed by the
// peeled values, or nil when nothing was peeled.
func peelTrailingMoney(cell string) []string {
	fields := strings.Fields(cell)
	var tail []string
	for len(fields) > 0 && len(tail) < 2 {
		last := fields[len(fields)-1]
		if markerOnlyPattern.MatchString(last) && len(fields) > 1 && isMoneyShaped(fields[len(fields)-2]) {
			fields = fields[:len(fields)-1]
			fields[len(fields)-1] += last
			continue
		}
		if !isMoneyShaped(last) {
			break
		}
		tail = append([]string{last}, tail...)
		fields = fields[:len(fields)-1]
	}
	if len(tail) == 0 {
		return nil
	}
	out := make([]string, 0, len(tail)+1)
	if len(fields) > 0 {
		out = append(out, strings.Join(fields, " "))
	}
	return append(out, tail...)
}
