package parser

import (
	"github.com/insightdelivered/statement-parser/internal/models"
)

// LocateTransactions finds and scans the transaction lines of a section's
// lines using the default lookahead and the strict row policy.
func LocateTransactions(lines []string) (models.Strategy, []models.Transaction) {
	strategy, res := New().locate(lines, 1)
	return strategy, res.transactions
}

// locate tries the location strategies in order and returns the first that
// yields at least one transaction:
//
//  1. direct: the section carries a statement header; scan every line.
//  2. column-header: a table header within the lookahead window after the
//     statement header; scan from the line after it.
//  3. virtual-header: a dated line within the window; scan from it.
func (e *Engine) locate(lines []string, section int) (models.Strategy, scanResult) {
	headerIdx := -1
	for i, l := range lines {
		if isStatementHeader(l) {
			headerIdx = i
			break
		}
	}

	var last scanResult
	if headerIdx >= 0 {
		res := scanRows(lines, 0, section, e.policy)
		if len(res.transactions) > 0 {
			return models.StrategyDirect, res
		}
		last = res
	}

	start := headerIdx + 1
	end := start + e.lookahead
	if end > len(lines) {
		end = len(lines)
	}

	for i := start; i < end; i++ {
		if isColumnHeader(lines[i]) {
			res := scanRows(lines, i+1, section, e.policy)
			if len(res.transactions) > 0 {
				return models.StrategyColumnHeader, res
			}
			last = res
			break
		}
	}

	for i := start; i < end; i++ {
		if startsWithDate(lines[i]) {
			// lines[i-1] acts as the virtual header
			res := scanRows(lines, i, section, e.policy)
			if len(res.transactions) > 0 {
				return models.StrategyVirtualHeader, res
			}
			last = res
			break
		}
	}

	if last.transactions == nil {
		last.transactions = []models.Transaction{}
	}
	return models.StrategyNone, last
}
