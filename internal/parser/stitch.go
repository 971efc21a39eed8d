package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// scanState is the state of the row scanner.
type scanState int

const (
	// stateIdle: no record is open; non-dated lines are skipped.
	stateIdle scanState = iota
	// stateOpen: the last dated row is open for continuation lines.
	stateOpen
	// stateClosed: a terminator was seen; nothing more is read.
	stateClosed
)

// Line results recorded in debug output.
const (
	resultParsed       = "parsed"
	resultDropped      = "dropped"
	resultContinuation = "continuation"
	resultSpillover    = "spillover"
	resultIgnored      = "ignored"
	resultNoise        = "noise"
	resultTerminator   = "terminator"
	resultSkipped      = "skipped"
)

const maxSpilloverWords = 4

// openRecord is the transaction currently accepting continuation lines.
type openRecord struct {
	txn  models.Transaction
	line int
}

// scanResult is the outcome of scanning one region of a section.
type scanResult struct {
	transactions []models.Transaction
	debug        []models.DebugLine
	warnings     []models.Warning
	terminated   bool
}

// rowScanner walks lines once, building records from dated rows and
// stitching continuation lines onto the open record. It is created per scan.
type rowScanner struct {
	policy  RowPolicy
	section int
	state   scanState
	opened  int
	res     scanResult
}

// scanRows scans lines[from:] and returns the finalised records.
func scanRows(lines []string, from int, section int, policy RowPolicy) scanResult {
	s := &rowScanner{policy: policy, section: section}
	var cur *openRecord
	for i := from; i < len(lines) && s.state != stateClosed; i++ {
		cur = s.step(cur, i+1, lines[i])
	}
	s.finalize(cur)
	s.res.terminated = s.state == stateClosed
	if s.res.transactions == nil {
		s.res.transactions = []models.Transaction{}
	}
	return s.res
}

// step consumes one line and returns the record that is open afterwards.
func (s *rowScanner) step(cur *openRecord, lineNum int, raw string) *openRecord {
	line := normalizeLine(raw)
	if line == "" {
		return cur
	}

	dl := models.DebugLine{LineNum: lineNum, Text: truncate(line, 120)}
	defer func() { s.res.debug = append(s.res.debug, dl) }()

	if s.opened > 0 && isTerminator(line) {
		s.finalize(cur)
		s.state = stateClosed
		dl.Result = resultTerminator
		return nil
	}

	if d, ok := decomposeRow(line); ok {
		dl.HasDate = true
		s.finalize(cur)
		if isFooter(d.txn.Description) {
			s.state = stateIdle
			dl.Result = resultDropped
			dl.Method = "footer"
			return nil
		}
		s.opened++
		s.state = stateOpen
		dl.Result = resultParsed
		dl.Method = d.layout + "/" + d.method
		return &openRecord{txn: d.txn, line: lineNum}
	}

	if s.state != stateOpen || cur == nil {
		dl.Result = resultSkipped
		return cur
	}

	dl.Result = s.stitch(cur, line)
	return cur
}

// stitch merges a non-dated line into the open record.
func (s *rowScanner) stitch(cur *openRecord, line string) string {
	if isNoise(line) {
		return resultNoise
	}

	fields := strings.Fields(line)
	if len(fields) <= maxSpilloverWords {
		if values := moneyFields(fields); len(values) > 0 {
			if assignSpillover(&cur.txn, values) {
				return resultSpillover
			}
			return resultIgnored
		}
	}

	if cur.txn.Description == "" {
		cur.txn.Description = line
	} else {
		cur.txn.Description += " " + line
	}
	return resultContinuation
}

// assignSpillover fills the open record's missing amount, then balance, from
// values in order. It reports whether anything was assigned.
func assignSpillover(txn *models.Transaction, values []string) bool {
	assigned := false
	for _, v := range values {
		switch {
		case txn.Amount == models.NotAvailable:
			if a := cleanAmount(v); a != models.NotAvailable {
				txn.Amount = a
				assigned = true
			}
		case txn.Balance == models.NotAvailable:
			if b, typ := cleanBalance(v); b != models.NotAvailable {
				txn.Balance, txn.Type = b, typ
				assigned = true
			}
		}
	}
	return assigned
}

// finalize applies the row policy to the open record and emits it.
func (s *rowScanner) finalize(cur *openRecord) {
	if cur == nil {
		return
	}
	if cur.txn.HasNumbers() {
		s.res.transactions = append(s.res.transactions, cur.txn)
		return
	}

	action := "kept"
	if s.policy == RowPolicyStrict {
		action = "dropped"
		for i := range s.res.debug {
			if s.res.debug[i].LineNum == cur.line {
				s.res.debug[i].Result = resultDropped
			}
		}
	} else {
		s.res.transactions = append(s.res.transactions, cur.txn)
	}
	s.res.warnings = append(s.res.warnings, models.Warning{
		Kind:    models.WarnMalformedRow,
		Section: s.section,
		Line:    cur.line,
		Message: fmt.Sprintf("row dated %s has no amount or balance; %s", cur.txn.Date, action),
	})
}
