package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// dateMatcher recognises one date layout at the start of a line.
type dateMatcher struct {
	name string
	re   *regexp.Regexp
}

const monthNames = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`

// dateMatchers are tried in order; the first to match at line start wins.
var dateMatchers = []dateMatcher{
	{"dd/mm/yyyy", regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}\b`)},
	{"dd-mm-yyyy", regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}\b`)},
	{"dd.mm.yyyy", regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}\b`)},
	{"dd mon yyyy", regexp.MustCompile(`(?i)^\d{1,2}\s+` + monthNames + `[a-z]*\s+\d{4}\b`)},
	{"yyyy-mm-dd", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\b`)},
	{"dd-mon-yy", regexp.MustCompile(`(?i)^\d{1,2}-` + monthNames + `-\d{2}\b`)},
	{"dd-mon-yyyy", regexp.MustCompile(`(?i)^\d{1,2}-` + monthNames + `-\d{4}\b`)},
}

var (
	// Statement of account for the period of <period>
	statementHeaderPattern = regexp.MustCompile(
		`(?i)statement[ \t]+of[ \t]+account[ \t]+for[ \t]+the[ \t]+period[ \t]+of[ \t]*([^\r\n]*)`,
	)

	// amountCandidatePattern matches a token shaped like a money value:
	// optional sign and currency, digit groups with optional thousands
	// separators (western or Indian grouping), optional 2-digit fraction and
	// an optional Dr/Cr marker.
	amountCandidatePattern = regexp.MustCompile(
		`(?i)^[-+]?\s*(?:[£$€₹]|rs\.?|inr)?\s*[-+]?(?:\d{1,3}(?:,\d{2,3})+|\d+)(?:\.\d{2})?\s*(?:(?:dr|cr)\.?)?$`,
	)
	// moneyHintPattern separates money values from bare integers such as
	// reference numbers.
	moneyHintPattern = regexp.MustCompile(`(?i)\.\d{2}|,\d|[£$€₹]|rs|inr|dr|cr`)

	currencyPrefixPattern = regexp.MustCompile(`(?i)^[-+]?\s*(?:[£$€₹]|rs\.?|inr)`)
	balanceMarkerPattern  = regexp.MustCompile(`(?i)(dr|cr)\.?\s*$`)
	markerOnlyPattern     = regexp.MustCompile(`(?i)^(?:dr|cr)\.?$`)
	cleanAmountPattern    = regexp.MustCompile(`^\d+\.?\d{0,2}$`)

	// columnSplitPattern separates table cells: a tab or a run of two or
	// more whitespace characters.
	columnSplitPattern = regexp.MustCompile(`\s*\t\s*|\s{2,}`)
	typeCodePattern    = regexp.MustCompile(`^\s+([TC])(?:\s+|$)`)

	terminatorPattern = regexp.MustCompile(`(?i)\b(?:closing\s+balance|total|end\s+of\s+statement)\b`)
	noisePattern      = regexp.MustCompile(`(?i)total|balance|opening|closing|statement|period|page`)
)

// footerPatterns mark statement footers that must never become records.
var footerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)grand\s+total\s*:`),
	regexp.MustCompile(`(?i)please\s+examine`),
	regexp.MustCompile(`(?i)\*+\s*end\s+of\s+statement\s*\*+`),
	regexp.MustCompile(`(?i)^note\s*:`),
	regexp.MustCompile(`(?i)^page\s*(?:no\.?)?\s*:?\s*\d+(?:\s*(?:of|/)\s*\d+)?$`),
}

// Column header keywords.
var (
	dateKeywordPattern    = regexp.MustCompile(`(?i)\b(?:transaction\s+date|value\s+date|posting\s+date|txn\s+date|date)\b`)
	descKeywordPattern    = regexp.MustCompile(`(?i)\b(?:description|particulars|details|narration|remarks|transaction)\b`)
	amountKeywordPattern  = regexp.MustCompile(`(?i)\b(?:amount|debit|credit|withdrawals?|deposits?|paid\s+(?:in|out)|money\s+(?:in|out))\b`)
	balanceKeywordPattern = regexp.MustCompile(`(?i)\bbalance\b`)
)

// normalizeLine cleans up common PDF extraction artifacts.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "\u00A0", " ")
	line = strings.ReplaceAll(line, "\u200B", "")
	line = strings.ReplaceAll(line, "\r", "")
	return strings.TrimSpace(line)
}

// splitLines splits section text into lines without dropping blank ones so
// that line numbers stay aligned with the source.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// matchDate returns the date token at the start of line and the name of the
// layout that matched.
func matchDate(line string) (date, layout string, ok bool) {
	line = normalizeLine(line)
	for _, m := range dateMatchers {
		if d := m.re.FindString(line); d != "" {
			return d, m.name, true
		}
	}
	return "", "", false
}

// startsWithDate checks if a line begins with a recognised date.
func startsWithDate(line string) bool {
	_, _, ok := matchDate(line)
	return ok
}

func isStatementHeader(line string) bool {
	return statementHeaderPattern.MatchString(line)
}

func isAmountCandidate(tok string) bool {
	return amountCandidatePattern.MatchString(strings.TrimSpace(tok))
}

func isMoneyShaped(tok string) bool {
	return isAmountCandidate(tok) && moneyHintPattern.MatchString(tok)
}

func isFooter(text string) bool {
	text = strings.TrimSpace(text)
	for _, re := range footerPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func isTerminator(line string) bool {
	return terminatorPattern.MatchString(line)
}

func isNoise(line string) bool {
	return noisePattern.MatchString(line) || isFooter(line)
}

// isColumnHeader reports whether line looks like a transaction table header:
// a date keyword plus a description, amount or balance keyword.
func isColumnHeader(line string) bool {
	if !dateKeywordPattern.MatchString(line) {
		return false
	}
	return descKeywordPattern.MatchString(line) ||
		amountKeywordPattern.MatchString(line) ||
		balanceKeywordPattern.MatchString(line)
}

// splitColumns splits the remainder of a row into trimmed, non-empty cells.
func splitColumns(s string) []string {
	var cells []string
	for _, c := range columnSplitPattern.Split(strings.TrimSpace(s), -1) {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// cleanAmount keeps digits and the decimal point of a money token and
// validates the result. Invalid values become N/A.
func cleanAmount(raw string) string {
	s := strings.TrimSpace(raw)
	s = balanceMarkerPattern.ReplaceAllString(s, "")
	s = currencyPrefixPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if !cleanAmountPattern.MatchString(s) {
		return models.NotAvailable
	}
	return s
}

// cleanBalance cleans a balance token and derives the transaction type from
// its trailing Dr/Cr marker. The marker is kept as a suffix.
func cleanBalance(raw string) (balance, typ string) {
	value := cleanAmount(raw)
	if value == models.NotAvailable {
		return models.NotAvailable, models.NotAvailable
	}
	m := balanceMarkerPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return value, models.NotAvailable
	}
	switch strings.ToLower(m[1]) {
	case "dr":
		return value + " Dr", models.TypeDebit
	default:
		return value + " Cr", models.TypeCredit
	}
}

// moneyFields returns the money-shaped fields of a line, folding a detached
// "Dr"/"Cr" marker into the value before it.
func moneyFields(fields []string) []string {
	var out []string
	prevMoney := false
	for _, f := range fields {
		if prevMoney && markerOnlyPattern.MatchString(f) {
			out[len(out)-1] += f
			prevMoney = false
			continue
		}
		prevMoney = isMoneyShaped(f)
		if prevMoney {
			out = append(out, f)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
