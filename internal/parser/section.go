package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// Section is a contiguous slice of the document belonging to one account and
// statement period. Start and End are byte offsets into the document.
type Section struct {
	Index     int
	Start     int
	End       int
	Text      string
	Period    string
	HasHeader bool
}

// Aggregate concatenates page texts in order, each followed by a blank line.
// Pages with no text are skipped; their 1-based numbers are returned.
func Aggregate(pages []string) (text string, emptyPages []int) {
	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			emptyPages = append(emptyPages, i+1)
			continue
		}
		b.WriteString(page)
		b.WriteString("\n\n")
	}
	return b.String(), emptyPages
}

// SplitSections partitions text at each statement header. Section i runs
// from header i up to header i+1, the last one to the end of the text. Text
// before the first header is not part of any section. Without headers the
// whole text is a single section. Blank text yields no sections.
func SplitSections(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	locs := statementHeaderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []Section{{
			Index:  0,
			Start:  0,
			End:    len(text),
			Text:   text,
			Period: models.UnknownPeriod,
		}}
	}

	sections := make([]Section, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		period := strings.TrimSpace(text[loc[2]:loc[3]])
		if period == "" {
			period = models.UnknownPeriod
		}
		sections = append(sections, Section{
			Index:     i,
			Start:     loc[0],
			End:       end,
			Text:      text[loc[0]:end],
			Period:    period,
			HasHeader: true,
		})
	}
	return sections
}

// accountPattern is one labelled account-number layout.
type accountPattern struct {
	label string
	re    *regexp.Regexp
}

// accountPatterns are tried in priority order.
var accountPatterns = []accountPattern{
	{"Account Number", regexp.MustCompile(`(?i)Account\s+Number[:\s]+(\d+[-\d]*)`)},
	{"A/C No.", regexp.MustCompile(`(?i)A/C\s+No\.?[:\s]+(\d+[-\d]*)`)},
	{"Account No.", regexp.MustCompile(`(?i)Account\s+No\.?[:\s]+(\d+[-\d]*)`)},
	{"Account", regexp.MustCompile(`(?i)Account\s*:\s*(\d+[-\d]*)`)},
	{"A/C", regexp.MustCompile(`(?i)A/C\s*:\s*(\d+[-\d]*)`)},
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ExtractAccount returns the account identifier of a section. When no label
// matches, it synthesises unknown_account_<index+1> and reports found=false.
func ExtractAccount(text string, index int) (id string, found bool) {
	for _, p := range accountPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if id := nonAlphanumeric.ReplaceAllString(m[1], ""); id != "" {
			return id, true
		}
	}
	return fmt.Sprintf("unknown_account_%d", index+1), false
}

// ExtractAccountNumbers returns every distinct labelled account number in
// text, in order of first appearance per pattern priority.
func ExtractAccountNumbers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range accountPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			id := nonAlphanumeric.ReplaceAllString(m[1], "")
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ExtractPeriod returns the statement period captured from the section's own
// header line, or UnknownPeriod.
func ExtractPeriod(text string) (string, bool) {
	m := statementHeaderPattern.FindStringSubmatch(text)
	if m == nil {
		return models.UnknownPeriod, false
	}
	period := strings.TrimSpace(m[1])
	if period == "" {
		return models.UnknownPeriod, false
	}
	return period, true
}
