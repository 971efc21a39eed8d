package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-parser/internal/models"
)

func TestAggregate(t *testing.T) {
	text, empty := Aggregate([]string{"page one", "", "page three", "  \n "})
	assert.Equal(t, "page one\n\npage three\n\n", text)
	assert.Equal(t, []int{2, 4}, empty)

	text, empty = Aggregate(nil)
	assert.Equal(t, "", text)
	assert.Empty(t, empty)
}

func TestSplitSections_NoHeaders(t *testing.T) {
	text := "Some bank\n01/01/2023  Coffee  3.50  96.50\n"
	sections := SplitSections(text)
	require.Len(t, sections, 1)
	assert.Equal(t, text, sections[0].Text)
	assert.Equal(t, models.UnknownPeriod, sections[0].Period)
	assert.False(t, sections[0].HasHeader)

	assert.Empty(t, SplitSections(""))
	assert.Empty(t, SplitSections(" \n\n "))
}

func TestSplitSections_SpansConcatenate(t *testing.T) {
	preamble := "ACME BANK\nCustomer copy\n"
	first := "Statement of account for the period of 01/01/2023 to 31/01/2023\nAccount Number: 111\n01/01/2023  A  1.00  2.00\n"
	second := "STATEMENT OF ACCOUNT FOR THE PERIOD OF 01/02/2023 to 28/02/2023\nAccount Number: 222\n"
	third := "Statement of Account for the Period of\nno period given\n"
	text := preamble + first + second + third

	sections := SplitSections(text)
	require.Len(t, sections, 3)

	var joined strings.Builder
	for i, s := range sections {
		assert.Equal(t, i, s.Index)
		assert.True(t, s.HasHeader)
		assert.Equal(t, text[s.Start:s.End], s.Text)
		joined.WriteString(s.Text)
	}
	assert.Equal(t, text[len(preamble):], joined.String())

	assert.Equal(t, first, sections[0].Text)
	assert.Equal(t, "01/01/2023 to 31/01/2023", sections[0].Period)
	assert.Equal(t, "01/02/2023 to 28/02/2023", sections[1].Period)
	assert.Equal(t, models.UnknownPeriod, sections[2].Period)
}

func TestExtractAccount(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		index int
		id    string
		found bool
	}{
		{"account number", "Account Number: 1234-5678-90", 0, "1234567890", true},
		{"a/c no", "A/C No.: 12-345-678", 0, "12345678", true},
		{"account no", "Account No 00998877", 0, "00998877", true},
		{"account colon", "Savings Account : 445566", 0, "445566", true},
		{"a/c colon", "A/C: 778899", 0, "778899", true},
		{"priority", "A/C: 1\nAccount Number: 2", 0, "2", true},
		{"none", "no label here", 2, "unknown_account_3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := ExtractAccount(tt.text, tt.index)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.found, found)

			again, _ := ExtractAccount(tt.text, tt.index)
			assert.Equal(t, id, again)
		})
	}
}

func TestExtractAccountNumbers(t *testing.T) {
	text := "Account Number: 111\nA/C No. 222\nAccount Number: 111-\n"
	assert.Equal(t, []string{"111", "222"}, ExtractAccountNumbers(text))
	assert.Empty(t, ExtractAccountNumbers("nothing"))
}

func TestExtractPeriod(t *testing.T) {
	period, ok := ExtractPeriod("x\nStatement of account for the period of 1 Apr 2023 - 30 Apr 2023\n")
	assert.True(t, ok)
	assert.Equal(t, "1 Apr 2023 - 30 Apr 2023", period)

	period, ok = ExtractPeriod("no header")
	assert.False(t, ok)
	assert.Equal(t, models.UnknownPeriod, period)
}
