package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/models"
)

const multiAccountStatement = `ACME BANK LTD
Statement of account for the period of 01/01/2023 to 31/01/2023
Account Number: 1234-5678
Date  Description  Amount  Balance
01/01/2023  Salary credit  1,200.00  5,400.00
03-Jan-2023  ATM Withdrawal  500.00
Closing balance  4,900.00
Statement of account for the period of 01/02/2023 to 28/02/2023
A/C No.: 99-001
01/02/2023  Rent  700.00  300.00Dr
Statement of account for the period of 01/03/2023 to 31/03/2023
Account Number: 1234-5678
02/03/2023  Interest  1.00  4,901.00
`

func TestEngine_ParseText(t *testing.T) {
	res := New().ParseText(multiAccountStatement)

	assert.Equal(t, []string{"12345678", "99001"}, res.Accounts.IDs())
	assert.Equal(t, 4, res.Accounts.TransactionCount())
	require.Len(t, res.Sections, 3)
	for _, s := range res.Sections {
		assert.Equal(t, models.StrategyDirect, s.Strategy)
	}
	assert.Empty(t, res.Warnings)

	main, ok := res.Accounts.Get("12345678")
	require.True(t, ok)
	assert.Equal(t, "01/01/2023 to 31/01/2023; 01/03/2023 to 31/03/2023", main.StatementPeriod)
	require.Len(t, main.Transactions, 3)
	assert.Equal(t, models.Transaction{
		Date: "01/01/2023", Description: "Salary credit",
		Amount: "1200.00", Balance: "5400.00", Type: "N/A",
	}, main.Transactions[0])
	assert.Equal(t, "ATM Withdrawal", main.Transactions[1].Description)
	assert.Equal(t, "500.00", main.Transactions[1].Amount)
	assert.Equal(t, "N/A", main.Transactions[1].Balance)
	assert.Equal(t, "Interest", main.Transactions[2].Description)
	assert.True(t, strings.HasPrefix(main.RawText, "Statement of account for the period of 01/01/2023"))
	assert.Contains(t, main.RawText, "\n\nStatement of account for the period of 01/03/2023")

	other, ok := res.Accounts.Get("99001")
	require.True(t, ok)
	require.Len(t, other.Transactions, 1)
	assert.Equal(t, "300.00 Dr", other.Transactions[0].Balance)
	assert.Equal(t, models.TypeDebit, other.Transactions[0].Type)
}

func TestEngine_ParseText_NoHeader(t *testing.T) {
	res := New().ParseText("Mini statement\n01/01/2023  Coffee  3.50  96.50\n")

	assert.Equal(t, []string{"unknown_account_1"}, res.Accounts.IDs())
	acc, _ := res.Accounts.Get("unknown_account_1")
	assert.Equal(t, models.UnknownPeriod, acc.StatementPeriod)
	require.Len(t, acc.Transactions, 1)
	assert.Equal(t, models.StrategyVirtualHeader, res.Sections[0].Strategy)

	var kinds []models.WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
		assert.Equal(t, 1, w.Section)
	}
	assert.Equal(t, []models.WarningKind{models.WarnAccountNotFound, models.WarnPeriodNotFound}, kinds)
}

func TestEngine_ParseText_NoiseOnly(t *testing.T) {
	res := New().ParseText("Opening balance\nPage 1 of 1\n")

	acc, ok := res.Accounts.Get("unknown_account_1")
	require.True(t, ok)
	assert.NotNil(t, acc.Transactions)
	assert.Empty(t, acc.Transactions)
	assert.Equal(t, models.StrategyNone, res.Sections[0].Strategy)
	assert.Equal(t, models.WarnNoTransactions, res.Warnings[len(res.Warnings)-1].Kind)
}

func TestEngine_ParseText_Blank(t *testing.T) {
	res := New().ParseText(" \n\n")
	assert.Equal(t, 0, res.Accounts.Len())
	assert.NotNil(t, res.Sections)
	assert.Empty(t, res.Sections)
	assert.Empty(t, res.Warnings)
}

func TestEngine_ParsePages(t *testing.T) {
	pages := []string{"", "Statement of account for the period of Jan 2023\nAccount Number: 42\n01/01/2023  Tea  2.00  8.00"}
	res := New(WithLogger(zap.NewNop())).ParsePages(pages)

	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, models.WarnPageEmpty, res.Warnings[0].Kind)
	assert.Equal(t, "page 1 yielded no text", res.Warnings[0].Message)

	acc, ok := res.Accounts.Get("42")
	require.True(t, ok)
	assert.Equal(t, "Jan 2023", acc.StatementPeriod)
	assert.Len(t, acc.Transactions, 1)
}

func TestEngine_RowPolicy(t *testing.T) {
	text := "Account Number: 7\n01/01/2023  Cheque returned\n02/01/2023  Fee  5.00  95.00\n"

	strict := New().ParseText(text)
	acc, _ := strict.Accounts.Get("7")
	assert.Len(t, acc.Transactions, 1)

	permissive := New(WithRowPolicy(RowPolicyPermissive)).ParseText(text)
	acc, _ = permissive.Accounts.Get("7")
	require.Len(t, acc.Transactions, 2)
	assert.Equal(t, "N/A", acc.Transactions[0].Amount)
}

func TestLocateTransactions(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		strategy models.Strategy
		count    int
	}{
		{
			name: "direct",
			lines: []string{
				"Statement of account for the period of Q1",
				"01/01/2023  A  1.00  2.00",
			},
			strategy: models.StrategyDirect,
			count:    1,
		},
		{
			name: "column header",
			lines: []string{
				"Branch: High Street",
				"Date  Particulars  Withdrawals  Balance",
				"01/01/2023  A  1.00  2.00",
				"02/01/2023  B  1.00  1.00",
			},
			strategy: models.StrategyColumnHeader,
			count:    2,
		},
		{
			name: "virtual header",
			lines: []string{
				"Branch: High Street",
				"01/01/2023  A  1.00  2.00",
			},
			strategy: models.StrategyVirtualHeader,
			count:    1,
		},
		{
			name:     "none",
			lines:    []string{"Opening balance", "nothing dated"},
			strategy: models.StrategyNone,
			count:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, txns := LocateTransactions(tt.lines)
			assert.Equal(t, tt.strategy, strategy)
			assert.NotNil(t, txns)
			assert.Len(t, txns, tt.count)
		})
	}
}

func TestEngine_HeaderLookahead(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "01/01/2023  A  1.00  2.00"}

	strategy, res := New(WithHeaderLookahead(2)).locate(lines, 1)
	assert.Equal(t, models.StrategyNone, strategy)
	assert.Empty(t, res.transactions)

	strategy, res = New().locate(lines, 1)
	assert.Equal(t, models.StrategyVirtualHeader, strategy)
	assert.Len(t, res.transactions, 1)
}

func TestParseRowPolicy(t *testing.T) {
	p, err := ParseRowPolicy("Permissive")
	require.NoError(t, err)
	assert.Equal(t, RowPolicyPermissive, p)
	assert.Equal(t, "permissive", p.String())

	p, err = ParseRowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RowPolicyStrict, p)

	_, err = ParseRowPolicy("lenient")
	assert.Error(t, err)
}
