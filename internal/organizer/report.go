package organizer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a report currency is unknown to go-money.
const DefaultCurrency = "INR"

// CategoryTotal is the total of positive amounts in one category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthTotals lists category totals for one month.
type MonthTotals struct {
	Month      string          `json:"month"`
	Categories []CategoryTotal `json:"categories"`
}

// Summary is a sorted view of the totals: categories by descending total,
// months ascending with their categories by descending total.
type Summary struct {
	Categories []CategoryTotal `json:"categories"`
	Months     []MonthTotals   `json:"months"`
}

// Summary returns the current totals as a sorted view.
func (o *Organizer) Summary() Summary {
	s := Summary{
		Categories: sortedTotals(o.categoryTotals),
		Months:     make([]MonthTotals, 0, len(o.monthlyTotals)),
	}

	months := make([]string, 0, len(o.monthlyTotals))
	for m := range o.monthlyTotals {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		s.Months = append(s.Months, MonthTotals{Month: m, Categories: sortedTotals(o.monthlyTotals[m])})
	}
	return s
}

func sortedTotals(totals map[Category]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WriteReport renders the category and monthly summaries as text, formatting
// totals in the given ISO-4217 currency.
func (o *Organizer) WriteReport(w io.Writer, currency string) error {
	currency = ResolveCurrency(currency)
	s := o.Summary()
	rule := strings.Repeat("-", 40)

	var b strings.Builder
	fmt.Fprintf(&b, "\nTransaction Categories Summary:\n%s\n", rule)
	for _, ct := range s.Categories {
		fmt.Fprintf(&b, "%-15s: %s\n", ct.Category, display(ct.Total, currency))
	}

	fmt.Fprintf(&b, "\nMonthly Transaction Totals:\n%s\n", rule)
	for _, m := range s.Months {
		fmt.Fprintf(&b, "\n%s:\n", m.Month)
		for _, ct := range m.Categories {
			fmt.Fprintf(&b, "  %-15s: %s\n", ct.Category, display(ct.Total, currency))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ResolveCurrency normalises an ISO-4217 code, falling back to
// DefaultCurrency for codes go-money does not know.
func ResolveCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}

// display formats d with the currency's symbol, grouping and fraction.
func display(d decimal.Decimal, currency string) string {
	c := money.GetCurrency(currency)
	minor := d.Mul(decimal.New(1, int32(c.Fraction))).Round(0).IntPart()
	return money.New(minor, currency).Display()
}
