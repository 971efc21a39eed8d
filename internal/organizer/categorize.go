package organizer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Category is a transaction category.
type Category string

// Categories in priority order.
const (
	CategoryDeposit    Category = "DEPOSIT"
	CategoryWithdrawal Category = "WITHDRAWAL"
	CategoryInterest   Category = "INTEREST"
	CategoryCharges    Category = "CHARGES"
	CategoryTransfer   Category = "TRANSFER"
	CategoryOther      Category = "OTHER"
)

// Rule assigns a category to descriptions containing any of its keywords.
type Rule struct {
	Category Category
	Keywords []string
}

// DefaultRules returns the built-in rules. Earlier rules take precedence.
func DefaultRules() []Rule {
	return []Rule{
		{CategoryDeposit, []string{"cash", "credit", "deposit", "by cash", "by imps"}},
		{CategoryWithdrawal, []string{"withdrawal", "debit", "to cash", "paid"}},
		{CategoryInterest, []string{"interest", "int.coll"}},
		{CategoryCharges, []string{"charge", "fee", "gst", "cgst", "inspection"}},
		{CategoryTransfer, []string{"transfer", "trf", "imps", "neft", "rtgs"}},
		{CategoryOther, nil},
	}
}

// Categorizer matches every keyword of every rule in a single pass over a
// description using an Aho-Corasick automaton.
type Categorizer struct {
	matcher    *ahocorasick.Matcher
	ruleOf     []int // pattern index -> rule index
	categories []Category
}

// NewCategorizer builds a Categorizer from rules. Keywords are matched
// case-insensitively as substrings.
func NewCategorizer(rules []Rule) *Categorizer {
	c := &Categorizer{categories: make([]Category, len(rules))}

	var patterns [][]byte
	for i, r := range rules {
		c.categories[i] = r.Category
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			patterns = append(patterns, []byte(kw))
			c.ruleOf = append(c.ruleOf, i)
		}
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewMatcher(patterns)
	}
	return c
}

// Categorize returns the category of the first rule with a keyword in
// description, or CategoryOther.
func (c *Categorizer) Categorize(description string) Category {
	if c.matcher == nil {
		return CategoryOther
	}
	hits := c.matcher.MatchThreadSafe([]byte(strings.ToLower(description)))
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(c.ruleOf) {
			continue
		}
		if r := c.ruleOf[idx]; best == -1 || r < best {
			best = r
		}
	}
	if best == -1 {
		return CategoryOther
	}
	return c.categories[best]
}
