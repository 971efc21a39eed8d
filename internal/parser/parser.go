package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// RowPolicy decides what happens to dated rows whose amount and balance
// both end up N/A.
type RowPolicy int

const (
	// RowPolicyStrict drops such rows.
	RowPolicyStrict RowPolicy = iota
	// RowPolicyPermissive keeps them with N/A fields.
	RowPolicyPermissive
)

func (p RowPolicy) String() string {
	if p == RowPolicyPermissive {
		return "permissive"
	}
	return "strict"
}

// ParseRowPolicy maps "strict" or "permissive" to a RowPolicy.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return RowPolicyStrict, nil
	case "permissive":
		return RowPolicyPermissive, nil
	default:
		return RowPolicyStrict, fmt.Errorf("unknown row policy %q; use strict or permissive", s)
	}
}

// DefaultHeaderLookahead is how many lines after the statement header are
// searched for the transaction table.
const DefaultHeaderLookahead = 30

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRowPolicy sets the policy for rows without amount or balance.
func WithRowPolicy(p RowPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithHeaderLookahead sets the table header search window.
func WithHeaderLookahead(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.lookahead = n
		}
	}
}

// Engine reconstructs transactions from extracted statement text. It holds
// configuration only; every parse builds its own result, so one Engine can
// serve concurrent requests.
type Engine struct {
	log       *zap.Logger
	policy    RowPolicy
	lookahead int
}

// New returns an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:       zap.NewNop(),
		policy:    RowPolicyStrict,
		lookahead: DefaultHeaderLookahead,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's row policy.
func (e *Engine) Policy() RowPolicy {
	return e.policy
}

// WithPolicy returns a copy of the engine that uses row policy p.
func (e *Engine) WithPolicy(p RowPolicy) *Engine {
	c := *e
	c.policy = p
	return &c
}

// Result is the outcome of one parse: the per-account mapping plus the
// diagnostics gathered on the way.
type Result struct {
	Accounts *models.AccountsData
	Sections []models.SectionReport
	Warnings []models.Warning
}

// ParsePages aggregates per-page text and parses the resulting document.
func (e *Engine) ParsePages(pages []string) *Result {
	text, empty := Aggregate(pages)
	warnings := make([]models.Warning, 0, len(empty))
	for _, n := range empty {
		e.log.Warn("page yielded no text", zap.Int("page", n))
		warnings = append(warnings, models.Warning{
			Kind:    models.WarnPageEmpty,
			Message: fmt.Sprintf("page %d yielded no text", n),
		})
	}
	res := e.ParseText(text)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

// ParseText parses an aggregated document.
func (e *Engine) ParseText(text string) *Result {
	res := &Result{
		Accounts: models.NewAccountsData(),
		Sections: []models.SectionReport{},
		Warnings: []models.Warning{},
	}

	sections := SplitSections(text)
	if len(sections) == 0 {
		e.log.Warn("document has no text")
		return res
	}
	if first := sections[0]; first.HasHeader && first.Start > 0 {
		e.log.Debug("text before first statement header ignored", zap.Int("chars", first.Start))
	}

	for _, sec := range sections {
		report := e.parseSection(sec, res)
		res.Sections = append(res.Sections, report)
	}

	e.log.Info("statement parsed",
		zap.Int("sections", len(sections)),
		zap.Int("accounts", res.Accounts.Len()),
		zap.Int("transactions", res.Accounts.TransactionCount()),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}

func (e *Engine) parseSection(sec Section, res *Result) models.SectionReport {
	num := sec.Index + 1
	log := e.log.With(zap.Int("section", num))

	id, found := ExtractAccount(sec.Text, sec.Index)
	if !found {
		e.warn(res, log, models.Warning{
			Kind:    models.WarnAccountNotFound,
			Section: num,
			Message: fmt.Sprintf("no account label found; using %s", id),
		})
	}

	period, ok := ExtractPeriod(sec.Text)
	if !ok {
		e.warn(res, log, models.Warning{
			Kind:    models.WarnPeriodNotFound,
			Section: num,
			Message: "no statement period found",
		})
	}

	strategy, scan := e.locate(splitLines(sec.Text), num)
	for _, w := range scan.warnings {
		e.warn(res, log, w)
	}
	if len(scan.transactions) == 0 {
		e.warn(res, log, models.Warning{
			Kind:    models.WarnNoTransactions,
			Section: num,
			Message: "no transaction rows found",
		})
	}

	res.Accounts.Merge(id, period, sec.Text, scan.transactions)
	log.Debug("section parsed",
		zap.String("account", id),
		zap.String("period", period),
		zap.String("strategy", string(strategy)),
		zap.Int("transactions", len(scan.transactions)),
	)

	return models.SectionReport{
		Index:        num,
		AccountID:    id,
		Period:       period,
		Strategy:     strategy,
		Transactions: len(scan.transactions),
		DebugLines:   scan.debug,
	}
}

func (e *Engine) warn(res *Result, log *zap.Logger, w models.Warning) {
	log.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.Int("line", w.Line))
	res.Warnings = append(res.Warnings, w)
}
