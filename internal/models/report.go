package models

// WarningKind classifies a recoverable parsing problem.
type WarningKind string

const (
	WarnPageEmpty       WarningKind = "page_empty"
	WarnAccountNotFound WarningKind = "account_not_found"
	WarnPeriodNotFound  WarningKind = "period_not_found"
	WarnNoTransactions  WarningKind = "no_transactions"
	WarnMalformedRow    WarningKind = "malformed_row"
)

// Warning records a soft failure. Section and Line are 1-based; zero means
// the warning is not tied to a section or line.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Section int         `json:"section,omitempty"`
	Line    int         `json:"line,omitempty"`
	Message string      `json:"message"`
}

// Strategy names the way a section's transaction lines were located.
type Strategy string

const (
	StrategyDirect        Strategy = "direct"
	StrategyColumnHeader  Strategy = "column-header"
	StrategyVirtualHeader Strategy = "virtual-header"
	StrategyNone          Strategy = "none"
)

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	HasDate bool   `json:"hasDate"`
	Result  string `json:"result"` // "parsed", "dropped", "continuation", "spillover", "noise", "terminator", "skipped"
	Method  string `json:"method,omitempty"`
}

// SectionReport summarises how one statement section was processed.
type SectionReport struct {
	Index        int         `json:"index"`
	AccountID    string      `json:"accountId"`
	Period       string      `json:"period"`
	Strategy     Strategy    `json:"strategy"`
	Transactions int         `json:"transactions"`
	DebugLines   []DebugLine `json:"debugLines,omitempty"`
}
