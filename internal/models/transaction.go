package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NotAvailable marks an amount or balance that could not be recovered.
const NotAvailable = "N/A"

// UnknownPeriod is used when a section carries no statement period.
const UnknownPeriod = "Unknown period"

// Transaction types derived from the balance marker.
const (
	TypeDebit  = "Debit"
	TypeCredit = "Credit"
)

// Transaction represents a single bank statement transaction.
//
// Amount and Balance stay strings: they are either a cleaned numeric value
// (digits and at most one decimal point) or NotAvailable. Balance may carry a
// " Dr" or " Cr" suffix.
type Transaction struct {
	Date        string `json:"date" csv:"date"`
	Description string `json:"description" csv:"description"`
	Amount      string `json:"amount" csv:"amount"`
	Balance     string `json:"balance" csv:"balance"`
	Type        string `json:"type" csv:"type"`       // Debit, Credit or N/A
	Code        string `json:"code,omitempty" csv:"-"` // single-letter type code after the date (T or C)
}

// HasNumbers reports whether either amount or balance was recovered.
func (t Transaction) HasNumbers() bool {
	return t.Amount != NotAvailable || t.Balance != NotAvailable
}

// Account holds the transactions recovered for one account identifier.
type Account struct {
	StatementPeriod string        `json:"statement_period"`
	Transactions    []Transaction `json:"transactions"`
	RawText         string        `json:"raw_text"`
}

// AccountsData maps account identifiers to their accounts, preserving the
// order in which identifiers were first seen.
type AccountsData struct {
	order    []string
	accounts map[string]*Account
}

// NewAccountsData returns an empty mapping.
func NewAccountsData() *AccountsData {
	return &AccountsData{accounts: make(map[string]*Account)}
}

// GetOrInsert returns the account for id, creating an empty one on first use.
// The second return value is true when the account was created.
func (d *AccountsData) GetOrInsert(id string) (*Account, bool) {
	if acc, ok := d.accounts[id]; ok {
		return acc, false
	}
	acc := &Account{StatementPeriod: UnknownPeriod, Transactions: []Transaction{}}
	d.accounts[id] = acc
	d.order = append(d.order, id)
	return acc, true
}

// Get returns the account for id, if present.
func (d *AccountsData) Get(id string) (*Account, bool) {
	acc, ok := d.accounts[id]
	return acc, ok
}

// IDs returns account identifiers in first-seen order.
func (d *AccountsData) IDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of accounts.
func (d *AccountsData) Len() int {
	return len(d.order)
}

// TransactionCount returns the number of transactions across all accounts.
func (d *AccountsData) TransactionCount() int {
	n := 0
	for _, acc := range d.accounts {
		n += len(acc.Transactions)
	}
	return n
}

// Merge folds a section's results into the account for id. Transactions keep
// document order, raw text is joined by a blank line and distinct known
// periods are joined with "; ".
func (d *AccountsData) Merge(id, period, rawText string, txns []Transaction) *Account {
	acc, created := d.GetOrInsert(id)
	acc.Transactions = append(acc.Transactions, txns...)

	if created {
		acc.StatementPeriod = period
		acc.RawText = rawText
		return acc
	}

	if rawText != "" {
		if acc.RawText != "" {
			acc.RawText += "\n\n"
		}
		acc.RawText += rawText
	}
	switch {
	case period == "" || period == UnknownPeriod:
	case acc.StatementPeriod == "" || acc.StatementPeriod == UnknownPeriod:
		acc.StatementPeriod = period
	case !containsPeriod(acc.StatementPeriod, period):
		acc.StatementPeriod += "; " + period
	}
	return acc
}

func containsPeriod(joined, period string) bool {
	for _, p := range strings.Split(joined, "; ") {
		if p == period {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the mapping as a JSON object in first-seen order.
func (d *AccountsData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.accounts[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
