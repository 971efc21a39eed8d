package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/statement-parser/internal/models"
)

// CSVWriter writes an account's transactions to CSV format.
type CSVWriter struct {
	// IncludeMetadata prefixes the table with "# Account" and
	// "# Statement Period" rows.
	IncludeMetadata bool
}

// WriteToFile writes one account's transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path, accountID string, acc *models.Account) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, accountID, acc)
}

// Write writes one account's transactions in CSV format to the given writer.
// The column header row is written even when there are no transactions.
func (w *CSVWriter) Write(out io.Writer, accountID string, acc *models.Account) error {
	if w.IncludeMetadata {
		meta := csv.NewWriter(out)
		meta.Write([]string{"# Account", accountID})
		meta.Write([]string{"# Statement Period", acc.StatementPeriod})
		meta.Flush()
		if err := meta.Error(); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	txns := acc.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	if err := gocsv.Marshal(txns, out); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// WriteAccounts writes every account in data next to base. A single account
// goes to "<base>.csv"; several accounts go to "<base>_<account>.csv" each.
// It returns the paths written, in account order.
func (w *CSVWriter) WriteAccounts(base string, data *models.AccountsData) ([]string, error) {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ids := data.IDs()

	var paths []string
	for _, id := range ids {
		acc, _ := data.Get(id)
		path := base + ".csv"
		if len(ids) > 1 {
			path = fmt.Sprintf("%s_%s.csv", base, id)
		}
		if err := w.WriteToFile(path, id, acc); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
