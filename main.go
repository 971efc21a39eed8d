package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/config"
	"github.com/insightdelivered/statement-parser/internal/extractor"
	"github.com/insightdelivered/statement-parser/internal/logger"
	"github.com/insightdelivered/statement-parser/internal/organizer"
	"github.com/insightdelivered/statement-parser/internal/parser"
	"github.com/insightdelivered/statement-parser/internal/writer"
)

const version = "2.0.0"

type options struct {
	output    string
	header    bool
	report    bool
	organized bool
	currency  string
}

func main() {
	// CLI flags
	outputFlag := flag.String("output", "", "Output CSV base path (defaults to input filename; one file per account)")
	headerFlag := flag.Bool("header", true, "Include account metadata rows in CSV")
	policyFlag := flag.String("policy", "", "Row policy: strict or permissive (default from PARSER_ROW_POLICY, else strict)")
	reportFlag := flag.Bool("report", false, "Print a category and monthly summary report")
	organizedFlag := flag.Bool("organized", false, "Also write <input>_organized.csv with month and category columns")
	currencyFlag := flag.String("currency", "", "ISO-4217 currency for report totals (default from REPORT_CURRENCY, else INR)")
	logLevelFlag := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank Statement Text to Transactions Converter
by Insight Delivered (QEA AutoLens)

Reconstructs transactions from the text of bank statement PDFs, one
CSV per account, without any bank-specific templates.

Usage:
  statement-parser [flags] <input.pdf> [input2.pdf ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a statement
  statement-parser statement.pdf

  # Keep dated rows even when no amount or balance was found
  statement-parser --policy=permissive statement.pdf

  # Custom output path (statement with two accounts gives out_<account>.csv)
  statement-parser --output=out.csv statement.pdf

  # Categorise and summarise
  statement-parser --report --organized --currency=GBP jan.pdf feb.pdf

Environment:
  PARSER_ROW_POLICY, PARSER_HEADER_LOOKAHEAD, EXTRACTOR_PDFTOTEXT and
  REPORT_CURRENCY are read from the environment or a .env file.
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-parser v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}

	log, err := logger.New(*logLevelFlag, "console")
	if err != nil {
		fatalf("Failed to initialise logger: %v\n", err)
	}
	defer func() { _ = log.Sync() }()

	policyName := cfg.RowPolicy
	if *policyFlag != "" {
		policyName = *policyFlag
	}
	policy, err := parser.ParseRowPolicy(policyName)
	if err != nil {
		fatalf("%v\n", err)
	}

	currency := cfg.ReportCurrency
	if *currencyFlag != "" {
		currency = *currencyFlag
	}

	engine := parser.New(
		parser.WithLogger(log),
		parser.WithRowPolicy(policy),
		parser.WithHeaderLookahead(cfg.HeaderLookahead),
	)
	ext := extractor.New(extractor.ExtractionOptions{UsePdftotext: cfg.UsePdftotext, Logger: log})

	opts := options{
		output:    *outputFlag,
		header:    *headerFlag,
		report:    *reportFlag,
		organized: *organizedFlag,
		currency:  organizer.ResolveCurrency(currency),
	}

	// Process each input file
	for _, inputPath := range inputFiles {
		if err := processFile(inputPath, engine, ext, log, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(inputPath string, engine *parser.Engine, ext *extractor.Extractor, log *zap.Logger, opts options) error {
	fileExt := strings.ToLower(filepath.Ext(inputPath))
	if fileExt != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", fileExt)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	pages, err := ext.ExtractText(inputPath)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}

	fmt.Printf("  Extracted text from %d page(s)\n", len(pages))

	res := engine.ParsePages(pages)
	fmt.Printf("  Found %d transaction(s) in %d account(s)\n", res.Accounts.TransactionCount(), res.Accounts.Len())

	for _, id := range res.Accounts.IDs() {
		acc, _ := res.Accounts.Get(id)
		fmt.Printf("  Account %s: %d transaction(s), period %s\n", id, len(acc.Transactions), acc.StatementPeriod)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  Warning [%s]: %s\n", w.Kind, w.Message)
	}

	if res.Accounts.Len() == 0 {
		fmt.Println("  Warning: No text found. The PDF may be scanned images only.")
		return nil
	}
	if res.Accounts.TransactionCount() == 0 {
		fmt.Println("  Warning: No transactions found. Try --policy=permissive to keep rows without amounts.")
	}

	base := opts.output
	if base == "" {
		base = inputPath
	}
	w := &writer.CSVWriter{IncludeMetadata: opts.header}
	paths, err := w.WriteAccounts(base, res.Accounts)
	if err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	for _, p := range paths {
		fmt.Printf("  Output: %s\n", p)
	}

	if opts.report || opts.organized {
		o := organizer.New(nil, log)
		for _, id := range res.Accounts.IDs() {
			acc, _ := res.Accounts.Get(id)
			o.Organize(acc.Transactions)
		}

		if opts.report {
			if err := o.WriteReport(os.Stdout, opts.currency); err != nil {
				return fmt.Errorf("report failed: %w", err)
			}
		}
		if opts.organized {
			path := strings.TrimSuffix(base, filepath.Ext(base)) + "_organized.csv"
			if err := writeOrganized(path, o); err != nil {
				return err
			}
			fmt.Printf("  Organised output: %s\n", path)
		}
	}

	fmt.Println("  Done.")
	return nil
}

func writeOrganized(path string, o *organizer.Organizer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := o.ExportCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
