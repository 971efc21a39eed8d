package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/extractor"
	"github.com/insightdelivered/statement-parser/internal/models"
	"github.com/insightdelivered/statement-parser/internal/organizer"
	"github.com/insightdelivered/statement-parser/internal/parser"
	"github.com/insightdelivered/statement-parser/internal/store"
	"github.com/insightdelivered/statement-parser/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// pageBreak separates pages in client-side extracted text.
const pageBreak = "\n---PAGE_BREAK---\n"

// TextExtractor turns a PDF file into per-page text.
type TextExtractor interface {
	ExtractText(path string) ([]string, error)
}

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                   `json:"success"`
	ResultID     string                 `json:"resultId"`
	Accounts     *models.AccountsData   `json:"accounts"`
	AccountOrder []string               `json:"accountOrder"`
	Count        int                    `json:"count"`
	Policy       string                 `json:"policy"`
	Warnings     []models.Warning       `json:"warnings"`
	Sections     []models.SectionReport `json:"sections"`
	RawText      string                 `json:"rawText,omitempty"`
}

// ResultResponse is the JSON response for a stored result.
type ResultResponse struct {
	Success      bool                 `json:"success"`
	ResultID     string               `json:"resultId"`
	Accounts     *models.AccountsData `json:"accounts"`
	AccountOrder []string             `json:"accountOrder"`
	Count        int                  `json:"count"`
}

// ReportResponse is the JSON response from the report endpoint.
type ReportResponse struct {
	Success  bool               `json:"success"`
	Currency string             `json:"currency"`
	Summary  organizer.Summary  `json:"summary"`
	Records  []organizer.Record `json:"records"`
	Report   string             `json:"report"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Engine    *parser.Engine
	Store     *store.ResultStore
	Extractor TextExtractor
	Log       *zap.Logger
	Currency  string
	StaticDir string
}

// RegisterRoutes sets up the HTTP routes on app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/convert", h.HandleConvert)
	api.Get("/results/:id", h.HandleGetResult)
	api.Delete("/results/:id", h.HandleDeleteResult)
	api.Get("/results/:id/csv", h.HandleResultCSV)
	api.Get("/results/:id/report", h.HandleResultReport)

	// Serve the web UI; unknown non-API paths fall back to index.html.
	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return writeError(c, fiber.StatusNotFound, "Unknown API route.")
			}
			return c.SendFile(filepath.Join(h.StaticDir, "index.html"))
		})
	}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleConvert parses an uploaded statement and stores the result.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	engine := h.Engine
	if p := c.FormValue("policy"); p != "" {
		policy, err := parser.ParseRowPolicy(p)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		engine = engine.WithPolicy(policy)
	}
	debug := c.FormValue("debug") == "true"

	var pages []string
	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		// form values alias fiber's request buffer; results outlive the request
		pages = strings.Split(strings.Clone(text), pageBreak)
	} else {
		var status int
		var msg string
		if pages, status, msg = h.extractUpload(c); status != 0 {
			return writeError(c, status, msg)
		}
	}

	res := engine.ParsePages(pages)
	id := h.Store.Put(res.Accounts)
	h.Log.Info("statement converted",
		zap.String("result_id", id),
		zap.Int("pages", len(pages)),
		zap.Int("accounts", res.Accounts.Len()),
		zap.Int("transactions", res.Accounts.TransactionCount()),
		zap.String("policy", engine.Policy().String()),
	)

	sections := res.Sections
	if !debug {
		sections = make([]models.SectionReport, len(res.Sections))
		for i, s := range res.Sections {
			s.DebugLines = nil
			sections[i] = s
		}
	}

	resp := ConvertResponse{
		Success:      true,
		ResultID:     id,
		Accounts:     res.Accounts,
		AccountOrder: res.Accounts.IDs(),
		Count:        res.Accounts.TransactionCount(),
		Policy:       engine.Policy().String(),
		Warnings:     res.Warnings,
		Sections:     sections,
	}
	if debug {
		resp.RawText = strings.Join(pages, "\n--- PAGE BREAK ---\n")
	}
	return c.JSON(resp)
}

// extractUpload saves the uploaded PDF to a uniquely named temp file,
// extracts its pages and removes the file on every path. A non-zero status
// reports a failure with its message.
func (h *Handler) extractUpload(c *fiber.Ctx) ([]string, int, string) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'."
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return nil, fiber.StatusBadRequest, "Only PDF files are supported."
	}

	tmpPath := filepath.Join(os.TempDir(), "statement-"+uuid.NewString()+".pdf")
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.Log.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	if err := c.SaveFile(file, tmpPath); err != nil {
		h.Log.Error("failed to save upload", zap.Error(err))
		return nil, fiber.StatusInternalServerError, "Failed to save uploaded file."
	}

	pages, err := h.Extractor.ExtractText(tmpPath)
	if err != nil {
		h.Log.Warn("PDF extraction failed", zap.String("file", file.Filename), zap.Error(err))
		var extErr *extractor.ExtractionError
		switch {
		case errors.Is(err, extractor.ErrNotFound):
			return nil, fiber.StatusBadRequest, fmt.Sprintf("Uploaded file could not be read: %v", err)
		case errors.As(err, &extErr):
			return nil, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", extErr.Err)
		default:
			return nil, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err)
		}
	}
	return pages, 0, ""
}

// HandleGetResult returns a stored result.
func (h *Handler) HandleGetResult(c *fiber.Ctx) error {
	id := c.Params("id")
	data, ok := h.Store.Get(id)
	if !ok {
		return writeError(c, fiber.StatusNotFound, "Result not found or expired.")
	}
	return c.JSON(ResultResponse{
		Success:      true,
		ResultID:     id,
		Accounts:     data,
		AccountOrder: data.IDs(),
		Count:        data.TransactionCount(),
	})
}

// HandleDeleteResult clears a stored result.
func (h *Handler) HandleDeleteResult(c *fiber.Ctx) error {
	if !h.Store.Delete(c.Params("id")) {
		return writeError(c, fiber.StatusNotFound, "Result not found or expired.")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleResultCSV downloads one account of a stored result as CSV. The
// account query parameter may be omitted when there is a single account.
func (h *Handler) HandleResultCSV(c *fiber.Ctx) error {
	data, ok := h.Store.Get(c.Params("id"))
	if !ok {
		return writeError(c, fiber.StatusNotFound, "Result not found or expired.")
	}

	accountID := c.Query("account")
	if accountID == "" {
		ids := data.IDs()
		if len(ids) != 1 {
			return writeError(c, fiber.StatusBadRequest,
				fmt.Sprintf("Result has %d accounts; choose one with ?account= (%s).", len(ids), strings.Join(ids, ", ")))
		}
		accountID = ids[0]
	}
	acc, ok := data.Get(accountID)
	if !ok {
		return writeError(c, fiber.StatusNotFound, fmt.Sprintf("Unknown account %q.", accountID))
	}

	var buf bytes.Buffer
	w := &writer.CSVWriter{IncludeMetadata: c.Query("header") != "false"}
	if err := w.Write(&buf, accountID, acc); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(accountID + ".csv")
	return c.Send(buf.Bytes())
}

// HandleResultReport categorises a stored result and returns the totals.
func (h *Handler) HandleResultReport(c *fiber.Ctx) error {
	data, ok := h.Store.Get(c.Params("id"))
	if !ok {
		return writeError(c, fiber.StatusNotFound, "Result not found or expired.")
	}

	currency := organizer.ResolveCurrency(c.Query("currency", h.Currency))

	o := organizer.New(nil, h.Log)
	for _, id := range data.IDs() {
		acc, _ := data.Get(id)
		o.Organize(acc.Transactions)
	}

	var report bytes.Buffer
	if err := o.WriteReport(&report, currency); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Report generation failed: %v", err))
	}

	records := o.Records()
	if records == nil {
		records = []organizer.Record{}
	}
	return c.JSON(ReportResponse{
		Success:  true,
		Currency: currency,
		Summary:  o.Summary(),
		Records:  records,
		Report:   report.String(),
	})
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}
