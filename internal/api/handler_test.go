package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-parser/internal/extractor"
	"github.com/insightdelivered/statement-parser/internal/parser"
	"github.com/insightdelivered/statement-parser/internal/store"
)

const statementText = `Statement of account for the period of 01/01/2023 to 31/01/2023
Account Number: 1234-5678
Date  Description  Amount  Balance
01/01/2023  Salary credit  1,200.00  5,400.00
03-Jan-2023  ATM Withdrawal  500.00
05/01/2023  Cheque returned
Closing balance  4,900.00
`

// fakeExtractor records the path it was given and returns canned output.
type fakeExtractor struct {
	pages []string
	err   error
	path  string
}

func (f *fakeExtractor) ExtractText(path string) ([]string, error) {
	f.path = path
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return f.pages, f.err
}

func setupTestApp(ext TextExtractor) (*fiber.App, *Handler) {
	h := &Handler{
		Engine:    parser.New(),
		Store:     store.New(time.Minute, time.Minute),
		Extractor: ext,
		Currency:  "INR",
	}
	return NewApp(h, AppConfig{}), h
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, fileBody []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(&fakeExtractor{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]string
	decode(t, resp, &result)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.Equal(t, Version, result["version"])
}

func TestConvert_ExtractedTextLifecycle(t *testing.T) {
	app, _ := setupTestApp(&fakeExtractor{})

	req := multipartRequest(t, map[string]string{
		"extractedText": "" + pageBreak + statementText,
		"debug":         "true",
	}, "", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var conv struct {
		Success      bool                       `json:"success"`
		ResultID     string                     `json:"resultId"`
		Accounts     map[string]json.RawMessage `json:"accounts"`
		AccountOrder []string                   `json:"accountOrder"`
		Count        int                        `json:"count"`
		Policy       string                     `json:"policy"`
		Warnings     []struct {
			Kind string `json:"kind"`
		} `json:"warnings"`
		Sections []struct {
			Strategy   string            `json:"strategy"`
			DebugLines []json.RawMessage `json:"debugLines"`
		} `json:"sections"`
	}
	decode(t, resp, &conv)
	assert.True(t, conv.Success)
	assert.NotEmpty(t, conv.ResultID)
	assert.Equal(t, []string{"12345678"}, conv.AccountOrder)
	assert.Equal(t, 2, conv.Count)
	assert.Equal(t, "strict", conv.Policy)
	require.Len(t, conv.Sections, 1)
	assert.Equal(t, "direct", conv.Sections[0].Strategy)
	assert.NotEmpty(t, conv.Sections[0].DebugLines)

	var kinds []string
	for _, w := range conv.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Equal(t, []string{"page_empty", "malformed_row"}, kinds)

	// stored result
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+conv.ResultID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"statement_period":"01/01/2023 to 31/01/2023"`)
	var stored struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, 2, stored.Count)

	// csv download
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+conv.ResultID+"/csv", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "12345678.csv")
	csvBody, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(csvBody)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# Account,12345678", lines[0])
	assert.Equal(t, "date,description,amount,balance,type", lines[2])
	assert.Equal(t, "01/01/2023,Salary credit,1200.00,5400.00,N/A", lines[3])

	// report
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+conv.ResultID+"/report?currency=gbp", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report struct {
		Currency string `json:"currency"`
		Report   string `json:"report"`
		Records  []struct {
			Category string `json:"category"`
		} `json:"records"`
	}
	decode(t, resp, &report)
	assert.Equal(t, "GBP", report.Currency)
	assert.Contains(t, report.Report, "DEPOSIT        : £1,200.00")
	require.Len(t, report.Records, 2)
	assert.Equal(t, "WITHDRAWAL", report.Records[1].Category)

	// clear
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/results/"+conv.ResultID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+conv.ResultID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConvert_PermissivePolicy(t *testing.T) {
	app, _ := setupTestApp(&fakeExtractor{})

	req := multipartRequest(t, map[string]string{"extractedText": statementText, "policy": "permissive"}, "", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var conv ConvertResponse
	var raw map[string]json.RawMessage
	decode(t, resp, &raw)
	require.NoError(t, json.Unmarshal(raw["count"], &conv.Count))
	require.NoError(t, json.Unmarshal(raw["sections"], &conv.Sections))
	assert.Equal(t, 3, conv.Count)
	assert.Empty(t, conv.Sections[0].DebugLines)
}

func TestConvert_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		fileName string
		status   int
		errText  string
	}{
		{"no file", nil, "", fiber.StatusBadRequest, "No file uploaded"},
		{"not a pdf", nil, "notes.txt", fiber.StatusBadRequest, "Only PDF files"},
		{"bad policy", map[string]string{"policy": "lenient", "extractedText": "x"}, "", fiber.StatusBadRequest, "unknown row policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(&fakeExtractor{})
			resp, err := app.Test(multipartRequest(t, tt.fields, tt.fileName, []byte("data")))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e ErrorResponse
			decode(t, resp, &e)
			assert.False(t, e.Success)
			assert.Contains(t, e.Error, tt.errText)
		})
	}
}

func TestConvert_UploadRemovesTempFile(t *testing.T) {
	tests := []struct {
		name   string
		ext    *fakeExtractor
		status int
	}{
		{"success", &fakeExtractor{pages: []string{statementText}}, fiber.StatusOK},
		{"extraction error", &fakeExtractor{err: &extractor.ExtractionError{Path: "x", Err: errors.New("corrupt xref")}}, fiber.StatusUnprocessableEntity},
		{"not found", &fakeExtractor{err: extractor.ErrNotFound}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(tt.ext)
			resp, err := app.Test(multipartRequest(t, nil, "Statement.PDF", []byte("%PDF-1.4")))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			require.NotEmpty(t, tt.ext.path)
			assert.True(t, strings.HasPrefix(tt.ext.path, os.TempDir()))
			_, statErr := os.Stat(tt.ext.path)
			assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
		})
	}
}

func TestResultCSV_AccountSelection(t *testing.T) {
	app, h := setupTestApp(&fakeExtractor{})
	res := h.Engine.ParseText(statementText + "Statement of account for the period of Feb\nAccount Number: 99\n01/02/2023  Tea  2.00  8.00\n")
	id := h.Store.Put(res.Accounts)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+id+"/csv", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+id+"/csv?account=99&header=false", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "date,description,amount,balance,type\n01/02/2023,Tea,2.00,8.00,N/A\n", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/"+id+"/csv?account=nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/results/missing/csv", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
