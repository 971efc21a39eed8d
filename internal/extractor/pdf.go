package extractor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the PDF path does not exist.
var ErrNotFound = errors.New("pdf file not found")

// ExtractionError reports a PDF that could not be opened or read at all.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("PDF text extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractionOptions controls which extraction methods are attempted.
type ExtractionOptions struct {
	// UsePdftotext enables the poppler pdftotext fallback when installed.
	UsePdftotext bool
	Logger       *zap.Logger
}

// Extractor turns a PDF file into per-page text.
type Extractor struct {
	usePdftotext bool
	log          *zap.Logger
}

// New returns an Extractor.
func New(opts ExtractionOptions) *Extractor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{usePdftotext: opts.UsePdftotext, log: log}
}

// ExtractText extracts page text with the pdftotext fallback enabled and no
// logging.
func ExtractText(filePath string) ([]string, error) {
	return New(ExtractionOptions{UsePdftotext: true}).ExtractText(filePath)
}

// ExtractText reads a PDF file and returns the text of each page in order.
// A page without text yields an empty string. A document whose pages all
// come back empty is not an error.
func (x *Extractor) ExtractText(filePath string) ([]string, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return nil, &ExtractionError{Path: filePath, Err: err}
	}

	pages, libErr := x.extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}
	if libErr != nil {
		x.log.Warn("pdf library extraction failed", zap.String("path", filePath), zap.Error(libErr))
	}

	if x.usePdftotext {
		popplerPages, err := extractWithPdftotext(filePath)
		if err == nil && isReadableText(popplerPages) {
			x.log.Debug("using pdftotext output", zap.Int("pages", len(popplerPages)))
			return popplerPages, nil
		}
		if err != nil {
			x.log.Debug("pdftotext fallback unavailable", zap.Error(err))
		}
	}

	if libErr != nil {
		return nil, &ExtractionError{Path: filePath, Err: libErr}
	}
	return pages, nil
}

// extractWithLibrary uses ledongthuc/pdf, first row by row and then with the
// page plain-text extractor for pages the row method left empty.
func (x *Extractor) extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, errors.New("PDF has no pages")
	}

	pages = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageTextByRow(page)
		if strings.TrimSpace(text) == "" {
			text = pagePlainText(page)
		}
		pages[i-1] = text
	}
	return pages, nil
}

// columnGap is the horizontal distance, in text space units, above which two
// pieces of text on a row are treated as separate columns.
const columnGap = 15.0

// pageTextByRow rebuilds lines from the page's text rows. Adjacent pieces
// are joined directly, small gaps become one space and wide gaps two spaces
// so that column boundaries survive as whitespace runs.
func pageTextByRow(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		var b strings.Builder
		var prevEnd float64
		for j, t := range row.Content {
			if j > 0 {
				gap := t.X - prevEnd
				switch {
				case gap > columnGap:
					b.WriteString("  ")
				case gap > 1:
					b.WriteString(" ")
				}
			}
			b.WriteString(t.S)
			prevEnd = t.X + math.Max(t.W, 0)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func pagePlainText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go library cannot handle.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pageCount(filePath)
	if numPages == 0 {
		out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %w", err)
		}
		return strings.Split(string(out), "\f"), nil
	}

	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", n, "-l", n, filePath, "-").Output()
		if err != nil {
			continue
		}
		pages[i-1] = strings.TrimRight(string(out), "\f\n")
	}
	return pages, nil
}

// pageCount returns the number of pages reported by pdfinfo, or 0.
func pageCount(filePath string) int {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// ReadableRatio returns the share of characters that are letters, digits,
// whitespace or common statement punctuation. Returns 0.0-1.0.
func ReadableRatio(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) ||
				strings.ContainsRune("£$€₹+=|<>", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText rejects binary garbage from fonts the library could not
// decode. Empty output is treated as readable: it is a valid, empty document.
func isReadableText(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	if n == 0 {
		return true
	}
	return ReadableRatio(pages) > 0.6
}
