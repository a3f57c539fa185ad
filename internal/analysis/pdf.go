package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// errNoTextLayer marks a structurally valid PDF whose pages carry no text,
// typically a scan.
var errNoTextLayer = errors.New("no extractable text layer")

// minTextRunes is the shortest text layer treated as real content. Scanned
// PDFs often carry a few stray glyphs from a watermark or page number.
const minTextRunes = 40

var pdfcpuConfigOnce sync.Once

func isPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// pageCount validates structure with pdfcpu in relaxed mode.
func pageCount(data []byte) (int, error) {
	pdfcpuConfigOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("validate pdf: %w", err)
	}
	return n, nil
}

// extractText reads the text layer of up to maxPages pages.
func extractText(data []byte, maxPages int) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		}
		b.WriteString(strings.TrimSpace(pageText))
	}

	text = strings.TrimSpace(b.String())
	if len([]rune(strings.Join(strings.Fields(text), ""))) < minTextRunes {
		return "", errNoTextLayer
	}
	return text, nil
}
