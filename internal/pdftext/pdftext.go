// Package pdftext extracts plain text from certificate PDFs.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when there are no bytes to parse.
var ErrEmptyDocument = errors.New("empty document")

// Extractor reads text page by page.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of the first maxPages pages. A maxPages of zero
// or less reads every page. Pages that fail to decode are skipped; an error is
// returned only when the document itself cannot be opened.
func (e *Extractor) ExtractText(content []byte, maxPages int) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyDocument
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	total := r.NumPage()
	if maxPages > 0 && maxPages < total {
		total = maxPages
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
