package registry

import (
	"context"
	"log/slog"
	"strings"

	"egrul/internal/registry/models"
)

// UnreliableMarker is the word stem the registry prints in a certificate when
// some of the entity's data has been found unreliable.
const UnreliableMarker = "недостоверн"

// TextExtractor reads text from the first maxPages pages of a document.
type TextExtractor interface {
	ExtractText(content []byte, maxPages int) (string, error)
}

// ReliabilityChecker scans certificates for the unreliability marker.
type ReliabilityChecker struct {
	extractor TextExtractor
	maxPages  int
	logger    *slog.Logger
}

func NewReliabilityChecker(extractor TextExtractor, maxPages int, logger *slog.Logger) *ReliabilityChecker {
	if maxPages <= 0 {
		maxPages = DefaultReliabilityPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReliabilityChecker{extractor: extractor, maxPages: maxPages, logger: logger}
}

// Check returns Unreliable when the marker appears in the document text and
// Reliable otherwise. Only legal entities get a definite answer; other kinds,
// missing documents and unreadable documents yield ReliabilityUnknown.
func (c *ReliabilityChecker) Check(ctx context.Context, record models.CanonicalRecord, doc *models.Document) models.Reliability {
	if doc == nil || !doc.Loaded {
		c.logger.WarnContext(ctx, "certificate not loaded, reliability unknown")
		return models.ReliabilityUnknown
	}
	if record.Kind != models.KindLegalEntity {
		return models.ReliabilityUnknown
	}
	text, err := c.extractor.ExtractText(doc.Content, c.maxPages)
	if err != nil {
		c.logger.WarnContext(ctx, "certificate text extraction failed", "error", err)
		return models.ReliabilityUnknown
	}
	if strings.Contains(stripSpace(text), UnreliableMarker) {
		return models.Unreliable
	}
	return models.Reliable
}

// stripSpace removes the ASCII whitespace a PDF layout inserts inside words.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\f', '\n', '\r', '\t', '\v':
			return -1
		}
		return r
	}, s)
}
