// Package archive keeps downloaded certificate documents so repeated checks of
// one record do not trigger another issuance round trip.
package archive

import (
	"context"
	"fmt"

	"egrul/internal/registry/models"
	"egrul/pkg/platform/sentinel"
)

// ErrNotFound is returned when no live document is stored for a token.
var ErrNotFound = fmt.Errorf("archived document: %w", sentinel.ErrNotFound)

// Archive stores certificate documents keyed by document token.
type Archive interface {
	Find(ctx context.Context, token string) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	// Name labels the backend in metrics and logs.
	Name() string
}
