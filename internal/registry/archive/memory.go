package archive

import (
	"context"
	"sync"
	"time"

	"egrul/internal/registry/models"
)

type cachedDocument struct {
	doc      models.Document
	storedAt time.Time
}

// InMemoryArchive keeps documents in process memory with TTL expiration.
type InMemoryArchive struct {
	mu   sync.RWMutex
	docs map[string]cachedDocument
	ttl  time.Duration
	now  func() time.Time
}

// NewInMemoryArchive creates an archive whose entries expire after ttl. A
// zero ttl keeps entries forever.
func NewInMemoryArchive(ttl time.Duration) *InMemoryArchive {
	return &InMemoryArchive{
		docs: make(map[string]cachedDocument),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (a *InMemoryArchive) Name() string { return "memory" }

// Save stores a loaded document. Nil and unloaded documents are ignored.
func (a *InMemoryArchive) Save(_ context.Context, doc *models.Document) error {
	if doc == nil || !doc.Loaded || doc.Token == "" {
		return nil
	}
	stored := *doc
	stored.Content = append([]byte(nil), doc.Content...)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs[doc.Token] = cachedDocument{doc: stored, storedAt: a.now()}
	return nil
}

// Find returns ErrNotFound if the document is absent or has expired.
func (a *InMemoryArchive) Find(_ context.Context, token string) (*models.Document, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cached, ok := a.docs[token]
	if !ok {
		return nil, ErrNotFound
	}
	if a.ttl > 0 && a.now().Sub(cached.storedAt) >= a.ttl {
		return nil, ErrNotFound
	}
	doc := cached.doc
	doc.Content = append([]byte(nil), cached.doc.Content...)
	return &doc, nil
}
