package registry

import (
	"strings"
	"time"

	"egrul/internal/polling"
)

const (
	DefaultBaseURL          = "https://egrul.nalog.ru"
	DefaultSearchDelay      = time.Second
	DefaultDocumentDelay    = 5 * time.Second
	DefaultReliabilityPages = 4
)

// Config holds the registry endpoints and polling limits shared by every
// lookup.
type Config struct {
	BaseURL     string
	MaxAttempts int
	BackoffUnit time.Duration
	// SearchDelay precedes every search submit.
	SearchDelay time.Duration
	// DocumentDelay precedes every certificate request.
	DocumentDelay    time.Duration
	ReliabilityPages int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		MaxAttempts:      polling.DefaultMaxAttempts,
		BackoffUnit:      polling.DefaultUnit,
		SearchDelay:      DefaultSearchDelay,
		DocumentDelay:    DefaultDocumentDelay,
		ReliabilityPages: DefaultReliabilityPages,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BackoffUnit <= 0 {
		c.BackoffUnit = d.BackoffUnit
	}
	if c.ReliabilityPages <= 0 {
		c.ReliabilityPages = d.ReliabilityPages
	}
	return c
}

func (c Config) backoff() polling.Backoff {
	return polling.Linear(c.BackoffUnit)
}
