package httpserver

import (
	"net/http"
	"time"

	"egrul/internal/platform/config"
)

const readHeaderTimeout = 5 * time.Second

// New returns the API server. WriteTimeout stays unset because a lookup can
// sit in registry backoff for minutes; handlers bound their own work with
// cfg.LookupTimeout instead.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
