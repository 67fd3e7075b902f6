package httptransport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"egrul/internal/registry"
	"egrul/internal/registry/models"
	"egrul/pkg/requestcontext"
)

const maxQueryLength = 256

// handleSearch returns every row the registry holds for ?q=.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := h.validQuery(w, r.URL.Query().Get("q"))
	if !ok {
		return
	}
	ctx, cancel := h.bounded(r.Context())
	defer cancel()

	lookup, ok := h.open(ctx, w)
	if !ok {
		return
	}
	result := lookup.Search(ctx, query)
	if result.Failed {
		writeUpstreamError(ctx, w, nil, result.Reason)
		return
	}
	rows := result.Rows
	if rows == nil {
		rows = []models.RawRecord{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		LookupID:  lookup.ID(),
		Query:     query,
		Total:     result.Total,
		ZeroTotal: result.ZeroTotal,
		Rows:      rows,
	})
}

// handleEntity returns the canonical record for one query. With
// ?reliability=true the certificate is fetched and checked as well.
func (h *Handler) handleEntity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.bounded(r.Context())
	defer cancel()

	lookup, info, ok := h.lookupEntity(ctx, w, r)
	if !ok {
		return
	}
	record := *info.Record
	if r.URL.Query().Get("reliability") == "true" {
		record = lookup.VerifyReliability(ctx, record)
	}
	writeJSON(w, http.StatusOK, entityResponse{
		LookupID: lookup.ID(),
		Query:    info.Query,
		Record:   record,
		Selection: selectionResponse{
			Total:        info.Selection.Total,
			ActiveCount:  info.Selection.ActiveCount,
			SingleRecord: info.Selection.SingleRecord,
		},
	})
}

// handleDocument streams the certificate PDF for the selected record.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.bounded(r.Context())
	defer cancel()

	lookup, info, ok := h.lookupEntity(ctx, w, r)
	if !ok {
		return
	}
	doc := lookup.Document(ctx, *info.Record)
	if !doc.Loaded {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:       codeDocument,
			Description: "registry did not deliver the certificate",
		})
		return
	}
	name := info.Record.TaxID
	if name == "" {
		name = "certificate"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		h.logger.WarnContext(ctx, "failed to write certificate",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// handleReliability reports whether the certificate carries the
// unreliability marker.
func (h *Handler) handleReliability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.bounded(r.Context())
	defer cancel()

	lookup, info, ok := h.lookupEntity(ctx, w, r)
	if !ok {
		return
	}
	checked := lookup.VerifyReliability(ctx, *info.Record)
	writeJSON(w, http.StatusOK, reliabilityResponse{
		LookupID:   lookup.ID(),
		Query:      info.Query,
		Kind:       checked.Kind,
		TaxID:      checked.TaxID,
		IsReliable: checked.IsReliable,
		Checked:    checked.IsReliable.Known(),
	})
}

// lookupEntity resolves the {query} path parameter to one record, writing
// the error response itself when that fails.
func (h *Handler) lookupEntity(ctx context.Context, w http.ResponseWriter, r *http.Request) (*registry.Lookup, registry.Info, bool) {
	raw := chi.URLParam(r, "query")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	query, ok := h.validQuery(w, raw)
	if !ok {
		return nil, registry.Info{}, false
	}
	lookup, ok := h.open(ctx, w)
	if !ok {
		return nil, registry.Info{}, false
	}
	info := lookup.Info(ctx, query)
	switch {
	case info.Result.Failed:
		writeUpstreamError(ctx, w, nil, info.Result.Reason)
		return nil, info, false
	case !info.Found():
		writeError(w, http.StatusNotFound, codeNotFound, "registry has no record for the query")
		return nil, info, false
	}
	return lookup, info, true
}

func (h *Handler) open(ctx context.Context, w http.ResponseWriter) (*registry.Lookup, bool) {
	lookup, err := h.registry.Open()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open registry lookup",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to open registry session")
		return nil, false
	}
	return lookup, true
}

func (h *Handler) validQuery(w http.ResponseWriter, raw string) (string, bool) {
	query := strings.TrimSpace(raw)
	switch {
	case query == "":
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return "", false
	case !utf8.ValidString(query), len(query) > maxQueryLength:
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is malformed or too long")
		return "", false
	}
	return query, true
}
