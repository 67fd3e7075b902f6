package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"egrul/internal/polling"
	"egrul/internal/registry/models"
)

const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeUpstream         = "upstream_failed"
	codeTimeout          = "timeout"
	codeDocument         = "document_unavailable"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Category    string `json:"category,omitempty"`
}

type selectionResponse struct {
	Total        int  `json:"total"`
	ActiveCount  int  `json:"active_count"`
	SingleRecord bool `json:"single_record"`
}

type entityResponse struct {
	LookupID  string                 `json:"lookup_id"`
	Query     string                 `json:"query"`
	Record    models.CanonicalRecord `json:"record"`
	Selection selectionResponse      `json:"selection"`
}

type searchResponse struct {
	LookupID  string             `json:"lookup_id"`
	Query     string             `json:"query"`
	Total     int                `json:"total"`
	ZeroTotal bool               `json:"zero_total"`
	Rows      []models.RawRecord `json:"rows"`
}

type reliabilityResponse struct {
	LookupID   string             `json:"lookup_id"`
	Query      string             `json:"query"`
	Kind       models.Kind        `json:"kind"`
	TaxID      string             `json:"tax_id,omitempty"`
	IsReliable models.Reliability `json:"is_reliable"`
	Checked    bool               `json:"checked"`
}

type findINNRequest struct {
	Surname        string `json:"surname"`
	GivenName      string `json:"given_name"`
	Patronymic     string `json:"patronymic"`
	BirthDate      string `json:"birth_date"`
	BirthPlace     string `json:"birth_place"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	DocumentDate   string `json:"document_date"`
	// Legacy selects the older single-request form.
	Legacy bool `json:"legacy"`
}

type findINNResponse struct {
	INN       string `json:"inn,omitempty"`
	Found     bool   `json:"found"`
	RequestID string `json:"request_id,omitempty"`
	Outcome   string `json:"outcome"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, Description: description})
}

// writeUpstreamError maps a registry failure to a response. Deadline
// expiry becomes 504; everything else is a bad gateway.
func writeUpstreamError(ctx context.Context, w http.ResponseWriter, err error, reason string) {
	status, code := http.StatusBadGateway, codeUpstream
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		status, code = http.StatusGatewayTimeout, codeTimeout
	}
	body := errorResponse{Error: code, Description: reason}
	if err != nil {
		body.Category = string(polling.GetCategory(err))
		if body.Description == "" {
			body.Description = err.Error()
		}
	}
	writeJSON(w, status, body)
}
