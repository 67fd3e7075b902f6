package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"egrul/internal/individual"
	"egrul/pkg/requestcontext"
)

const maxBodyBytes = 16 << 10

// handleFindINN resolves a person's tax ID from identity document details.
func (h *Handler) handleFindINN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if h.individuals == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "tax ID lookup is not enabled")
		return
	}

	var req findINNRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid tax ID request",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, msg)
		return
	}

	id := req.identity()
	if id.DocumentType == individual.DocPassportRussia {
		if formatted, err := individual.PreparePassportNumber(id.DocumentNumber); err == nil {
			id.DocumentNumber = formatted
		}
	}

	ctx, cancel := h.bounded(ctx)
	defer cancel()

	find := h.individuals.FindINN
	if req.Legacy {
		find = h.individuals.FindINNLegacy
	}
	res, err := find(ctx, id)
	if errors.Is(err, individual.ErrUnknownDocumentType) {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "tax ID lookup failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "tax ID lookup failed")
		return
	}
	if res.Err != nil {
		writeUpstreamError(ctx, w, res.Err, "")
		return
	}
	writeJSON(w, http.StatusOK, findINNResponse{
		INN:       res.INN,
		Found:     res.Found(),
		RequestID: res.RequestID,
		Outcome:   res.Outcome.String(),
	})
}

func (r findINNRequest) validate() string {
	var missing []string
	for name, value := range map[string]string{
		"surname":         r.Surname,
		"given_name":      r.GivenName,
		"birth_date":      r.BirthDate,
		"document_type":   r.DocumentType,
		"document_number": r.DocumentNumber,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	slices.Sort(missing)
	return "missing fields: " + strings.Join(missing, ", ")
}

func (r findINNRequest) identity() individual.Identity {
	return individual.Identity{
		Surname:        strings.TrimSpace(r.Surname),
		GivenName:      strings.TrimSpace(r.GivenName),
		Patronymic:     strings.TrimSpace(r.Patronymic),
		BirthDate:      strings.TrimSpace(r.BirthDate),
		BirthPlace:     strings.TrimSpace(r.BirthPlace),
		DocumentType:   strings.TrimSpace(r.DocumentType),
		DocumentNumber: strings.TrimSpace(r.DocumentNumber),
		DocumentDate:   strings.TrimSpace(r.DocumentDate),
	}
}
