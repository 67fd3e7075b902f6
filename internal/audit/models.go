package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryLookup covers registry queries made on behalf of a caller.
	CategoryLookup EventCategory = "lookup"

	// CategoryDocument covers certificate retrieval and checks run against it.
	CategoryDocument EventCategory = "document"

	// CategoryIdentity covers personal tax ID resolution from identity documents.
	// These carry personal data and are never stored with raw identifiers.
	CategoryIdentity EventCategory = "identity"
)

type Action string

const (
	ActionRegistrySearch        Action = "registry_search"
	ActionRegistryInfo          Action = "registry_info"
	ActionDocumentFetched       Action = "document_fetched"
	ActionReliabilityChecked    Action = "reliability_checked"
	ActionIndividualINNResolved Action = "individual_inn_resolved"
)

var actionCategories = map[Action]EventCategory{
	ActionRegistrySearch:        CategoryLookup,
	ActionRegistryInfo:          CategoryLookup,
	ActionDocumentFetched:       CategoryDocument,
	ActionReliabilityChecked:    CategoryDocument,
	ActionIndividualINNResolved: CategoryIdentity,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryLookup.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryLookup
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	// SubjectHash is a SHA-256 hash of the queried identifier. Raw tax IDs,
	// names and document numbers never reach a sink.
	SubjectHash string `json:"subject_hash,omitempty"`
	Outcome     string `json:"outcome"`
	RequestID   string `json:"request_id,omitempty"`
	LookupID    string `json:"lookup_id,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// HashSubject returns the hex SHA-256 of the trimmed subject identifier.
func HashSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}
