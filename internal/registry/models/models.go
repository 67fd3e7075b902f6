package models

import "time"

// Short keys used by the registry in search rows.
const (
	KeyKind            = "k"
	KeyToken           = "t"
	KeyTitleLong       = "n"
	KeyTitleShort      = "c"
	KeyAddress         = "a"
	KeyTaxID           = "i"
	KeyRegNumber       = "o"
	KeyTaxRegCode      = "p"
	KeyRegDate         = "r"
	KeyTerminationDate = "e"
	KeyDirector        = "g"
	KeyInvalidityDate  = "v"
	KeyTotal           = "tot"
)

// RawRecord is one search row as returned by the registry. Absent keys mean
// the field is unset.
type RawRecord map[string]string

// Get returns the value at key, or "" when absent.
func (r RawRecord) Get(key string) string {
	return r[key]
}

// Has reports whether key is present, even with an empty value.
func (r RawRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Active reports whether the record carries neither a termination nor an
// invalidity marker.
func (r RawRecord) Active() bool {
	return !r.Has(KeyTerminationDate) && !r.Has(KeyInvalidityDate)
}

// SearchResult is the ordered list of rows returned for one query.
type SearchResult struct {
	Query string
	Rows  []RawRecord
	Total int
	// ZeroTotal is set when the registry explicitly reported no matches.
	ZeroTotal bool
	// Failed is set when the search did not produce a parseable row list:
	// transport or remote failure, structural failure, or exhaustion.
	Failed bool
	// Reason describes why the search failed.
	Reason string
}

// Empty reports whether the result carries no rows.
func (r SearchResult) Empty() bool {
	return len(r.Rows) == 0
}

// Active returns the rows lacking termination and invalidity markers, in
// original order.
func (r SearchResult) Active() []RawRecord {
	active := make([]RawRecord, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Active() {
			active = append(active, row)
		}
	}
	return active
}

// Kind classifies a registry record.
type Kind string

const (
	KindLegalEntity    Kind = "legal_entity"
	KindSoleProprietor Kind = "sole_proprietor"
	KindIndividual     Kind = "individual"
	KindUnknown        Kind = "unknown"
)

// ParseKind maps the registry's record kind code.
func ParseKind(code string) Kind {
	switch code {
	case "ul":
		return KindLegalEntity
	case "fl":
		return KindSoleProprietor
	case "sprav-fl":
		return KindIndividual
	default:
		return KindUnknown
	}
}

// Reliability is the tri-state result of the certificate marker check.
type Reliability int

const (
	ReliabilityUnknown Reliability = iota
	Reliable
	Unreliable
)

func (r Reliability) String() string {
	switch r {
	case Reliable:
		return "reliable"
	case Unreliable:
		return "unreliable"
	default:
		return "unknown"
	}
}

// Known reports whether a definite answer was reached.
func (r Reliability) Known() bool {
	return r != ReliabilityUnknown
}

// MarshalText renders the reliability for JSON and logs.
func (r Reliability) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Director is one position/name pair from the director field.
type Director struct {
	Position string `json:"position"`
	FullName string `json:"full_name"`
}

// CanonicalRecord is the normalized view of one registry entity.
type CanonicalRecord struct {
	Kind                Kind   `json:"kind"`
	TitleLong           string `json:"title_long,omitempty"`
	TitleShort          string `json:"title_short,omitempty"`
	Position            string `json:"position,omitempty"`
	FullName            string `json:"full_name,omitempty"`
	Surname             string `json:"surname,omitempty"`
	GivenName           string `json:"given_name,omitempty"`
	Patronymic          string `json:"patronymic,omitempty"`
	Address             string `json:"address,omitempty"`
	TaxID               string `json:"tax_id,omitempty"`
	RegistrationNumber  string `json:"registration_number,omitempty"`
	TaxRegistrationCode string `json:"tax_registration_code,omitempty"`
	RegistrationDate    string `json:"registration_date,omitempty"`
	TerminationDate     string `json:"termination_date,omitempty"`
	InvalidityDate      string `json:"invalidity_date,omitempty"`
	DocumentToken       string `json:"-"`

	// Directors is empty unless the director field names several people.
	Directors []Director `json:"directors,omitempty"`
	// DirectorsRaw is the director field as received.
	DirectorsRaw  string `json:"directors_raw,omitempty"`
	DirectorCount int    `json:"director_count"`

	IsReliable Reliability `json:"is_reliable"`
}

// Primary returns the director that populates Position and FullName.
func (r CanonicalRecord) Primary() (Director, bool) {
	if len(r.Directors) > 0 {
		return r.Directors[0], true
	}
	if r.DirectorCount == 1 {
		return Director{Position: r.Position, FullName: r.FullName}, true
	}
	return Director{}, false
}

// Document is a certificate extract keyed by document token.
type Document struct {
	Token     string
	Content   []byte
	Loaded    bool
	FetchedAt time.Time
}

// NewDocument returns a loaded document holding content.
func NewDocument(token string, content []byte, fetchedAt time.Time) *Document {
	return &Document{
		Token:     token,
		Content:   content,
		Loaded:    len(content) > 0,
		FetchedAt: fetchedAt,
	}
}
