package individual

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	ErrUnknownDocumentType = errors.New("unknown identity document type")
	ErrInvalidPassport     = errors.New("passport number must have 10 digits")
)

// Identity document names accepted by the tax ID service, with the codes it
// expects in the doctype field.
const (
	DocPassportUSSR            = "passport_ussr"
	DocBirthCertificate        = "birth_certificate"
	DocPassportForeign         = "passport_foreign"
	DocResidencePermit         = "residence_permit"
	DocResidencePermitTemp     = "residence_permit_temp"
	DocAsylumCertificateTemp   = "asylum_certificate_temp"
	DocPassportRussia          = "passport_russia"
	DocBirthCertificateForeign = "birth_certificate_foreign"
	DocResidencePermitForeign  = "residence_permit_foreign"
)

var documentTypeCodes = map[string]string{
	DocPassportUSSR:            "01",
	DocBirthCertificate:        "03",
	DocPassportForeign:         "10",
	DocResidencePermit:         "12",
	DocResidencePermitTemp:     "15",
	DocAsylumCertificateTemp:   "19",
	DocPassportRussia:          "21",
	DocBirthCertificateForeign: "23",
	DocResidencePermitForeign:  "62",
}

// DocumentTypeCode returns the service code for a document type name.
func DocumentTypeCode(name string) (string, error) {
	code, ok := documentTypeCodes[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, name)
	}
	return code, nil
}

// DocumentTypes lists the accepted names in sorted order.
func DocumentTypes() []string {
	names := make([]string, 0, len(documentTypeCodes))
	for name := range documentTypeCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PreparePassportNumber formats a Russian passport number as "SS SS NNNNNN",
// ignoring any separators in the input.
func PreparePassportNumber(s string) (string, error) {
	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '№':
		default:
			return "", fmt.Errorf("%w: unexpected %q", ErrInvalidPassport, r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPassport, len(d))
	}
	return d[:2] + " " + d[2:4] + " " + d[4:], nil
}
