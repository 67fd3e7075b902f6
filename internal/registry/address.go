package registry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	placeholderSeparator = "[РАЗДЕЛИТЕЛЬ]"
	placeholderCity      = "[ГОРОД]"
)

// addressCuts is applied in order. Longer variants precede their prefixes so
// a fragment is never rewritten twice.
var addressCuts = [...]struct{ from, to string }{
	{", ", placeholderSeparator},
	{",", placeholderSeparator},
	{" УЛИЦА ", "[УЛИЦА]"},
	{" УЛ.", "[УЛИЦА]"},
	{" ПР.", "[ПРОСПЕКТ]"},
	{" ПРОСПЕКТ ", "[ПРОСПЕКТ]"},
	{" ДОМ ", "[ДОМ]"},
	{" Д.", "[ДОМ]"},
	{" ГОРОД", placeholderCity},
	{" ПОСЕЛОК ", "[ПОСЕЛОК]"},
	{" П. ", "[ПОСЕЛОК]"},
	{" ОФИС", "[ОФИС]"},
	{" ОФ ", "[ОФИС]"},
	{" ОФ.", "[ОФИС]"},
	{" КОРПУС ", "[КОРПУС]"},
	{" КОРП.", "[КОРПУС]"},
	{" ПОМЕЩЕНИЕ ", "[ПОМЕЩЕНИЕ]"},
	{" ПОМ ", "[ПОМЕЩЕНИЕ]"},
	{" ПОМ. ", "[ПОМЕЩЕНИЕ]"},
	{" ШОССЕ", "[ШОССЕ]"},
	{" Ш.", "[ШОССЕ]"},
	{" ГОРОД ", placeholderCity},
	{" Г. ", placeholderCity},
	{" КВАРТИРА ", "[КВАРТИРА]"},
	{" КВ.", "[КВАРТИРА]"},
	{" ЛИТЕРА ", "[ЛИТЕРА]"},
	{" ЛИТЕР ", "[ЛИТЕРА]"},
	{" ЛИТ.", "[ЛИТЕРА]"},
	{" ЛИТ ", "[ЛИТЕРА]"},
	{" КОМНАТА ", "[КОМНАТА]"},
	{" КОМ.", "[КОМНАТА]"},
	{"  ", " "},
}

// Tokenize marks address keywords with bracketed placeholders for matching
// and display. Separators and the city keyword become plain spaces. Input is
// expected in upper case as the registry returns it; matching is literal and
// case-sensitive. The result is lossy.
func Tokenize(address string) string {
	out := address
	for _, cut := range addressCuts {
		out = strings.ReplaceAll(out, cut.from, cut.to)
	}
	out = strings.ReplaceAll(out, placeholderSeparator, " ")
	out = strings.ReplaceAll(out, placeholderCity, " ")
	return out
}

// TokenizeAny upper-cases address with Russian casing rules before
// tokenizing, for input that did not come from the registry.
func TokenizeAny(address string) string {
	// A Caser is stateful; one per call keeps concurrent lookups apart.
	return Tokenize(cases.Upper(language.Russian).String(address))
}

// IsTaxID reports whether s looks like a tax ID: 10 digits for an
// organisation or 12 for a person, not starting with "00".
func IsTaxID(s string) bool {
	if len(s) != 10 && len(s) != 12 {
		return false
	}
	if strings.HasPrefix(s, "00") {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
