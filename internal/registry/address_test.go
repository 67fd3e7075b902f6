package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "registry address",
			in:   "194358, САНКТ-ПЕТЕРБУРГ ГОРОД, УЛИЦА ШОСТАКОВИЧА,  3,  1,  ЛИТ.А ПОМЕЩЕНИЕ 8-Н",
			want: "194358 САНКТ-ПЕТЕРБУРГ  УЛИЦА ШОСТАКОВИЧА  3  1 [ЛИТЕРА]А[ПОМЕЩЕНИЕ]8-Н",
		},
		{
			name: "keywords between words",
			in:   "МОСКВА Г. ТВЕРСКАЯ УЛИЦА ДОМ 1",
			want: "МОСКВА ТВЕРСКАЯ[УЛИЦА]ДОМ 1",
		},
		{
			name: "comma without space",
			in:   "Г.МОСКВА,УЛ.ТВЕРСКАЯ,Д.1",
			want: "Г.МОСКВА УЛ.ТВЕРСКАЯ Д.1",
		},
		{
			name: "office",
			in:   "ПОСЕЛОК ОЗЕРКИ ОФИС 3",
			want: "ПОСЕЛОК ОЗЕРКИ[ОФИС] 3",
		},
		{
			name: "lower case is not matched",
			in:   "москва улица тверская",
			want: "москва улица тверская",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenize_StableOnOwnOutput(t *testing.T) {
	for _, in := range []string{
		"МОСКВА Г. ТВЕРСКАЯ УЛИЦА ДОМ 1",
		"ПОСЕЛОК ОЗЕРКИ ОФИС 3",
		"ХИМКИ ЛЕНИНГРАДСКОЕ ШОССЕ КОРПУС 2 КОМНАТА 4",
	} {
		once := Tokenize(in)
		assert.Equal(t, once, Tokenize(once), in)
	}
}

// Separators become plain spaces after the keyword passes, so a keyword that
// followed a comma is exposed to a second pass. Tokenize output is for
// matching and display and is not meant to be fed back in.
func TestTokenize_SecondPassCanReachKeywordsAfterSeparators(t *testing.T) {
	once := Tokenize("САНКТ-ПЕТЕРБУРГ, УЛ.САДОВАЯ, Д.5, КВ.10")
	assert.Equal(t, "САНКТ-ПЕТЕРБУРГ УЛ.САДОВАЯ Д.5 КВ.10", once)
	assert.NotContains(t, once, "[")

	twice := Tokenize(once)
	assert.Equal(t, "САНКТ-ПЕТЕРБУРГ[УЛИЦА]САДОВАЯ[ДОМ]5[КВАРТИРА]10", twice)
}

func TestTokenize_PlaceholdersOnlyFromKnownSet(t *testing.T) {
	out := Tokenize("194358, САНКТ-ПЕТЕРБУРГ ГОРОД, УЛИЦА ШОСТАКОВИЧА,  3,  1,  ЛИТ.А ПОМЕЩЕНИЕ 8-Н")
	assert.NotContains(t, out, placeholderSeparator)
	assert.NotContains(t, out, placeholderCity)
	assert.False(t, strings.Contains(out, ","))
}

func TestTokenizeAny(t *testing.T) {
	assert.Equal(t, "МОСКВА ТВЕРСКАЯ[УЛИЦА]ДОМ 1", TokenizeAny("москва г. тверская улица дом 1"))
}

func TestIsTaxID(t *testing.T) {
	tests := map[string]bool{
		"7802182340":   true,
		"920400134623": true,
		"0012345678":   false,
		"780218234":    false,
		"78021823401":  false,
		"78021823a0":   false,
		"":             false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsTaxID(in), in)
	}
	assert.False(t, IsTaxID("７８０２１８２３４０"), "full-width digits")
}
