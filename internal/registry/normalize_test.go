package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egrul/internal/registry/models"
)

func TestNormalize_MultipleDirectors(t *testing.T) {
	raw := models.RawRecord{
		"k": "ul",
		"t": "TOKEN",
		"n": `ОБЩЕСТВО С ОГРАНИЧЕННОЙ ОТВЕТСТВЕННОСТЬЮ "СПЕЦСТРОЙ"`,
		"c": `ООО "СПЕЦСТРОЙ"`,
		"g": "Директор: Иванов Иван Иванович, Президент: Петров Петр Петрович",
		"i": "7802182340",
	}

	rec, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, []models.Director{
		{Position: "Директор", FullName: "Иванов Иван Иванович"},
		{Position: "Президент", FullName: "Петров Петр Петрович"},
	}, rec.Directors)
	assert.Equal(t, "Директор", rec.Position)
	assert.Equal(t, "Иванов Иван Иванович", rec.FullName)
	assert.Equal(t, 2, rec.DirectorCount)
	assert.Equal(t, raw["g"], rec.DirectorsRaw)

	primary, ok := rec.Primary()
	require.True(t, ok)
	assert.Equal(t, rec.Directors[0], primary)
}

func TestNormalize_SingleDirector(t *testing.T) {
	rec, err := Normalize(models.RawRecord{
		"k": "ul",
		"g": "Директор: Сидоров Петр Ильич",
	})
	require.NoError(t, err)

	assert.Empty(t, rec.Directors)
	assert.Equal(t, 1, rec.DirectorCount)
	assert.Equal(t, "Директор", rec.Position)
	assert.Equal(t, "Сидоров Петр Ильич", rec.FullName)
	assert.Equal(t, "Сидоров", rec.Surname)
	assert.Equal(t, "Петр", rec.GivenName)
	assert.Equal(t, "Ильич", rec.Patronymic)

	primary, ok := rec.Primary()
	require.True(t, ok)
	assert.Equal(t, models.Director{Position: "Директор", FullName: "Сидоров Петр Ильич"}, primary)
}

func TestNormalize_DirectorWithoutColon(t *testing.T) {
	rec, err := Normalize(models.RawRecord{"k": "ul", "g": "  Сидоров Петр Ильич "})
	require.NoError(t, err)
	assert.Empty(t, rec.Position)
	assert.Equal(t, "Сидоров Петр Ильич", rec.FullName)
}

func TestNormalize_CommaWithSingleColonIsOneDirector(t *testing.T) {
	rec, err := Normalize(models.RawRecord{"k": "ul", "g": "Председатель правления, генеральный директор: Орлов Олег"})
	require.NoError(t, err)
	assert.Empty(t, rec.Directors)
	assert.Equal(t, "Председатель правления, генеральный директор", rec.Position)
	assert.Equal(t, "Орлов Олег", rec.FullName)
}

func TestNormalize_IndividualSkipsBusinessFields(t *testing.T) {
	rec, err := Normalize(models.RawRecord{
		"k": "sprav-fl",
		"t": "TOKEN",
		"n": "Иванов  Иван\tИванович",
		"a": "МОСКВА",
		"i": "770000000000",
		"g": "Директор: Кто-то",
	})
	require.NoError(t, err)

	assert.Equal(t, models.KindIndividual, rec.Kind)
	assert.Equal(t, "TOKEN", rec.DocumentToken)
	assert.Equal(t, "Иванов  Иван\tИванович", rec.FullName)
	assert.Equal(t, "Иванович", rec.Patronymic)
	assert.Empty(t, rec.Address)
	assert.Empty(t, rec.TaxID)
	assert.Empty(t, rec.TitleLong)
	assert.Empty(t, rec.Directors)
	assert.Empty(t, rec.DirectorsRaw)
}

func TestNormalize_SoleProprietorNameFromTitle(t *testing.T) {
	rec, err := Normalize(models.RawRecord{
		"k": "fl",
		"n": "Петров Петр",
		"i": "920400134623",
		"o": "304920436000012",
		"r": "01.02.2004",
		"e": "01.02.2020",
	})
	require.NoError(t, err)

	assert.Equal(t, models.KindSoleProprietor, rec.Kind)
	assert.Equal(t, "Петров Петр", rec.FullName)
	assert.Equal(t, "Петров", rec.Surname)
	assert.Empty(t, rec.Patronymic)
	assert.Equal(t, "920400134623", rec.TaxID)
	assert.Equal(t, "01.02.2020", rec.TerminationDate)
	_, ok := rec.Primary()
	assert.False(t, ok)
}

func TestNormalize_LegalEntityWithoutDirector(t *testing.T) {
	rec, err := Normalize(models.RawRecord{"k": "ul", "n": "АО ТЕСТ"})
	require.Error(t, err)
	assert.Equal(t, "АО ТЕСТ", rec.TitleLong)
	assert.Empty(t, rec.FullName)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, models.KindLegalEntity, models.ParseKind("ul"))
	assert.Equal(t, models.KindSoleProprietor, models.ParseKind("fl"))
	assert.Equal(t, models.KindIndividual, models.ParseKind("sprav-fl"))
	assert.Equal(t, models.KindUnknown, models.ParseKind("xx"))
}

func TestParseDirectors_Malformed(t *testing.T) {
	t.Run("trailing segments", func(t *testing.T) {
		directors, err := ParseDirectors("Директор: Иванов И.И., Президент: Петров П.П., Секретарь:")
		require.NoError(t, err, "trailing empty name still pairs")
		require.Len(t, directors, 3)
		assert.Equal(t, models.Director{Position: "Секретарь", FullName: ""}, directors[2])

		directors, err = ParseDirectors("Директор: Иванов И.И., Президент: Петров П.П.: Сидоров")
		require.ErrorIs(t, err, ErrOddDirectorTokens)
		require.ErrorIs(t, err, ErrDirectorSegment)
		assert.Equal(t, []models.Director{
			{Position: "Директор", FullName: "Иванов И.И."},
			{Position: "Президент", FullName: "Петров П.П."},
		}, directors)
	})

	t.Run("empty field", func(t *testing.T) {
		directors, err := ParseDirectors("   ")
		require.NoError(t, err)
		assert.Empty(t, directors)
	})
}

// The first-comma heuristic cannot tell a comma inside a name from the comma
// separating two directors. These cases pin the current reading.
func TestParseDirectors_CommaInsideNameIsMisread(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  []models.Director
	}{
		{
			name:  "suffix after a name",
			field: "Директор: Орлов Олег, младший, Главный бухгалтер: Петрова Анна",
			want: []models.Director{
				{Position: "Директор", FullName: "Орлов Олег"},
				{Position: "младший, Главный бухгалтер", FullName: "Петрова Анна"},
			},
		},
		{
			name:  "managing organisation with tax id",
			field: `Управляющая организация: ООО "Ромашка", ИНН 7802182340, Директор: Иванов Иван Иванович`,
			want: []models.Director{
				{Position: "Управляющая организация", FullName: `ООО "Ромашка"`},
				{Position: "ИНН 7802182340, Директор", FullName: "Иванов Иван Иванович"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directors, err := ParseDirectors(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, directors)
		})
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in, surname, given, patronymic string
	}{
		{"Иванов Иван Иванович", "Иванов", "Иван", "Иванович"},
		{"Иванов Иван", "Иванов", "Иван", ""},
		{"Иванов", "Иванов", "", ""},
		{"", "", "", ""},
		{"  Оглы  Мамед   Али  Оглы ", "Оглы", "Мамед", "Али Оглы"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, g, p := SplitFullName(tt.in)
			assert.Equal(t, tt.surname, s)
			assert.Equal(t, tt.given, g)
			assert.Equal(t, tt.patronymic, p)
		})
	}
}
