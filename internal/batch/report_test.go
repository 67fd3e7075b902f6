package batch

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"egrul/internal/registry/models"
)

func TestWriteReport(t *testing.T) {
	rows := []Row{
		{
			Query:  "7802182340",
			Status: StatusFound,
			Record: models.CanonicalRecord{
				Kind:       models.KindLegalEntity,
				TaxID:      "7802182340",
				TitleShort: `ООО "СПЕЦСТРОЙ"`,
				Directors: []models.Director{
					{Position: "Генеральный директор", FullName: "Иванов Иван Иванович"},
				},
				IsReliable: models.Unreliable,
			},
			AddressKey: "194358 санкт-петербург",
			LookupID:   "lookup-1",
		},
		{Query: "0000000000", Status: StatusNotFound, LookupID: "lookup-2"},
		{Query: "", Status: StatusInvalid, Reason: "empty query"},
	}
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, "run-1", rows, generated))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{resultsSheet, summarySheet}, f.GetSheetList())

	got, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, reportHeaders, got[0])

	assert.Equal(t, "7802182340", got[1][0])
	assert.Equal(t, "found", got[1][1])
	assert.Equal(t, "legal_entity", got[1][2])
	assert.Equal(t, "Генеральный директор: Иванов Иван Иванович", got[1][10])
	assert.Equal(t, "unreliable", got[1][15])

	assert.Equal(t, "not_found", got[2][1])
	assert.Equal(t, "invalid", got[3][1])
	assert.Contains(t, got[3], "empty query")

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run ID", "run-1"}, summary[0])
	assert.Equal(t, []string{"Generated At", "2026-03-01T12:00:00Z"}, summary[1])
	assert.Equal(t, []string{"Queries", "3"}, summary[2])
	assert.Equal(t, []string{"Found", "1"}, summary[3])
	assert.Equal(t, []string{"Not Found", "1"}, summary[4])
	assert.Equal(t, []string{"Failed", "0"}, summary[5])
	assert.Equal(t, []string{"Invalid", "1"}, summary[6])
}

func TestReadQueries_Text(t *testing.T) {
	input := "# suppliers\n7802182340\n\n  7707083893  \n#skip\n"

	queries, err := ReadQueries(strings.NewReader(input), "queries.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"7802182340", "7707083893"}, queries)
}

func TestReadQueries_Spreadsheet(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  []string
	}{
		{
			name:  "header row skipped",
			cells: []string{"ИНН", "7802182340", "", "7707083893"},
			want:  []string{"7802182340", "7707083893"},
		},
		{
			name:  "tax id in first row kept",
			cells: []string{"7802182340", "7707083893"},
			want:  []string{"7802182340", "7707083893"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			for i, v := range tt.cells {
				cell, _ := excelize.CoordinatesToCellName(1, i+1)
				require.NoError(t, f.SetCellStr("Sheet1", cell, v))
			}
			var buf bytes.Buffer
			_, err := f.WriteTo(&buf)
			require.NoError(t, err)
			require.NoError(t, f.Close())

			queries, err := ReadQueries(&buf, "Queries.XLSX")

			require.NoError(t, err)
			assert.Equal(t, tt.want, queries)
		})
	}
}

func TestReadQueries_BadSpreadsheet(t *testing.T) {
	_, err := ReadQueries(strings.NewReader("not a workbook"), "queries.xlsx")
	assert.ErrorContains(t, err, "open workbook")
}
