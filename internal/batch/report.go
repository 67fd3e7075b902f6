package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"egrul/internal/registry"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var reportHeaders = []string{
	"Query", "Status", "Kind", "Tax ID", "Registration Number", "Tax Registration Code",
	"Title", "Short Title", "Position", "Director", "Directors", "Address", "Address Key",
	"Registration Date", "Termination Date", "Reliability", "Ambiguous", "Reason", "Lookup ID",
}

// WriteReport renders rows as an XLSX workbook with a results sheet and a
// per-status summary.
func WriteReport(w io.Writer, runID string, rows []Row, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	if err := f.SetCellStyle(resultsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	counts := make(map[Status]int)
	for i, row := range rows {
		counts[row.Status]++
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := reportRow(row)
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	for i := range reportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(resultsSheet, col, col, 18); err != nil {
			return err
		}
	}
	if err := f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	if err := writeSummary(f, runID, len(rows), counts, generatedAt); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func reportRow(row Row) []any {
	rec := row.Record
	directors := make([]string, 0, len(rec.Directors))
	for _, d := range rec.Directors {
		directors = append(directors, d.Position+": "+d.FullName)
	}
	reliability := ""
	if row.Status == StatusFound {
		reliability = rec.IsReliable.String()
	}
	return []any{
		row.Query, string(row.Status), string(rec.Kind), rec.TaxID, rec.RegistrationNumber,
		rec.TaxRegistrationCode, rec.TitleLong, rec.TitleShort, rec.Position, rec.FullName,
		strings.Join(directors, "; "), rec.Address, row.AddressKey, rec.RegistrationDate,
		rec.TerminationDate, reliability, row.Ambiguous, row.Reason, row.LookupID,
	}
}

func writeSummary(f *excelize.File, runID string, total int, counts map[Status]int, generatedAt time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	lines := [][]any{
		{"Run ID", runID},
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
		{"Queries", total},
		{"Found", counts[StatusFound]},
		{"Not Found", counts[StatusNotFound]},
		{"Failed", counts[StatusFailed]},
		{"Invalid", counts[StatusInvalid]},
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

// ReadQueries reads one query per line, or the first column of the first
// sheet when name ends in .xlsx. Blank lines and lines starting with # are
// skipped, as is a header cell that is not a tax ID in a spreadsheet.
func ReadQueries(r io.Reader, name string) ([]string, error) {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return readSpreadsheet(r)
	}
	var queries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

func readSpreadsheet(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	var queries []string
	for i, cells := range rows {
		if len(cells) == 0 {
			continue
		}
		value := strings.TrimSpace(cells[0])
		if value == "" || (i == 0 && !registry.IsTaxID(value)) {
			continue
		}
		queries = append(queries, value)
	}
	return queries, nil
}
