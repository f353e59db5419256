package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const scoreSheet = "Weekly MIS"

// WriteXLSX writes the weekly scores as an xlsx workbook at path.
func WriteXLSX(path string, week Week, scores []UserScore) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(scoreSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := []interface{}{
		"User", "Full name", "Planned", "Completed", "On time",
		"Completion %", "On-time %", "Score",
	}
	if err := f.SetSheetRow(scoreSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	title := fmt.Sprintf("Week %s to %s",
		week.Start.Format("2006-01-02"),
		week.End.AddDate(0, 0, -1).Format("2006-01-02"))
	if err := f.SetCellValue(scoreSheet, "J1", title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}

	for i, s := range scores {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			s.Username, s.FullName, s.Planned, s.Completed, s.OnTime,
			s.CompletionPct, s.OnTimePct, s.Score,
		}
		if err := f.SetSheetRow(scoreSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// ReadUserSheet parses an employee import sheet. The first row must be a
// header containing at least "username"; "full name" and "role" columns are
// optional. Returns one row map per data row, keyed by normalized header.
func ReadUserSheet(path string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	headers := make([]string, len(rows[0]))
	hasUsername := false
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
		if headers[i] == "username" {
			hasUsername = true
		}
	}
	if !hasUsername {
		return nil, fmt.Errorf("missing required column %q", "username")
	}

	var records []map[string]string
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := cellValue(row, i)
			rec[h] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
