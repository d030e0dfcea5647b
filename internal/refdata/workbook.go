package refdata

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"finguard/internal/domain"
)

// Workbook sheet names read by ParseWorkbook.
const (
	RatesSheet = "Rates"
	HSNSheet   = "HSN"
)

// ParseWorkbook reads rate schedule and HSN/SAC master sheets from an xlsx
// workbook. Columns are matched by header name, as in the CSV schedule; the
// HSN sheet uses code, description, gst_rate and is_service. A missing sheet
// yields no entries for it.
func ParseWorkbook(r io.Reader) ([]domain.RateEntry, []domain.HSNEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rates, err := parseRateSheet(f)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", RatesSheet, err)
	}
	hsn, err := parseHSNSheet(f)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", HSNSheet, err)
	}
	return rates, hsn, nil
}

// sheetRows returns the header index and data rows of a sheet, or nothing
// when the sheet is absent or empty.
func sheetRows(f *excelize.File, sheet string) (map[string]int, [][]string, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col, rows[1:], nil
}

func cell(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRateSheet(f *excelize.File) ([]domain.RateEntry, error) {
	col, rows, err := sheetRows(f, RatesSheet)
	if err != nil || col == nil {
		return nil, err
	}
	for _, required := range []string{"hsn_sac_code", "effective_from"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var out []domain.RateEntry
	for i, row := range rows {
		code := cell(row, col, "hsn_sac_code")
		if code == "" {
			continue
		}
		from, err := ParseDate(cell(row, col, "effective_from"))
		if err != nil {
			return nil, fmt.Errorf("row %d: effective_from: %w", i+2, err)
		}
		e := domain.RateEntry{
			Code:          code,
			Description:   cell(row, col, "description"),
			CGST:          parseFloat(strings.TrimSuffix(cell(row, col, "rate_cgst"), "%")),
			SGST:          parseFloat(strings.TrimSuffix(cell(row, col, "rate_sgst"), "%")),
			IGST:          parseFloat(strings.TrimSuffix(cell(row, col, "rate_igst"), "%")),
			EffectiveFrom: from,
		}
		if to := cell(row, col, "effective_to"); to != "" {
			t, err := ParseDate(to)
			if err != nil {
				return nil, fmt.Errorf("row %d: effective_to: %w", i+2, err)
			}
			e.EffectiveTo = &t
		}
		out = append(out, e)
	}
	return out, nil
}

func parseHSNSheet(f *excelize.File) ([]domain.HSNEntry, error) {
	col, rows, err := sheetRows(f, HSNSheet)
	if err != nil || col == nil {
		return nil, err
	}
	if _, ok := col["code"]; !ok {
		return nil, fmt.Errorf("missing column %q", "code")
	}

	seen := make(map[string]bool)
	var out []domain.HSNEntry
	for _, row := range rows {
		code := cell(row, col, "code")
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, domain.HSNEntry{
			Code:        code,
			Description: cell(row, col, "description"),
			GSTRate:     parseFloat(strings.TrimSuffix(cell(row, col, "gst_rate"), "%")),
			IsService:   isTruthy(cell(row, col, "is_service")) || strings.HasPrefix(code, "99"),
		})
	}
	return out, nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
