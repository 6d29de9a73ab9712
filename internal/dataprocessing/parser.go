package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "retailcast/internal/errors"
)

// Date layouts accepted in the date column
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// columnMap resolves the positions of the expected columns in a header row.
// The mapping from source headers to the internal model is fixed.
type columnMap struct {
	date            int
	totalSales      int
	numReceipts     int
	itemsPerReceipt int
	visitors        int
	itemsSold       int
	margin          int
	avgDiscount     int

	catSales    [NumCategories]int
	catMargin   [NumCategories]int
	catItems    [NumCategories]int
	catDiscount [NumCategories]int
}

// resolveColumns maps header names to column indexes. Header matching is
// case-insensitive and ignores surrounding whitespace; a missing required
// column is a ParsingError.
func resolveColumns(header []string) (*columnMap, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	type binding struct {
		name string
		dst  *int
	}

	cols := &columnMap{}
	required := []binding{
		{"date", &cols.date},
		{"total sales", &cols.totalSales},
		{"receipts", &cols.numReceipts},
		{"items per receipt", &cols.itemsPerReceipt},
		{"visitors", &cols.visitors},
		{"items sold", &cols.itemsSold},
		{"margin %", &cols.margin},
		{"avg discount %", &cols.avgDiscount},
	}
	for c := 0; c < NumCategories; c++ {
		n := c + 1
		required = append(required,
			binding{fmt.Sprintf("cat %d sales", n), &cols.catSales[c]},
			binding{fmt.Sprintf("cat %d margin %%", n), &cols.catMargin[c]},
			binding{fmt.Sprintf("cat %d items", n), &cols.catItems[c]},
			binding{fmt.Sprintf("cat %d discount %%", n), &cols.catDiscount[c]},
		)
	}

	for _, req := range required {
		pos, ok := index[req.name]
		if !ok {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("missing required column %q", req.name), nil)
		}
		*req.dst = pos
	}

	return cols, nil
}

// parseDate parses a date cell against the accepted layouts
func parseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, apperrors.NewParsingError(
		fmt.Sprintf("date value %q is not a valid calendar date", s), nil)
}

// parseNumber parses a plain numeric cell, tolerating thousands separators
func parseNumber(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("numeric value %q is not a number", s), err)
	}
	return value, nil
}

// parseRecord converts one data row into a SalesRecord
func parseRecord(cols *columnMap, row []string, rowNum int) (SalesRecord, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return row[idx]
		}
		return ""
	}

	wrap := func(err error) (SalesRecord, error) {
		var appErr *apperrors.AppError
		if e, ok := err.(*apperrors.AppError); ok {
			appErr = e
		} else {
			appErr = apperrors.NewParsingError("malformed row", err)
		}
		return SalesRecord{}, appErr.WithContext("row", rowNum)
	}

	date, err := parseDate(cell(cols.date))
	if err != nil {
		return wrap(err)
	}

	record := SalesRecord{Date: date}

	type fieldRef struct {
		idx int
		dst *float64
	}

	numbers := []fieldRef{
		{cols.totalSales, &record.TotalSales},
		{cols.numReceipts, &record.NumReceipts},
		{cols.itemsPerReceipt, &record.ItemsPerReceipt},
		{cols.visitors, &record.Visitors},
		{cols.itemsSold, &record.ItemsSold},
	}
	percents := []fieldRef{
		{cols.margin, &record.Margin},
		{cols.avgDiscount, &record.AvgDiscount},
	}
	for c := 0; c < NumCategories; c++ {
		numbers = append(numbers,
			fieldRef{cols.catSales[c], &record.Categories[c].Sales},
			fieldRef{cols.catItems[c], &record.Categories[c].Items},
		)
		percents = append(percents,
			fieldRef{cols.catMargin[c], &record.Categories[c].Margin},
			fieldRef{cols.catDiscount[c], &record.Categories[c].Discount},
		)
	}

	for _, n := range numbers {
		value, err := parseNumber(cell(n.idx))
		if err != nil {
			return wrap(err)
		}
		*n.dst = value
	}
	for _, p := range percents {
		value, err := ParsePercent(cell(p.idx))
		if err != nil {
			return wrap(err)
		}
		*p.dst = value
	}

	record.deriveCalendar()
	return record, nil
}

// parseRows converts a header row plus data rows into sales records,
// skipping fully empty rows.
func parseRows(header []string, rows [][]string) ([]SalesRecord, error) {
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]SalesRecord, 0, len(rows))
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		record, err := parseRecord(cols, row, i+2) // 1-based, after header
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseCSV reads sales records from CSV data. The first row must be the
// header; the expected column set is fixed (see resolveColumns).
func ParseCSV(r io.Reader) ([]SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV input", err)
	}
	if len(all) == 0 {
		return nil, apperrors.NewParsingError("CSV input contains no header row", nil)
	}

	header := all[0]
	if len(header) > 0 {
		// Strip UTF-8 BOM written by Excel exports
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	return parseRows(header, all[1:])
}

// ParseWorkbook reads sales records from the first sheet of an XLSX file
func ParseWorkbook(path string) ([]SalesRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workbook sheet", err)
	}

	// Skip leading blank rows before the header
	start := 0
	for start < len(rows) && isEmptyRow(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, apperrors.NewParsingError("workbook sheet contains no header row", nil)
	}

	return parseRows(rows[start], rows[start+1:])
}
