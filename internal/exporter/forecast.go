package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"retailcast/internal/forecast"
)

// ForecastExporter renders forecast tables as CSV reports
type ForecastExporter struct {
	csvWriter *CSVWriter
}

// NewForecastExporter creates a new forecast report exporter
func NewForecastExporter(logger *slog.Logger) *ForecastExporter {
	return &ForecastExporter{
		csvWriter: NewCSVWriter(logger),
	}
}

func forecastHeaders() []string {
	return []string{
		"date", "sales_forecast", "week", "weekday",
		"daily_budget", "target_receipts", "target_items",
	}
}

func forecastRowToCSV(row forecast.ForecastRow) []string {
	return []string{
		row.Date.Format("2006-01-02"),
		formatFloat(row.SalesForecast),
		formatInt(row.Week),
		formatInt(row.Weekday),
		formatFloat(row.DailyBudget),
		formatFloat(row.TargetReceipts),
		formatFloat(row.TargetItems),
	}
}

// Export streams the forecast table as CSV, without a BOM so downstream
// analysis tools can consume it directly.
func (e *ForecastExporter) Export(out io.Writer, rows []forecast.ForecastRow) error {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = forecastRowToCSV(row)
	}
	return e.csvWriter.Write(out, WriteOptions{
		Headers: forecastHeaders(),
		Records: records,
	})
}

// ExportFile writes the forecast table to a CSV file with a UTF-8 BOM for
// Excel compatibility.
func (e *ForecastExporter) ExportFile(filePath string, rows []forecast.ForecastRow) error {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = forecastRowToCSV(row)
	}

	if err := e.csvWriter.WriteFile(filePath, WriteOptions{
		Headers:   forecastHeaders(),
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return fmt.Errorf("failed to write forecast report: %w", err)
	}
	return nil
}
