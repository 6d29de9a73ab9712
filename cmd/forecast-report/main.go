package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"retailcast/internal/dataprocessing"
	"retailcast/internal/exporter"
	"retailcast/internal/forecast"
)

func main() {
	outputPath := flag.String("out", "forecast.csv", "output path for the forecast report")
	budget := flag.Float64("budget", 0, "yearly budget to distribute across the forecast")
	baseYear := flag.Int("base-year", 0, "restrict the trend fit to this year (0 = full history)")
	closedDays := flag.String("closed-days", "", "comma-separated closed weekdays, 0=Monday..6=Sunday")
	specialDates := flag.String("special-dates", "", "comma-separated special dates (YYYY-MM-DD)")
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: forecast-report [flags] <sales.csv|sales.xlsx> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	records, err := parseInputs(context.Background(), inputs)
	if err != nil {
		logger.Error("Failed to parse input files", "error", err)
		os.Exit(1)
	}

	processor := dataprocessing.NewProcessor(logger)
	if err := processor.LoadRecords(records); err != nil {
		logger.Error("Failed to load sales records", "error", err)
		os.Exit(1)
	}

	if *closedDays != "" {
		days, err := parseIntList(*closedDays)
		if err != nil {
			logger.Error("Invalid closed-days value", "error", err)
			os.Exit(1)
		}
		processor.SetClosedDays(days)
	}
	if *specialDates != "" {
		dates, err := parseDateList(*specialDates)
		if err != nil {
			logger.Error("Invalid special-dates value", "error", err)
			os.Exit(1)
		}
		processor.SetSpecialDates(dates)
	}

	engine := forecast.NewEngine(processor, logger)

	var rows []forecast.ForecastRow
	if *budget > 0 {
		rows, err = engine.DistributeBudget(*budget)
	} else {
		rows, err = engine.GenerateForecast(*baseYear)
	}
	if err != nil {
		logger.Error("Forecast failed", "error", err)
		os.Exit(1)
	}

	if err := exporter.NewForecastExporter(logger).ExportFile(*outputPath, rows); err != nil {
		logger.Error("Failed to write forecast report", "error", err)
		os.Exit(1)
	}

	logger.Info("Forecast report written",
		"path", *outputPath,
		"rows", len(rows),
		"records", processor.Len())
}

// parseInputs reads all input files concurrently and concatenates their
// records. Duplicate dates across files surface later when the combined
// set is loaded.
func parseInputs(ctx context.Context, paths []string) ([]dataprocessing.SalesRecord, error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	var all []dataprocessing.SalesRecord

	for _, path := range paths {
		g.Go(func() error {
			records, err := parseFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			mu.Lock()
			all = append(all, records...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

func parseFile(path string) ([]dataprocessing.SalesRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return dataprocessing.ParseWorkbook(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataprocessing.ParseCSV(f)
}

func parseIntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, value)
	}
	return out, nil
}

func parseDateList(raw string) ([]time.Time, error) {
	parts := strings.Split(raw, ",")
	out := make([]time.Time, 0, len(parts))
	for _, part := range parts {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid date", part)
		}
		out = append(out, date)
	}
	return out, nil
}
