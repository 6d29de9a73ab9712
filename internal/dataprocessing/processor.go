package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	apperrors "retailcast/internal/errors"
)

// Processor transforms raw tabular sales input into a normalized,
// feature-enriched dataset and holds the auxiliary context (closed days,
// special dates) needed for forecasting.
//
// A Processor is not safe for concurrent use; callers embedding it in a
// concurrent host must serialize access (one instance per session, or an
// external mutex).
type Processor struct {
	logger *slog.Logger

	records      []SalesRecord
	closedDays   map[int]struct{}
	specialDates map[time.Time]struct{}
}

// NewProcessor creates a new sales data processor
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:       logger,
		closedDays:   make(map[int]struct{}),
		specialDates: make(map[time.Time]struct{}),
	}
}

// LoadRecords replaces the processed dataset with the given records.
// Records are sorted chronologically and calendar fields are re-derived
// from each record's date, so the derived attributes can never disagree
// with the date they were computed from. Duplicate dates are a
// ParsingError, and on any error the previous dataset is kept intact.
func (p *Processor) LoadRecords(records []SalesRecord) error {
	processed := make([]SalesRecord, len(records))
	copy(processed, records)

	sort.Slice(processed, func(i, j int) bool {
		return processed[i].Date.Before(processed[j].Date)
	})

	seen := make(map[time.Time]struct{}, len(processed))
	for i := range processed {
		processed[i].Date = NormalizeDate(processed[i].Date)
		processed[i].deriveCalendar()

		if _, dup := seen[processed[i].Date]; dup {
			return apperrors.NewParsingError(
				fmt.Sprintf("duplicate date %s in input data",
					processed[i].Date.Format("2006-01-02")), nil)
		}
		seen[processed[i].Date] = struct{}{}
	}

	p.records = processed

	p.logger.Info("sales data loaded",
		slog.Int("record_count", len(processed)))

	return nil
}

// LoadCSV parses CSV sales data and replaces the processed dataset.
// Either the whole table loads successfully or the previous state remains.
func (p *Processor) LoadCSV(r io.Reader) error {
	records, err := ParseCSV(r)
	if err != nil {
		return fmt.Errorf("load CSV data: %w", err)
	}
	return p.LoadRecords(records)
}

// LoadWorkbook parses XLSX sales data and replaces the processed dataset
func (p *Processor) LoadWorkbook(path string) error {
	records, err := ParseWorkbook(path)
	if err != nil {
		return fmt.Errorf("load workbook data: %w", err)
	}
	return p.LoadRecords(records)
}

// Records returns a copy of the processed dataset in chronological order
func (p *Processor) Records() []SalesRecord {
	out := make([]SalesRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Len returns the number of processed records
func (p *Processor) Len() int {
	return len(p.records)
}

// MaxDate returns the latest date in the processed dataset. The second
// return value is false when no data is loaded.
func (p *Processor) MaxDate() (time.Time, bool) {
	if len(p.records) == 0 {
		return time.Time{}, false
	}
	return p.records[len(p.records)-1].Date, true
}

// SetClosedDays replaces the closed-day set. Values are weekday numbers
// (0=Monday .. 6=Sunday); out-of-range values are accepted as inert since
// no comparison ever matches them.
func (p *Processor) SetClosedDays(days []int) {
	closed := make(map[int]struct{}, len(days))
	for _, d := range days {
		closed[d] = struct{}{}
	}
	p.closedDays = closed
}

// ClosedDays returns the configured closed weekdays in ascending order
func (p *Processor) ClosedDays() []int {
	out := make([]int, 0, len(p.closedDays))
	for d := range p.closedDays {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// SetSpecialDates replaces the special-date set. Values are normalized to
// bare calendar dates; any time-of-day component is discarded.
func (p *Processor) SetSpecialDates(dates []time.Time) {
	special := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		special[NormalizeDate(d)] = struct{}{}
	}
	p.specialDates = special
}

// SpecialDates returns the configured special dates in chronological order
func (p *Processor) SpecialDates() []time.Time {
	out := make([]time.Time, 0, len(p.specialDates))
	for d := range p.specialDates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IsSpecialDate reports whether the given date is in the special-date set
func (p *Processor) IsSpecialDate(t time.Time) bool {
	_, ok := p.specialDates[NormalizeDate(t)]
	return ok
}

// DailyWeights computes the two weighting inputs for the forecast:
// the weekly pattern (mean total sales per (ISO week, weekday) bucket)
// and the special pattern scalar (mean total sales across all rows whose
// date is a special date). The scalar is NaN when no historical row
// matches any special date; callers must handle that case.
func (p *Processor) DailyWeights() (WeeklyPattern, float64, error) {
	if len(p.records) == 0 {
		return nil, 0, apperrors.NewEmptyDatasetError(
			"daily weights requested before any data was loaded")
	}

	sums := make(map[WeekKey]float64)
	counts := make(map[WeekKey]int)
	specialSum := 0.0
	specialCount := 0

	for _, r := range p.records {
		key := WeekKey{Week: r.Week, Weekday: r.Weekday}
		sums[key] += r.TotalSales
		counts[key]++

		if _, ok := p.specialDates[r.Date]; ok {
			specialSum += r.TotalSales
			specialCount++
		}
	}

	pattern := make(WeeklyPattern, len(sums))
	for key, sum := range sums {
		pattern[key] = sum / float64(counts[key])
	}

	specialMean := math.NaN()
	if specialCount > 0 {
		specialMean = specialSum / float64(specialCount)
	}

	p.logger.Debug("daily weights calculated",
		slog.Int("pattern_buckets", len(pattern)),
		slog.Int("special_matches", specialCount))

	return pattern, specialMean, nil
}

// HistoricalMeans holds the per-day averages used to derive operational
// targets from a daily budget.
type HistoricalMeans struct {
	TotalSales      float64
	NumReceipts     float64
	ItemsPerReceipt float64
}

// Means computes the historical averages over the full processed dataset
func (p *Processor) Means() (HistoricalMeans, error) {
	if len(p.records) == 0 {
		return HistoricalMeans{}, apperrors.NewEmptyDatasetError(
			"historical means requested before any data was loaded")
	}

	var m HistoricalMeans
	for _, r := range p.records {
		m.TotalSales += r.TotalSales
		m.NumReceipts += r.NumReceipts
		m.ItemsPerReceipt += r.ItemsPerReceipt
	}

	n := float64(len(p.records))
	m.TotalSales /= n
	m.NumReceipts /= n
	m.ItemsPerReceipt /= n
	return m, nil
}
