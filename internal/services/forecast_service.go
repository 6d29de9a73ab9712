package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"retailcast/internal/dataprocessing"
	"retailcast/internal/forecast"
	"retailcast/internal/infrastructure"
)

// DatasetStatus summarizes the currently loaded sales dataset and the
// configured forecast adjustments.
type DatasetStatus struct {
	RecordCount  int         `json:"record_count"`
	MinDate      *time.Time  `json:"min_date,omitempty"`
	MaxDate      *time.Time  `json:"max_date,omitempty"`
	LoadedAt     *time.Time  `json:"loaded_at,omitempty"`
	ClosedDays   []int       `json:"closed_days"`
	SpecialDates []time.Time `json:"special_dates"`
}

// ForecastService wraps the data processor and forecast engine behind a
// mutex so the single shared instance can be used from concurrent HTTP
// handlers. The underlying components are not thread-safe themselves.
type ForecastService struct {
	mu        sync.Mutex
	processor *dataprocessing.Processor
	engine    *forecast.Engine
	logger    *slog.Logger
	metrics   *infrastructure.BusinessMetrics
	loadedAt  time.Time
}

// NewForecastService creates a forecast service with its own processor
// and engine. Metrics may be nil when instrumentation is disabled.
func NewForecastService(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	processor := dataprocessing.NewProcessor(logger)
	return &ForecastService{
		processor: processor,
		engine:    forecast.NewEngine(processor, logger),
		logger:    logger,
		metrics:   metrics,
	}
}

// LoadCSV ingests CSV sales data and returns the resulting dataset status
func (s *ForecastService) LoadCSV(ctx context.Context, r io.Reader) (DatasetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.processor.LoadCSV(r); err != nil {
		s.logger.ErrorContext(ctx, "CSV load failed", slog.String("error", err.Error()))
		return DatasetStatus{}, err
	}
	return s.afterLoad(ctx, "csv"), nil
}

// LoadWorkbook ingests XLSX sales data and returns the resulting dataset
// status.
func (s *ForecastService) LoadWorkbook(ctx context.Context, path string) (DatasetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.processor.LoadWorkbook(path); err != nil {
		s.logger.ErrorContext(ctx, "workbook load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return DatasetStatus{}, err
	}
	return s.afterLoad(ctx, "xlsx"), nil
}

func (s *ForecastService) afterLoad(ctx context.Context, format string) DatasetStatus {
	s.loadedAt = time.Now().UTC()

	if s.metrics != nil {
		s.metrics.SalesRowsLoaded.Add(ctx, int64(s.processor.Len()),
			metric.WithAttributes(attribute.String("format", format)))
	}

	s.logger.InfoContext(ctx, "sales dataset replaced",
		slog.String("format", format),
		slog.Int("record_count", s.processor.Len()))

	return s.statusLocked()
}

// Status reports the current dataset summary
func (s *ForecastService) Status(ctx context.Context) DatasetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *ForecastService) statusLocked() DatasetStatus {
	status := DatasetStatus{
		RecordCount:  s.processor.Len(),
		ClosedDays:   s.processor.ClosedDays(),
		SpecialDates: s.processor.SpecialDates(),
	}
	if records := s.processor.Records(); len(records) > 0 {
		minDate := records[0].Date
		maxDate := records[len(records)-1].Date
		loadedAt := s.loadedAt
		status.MinDate = &minDate
		status.MaxDate = &maxDate
		status.LoadedAt = &loadedAt
	}
	return status
}

// SetClosedDays replaces the closed-weekday configuration
func (s *ForecastService) SetClosedDays(ctx context.Context, days []int) DatasetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processor.SetClosedDays(days)
	s.logger.InfoContext(ctx, "closed days updated", slog.Any("days", s.processor.ClosedDays()))
	return s.statusLocked()
}

// SetSpecialDates replaces the special-date configuration
func (s *ForecastService) SetSpecialDates(ctx context.Context, dates []time.Time) DatasetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processor.SetSpecialDates(dates)
	s.logger.InfoContext(ctx, "special dates updated",
		slog.Int("count", len(s.processor.SpecialDates())))
	return s.statusLocked()
}

// GenerateForecast produces the 365-day sales forecast. A zero baseYear
// fits the trend on the full dataset.
func (s *ForecastService) GenerateForecast(ctx context.Context, baseYear int) ([]forecast.ForecastRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.engine.GenerateForecast(baseYear)
	if err != nil {
		s.logger.ErrorContext(ctx, "forecast generation failed",
			slog.Int("base_year", baseYear),
			slog.String("error", err.Error()))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ForecastsGenerated.Add(ctx, 1)
	}
	return rows, nil
}

// DistributeBudget produces the forecast with the yearly budget spread
// across it.
func (s *ForecastService) DistributeBudget(ctx context.Context, yearlyBudget float64) ([]forecast.ForecastRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.engine.DistributeBudget(yearlyBudget)
	if err != nil {
		s.logger.ErrorContext(ctx, "budget distribution failed",
			slog.Float64("yearly_budget", yearlyBudget),
			slog.String("error", err.Error()))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BudgetDistributions.Add(ctx, 1)
	}
	return rows, nil
}
