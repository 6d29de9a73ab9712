package forecast

import (
	"log/slog"
	"math"
	"time"

	"retailcast/internal/dataprocessing"
	apperrors "retailcast/internal/errors"
)

// Engine produces a 365-day forward sales forecast and a corresponding
// yearly-budget allocation from a Processor's state.
//
// The Engine holds a read-only reference to the processor and never
// mutates it. Like the processor it is not safe for concurrent use.
type Engine struct {
	processor *dataprocessing.Processor
	logger    *slog.Logger
}

// NewEngine creates a forecast engine bound to a data processor
func NewEngine(processor *dataprocessing.Processor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		processor: processor,
		logger:    logger,
	}
}

// GenerateForecast projects daily sales for the 365 days following the
// latest historical date. When baseYear is non-zero the trend is fitted
// only on records from that year, but the forecast horizon still starts
// from the full dataset's maximum date so the projection always continues
// from the most recent data.
func (e *Engine) GenerateForecast(baseYear int) ([]ForecastRow, error) {
	records := e.processor.Records()
	if len(records) == 0 {
		return nil, apperrors.NewEmptyDatasetError(
			"forecast requested before any data was loaded")
	}

	subset := records
	if baseYear != 0 {
		subset = subset[:0:0]
		for _, r := range records {
			if r.Year == baseYear {
				subset = append(subset, r)
			}
		}
		if len(subset) == 0 {
			return nil, apperrors.NewEmptyDatasetError(
				"no historical records match the base year").
				WithContext("base_year", baseYear)
		}
	}

	values := make([]float64, len(subset))
	for i, r := range subset {
		values[i] = r.TotalSales
	}
	trend, err := fitTrend(values)
	if err != nil {
		return nil, err
	}

	pattern, specialMean, err := e.processor.DailyWeights()
	if err != nil {
		return nil, err
	}

	maxDate, _ := e.processor.MaxDate()
	rows := make([]ForecastRow, HorizonDays)
	for k := 0; k < HorizonDays; k++ {
		date := maxDate.AddDate(0, 0, k+1)
		_, week := date.ISOWeek()
		rows[k] = ForecastRow{
			Date:          date,
			SalesForecast: trend.at(trend.N + k),
			Week:          week,
			Weekday:       dataprocessing.ISOWeekday(date),
		}
	}

	if err := applyWeeklyPattern(rows, pattern); err != nil {
		return nil, err
	}
	if err := e.applySpecialDates(rows, specialMean); err != nil {
		return nil, err
	}

	e.logger.Info("forecast generated",
		slog.Int("horizon_days", HorizonDays),
		slog.Int("trend_observations", trend.N),
		slog.Int("base_year", baseYear),
		slog.Float64("trend_slope", trend.Slope))

	return rows, nil
}

// applyWeeklyPattern scales each forecast day whose (week, weekday) bucket
// has a historical pattern value by that value relative to the overall
// pattern mean. Days without a matching bucket keep the raw trend value.
func applyWeeklyPattern(rows []ForecastRow, pattern dataprocessing.WeeklyPattern) error {
	if len(pattern) == 0 {
		return nil
	}

	mean := pattern.Mean()
	if mean == 0 {
		return apperrors.NewConfigError(
			"weekly pattern mean is zero, seasonal weights are undefined", nil)
	}

	for i := range rows {
		key := dataprocessing.WeekKey{Week: rows[i].Week, Weekday: rows[i].Weekday}
		if value, ok := pattern[key]; ok {
			rows[i].SalesForecast *= value / mean
		}
	}
	return nil
}

// applySpecialDates boosts (or damps) each special date inside the horizon
// towards the historical special-date sales level. Adjustments are applied
// one date at a time in chronological order, each against the forecast
// mean as it stands at that moment; the outcome depends on this order.
func (e *Engine) applySpecialDates(rows []ForecastRow, specialMean float64) error {
	if math.IsNaN(specialMean) {
		// No historical row matched a special date; nothing to anchor
		// the adjustment to, so the forecast is left as-is.
		return nil
	}

	for _, date := range e.processor.SpecialDates() {
		idx := horizonIndex(rows, date)
		if idx < 0 {
			continue
		}

		mean := forecastMean(rows)
		if mean == 0 {
			return apperrors.NewConfigError(
				"forecast mean is zero, special-date weight is undefined", nil).
				WithContext("date", date.Format("2006-01-02"))
		}
		rows[idx].SalesForecast *= specialMean / mean
	}
	return nil
}

func horizonIndex(rows []ForecastRow, date time.Time) int {
	if len(rows) == 0 {
		return -1
	}
	idx := int(date.Sub(rows[0].Date).Hours() / 24)
	if idx < 0 || idx >= len(rows) {
		return -1
	}
	return idx
}

func forecastMean(rows []ForecastRow) float64 {
	sum := 0.0
	for i := range rows {
		sum += rows[i].SalesForecast
	}
	return sum / float64(len(rows))
}

// DistributeBudget generates an unfiltered forecast and apportions the
// yearly budget across it, each day receiving a share proportional to its
// forecasted sales. Receipt and item targets are back-derived from the
// historical per-day averages.
func (e *Engine) DistributeBudget(yearlyBudget float64) ([]ForecastRow, error) {
	if yearlyBudget < 0 || math.IsNaN(yearlyBudget) {
		return nil, apperrors.NewConfigError(
			"yearly budget must be a non-negative number", nil)
	}

	rows, err := e.GenerateForecast(0)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for i := range rows {
		total += rows[i].SalesForecast
	}
	if total == 0 {
		return nil, apperrors.NewConfigError(
			"forecast sums to zero, budget shares are undefined", nil)
	}

	means, err := e.processor.Means()
	if err != nil {
		return nil, err
	}
	if means.TotalSales == 0 {
		return nil, apperrors.NewConfigError(
			"historical sales mean is zero, receipt targets are undefined", nil)
	}

	for i := range rows {
		rows[i].DailyBudget = yearlyBudget * rows[i].SalesForecast / total
		rows[i].TargetReceipts = rows[i].DailyBudget / means.TotalSales * means.NumReceipts
		rows[i].TargetItems = rows[i].TargetReceipts * means.ItemsPerReceipt
	}

	e.logger.Info("budget distributed",
		slog.Float64("yearly_budget", yearlyBudget),
		slog.Int("forecast_days", len(rows)))

	return rows, nil
}
