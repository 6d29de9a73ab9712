package forecast

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcast/internal/dataprocessing"
	apperrors "retailcast/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// loadDailySales loads records on consecutive days starting at the given
// date with the given total sales values.
func loadDailySales(t *testing.T, p *dataprocessing.Processor, start string, sales ...float64) {
	t.Helper()
	startDate := mustDate(start)
	records := make([]dataprocessing.SalesRecord, len(sales))
	for i, s := range sales {
		records[i] = dataprocessing.SalesRecord{
			Date:            startDate.AddDate(0, 0, i),
			TotalSales:      s,
			NumReceipts:     100,
			ItemsPerReceipt: 2,
			Visitors:        250,
			ItemsSold:       200,
		}
	}
	require.NoError(t, p.LoadRecords(records))
}

func newTestEngine(t *testing.T) (*Engine, *dataprocessing.Processor) {
	t.Helper()
	p := dataprocessing.NewProcessor(testLogger())
	return NewEngine(p, testLogger()), p
}

func TestGenerateForecastHorizon(t *testing.T) {
	engine, p := newTestEngine(t)
	loadDailySales(t, p, "2024-01-15", 100, 200, 300)

	rows, err := engine.GenerateForecast(0)
	require.NoError(t, err)
	require.Len(t, rows, HorizonDays)

	// contiguous days starting the day after the historical max date
	assert.Equal(t, mustDate("2024-01-18"), rows[0].Date)
	for i := 1; i < len(rows); i++ {
		assert.Equal(t, rows[i-1].Date.AddDate(0, 0, 1), rows[i].Date,
			"forecast dates must be contiguous at row %d", i)
	}

	// calendar features derived the same way as historical records
	for _, r := range rows[:7] {
		_, wantWeek := r.Date.ISOWeek()
		assert.Equal(t, wantWeek, r.Week)
		assert.Equal(t, dataprocessing.ISOWeekday(r.Date), r.Weekday)
	}
}

func TestGenerateForecastTrendContinuation(t *testing.T) {
	engine, p := newTestEngine(t)
	loadDailySales(t, p, "2024-01-15", 100, 200, 300)

	rows, err := engine.GenerateForecast(0)
	require.NoError(t, err)

	// The historical (week, weekday) buckets only recur about a year into
	// the horizon, so early rows carry the raw extrapolated trend.
	assert.InDelta(t, 400.0, rows[0].SalesForecast, 1e-9)
	assert.InDelta(t, 500.0, rows[1].SalesForecast, 1e-9)
	assert.InDelta(t, 600.0, rows[2].SalesForecast, 1e-9)
}

func TestGenerateForecastWeeklyNeutrality(t *testing.T) {
	engine, p := newTestEngine(t)
	// identical sales everywhere: every pattern bucket equals the pattern
	// mean, so seasonal weights are exactly 1.0
	sales := make([]float64, 21)
	for i := range sales {
		sales[i] = 750
	}
	loadDailySales(t, p, "2024-01-01", sales...)

	rows, err := engine.GenerateForecast(0)
	require.NoError(t, err)
	for _, r := range rows {
		assert.InDelta(t, 750.0, r.SalesForecast, 1e-9)
	}
}

func TestGenerateForecastBaseYear(t *testing.T) {
	engine, p := newTestEngine(t)
	// flat 2023 data followed by a steep 2024 run-up
	require.NoError(t, p.LoadRecords([]dataprocessing.SalesRecord{
		{Date: mustDate("2023-06-01"), TotalSales: 500, NumReceipts: 100, ItemsPerReceipt: 2},
		{Date: mustDate("2023-06-02"), TotalSales: 500, NumReceipts: 100, ItemsPerReceipt: 2},
		{Date: mustDate("2024-06-01"), TotalSales: 100, NumReceipts: 100, ItemsPerReceipt: 2},
		{Date: mustDate("2024-06-02"), TotalSales: 900, NumReceipts: 100, ItemsPerReceipt: 2},
	}))

	rows, err := engine.GenerateForecast(2023)
	require.NoError(t, err)

	// horizon still starts after the full dataset's max date
	assert.Equal(t, mustDate("2024-06-03"), rows[0].Date)

	// the trend itself is flat because only 2023 rows were fitted
	assert.InDelta(t, 500.0, rows[0].SalesForecast, 1e-9)

	_, err = engine.GenerateForecast(2020)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyDataset))
}

func TestGenerateForecastEmptyDataset(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.GenerateForecast(0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyDataset))
}

func TestApplySpecialDates(t *testing.T) {
	t.Run("doubles the targeted day", func(t *testing.T) {
		engine, p := newTestEngine(t)
		special := mustDate("2024-02-10")
		p.SetSpecialDates([]time.Time{special})

		rows := uniformRows(mustDate("2024-02-01"), 500)
		require.NoError(t, engine.applySpecialDates(rows, 1000))

		// special mean 1000 against a forecast mean of 500 doubles that day
		assert.InDelta(t, 1000.0, rows[9].SalesForecast, 1e-9)
		assert.InDelta(t, 500.0, rows[8].SalesForecast, 1e-9)
		assert.InDelta(t, 500.0, rows[10].SalesForecast, 1e-9)
	})

	t.Run("applies chronologically against the shifting mean", func(t *testing.T) {
		engine, p := newTestEngine(t)
		p.SetSpecialDates([]time.Time{
			mustDate("2024-02-20"),
			mustDate("2024-02-05"),
		})

		rows := uniformRows(mustDate("2024-02-01"), 500)
		require.NoError(t, engine.applySpecialDates(rows, 1000))

		// first adjustment (Feb 5) sees the pristine mean of 500
		assert.InDelta(t, 1000.0, rows[4].SalesForecast, 1e-9)

		// second adjustment (Feb 20) sees the mean already lifted by the first
		lifted := (float64(HorizonDays-1)*500 + 1000) / HorizonDays
		assert.InDelta(t, 500*1000/lifted, rows[19].SalesForecast, 1e-9)
	})

	t.Run("ignores dates outside the horizon", func(t *testing.T) {
		engine, p := newTestEngine(t)
		p.SetSpecialDates([]time.Time{mustDate("2023-01-01"), mustDate("2030-01-01")})

		rows := uniformRows(mustDate("2024-02-01"), 500)
		require.NoError(t, engine.applySpecialDates(rows, 1000))
		for _, r := range rows[:5] {
			assert.InDelta(t, 500.0, r.SalesForecast, 1e-9)
		}
	})

	t.Run("guards zero forecast mean", func(t *testing.T) {
		engine, p := newTestEngine(t)
		p.SetSpecialDates([]time.Time{mustDate("2024-02-10")})

		// an all-zero forecast leaves the special-date weight undefined
		rows := uniformRows(mustDate("2024-02-01"), 0)
		err := engine.applySpecialDates(rows, 1000)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})
}

func uniformRows(start time.Time, value float64) []ForecastRow {
	rows := make([]ForecastRow, HorizonDays)
	for k := range rows {
		date := start.AddDate(0, 0, k)
		_, week := date.ISOWeek()
		rows[k] = ForecastRow{
			Date:          date,
			SalesForecast: value,
			Week:          week,
			Weekday:       dataprocessing.ISOWeekday(date),
		}
	}
	return rows
}

func TestDistributeBudget(t *testing.T) {
	t.Run("conserves the yearly budget", func(t *testing.T) {
		engine, p := newTestEngine(t)
		loadDailySales(t, p, "2024-01-15", 100, 200, 300)

		rows, err := engine.DistributeBudget(36500)
		require.NoError(t, err)
		require.Len(t, rows, HorizonDays)

		sum := 0.0
		for _, r := range rows {
			sum += r.DailyBudget
		}
		assert.InEpsilon(t, 36500.0, sum, 1e-6)
	})

	t.Run("derives receipt and item targets", func(t *testing.T) {
		engine, p := newTestEngine(t)
		loadDailySales(t, p, "2024-01-15", 100, 200, 300)

		rows, err := engine.DistributeBudget(36500)
		require.NoError(t, err)

		// historical means: sales 200, receipts 100, items per receipt 2
		for _, r := range rows[:3] {
			assert.InDelta(t, r.DailyBudget/200*100, r.TargetReceipts, 1e-9)
			assert.InDelta(t, r.TargetReceipts*2, r.TargetItems, 1e-9)
		}
	})

	t.Run("zero budget yields zero allocations", func(t *testing.T) {
		engine, p := newTestEngine(t)
		loadDailySales(t, p, "2024-01-15", 100, 200, 300)

		rows, err := engine.DistributeBudget(0)
		require.NoError(t, err)
		for _, r := range rows {
			assert.Zero(t, r.DailyBudget)
			assert.Zero(t, r.TargetReceipts)
			assert.Zero(t, r.TargetItems)
		}
	})

	t.Run("rejects negative budget", func(t *testing.T) {
		engine, p := newTestEngine(t)
		loadDailySales(t, p, "2024-01-15", 100, 200, 300)

		_, err := engine.DistributeBudget(-1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("guards zero weekly pattern mean", func(t *testing.T) {
		engine, p := newTestEngine(t)
		// all-zero sales: every pattern bucket is zero, so the seasonal
		// weights are undefined before the budget math is ever reached
		loadDailySales(t, p, "2024-01-15", 0, 0, 0)

		_, err := engine.DistributeBudget(1000)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("guards zero forecast sum", func(t *testing.T) {
		engine, p := newTestEngine(t)
		// A declining trend fitted on 184, 183 extrapolates to 182-k over
		// the horizon, which sums to exactly zero across 365 days. The
		// history sits in ISO week 53, whose (week, weekday) buckets never
		// recur inside the horizon, so no seasonal weight disturbs the sum.
		require.NoError(t, p.LoadRecords([]dataprocessing.SalesRecord{
			{Date: mustDate("2020-12-28"), TotalSales: 184, NumReceipts: 100, ItemsPerReceipt: 2},
			{Date: mustDate("2020-12-29"), TotalSales: 183, NumReceipts: 100, ItemsPerReceipt: 2},
		}))

		_, err := engine.DistributeBudget(1000)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		assert.Contains(t, err.Error(), "forecast sums to zero")
	})

	t.Run("guards zero historical sales mean", func(t *testing.T) {
		engine, p := newTestEngine(t)
		// Sales cancel to a zero mean while the pattern mean stays
		// non-zero: the two Mondays share a (week, weekday) bucket that
		// averages to -100, the Tuesday bucket holds 200, so the pattern
		// mean is 50 and the rising trend keeps the forecast sum positive.
		require.NoError(t, p.LoadRecords([]dataprocessing.SalesRecord{
			{Date: mustDate("2023-12-25"), TotalSales: 100, NumReceipts: 100, ItemsPerReceipt: 2},
			{Date: mustDate("2024-12-23"), TotalSales: -300, NumReceipts: 100, ItemsPerReceipt: 2},
			{Date: mustDate("2024-12-24"), TotalSales: 200, NumReceipts: 100, ItemsPerReceipt: 2},
		}))

		_, err := engine.DistributeBudget(1000)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		assert.Contains(t, err.Error(), "historical sales mean is zero")
	})
}
