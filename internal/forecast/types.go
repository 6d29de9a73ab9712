package forecast

import "time"

// HorizonDays is the length of the generated forecast in calendar days
const HorizonDays = 365

// ForecastRow is one day of the generated forecast horizon
type ForecastRow struct {
	Date          time.Time `json:"date"`
	SalesForecast float64   `json:"sales_forecast"`
	Week          int       `json:"week"`
	Weekday       int       `json:"weekday"`

	// Budget columns are zero until DistributeBudget populates them
	DailyBudget    float64 `json:"daily_budget"`
	TargetReceipts float64 `json:"target_receipts"`
	TargetItems    float64 `json:"target_items"`
}
