package dataprocessing

import (
	"time"
)

// NumCategories is the number of per-category metric groups in the input data
const NumCategories = 5

// CategoryMetrics holds the per-category breakdown of a single day
type CategoryMetrics struct {
	Sales    float64 `json:"sales"`
	Margin   float64 `json:"margin"`   // fraction in [0,1]
	Items    float64 `json:"items"`
	Discount float64 `json:"discount"` // fraction in [0,1]
}

// SalesRecord represents one day of processed historical sales data.
// Calendar fields are derived from Date once at load time; records are
// handed out by value and never mutated after processing.
type SalesRecord struct {
	Date time.Time `json:"date"`

	TotalSales      float64 `json:"total_sales"`
	NumReceipts     float64 `json:"num_receipts"`
	ItemsPerReceipt float64 `json:"items_per_receipt"`
	Visitors        float64 `json:"visitors"`
	ItemsSold       float64 `json:"items_sold"`
	Margin          float64 `json:"margin"`       // fraction in [0,1]
	AvgDiscount     float64 `json:"avg_discount"` // fraction in [0,1]

	Categories [NumCategories]CategoryMetrics `json:"categories"`

	// Derived calendar attributes
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Month   int `json:"month"`
	Week    int `json:"week"`    // ISO week number
	Weekday int `json:"weekday"` // 0=Monday .. 6=Sunday
}

// IsValid checks basic measure sanity for a sales record
func (r SalesRecord) IsValid() bool {
	return !r.Date.IsZero() &&
		r.TotalSales >= 0 && r.NumReceipts >= 0 && r.ItemsPerReceipt >= 0 &&
		r.Visitors >= 0 && r.ItemsSold >= 0 &&
		r.Margin >= 0 && r.Margin <= 1 &&
		r.AvgDiscount >= 0 && r.AvgDiscount <= 1
}

// deriveCalendar recomputes the calendar attributes from Date
func (r *SalesRecord) deriveCalendar() {
	r.Year = r.Date.Year()
	r.Month = int(r.Date.Month())
	r.Quarter = (r.Month-1)/3 + 1
	_, r.Week = r.Date.ISOWeek()
	r.Weekday = ISOWeekday(r.Date)
}

// ISOWeekday returns the weekday of t with Monday=0 .. Sunday=6
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NormalizeDate discards any time-of-day component, keeping the bare
// calendar date at midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekKey identifies a (ISO week, weekday) bucket of the weekly pattern
type WeekKey struct {
	Week    int `json:"week"`
	Weekday int `json:"weekday"`
}

// WeeklyPattern maps (ISO week, weekday) buckets to the mean historical
// total sales of all rows sharing that bucket.
type WeeklyPattern map[WeekKey]float64

// Mean returns the mean of all pattern values, or 0 for an empty pattern
func (p WeeklyPattern) Mean() float64 {
	if len(p) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range p {
		sum += v
	}
	return sum / float64(len(p))
}
