package dataprocessing

import (
	"fmt"
	"strings"
	"time"
)

// salesHeader returns the canonical CSV header for the sales table
func salesHeader() string {
	cols := []string{
		"Date", "Total Sales", "Receipts", "Items per Receipt",
		"Visitors", "Items Sold", "Margin %", "Avg Discount %",
	}
	for n := 1; n <= NumCategories; n++ {
		cols = append(cols,
			fmt.Sprintf("Cat %d Sales", n),
			fmt.Sprintf("Cat %d Margin %%", n),
			fmt.Sprintf("Cat %d Items", n),
			fmt.Sprintf("Cat %d Discount %%", n),
		)
	}
	return strings.Join(cols, ",")
}

// salesRow returns a CSV data row for the given date and total sales,
// with plausible fixed values for every other column.
func salesRow(date string, totalSales float64) string {
	cols := []string{
		date,
		fmt.Sprintf("%g", totalSales),
		"120", "2.5", "310", "300", "32%", "5%",
	}
	for n := 1; n <= NumCategories; n++ {
		cols = append(cols,
			fmt.Sprintf("%g", totalSales/float64(NumCategories)),
			"30%", "60", "4%",
		)
	}
	return strings.Join(cols, ",")
}

// salesCSV builds a complete CSV document from data rows
func salesCSV(rows ...string) string {
	return salesHeader() + "\n" + strings.Join(rows, "\n") + "\n"
}

// mustDate parses an ISO date for test fixtures
func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// testRecord builds a minimal valid record for a date and total sales
func testRecord(date string, totalSales float64) SalesRecord {
	r := SalesRecord{
		Date:            mustDate(date),
		TotalSales:      totalSales,
		NumReceipts:     120,
		ItemsPerReceipt: 2.5,
		Visitors:        310,
		ItemsSold:       300,
		Margin:          0.32,
		AvgDiscount:     0.05,
	}
	r.deriveCalendar()
	return r
}
