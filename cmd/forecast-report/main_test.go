package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntList(t *testing.T) {
	days, err := parseIntList("5, 6")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, days)

	_, err = parseIntList("5,x")
	assert.Error(t, err)
}

func TestParseDateList(t *testing.T) {
	dates, err := parseDateList("2024-12-24,2024-11-29")
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-12-24", dates[0].Format("2006-01-02"))

	_, err = parseDateList("24/12/2024")
	assert.Error(t, err)
}

func writeSalesFile(t *testing.T, dir, name string, dates ...string) string {
	t.Helper()

	header := []string{
		"Date", "Total Sales", "Receipts", "Items per Receipt",
		"Visitors", "Items Sold", "Margin %", "Avg Discount %",
	}
	for n := 1; n <= 5; n++ {
		header = append(header,
			fmt.Sprintf("Cat %d Sales", n),
			fmt.Sprintf("Cat %d Margin %%", n),
			fmt.Sprintf("Cat %d Items", n),
			fmt.Sprintf("Cat %d Discount %%", n),
		)
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ",") + "\n")
	for _, date := range dates {
		row := []string{date, "100", "50", "2", "120", "100", "30%", "5%"}
		for n := 0; n < 5; n++ {
			row = append(row, "20", "25%", "40", "3%")
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestParseInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeSalesFile(t, dir, "jan.csv", "2024-01-15", "2024-01-16")
	b := writeSalesFile(t, dir, "feb.csv", "2024-02-01")

	records, err := parseInputs(context.Background(), []string{a, b})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = parseInputs(context.Background(), []string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}
