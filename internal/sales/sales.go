// Package sales builds the gap-filled daily sales series used by the admin dashboard.
package sales

import (
	"fmt"
	"time"

	"globomart/internal/model"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for group keys and series entries.
const DateLayout = "2006-01-02"

// MaxDays is the longest range, in calendar days, a single report may cover.
const MaxDays = 366

// Group is the aggregate for one UTC calendar day.
type Group struct {
	Sales     decimal.Decimal
	NumOrders int
}

// ParseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// NormalizeRange widens start to the first and end to the last millisecond of their UTC days.
func NormalizeRange(start, end time.Time) (time.Time, time.Time) {
	s := start.UTC()
	e := end.UTC()
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999_000_000, time.UTC)
}

// DayCount returns how many UTC calendar days the range covers, or 0 when end
// falls on a day before start.
func DayCount(start, end time.Time) int {
	s, e := NormalizeRange(start, end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s)/(24*time.Hour)) + 1
}

// Days lists every UTC calendar date from start to end inclusive.
// It returns nil when end falls on a day before start.
func Days(start, end time.Time) []string {
	s, e := NormalizeRange(start, end)
	if e.Before(s) {
		return nil
	}

	var days []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// Build emits one entry per day in the range, filling days without orders with zeros.
// Groups for dates outside the range are ignored.
func Build(start, end time.Time, groups map[string]Group) model.SalesReport {
	days := Days(start, end)

	report := model.SalesReport{Sales: make([]model.DailySales, 0, len(days))}
	total := decimal.Zero

	for _, day := range days {
		g := groups[day]
		report.Sales = append(report.Sales, model.DailySales{
			Date:      day,
			Sales:     g.Sales.InexactFloat64(),
			NumOrders: g.NumOrders,
		})
		total = total.Add(g.Sales)
		report.TotalNumOrders += g.NumOrders
	}

	report.TotalSales = total.InexactFloat64()
	return report
}
