package aggregate

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// MonthCount is one point of a monthly series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthRange lists every YYYY-MM between start and end (YYYY-MM-DD), inclusive.
func MonthRange(start, end string) ([]string, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}

	cur := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(e.Year(), e.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := []string{}
	for !cur.After(last) {
		months = append(months, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return months, nil
}

// MonthlySeries counts dates per month and zero-fills every month of start..end,
// so trailing empty months render as 0 instead of disappearing.
func MonthlySeries(dates []string, start, end string) ([]MonthCount, error) {
	months, err := MonthRange(start, end)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, d := range dates {
		if len(d) < 7 {
			continue
		}
		counts[d[:7]]++
	}
	out := make([]MonthCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthCount{Month: m, Count: counts[m]})
	}
	return out, nil
}
