package aggregate

import (
	"slices"
	"sort"
	"strings"
)

// Unclassified labels rows that carry no label.
const Unclassified = "미분류"

// Triple is one sparse (period, label, count) observation.
type Triple struct {
	Period string  `json:"period"`
	Label  string  `json:"label"`
	Count  float64 `json:"count"`
}

// PivotSeries is a dense label x period matrix.
// Matrix[i][j] is the count of Labels[i] in Periods[j]; missing pairs are 0.
type PivotSeries struct {
	Periods []string    `json:"periods"`
	Labels  []string    `json:"labels"`
	Matrix  [][]float64 `json:"matrix"`
}

// Pivot turns sparse triples into a PivotSeries.
// Periods and labels are sorted lexically so repeated pivots of the same input are identical.
// Triples without a period are dropped; duplicate pairs are summed.
func Pivot(triples []Triple) PivotSeries {
	cells := make(map[string]map[string]float64)
	periodSet := make(map[string]struct{})

	for _, t := range triples {
		period := strings.TrimSpace(t.Period)
		if period == "" {
			continue
		}
		label := strings.TrimSpace(t.Label)
		if label == "" {
			label = Unclassified
		}
		periodSet[period] = struct{}{}
		row, ok := cells[label]
		if !ok {
			row = make(map[string]float64)
			cells[label] = row
		}
		row[period] += t.Count
	}

	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	labels := make([]string, 0, len(cells))
	for l := range cells {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	matrix := make([][]float64, len(labels))
	for i, l := range labels {
		matrix[i] = make([]float64, len(periods))
		for j, p := range periods {
			matrix[i][j] = cells[l][p]
		}
	}

	return PivotSeries{Periods: periods, Labels: labels, Matrix: matrix}
}

// Cell returns the count of (label, period); absent pairs are 0.
func (p PivotSeries) Cell(label, period string) float64 {
	i := sort.SearchStrings(p.Labels, label)
	j := sort.SearchStrings(p.Periods, period)
	if i >= len(p.Labels) || p.Labels[i] != label || j >= len(p.Periods) || p.Periods[j] != period {
		return 0
	}
	return p.Matrix[i][j]
}

// PeriodTotals sums every label per period.
func (p PivotSeries) PeriodTotals() []float64 {
	totals := make([]float64, len(p.Periods))
	for _, row := range p.Matrix {
		for j, v := range row {
			totals[j] += v
		}
	}
	return totals
}

// Shares divides every cell by its period total. A zero total divides by 1.
func (p PivotSeries) Shares() PivotSeries {
	totals := p.PeriodTotals()
	matrix := make([][]float64, len(p.Matrix))
	for i, row := range p.Matrix {
		matrix[i] = make([]float64, len(row))
		for j, v := range row {
			denom := totals[j]
			if denom == 0 {
				denom = 1
			}
			matrix[i][j] = v / denom
		}
	}
	return PivotSeries{Periods: p.Periods, Labels: p.Labels, Matrix: matrix}
}

// Keep drops every label row not in labels (empty = keep all). Periods are left as they are,
// so shares computed before Keep still divide by the full period total.
func (p PivotSeries) Keep(labels []string) PivotSeries {
	if len(labels) == 0 {
		return p
	}
	out := PivotSeries{Periods: p.Periods, Labels: []string{}, Matrix: [][]float64{}}
	for i, l := range p.Labels {
		if slices.Contains(labels, l) {
			out.Labels = append(out.Labels, l)
			out.Matrix = append(out.Matrix, p.Matrix[i])
		}
	}
	return out
}
