package aggregate

import (
	"fmt"
	"slices"

	"assembly-dashboard-be/pkg/dashboard/hierarchy"
	"assembly-dashboard-be/pkg/dashboard/records"
)

// YearQuarter is a calendar quarter.
type YearQuarter struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Ordinal makes quarters comparable (2021Q4 < 2022Q1).
func (yq YearQuarter) Ordinal() int {
	return yq.Year*4 + (yq.Quarter - 1)
}

// Label renders the period token used as pivot column ("2021-Q3").
func (yq YearQuarter) Label() string {
	return fmt.Sprintf("%d-Q%d", yq.Year, yq.Quarter)
}

// AddQuarters shifts yq by n quarters (n may be negative).
func (yq YearQuarter) AddQuarters(n int) YearQuarter {
	o := yq.Ordinal() + n
	return YearQuarter{Year: o / 4, Quarter: o%4 + 1}
}

// Grouping selects the label axis of a trend.
type Grouping string

const (
	ByCategory    Grouping = "l2"
	BySubcategory Grouping = "l3"
)

// Metric selects which trend counter is summed.
type Metric string

const (
	MetricRows Metric = "rows"
	MetricDocs Metric = "docs"
)

// TrendOptions restricts and groups trend rows.
type TrendOptions struct {
	From, To YearQuarter
	// Terms keeps rows whose session belongs to one of the terms (empty = all).
	Terms    []int
	Resolver *hierarchy.Resolver
	Grouping Grouping
	// Category is the L2 whose sub-labels are charted in BySubcategory mode.
	Category string
	// Include keeps only these labels (empty = all).
	Include []string
	Metric  Metric
}

// TrendTriples converts trend rows into pivot triples.
// Rows without a readable year/quarter, outside the range, or outside the terms are skipped.
func TrendTriples(rs []records.Record, fields records.FieldTable, opts TrendOptions) []Triple {
	metricField := records.FieldRows
	if opts.Metric == MetricDocs {
		metricField = records.FieldDocs
	}
	lo, hi := opts.From.Ordinal(), opts.To.Ordinal()

	out := make([]Triple, 0, len(rs))
	for _, r := range rs {
		year, okY := fields.Int(r, records.FieldYear)
		quarter, okQ := fields.Int(r, records.FieldQuarter)
		if !okY || !okQ || quarter < 1 || quarter > 4 {
			continue
		}
		yq := YearQuarter{Year: year, Quarter: quarter}
		if o := yq.Ordinal(); o < lo || o > hi {
			continue
		}

		if len(opts.Terms) > 0 && opts.Resolver != nil {
			session, ok := fields.ScopeID(r, records.FieldSession)
			if !ok {
				continue
			}
			term, ok := opts.Resolver.TermOf(session)
			if !ok || !slices.Contains(opts.Terms, term) {
				continue
			}
		}

		l2 := fields.String(r, records.FieldCategory)
		label := l2
		if opts.Grouping == BySubcategory {
			if opts.Category == "" || l2 != opts.Category {
				continue
			}
			label = fields.String(r, records.FieldSubcategory)
		}
		if label == "" {
			label = Unclassified
		}
		if len(opts.Include) > 0 && !slices.Contains(opts.Include, label) {
			continue
		}

		v, ok := fields.Float(r, metricField)
		if !ok {
			v = 0
		}
		out = append(out, Triple{Period: yq.Label(), Label: label, Count: v})
	}
	return out
}

// PeriodBounds is the min/max metadata of the trend table.
type PeriodBounds struct {
	MinYear    int      `json:"year_min"`
	MaxYear    int      `json:"year_max"`
	MinQuarter int      `json:"quarter_min"`
	MaxQuarter int      `json:"quarter_max"`
	Categories []string `json:"l2_list"`
}

// Latest is the newest quarter covered by the table.
func (b PeriodBounds) Latest() YearQuarter {
	return YearQuarter{Year: b.MaxYear, Quarter: b.MaxQuarter}
}

// Earliest is the oldest quarter covered by the table.
func (b PeriodBounds) Earliest() YearQuarter {
	return YearQuarter{Year: b.MinYear, Quarter: b.MinQuarter}
}

// Bounds scans trend rows for year/quarter extremes and the sorted category list.
// Year and quarter extremes are independent, mirroring the options endpoint.
func Bounds(rs []records.Record, fields records.FieldTable) PeriodBounds {
	var b PeriodBounds
	seenY, seenQ := false, false
	cats := make(map[string]struct{})
	for _, r := range rs {
		if y, ok := fields.Int(r, records.FieldYear); ok {
			if !seenY || y < b.MinYear {
				b.MinYear = y
			}
			if !seenY || y > b.MaxYear {
				b.MaxYear = y
			}
			seenY = true
		}
		if q, ok := fields.Int(r, records.FieldQuarter); ok {
			if !seenQ || q < b.MinQuarter {
				b.MinQuarter = q
			}
			if !seenQ || q > b.MaxQuarter {
				b.MaxQuarter = q
			}
			seenQ = true
		}
		if l2 := fields.String(r, records.FieldCategory); l2 != "" {
			cats[l2] = struct{}{}
		}
	}
	b.Categories = make([]string, 0, len(cats))
	for c := range cats {
		b.Categories = append(b.Categories, c)
	}
	slices.Sort(b.Categories)
	return b
}

// LatestQuarter is the newest (year, quarter) pair actually present in the rows.
// Unlike PeriodBounds.Latest it never combines the year of one row with the quarter of another.
func LatestQuarter(rs []records.Record, fields records.FieldTable) (YearQuarter, bool) {
	var (
		best  YearQuarter
		found bool
	)
	for _, r := range rs {
		year, okY := fields.Int(r, records.FieldYear)
		quarter, okQ := fields.Int(r, records.FieldQuarter)
		if !okY || !okQ || quarter < 1 || quarter > 4 {
			continue
		}
		yq := YearQuarter{Year: year, Quarter: quarter}
		if !found || yq.Ordinal() > best.Ordinal() {
			best, found = yq, true
		}
	}
	return best, found
}
