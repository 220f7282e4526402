package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"assembly-dashboard-be/pkg/dashboard/aggregate"
)

// Canonical query keys, in emission order.
const (
	KeyAssembly = "assembly"
	KeyGroup    = "group"
	KeyRecent   = "recent"
	KeyYearFrom = "y_from"
	KeyQtrFrom  = "q_from"
	KeyYearTo   = "y_to"
	KeyQtrTo    = "q_to"
	KeyL2In     = "l2_in"
	KeyL2       = "l2"
	KeyL3In     = "l3_in"
	KeyMode     = "mode"
)

var (
	ErrPeriodRequired  = errors.New("period: either recent quarters or an explicit range is required")
	ErrInvalidQuarter  = errors.New("period: quarter must be between 1 and 4")
	ErrInvalidRange    = errors.New("period: start is after end")
	ErrInvalidGrouping = errors.New("grouping must be l2 or l3")
	ErrInvalidMode     = errors.New("mode must be count, share or docshare")
)

// Mode selects how trend values are expressed.
type Mode string

const (
	ModeCount    Mode = "count"
	ModeShare    Mode = "share"
	ModeDocShare Mode = "docshare"
)

// Period is either a trailing preset (RecentQuarters > 0) or an explicit year/quarter range.
type Period struct {
	RecentQuarters int `json:"recent,omitempty"`
	StartYear      int `json:"y_from,omitempty"`
	StartQuarter   int `json:"q_from,omitempty"`
	EndYear        int `json:"y_to,omitempty"`
	EndQuarter     int `json:"q_to,omitempty"`
}

// IsPreset reports whether the trailing preset is active.
func (p Period) IsPreset() bool {
	return p.RecentQuarters > 0
}

func (p Period) hasExplicit() bool {
	return p.StartYear != 0 || p.StartQuarter != 0 || p.EndYear != 0 || p.EndQuarter != 0
}

// Start is the first quarter of an explicit range.
func (p Period) Start() aggregate.YearQuarter {
	return aggregate.YearQuarter{Year: p.StartYear, Quarter: p.StartQuarter}
}

// End is the last quarter of an explicit range.
func (p Period) End() aggregate.YearQuarter {
	return aggregate.YearQuarter{Year: p.EndYear, Quarter: p.EndQuarter}
}

// Validate checks that a period form is set and that an explicit range is well formed.
// An active preset wins: remembered range fields are ignored.
func (p Period) Validate() error {
	if p.IsPreset() {
		return nil
	}
	if p.RecentQuarters < 0 {
		return fmt.Errorf("%w: recent=%d", ErrPeriodRequired, p.RecentQuarters)
	}
	if !p.hasExplicit() {
		return ErrPeriodRequired
	}
	if p.StartQuarter < 1 || p.StartQuarter > 4 || p.EndQuarter < 1 || p.EndQuarter > 4 {
		return ErrInvalidQuarter
	}
	if p.Start().Ordinal() > p.End().Ordinal() {
		return ErrInvalidRange
	}
	return nil
}

// Resolve turns a preset into the explicit range ending at latest.
// Explicit ranges are returned unchanged.
func (p Period) Resolve(latest aggregate.YearQuarter) Period {
	if !p.IsPreset() {
		return p
	}
	start := latest.AddQuarters(-(p.RecentQuarters - 1))
	return Period{
		StartYear:    start.Year,
		StartQuarter: start.Quarter,
		EndYear:      latest.Year,
		EndQuarter:   latest.Quarter,
	}
}

// Params is the structured input of a trend query.
type Params struct {
	// Terms restricts rows to these assembly terms (empty = all).
	Terms    []int              `json:"terms,omitempty"`
	Grouping aggregate.Grouping `json:"group"`
	Period   Period             `json:"period"`
	// Categories is the optional included-L2 list of byCategory mode.
	Categories []string `json:"categories,omitempty"`
	// Category is the L2 whose sub-labels are charted in bySubcategory mode.
	Category string `json:"category,omitempty"`
	// Subcategories is the optional included-L3 list of bySubcategory mode.
	Subcategories []string `json:"subcategories,omitempty"`
	Mode          Mode     `json:"mode,omitempty"`
}

// Validate checks grouping, mode and period.
func (p Params) Validate() error {
	switch p.Grouping {
	case aggregate.ByCategory, aggregate.BySubcategory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGrouping, p.Grouping)
	}
	switch p.Mode {
	case "", ModeCount, ModeShare, ModeDocShare:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return p.Period.Validate()
}

// Pair is one key/value of a composed query.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Query is an ordered list of pairs. Its order is part of its identity.
type Query []Pair

// Get returns the value of key ("" when absent).
func (q Query) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Has reports whether key was emitted.
func (q Query) Has(key string) bool {
	for _, p := range q {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Encode renders the query string in canonical order.
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Values converts the query into url.Values for transports that want them.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q))
	for _, p := range q {
		v.Add(p.Key, p.Value)
	}
	return v
}

// Compose builds the canonical query for p. Invalid params are rejected.
func Compose(p Params) (Query, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := Query{}
	add := func(key, value string) {
		if value != "" {
			q = append(q, Pair{Key: key, Value: value})
		}
	}
	addEach := func(key string, values []string) {
		for _, v := range normalize(values) {
			q = append(q, Pair{Key: key, Value: v})
		}
	}

	add(KeyAssembly, joinInts(p.Terms))
	add(KeyGroup, string(p.Grouping))

	if p.Period.IsPreset() {
		add(KeyRecent, strconv.Itoa(p.Period.RecentQuarters))
	} else {
		add(KeyYearFrom, strconv.Itoa(p.Period.StartYear))
		add(KeyQtrFrom, strconv.Itoa(p.Period.StartQuarter))
		add(KeyYearTo, strconv.Itoa(p.Period.EndYear))
		add(KeyQtrTo, strconv.Itoa(p.Period.EndQuarter))
	}

	switch p.Grouping {
	case aggregate.ByCategory:
		addEach(KeyL2In, p.Categories)
	case aggregate.BySubcategory:
		add(KeyL2, strings.TrimSpace(p.Category))
		addEach(KeyL3In, p.Subcategories)
	}

	if p.Mode != "" && p.Mode != ModeCount {
		add(KeyMode, string(p.Mode))
	}
	return q, nil
}

// Decode parses query values back into Params. Unknown keys are ignored.
func Decode(v url.Values) (Params, error) {
	p := Params{
		Grouping: aggregate.Grouping(v.Get(KeyGroup)),
		Mode:     Mode(v.Get(KeyMode)),
	}
	if p.Grouping == "" {
		p.Grouping = aggregate.ByCategory
	}

	var err error
	if p.Terms, err = splitInts(v.Get(KeyAssembly)); err != nil {
		return Params{}, fmt.Errorf("decode %s: %w", KeyAssembly, err)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyRecent, &p.Period.RecentQuarters},
		{KeyYearFrom, &p.Period.StartYear},
		{KeyQtrFrom, &p.Period.StartQuarter},
		{KeyYearTo, &p.Period.EndYear},
		{KeyQtrTo, &p.Period.EndQuarter},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(v.Get(f.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("decode %s: %w", f.key, err)
		}
		*f.dst = n
	}

	p.Categories = normalize(v[KeyL2In])
	p.Category = strings.TrimSpace(v.Get(KeyL2))
	p.Subcategories = normalize(v[KeyL3In])

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// normalize trims, sorts and de-duplicates a multi-value filter. Labels may contain commas,
// so each value is emitted under its own key.
func normalize(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	slices.Sort(clean)
	return slices.Compact(clean)
}

func joinInts(values []int) string {
	clean := make([]int, 0, len(values))
	for _, v := range values {
		if v > 0 {
			clean = append(clean, v)
		}
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)
	parts := make([]string, len(clean))
	for i, v := range clean {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
