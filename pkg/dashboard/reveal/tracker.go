package reveal

// DefaultPageSize is the number of rows shown before the first "more" request.
const DefaultPageSize = 20

// Tracker counts, per view, how many filtered rows are exposed.
// Counts only grow until Reset.
type Tracker struct {
	pageSize int
	shown    map[string]int
}

// NewTracker creates a tracker; non-positive page sizes fall back to DefaultPageSize.
func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Tracker{pageSize: pageSize, shown: make(map[string]int)}
}

// PageSize returns the reveal step.
func (t *Tracker) PageSize() int {
	return t.pageSize
}

// Shown returns the current count of view.
func (t *Tracker) Shown(view string) int {
	if n, ok := t.shown[view]; ok {
		return n
	}
	return t.pageSize
}

// Reveal grows the count of view by one page and returns the new count.
func (t *Tracker) Reveal(view string) int {
	n := t.Shown(view) + t.pageSize
	t.shown[view] = n
	return n
}

// ResetView puts a single view back to one page.
func (t *Tracker) ResetView(view string) {
	delete(t.shown, view)
}

// Reset puts every view back to one page (tab switch, upstream selection change).
func (t *Tracker) Reset() {
	clear(t.shown)
}

// Snapshot copies the explicit counts.
func (t *Tracker) Snapshot() map[string]int {
	out := make(map[string]int, len(t.shown))
	for k, v := range t.shown {
		out[k] = v
	}
	return out
}

// Visible returns the first n elements of list; n beyond the length yields the whole list.
func Visible[T any](list []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(list) {
		n = len(list)
	}
	return list[:n]
}
