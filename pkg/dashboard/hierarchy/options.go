package hierarchy

import (
	"cmp"
	"slices"

	"assembly-dashboard-be/pkg/dashboard/records"
)

// Membership reports whether child belongs to parent.
type Membership[P comparable, C cmp.Ordered] func(child C, parent P) bool

// ByResolver builds a membership from a child -> parent resolver.
func ByResolver[P comparable, C cmp.Ordered](resolve func(C) (P, bool)) Membership[P, C] {
	return func(child C, parent P) bool {
		p, ok := resolve(child)
		return ok && p == parent
	}
}

// ChildrenOf returns the valid children of parent: sorted ascending, without duplicates.
// An empty result is a valid state ("no valid child"), not an error.
func ChildrenOf[P comparable, C cmp.Ordered](all []C, parent P, belongs Membership[P, C]) []C {
	out := make([]C, 0, len(all))
	for _, c := range all {
		if belongs(c, parent) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SessionsOf is ChildrenOf specialised to the session -> term hierarchy.
func (r *Resolver) SessionsOf(all []int, term int) []int {
	return ChildrenOf(all, term, ByResolver[int, int](r.TermOf))
}

// CategoryTree is the L2 -> L3 map, rebuilt whenever the owning selection changes.
type CategoryTree struct {
	children map[string]map[string]struct{}
}

// BuildCategoryTree reads category/subcategory pairs from option rows.
// Rows without a category are skipped; rows without a subcategory still register the category.
func BuildCategoryTree(rows []records.Record, fields records.FieldTable) *CategoryTree {
	t := &CategoryTree{children: make(map[string]map[string]struct{})}
	for _, r := range rows {
		l2 := fields.String(r, records.FieldCategory)
		if l2 == "" {
			continue
		}
		set, ok := t.children[l2]
		if !ok {
			set = make(map[string]struct{})
			t.children[l2] = set
		}
		if l3 := fields.String(r, records.FieldSubcategory); l3 != "" {
			set[l3] = struct{}{}
		}
	}
	return t
}

// Labels returns the sorted top-level labels.
func (t *CategoryTree) Labels() []string {
	out := make([]string, 0, len(t.children))
	for l2 := range t.children {
		out = append(out, l2)
	}
	slices.Sort(out)
	return out
}

// Contains is the direct-lookup membership of the category hierarchy.
func (t *CategoryTree) Contains(l3, l2 string) bool {
	_, ok := t.children[l2][l3]
	return ok
}

// Children returns the sorted sub-labels of l2 (empty for unknown labels).
func (t *CategoryTree) Children(l2 string) []string {
	all := make([]string, 0, len(t.children[l2]))
	for l3 := range t.children[l2] {
		all = append(all, l3)
	}
	return ChildrenOf[string, string](all, l2, t.Contains)
}

// Map returns every label with its sorted sub-labels.
func (t *CategoryTree) Map() map[string][]string {
	out := make(map[string][]string, len(t.children))
	for _, l2 := range t.Labels() {
		out[l2] = t.Children(l2)
	}
	return out
}
