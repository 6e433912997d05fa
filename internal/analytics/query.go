package analytics

import "time"

// QueryPlan is an opaque, storage-agnostic set of predicates and sort order.
// It is built once from a validated FilterSpec and handed unmodified to the
// storage layer; there is no hidden re-querying or chaining.
//
// Semantics the storage layer must honor:
//   - Search matches when the text appears case-insensitively in the book
//     title, the customer username, OR any genre name of the sold book
//     (union of the three, not an intersection).
//   - Date bounds are inclusive calendar-date bounds on created_at.
//   - Ties in the sort key are broken by sale id ascending so that the
//     order is deterministic across requests.
type QueryPlan struct {
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     SortKey
}

// Compile translates a validated FilterSpec into a QueryPlan. It never
// fails: every FilterSpec produced by the parser compiles.
func Compile(spec FilterSpec) QueryPlan {
	sort := spec.Sort
	if sort == "" {
		sort = DefaultSort
	}
	return QueryPlan{
		Search:   spec.SearchText,
		DateFrom: spec.DateFrom,
		DateTo:   spec.DateTo,
		Sort:     sort,
	}
}
