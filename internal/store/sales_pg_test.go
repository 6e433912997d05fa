package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop/internal/analytics"
)

func TestBuildListSalesQuery(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		query, args := buildListSalesQuery(analytics.QueryPlan{Sort: analytics.SortCreatedDesc})

		assert.Empty(t, args)
		assert.Contains(t, query, "WHERE 1=1")
		assert.NotContains(t, query, "ILIKE")
		assert.Contains(t, query, "ORDER BY s.created_at DESC, s.id ASC")
	})

	t.Run("search is a union across title, username and genre", func(t *testing.T) {
		query, args := buildListSalesQuery(analytics.QueryPlan{
			Search: "fiction",
			Sort:   analytics.SortCreatedDesc,
		})

		require.Len(t, args, 1)
		assert.Equal(t, "%fiction%", args[0])
		assert.Contains(t, query, "b.title ILIKE $1")
		assert.Contains(t, query, "u.username ILIKE $1")
		assert.Contains(t, query, "sg.name ILIKE $1")
		assert.Contains(t, query, " OR ")
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		query, args := buildListSalesQuery(analytics.QueryPlan{
			DateFrom: &from,
			DateTo:   &to,
			Sort:     analytics.SortCreatedAsc,
		})

		require.Len(t, args, 2)
		assert.Equal(t, from, args[0])
		assert.Equal(t, to, args[1])
		assert.Contains(t, query, "s.created_at >= $1")
		assert.Contains(t, query, "s.created_at < $2::timestamptz + INTERVAL '1 day'")
	})

	t.Run("every sort key carries the id tiebreak", func(t *testing.T) {
		for _, key := range []analytics.SortKey{
			analytics.SortCreatedDesc, analytics.SortCreatedAsc,
			analytics.SortTotalDesc, analytics.SortTotalAsc,
		} {
			query, _ := buildListSalesQuery(analytics.QueryPlan{Sort: key})
			assert.Contains(t, query, ", s.id ASC", "sort key %s", key)
		}
	})

	t.Run("unknown sort falls back to newest first", func(t *testing.T) {
		query, _ := buildListSalesQuery(analytics.QueryPlan{Sort: "bogus"})
		assert.Contains(t, query, "ORDER BY s.created_at DESC, s.id ASC")
	})

	t.Run("argument numbering stays aligned with all filters set", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		query, args := buildListSalesQuery(analytics.QueryPlan{
			Search:   "поэзия",
			DateFrom: &from,
			DateTo:   &to,
			Sort:     analytics.SortTotalDesc,
		})

		require.Len(t, args, 3)
		assert.Contains(t, query, "s.created_at >= $2")
		assert.Contains(t, query, "s.created_at < $3::timestamptz")
	})
}
