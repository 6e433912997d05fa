package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop/internal/entity"
)

func saleRecord(total float64, qty int, createdAt time.Time, genres ...string) entity.SaleRecord {
	return entity.SaleRecord{
		Sale: entity.Sale{
			Quantity:  qty,
			Total:     decimal.NewFromFloat(total),
			CreatedAt: createdAt,
		},
		Genres: genres,
	}
}

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestSummarize_Totals(t *testing.T) {
	day := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	records := []entity.SaleRecord{
		saleRecord(10, 1, day, "Fiction"),
		saleRecord(20, 2, day, "Fiction"),
		saleRecord(30, 3, day, "History"),
	}

	agg := Summarize(records)

	require.NotNil(t, agg.TotalAmount)
	assert.True(t, agg.TotalAmount.Equal(decimal.NewFromInt(60)), "total: %s", agg.TotalAmount)
	require.NotNil(t, agg.Average)
	assert.True(t, agg.Average.Equal(decimal.NewFromInt(20)), "average: %s", agg.Average)
	assert.Equal(t, 6, agg.TotalItemCount)
}

func TestSummarize_Median(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("odd count", func(t *testing.T) {
		agg := Summarize([]entity.SaleRecord{
			saleRecord(10, 1, day), saleRecord(20, 1, day), saleRecord(30, 1, day),
		})
		require.NotNil(t, agg.Median)
		assert.True(t, agg.Median.Equal(decimal.NewFromInt(20)), "median: %s", agg.Median)
	})

	t.Run("even count averages the middle pair", func(t *testing.T) {
		agg := Summarize([]entity.SaleRecord{
			saleRecord(10, 1, day), saleRecord(20, 1, day),
			saleRecord(30, 1, day), saleRecord(40, 1, day),
		})
		require.NotNil(t, agg.Median)
		assert.True(t, agg.Median.Equal(decimal.NewFromInt(25)), "median: %s", agg.Median)
	})
}

func TestMode(t *testing.T) {
	t.Run("unique mode", func(t *testing.T) {
		m, err := Mode(decimals(10, 10, 20))
		require.NoError(t, err)
		assert.True(t, m.Equal(decimal.NewFromInt(10)), "mode: %s", m)
	})

	t.Run("tied frequencies fail with the tied values", func(t *testing.T) {
		_, err := Mode(decimals(10, 10, 20, 20))
		var mm *MultimodalError
		require.ErrorAs(t, err, &mm)
		require.Len(t, mm.Tied, 2)
		assert.True(t, mm.Tied[0].Equal(decimal.NewFromInt(10)), "smallest tied value first")
		assert.True(t, mm.Tied[1].Equal(decimal.NewFromInt(20)))
	})

	t.Run("empty sequence", func(t *testing.T) {
		_, err := Mode(nil)
		assert.ErrorIs(t, err, ErrNoValues)
	})

	t.Run("equal values with different scales count as one", func(t *testing.T) {
		m, err := Mode([]decimal.Decimal{
			decimal.New(100, -1), // 10.0
			decimal.NewFromInt(10),
			decimal.NewFromInt(20),
		})
		require.NoError(t, err)
		assert.True(t, m.Equal(decimal.NewFromInt(10)))
	})
}

func TestSummarize_GenreFanOut(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("multi-genre sale contributes to every genre", func(t *testing.T) {
		records := []entity.SaleRecord{
			saleRecord(59.98, 2, day, "Fiction", "Adventure"),
			saleRecord(15, 1, day, "Fiction"),
		}
		agg := Summarize(records)

		require.Len(t, agg.PopularGenres, 2)
		assert.Equal(t, "Fiction", agg.PopularGenres[0].Genre)
		assert.Equal(t, 3, agg.PopularGenres[0].TotalSold)
		assert.True(t, agg.PopularGenres[0].TotalRevenue.Equal(decimal.NewFromFloat(74.98)))
		assert.Equal(t, "Adventure", agg.PopularGenres[1].Genre)
		assert.Equal(t, 2, agg.PopularGenres[1].TotalSold)

		// Fan-out: the per-genre sold counts exceed the raw quantity sum.
		sold := 0
		for _, g := range agg.PopularGenres {
			sold += g.TotalSold
		}
		assert.Greater(t, sold, agg.TotalItemCount)
	})

	t.Run("single-genre books partition exactly", func(t *testing.T) {
		records := []entity.SaleRecord{
			saleRecord(10, 1, day, "Fiction"),
			saleRecord(20, 4, day, "History"),
		}
		agg := Summarize(records)

		sold := 0
		for _, g := range agg.PopularGenres {
			sold += g.TotalSold
		}
		assert.Equal(t, agg.TotalItemCount, sold)
	})

	t.Run("ties break by genre name", func(t *testing.T) {
		records := []entity.SaleRecord{
			saleRecord(10, 2, day, "Zoology"),
			saleRecord(10, 2, day, "Art"),
		}
		agg := Summarize(records)
		require.Len(t, agg.PopularGenres, 2)
		assert.Equal(t, "Art", agg.PopularGenres[0].Genre)
		assert.Equal(t, "Zoology", agg.PopularGenres[1].Genre)
	})
}

func TestSummarize_Empty(t *testing.T) {
	agg := Summarize(nil)

	assert.Nil(t, agg.TotalAmount)
	assert.Nil(t, agg.Average)
	assert.Nil(t, agg.Median)
	assert.Zero(t, agg.TotalItemCount)
	assert.Empty(t, agg.PopularGenres)
	assert.NotNil(t, agg.PopularGenres)
	assert.Empty(t, agg.SalesByDate)
}

func TestAgeStatsOf(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	dob := func(year int) *time.Time {
		d := time.Date(year, 1, 10, 0, 0, 0, 0, time.UTC)
		return &d
	}

	t.Run("customers without a birth date are excluded from ages", func(t *testing.T) {
		customers := []entity.User{
			{Username: "anna", DateOfBirth: dob(1995)},
			{Username: "boris", DateOfBirth: dob(1995)},
			{Username: "carol"}, // no date of birth
		}
		stats := AgeStatsOf(customers, today)

		assert.Equal(t, 3, stats.TotalCustomers)
		require.NotNil(t, stats.AvgAge)
		assert.InDelta(t, 30, *stats.AvgAge, 0.5)
		require.Len(t, stats.Distribution, 1)
		assert.Equal(t, 2, stats.Distribution[0].Count)
	})

	t.Run("no birth dates at all", func(t *testing.T) {
		stats := AgeStatsOf([]entity.User{{Username: "carol"}}, today)
		assert.Nil(t, stats.AvgAge)
		assert.Equal(t, 1, stats.TotalCustomers)
		assert.Empty(t, stats.Distribution)
	})

	t.Run("distribution ascends by age", func(t *testing.T) {
		customers := []entity.User{
			{Username: "old", DateOfBirth: dob(1960)},
			{Username: "young", DateOfBirth: dob(2000)},
		}
		stats := AgeStatsOf(customers, today)
		require.Len(t, stats.Distribution, 2)
		assert.Less(t, stats.Distribution[0].Age, stats.Distribution[1].Age)
	})
}

func TestConversionRate(t *testing.T) {
	t.Run("undefined without views", func(t *testing.T) {
		assert.Nil(t, ConversionRate(10, 0))
	})

	t.Run("percentage of purchases over views", func(t *testing.T) {
		r := ConversionRate(20, 50)
		require.NotNil(t, r)
		assert.InDelta(t, 40.0, *r, 1e-9)
	})
}

func TestMedianSessionDuration(t *testing.T) {
	login := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	session := func(d time.Duration) entity.Session {
		out := login.Add(d)
		return entity.Session{LastLogin: login, LastLogout: &out}
	}

	t.Run("open sessions excluded", func(t *testing.T) {
		got := MedianSessionDuration([]entity.Session{{LastLogin: login}})
		assert.Nil(t, got)
	})

	t.Run("even count averages", func(t *testing.T) {
		got := MedianSessionDuration([]entity.Session{
			session(10 * time.Minute),
			session(30 * time.Minute),
		})
		require.NotNil(t, got)
		assert.Equal(t, 20*time.Minute, *got)
	})
}

func TestVisitsByHour(t *testing.T) {
	at := func(hour int) entity.Session {
		return entity.Session{LastLogin: time.Date(2025, 6, 1, hour, 15, 0, 0, time.UTC)}
	}
	got := VisitsByHour([]entity.Session{at(17), at(9), at(17), at(9), at(9)})

	require.Len(t, got, 2)
	assert.Equal(t, HourCount{Hour: 9, Count: 3}, got[0])
	assert.Equal(t, HourCount{Hour: 17, Count: 2}, got[1])
}
