package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop/internal/entity"
)

func TestDateSeriesOf(t *testing.T) {
	t.Run("single day collapses to one entry", func(t *testing.T) {
		day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		records := []entity.SaleRecord{
			saleRecord(10.50, 1, day.Add(9*time.Hour)),
			saleRecord(20.25, 2, day.Add(14*time.Hour)),
			saleRecord(5, 1, day.Add(23*time.Hour)),
		}
		series := DateSeriesOf(Summarize(records))

		require.Len(t, series.Data, 1)
		assert.Equal(t, "01/05/2025", series.Data[0].Date)
		assert.InDelta(t, 35.75, series.Data[0].TotalSales, 1e-9)
		assert.Equal(t, 4, series.Data[0].BooksSold)
		assert.False(t, series.IsFallback)
	})

	t.Run("chronological and sparse", func(t *testing.T) {
		records := []entity.SaleRecord{
			saleRecord(10, 1, time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)),
			saleRecord(10, 1, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		}
		series := DateSeriesOf(Summarize(records))

		// No gap-filling: May 2nd is absent, not zero.
		require.Len(t, series.Data, 2)
		assert.Equal(t, "01/05/2025", series.Data[0].Date)
		assert.Equal(t, "03/05/2025", series.Data[1].Date)
	})

	t.Run("empty set stays empty, never demo data", func(t *testing.T) {
		series := DateSeriesOf(Summarize(nil))
		assert.Empty(t, series.Data)
		assert.False(t, series.IsFallback)
	})
}

func TestGenreSeriesOf(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ordered by total sold descending", func(t *testing.T) {
		records := []entity.SaleRecord{
			saleRecord(10, 1, day, "Poetry"),
			saleRecord(10, 5, day, "Fiction"),
		}
		series := GenreSeriesOf(Summarize(records))

		require.Len(t, series.Data, 2)
		assert.Equal(t, "Fiction", series.Data[0].Genre)
		assert.Equal(t, "Poetry", series.Data[1].Genre)
		assert.False(t, series.IsFallback)
	})

	t.Run("empty aggregation falls back to demo data", func(t *testing.T) {
		series := GenreSeriesOf(Summarize(nil))

		assert.True(t, series.IsFallback)
		require.Len(t, series.Data, 5)
		assert.Equal(t, "Fantasy", series.Data[0].Genre)
	})
}

func TestAgeSeriesOf(t *testing.T) {
	t.Run("real distribution ascends by age", func(t *testing.T) {
		stats := AgeStats{Distribution: []AgeBucket{{Age: 25, Count: 3}, {Age: 40, Count: 1}}}
		series := AgeSeriesOf(stats)

		require.Len(t, series.Data, 2)
		assert.Equal(t, AgeSeriesPoint{Age: "25", Count: 3}, series.Data[0])
		assert.Equal(t, AgeSeriesPoint{Age: "40", Count: 1}, series.Data[1])
		assert.False(t, series.IsFallback)
	})

	t.Run("empty distribution falls back to demo brackets", func(t *testing.T) {
		series := AgeSeriesOf(AgeStats{})

		assert.True(t, series.IsFallback)
		require.Len(t, series.Data, 5)
		assert.Equal(t, "18-24", series.Data[0].Age)
	})
}
