package analytics

import "strconv"

// Chart-ready series. Monetary decimals are coerced to float64 here and
// nowhere else: the relaxation is for display only and the floats are never
// fed back into calculations.
//
// Each series carries an IsFallback flag so that callers can tell
// illustrative demo data apart from real aggregates.

// DateSeriesPoint is one calendar date of the sales-by-date chart.
type DateSeriesPoint struct {
	Date       string  `json:"date"`
	TotalSales float64 `json:"total_sales"`
	BooksSold  int     `json:"books_sold"`
}

// GenreSeriesPoint is one genre of the sales-by-genre chart.
type GenreSeriesPoint struct {
	Genre        string  `json:"genre"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

// AgeSeriesPoint is one bucket of the customer-age chart. Label is the
// exact age for real data and a bracket ("25-34") for the demo dataset.
type AgeSeriesPoint struct {
	Age   string `json:"age"`
	Count int    `json:"count"`
}

type DateSeries struct {
	Data       []DateSeriesPoint `json:"data"`
	IsFallback bool              `json:"is_fallback"`
}

type GenreSeries struct {
	Data       []GenreSeriesPoint `json:"data"`
	IsFallback bool               `json:"is_fallback"`
}

type AgeSeries struct {
	Data       []AgeSeriesPoint `json:"data"`
	IsFallback bool             `json:"is_fallback"`
}

const chartDateLayout = "02/01/2006"

// Demo datasets keep the charts renderable when there is nothing to plot.
// Proportions are illustrative only; the IsFallback flag on the series
// tells consumers these are not real aggregates.
var demoGenres = []GenreSeriesPoint{
	{Genre: "Fantasy", TotalSold: 30},
	{Genre: "Novel", TotalSold: 25},
	{Genre: "Detective", TotalSold: 20},
	{Genre: "Science", TotalSold: 15},
	{Genre: "Poetry", TotalSold: 10},
}

var demoAgeBrackets = []AgeSeriesPoint{
	{Age: "18-24", Count: 15},
	{Age: "25-34", Count: 30},
	{Age: "35-44", Count: 25},
	{Age: "45-54", Count: 20},
	{Age: "55+", Count: 10},
}

// DateSeriesOf shapes the per-date aggregates chronologically. Dates with
// no sales are not synthesized; consumers must handle sparse series. An
// empty filtered set yields an empty series, never demo data, so that the
// date chart reflects the filter faithfully.
func DateSeriesOf(agg Aggregation) DateSeries {
	data := make([]DateSeriesPoint, 0, len(agg.SalesByDate))
	for _, pt := range agg.SalesByDate {
		data = append(data, DateSeriesPoint{
			Date:       pt.Date.Format(chartDateLayout),
			TotalSales: pt.TotalSales.InexactFloat64(),
			BooksSold:  pt.BooksSold,
		})
	}
	return DateSeries{Data: data}
}

// GenreSeriesOf shapes the per-genre aggregates, ordered by descending
// total sold with genre name breaking ties. Substitutes the demo dataset
// when the aggregation has no genres.
func GenreSeriesOf(agg Aggregation) GenreSeries {
	if len(agg.PopularGenres) == 0 {
		data := make([]GenreSeriesPoint, len(demoGenres))
		copy(data, demoGenres)
		return GenreSeries{Data: data, IsFallback: true}
	}
	data := make([]GenreSeriesPoint, 0, len(agg.PopularGenres))
	for _, g := range agg.PopularGenres {
		data = append(data, GenreSeriesPoint{
			Genre:        g.Genre,
			TotalSold:    g.TotalSold,
			TotalRevenue: g.TotalRevenue.InexactFloat64(),
		})
	}
	return GenreSeries{Data: data}
}

// AgeSeriesOf shapes the age distribution ascending by age. Substitutes
// the demo brackets when no customer has a recorded date of birth.
func AgeSeriesOf(stats AgeStats) AgeSeries {
	if len(stats.Distribution) == 0 {
		data := make([]AgeSeriesPoint, len(demoAgeBrackets))
		copy(data, demoAgeBrackets)
		return AgeSeries{Data: data, IsFallback: true}
	}
	data := make([]AgeSeriesPoint, 0, len(stats.Distribution))
	for _, b := range stats.Distribution {
		data = append(data, AgeSeriesPoint{Age: strconv.Itoa(b.Age), Count: b.Count})
	}
	return AgeSeries{Data: data}
}
