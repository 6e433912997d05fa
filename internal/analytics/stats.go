package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bookshop/internal/entity"
)

// ErrNoValues is returned by Mode when given an empty sequence.
var ErrNoValues = errors.New("no values")

// MultimodalError is returned by Mode when several values tie for the
// highest frequency. Tied holds the tied values in ascending order so that
// callers can substitute a deterministic fallback (the smallest) instead of
// aborting the whole report.
type MultimodalError struct {
	Tied []decimal.Decimal
}

func (e *MultimodalError) Error() string {
	return fmt.Sprintf("mode is ambiguous: %d values tie for most frequent", len(e.Tied))
}

// GenreStat is the per-genre aggregate. A sale whose book carries several
// genres contributes its quantity and total to every one of them.
type GenreStat struct {
	Genre        string          `json:"genre"`
	TotalSold    int             `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// DatePoint is the per-calendar-date aggregate of the filtered sales.
type DatePoint struct {
	Date       time.Time       `json:"date"`
	TotalSales decimal.Decimal `json:"total_sales"`
	BooksSold  int             `json:"books_sold"`
}

// AgeBucket counts customers sharing an integer age.
type AgeBucket struct {
	Age   int `json:"age"`
	Count int `json:"count"`
}

// HourCount counts logins during one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Aggregation is the transient result of summarizing a filtered record set.
// Scalar fields are nil rather than zero-filled when the input is empty;
// grouped breakdowns degrade to empty slices.
type Aggregation struct {
	TotalAmount    *decimal.Decimal
	Average        *decimal.Decimal
	Median         *decimal.Decimal
	TotalItemCount int
	PopularGenres  []GenreStat
	SalesByDate    []DatePoint
}

// AgeStats summarizes the customer base by age. Customers without a
// recorded date of birth count toward TotalCustomers but are excluded from
// the average and the distribution.
type AgeStats struct {
	AvgAge         *float64 `json:"avg_age,omitempty"`
	TotalCustomers int      `json:"total_customers"`

	Distribution []AgeBucket `json:"-"`
}

// Summarize computes the descriptive statistics and grouped aggregations
// over a filtered record set. It is pure and never fails; the only
// statistic with a failure mode (the mode) lives in Mode.
func Summarize(records []entity.SaleRecord) Aggregation {
	agg := Aggregation{
		PopularGenres: []GenreStat{},
		SalesByDate:   []DatePoint{},
	}
	if len(records) == 0 {
		return agg
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Total)
		agg.TotalItemCount += r.Quantity
	}
	avg := total.Div(decimal.NewFromInt(int64(len(records))))
	median := medianOf(Totals(records))
	agg.TotalAmount = &total
	agg.Average = &avg
	agg.Median = &median

	agg.PopularGenres = popularGenres(records)
	agg.SalesByDate = salesByDate(records)
	return agg
}

// Totals extracts the sequence of sale totals, in record order.
func Totals(records []entity.SaleRecord) []decimal.Decimal {
	out := make([]decimal.Decimal, len(records))
	for i, r := range records {
		out[i] = r.Total
	}
	return out
}

// Mode returns the most frequent value. When several values tie for the
// highest frequency it returns a *MultimodalError carrying the tied values;
// with real-world decimal totals a unique mode often does not exist, so
// callers must treat this as a recoverable condition.
func Mode(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Decimal{}, ErrNoValues
	}
	sorted := sortedCopy(values)

	best := 0
	var tied []decimal.Decimal
	runStart := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Cmp(sorted[runStart]) == 0 {
			continue
		}
		run := i - runStart
		switch {
		case run > best:
			best = run
			tied = []decimal.Decimal{sorted[runStart]}
		case run == best:
			tied = append(tied, sorted[runStart])
		}
		runStart = i
	}
	if len(tied) > 1 {
		return decimal.Decimal{}, &MultimodalError{Tied: tied}
	}
	return tied[0], nil
}

func medianOf(values []decimal.Decimal) decimal.Decimal {
	sorted := sortedCopy(values)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	two := decimal.NewFromInt(2)
	return sorted[n/2-1].Add(sorted[n/2]).Div(two)
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	copy(out, values)
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func popularGenres(records []entity.SaleRecord) []GenreStat {
	byName := map[string]*GenreStat{}
	for _, r := range records {
		for _, g := range r.Genres {
			st, ok := byName[g]
			if !ok {
				st = &GenreStat{Genre: g, TotalRevenue: decimal.Zero}
				byName[g] = st
			}
			st.TotalSold += r.Quantity
			st.TotalRevenue = st.TotalRevenue.Add(r.Total)
		}
	}
	out := make([]GenreStat, 0, len(byName))
	for _, st := range byName {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSold != out[j].TotalSold {
			return out[i].TotalSold > out[j].TotalSold
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

func salesByDate(records []entity.SaleRecord) []DatePoint {
	byDate := map[time.Time]*DatePoint{}
	for _, r := range records {
		day := truncateToDay(r.CreatedAt)
		pt, ok := byDate[day]
		if !ok {
			pt = &DatePoint{Date: day, TotalSales: decimal.Zero}
			byDate[day] = pt
		}
		pt.TotalSales = pt.TotalSales.Add(r.Total)
		pt.BooksSold += r.Quantity
	}
	out := make([]DatePoint, 0, len(byDate))
	for _, pt := range byDate {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AgeStatsOf buckets customers by integer age at the given date.
func AgeStatsOf(customers []entity.User, today time.Time) AgeStats {
	st := AgeStats{
		TotalCustomers: len(customers),
		Distribution:   []AgeBucket{},
	}
	buckets := map[int]int{}
	sum, n := 0, 0
	for _, c := range customers {
		age, ok := c.Age(today)
		if !ok {
			continue
		}
		buckets[age]++
		sum += age
		n++
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		st.AvgAge = &avg
	}
	for age, count := range buckets {
		st.Distribution = append(st.Distribution, AgeBucket{Age: age, Count: count})
	}
	sort.Slice(st.Distribution, func(i, j int) bool { return st.Distribution[i].Age < st.Distribution[j].Age })
	return st
}

// ConversionRate is purchases over distinct views in a trailing window,
// as a percentage. Undefined (nil) when there were no views.
func ConversionRate(purchases, views int) *float64 {
	if views <= 0 {
		return nil
	}
	r := float64(purchases) / float64(views) * 100
	return &r
}

// MedianSessionDuration computes the median over closed login windows.
// Sessions without a logout are excluded; nil when none qualify.
func MedianSessionDuration(sessions []entity.Session) *time.Duration {
	var ds []time.Duration
	for _, s := range sessions {
		if d, ok := s.Duration(); ok {
			ds = append(ds, d)
		}
	}
	if len(ds) == 0 {
		return nil
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	n := len(ds)
	var m time.Duration
	if n%2 == 1 {
		m = ds[n/2]
	} else {
		m = (ds[n/2-1] + ds[n/2]) / 2
	}
	return &m
}

// VisitsByHour counts logins per hour of day, ascending by hour. Hours with
// no logins are not synthesized.
func VisitsByHour(sessions []entity.Session) []HourCount {
	byHour := map[int]int{}
	for _, s := range sessions {
		byHour[s.LastLogin.Hour()]++
	}
	out := make([]HourCount, 0, len(byHour))
	for h, c := range byHour {
		out = append(out, HourCount{Hour: h, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}
