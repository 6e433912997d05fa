package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookshop/internal/entity"
)

// ErrUnauthorized is returned before any storage access when the caller
// lacks the staff role.
var ErrUnauthorized = errors.New("analytics access requires a staff role")

// trailingWindow is the rolling span behind recency metrics (conversion
// rate, session duration, visits by hour).
const trailingWindow = 30 * 24 * time.Hour

// FieldError is a field-level validation message for re-rendering the
// filter form.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// TotalSales is the headline block of the report.
type TotalSales struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgSale     decimal.Decimal `json:"avg_sale"`
	TotalBooks  int             `json:"total_books"`
}

// ReportContext is the single context object the presentation layer
// consumes. Sections that could not be computed are listed in Unavailable
// instead of failing the whole report; optional metrics are omitted when
// undefined rather than zero-filled.
type ReportContext struct {
	CurrentDate string `json:"current_date"`
	CurrentTime string `json:"current_time"`

	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Unavailable []string     `json:"unavailable,omitempty"`

	TotalSales    *TotalSales      `json:"total_sales,omitempty"`
	MedianSale    *decimal.Decimal `json:"median_sale,omitempty"`
	ModeSale      *decimal.Decimal `json:"mode_sale,omitempty"`
	AgeStats      *AgeStats        `json:"age_stats,omitempty"`
	PopularGenres []GenreStat      `json:"popular_genres"`
	Customers     []CustomerTotal  `json:"customers,omitempty"`

	SalesByDate  DateSeries  `json:"sales_by_date"`
	SalesByGenre GenreSeries `json:"sales_by_genre"`
	AgeGroups    AgeSeries   `json:"age_groups"`

	SalesByDateJSON  string `json:"sales_by_date_json"`
	SalesByGenreJSON string `json:"sales_by_genre_json"`
	AgeGroupsJSON    string `json:"age_groups_json"`

	ConversionRate        *float64    `json:"conversion_rate,omitempty"`
	MedianSessionDuration *float64    `json:"median_session_duration,omitempty"` // seconds
	VisitsByHour          []HourCount `json:"visits_by_hour"`
}

// Service assembles the analytics report: validate, compile, fetch,
// summarize, shape. Stateless across requests; every report build is an
// independent read-only computation.
type Service struct {
	sales     SalesRepository
	customers CustomerRepository
	activity  ActivityRepository
	filter    *FilterParser
	now       func() time.Time
	log       *zap.Logger
}

func NewService(sales SalesRepository, customers CustomerRepository, activity ActivityRepository, now func() time.Time, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		sales:     sales,
		customers: customers,
		activity:  activity,
		filter:    NewFilterParser(now, log),
		now:       now,
		log:       log,
	}
}

// BuildReport builds the dashboard report under the free-filter form.
// Authorization is checked before any storage access. Validation errors
// come back as field errors on the context with no data computed; stage
// failures past validation degrade the affected section only.
func (s *Service) BuildReport(ctx context.Context, params map[string]string, user entity.User) (*ReportContext, error) {
	if !user.IsStaff() {
		s.log.Warn("analytics access denied",
			zap.String("user_id", user.ID),
			zap.String("role", user.Role))
		return nil, ErrUnauthorized
	}
	s.log.Info("building sales report", zap.String("username", user.Username))

	rc := s.newContext()

	spec, err := s.filter.Parse(params)
	if err != nil {
		rc.FieldErrors = fieldErrorsFrom(err)
		return rc, nil
	}
	plan := Compile(spec)

	now := s.now()
	s.buildSalesSection(ctx, rc, plan)
	s.buildCustomerSection(ctx, rc, spec.SearchText, now)
	s.buildActivitySection(ctx, rc, now)
	s.marshalSeries(rc)

	return rc, nil
}

// BuildRangeReport builds the report under the range-bounded form
// (start_date/end_date, both required, span capped at one year).
func (s *Service) BuildRangeReport(ctx context.Context, params map[string]string, user entity.User) (*ReportContext, error) {
	if !user.IsStaff() {
		s.log.Warn("analytics access denied",
			zap.String("user_id", user.ID),
			zap.String("role", user.Role))
		return nil, ErrUnauthorized
	}

	rng, err := s.filter.ParseDateRange(params)
	if err != nil {
		rc := s.newContext()
		rc.FieldErrors = fieldErrorsFrom(err)
		return rc, nil
	}

	derived := map[string]string{
		"search":    params["search"],
		"sort":      params["sort"],
		"date_from": rng.Start.Format(dateLayout),
		"date_to":   rng.End.Format(dateLayout),
	}
	return s.BuildReport(ctx, derived, user)
}

func (s *Service) newContext() *ReportContext {
	now := s.now()
	return &ReportContext{
		CurrentDate:   now.Format("02/01/2006"),
		CurrentTime:   now.Format("15:04:05"),
		PopularGenres: []GenreStat{},
		SalesByDate:   DateSeries{Data: []DateSeriesPoint{}},
		SalesByGenre:  GenreSeries{Data: []GenreSeriesPoint{}},
		AgeGroups:     AgeSeries{Data: []AgeSeriesPoint{}},
		VisitsByHour:  []HourCount{},
	}
}

func (s *Service) buildSalesSection(ctx context.Context, rc *ReportContext, plan QueryPlan) {
	records, err := s.sales.ListSales(ctx, plan)
	if err != nil {
		s.log.Error("sales query failed", zap.Error(err))
		rc.Unavailable = append(rc.Unavailable, "sales")
		return
	}

	agg := Summarize(records)
	if agg.TotalAmount != nil {
		rc.TotalSales = &TotalSales{
			TotalAmount: *agg.TotalAmount,
			AvgSale:     *agg.Average,
			TotalBooks:  agg.TotalItemCount,
		}
		rc.MedianSale = agg.Median

		// Mode errors with ErrNoValues only on empty input, which the
		// TotalAmount guard already excludes; a tie is the one real case.
		mode, err := Mode(Totals(records))
		var mm *MultimodalError
		if errors.As(err, &mm) {
			s.log.Warn("ambiguous mode, substituting smallest tied value",
				zap.Int("tied_count", len(mm.Tied)))
			mode = mm.Tied[0]
		}
		rc.ModeSale = &mode
	}

	rc.PopularGenres = agg.PopularGenres
	rc.SalesByDate = DateSeriesOf(agg)
	rc.SalesByGenre = GenreSeriesOf(agg)
}

func (s *Service) buildCustomerSection(ctx context.Context, rc *ReportContext, search string, now time.Time) {
	customers, err := s.customers.ListCustomers(ctx, search)
	if err != nil {
		s.log.Error("customer totals query failed", zap.Error(err))
		rc.Unavailable = append(rc.Unavailable, "customers")
	} else {
		rc.Customers = customers
	}

	profiles, err := s.customers.ListCustomerProfiles(ctx)
	if err != nil {
		s.log.Error("customer profiles query failed", zap.Error(err))
		rc.Unavailable = append(rc.Unavailable, "age_stats")
		return
	}
	stats := AgeStatsOf(profiles, now)
	rc.AgeStats = &stats
	rc.AgeGroups = AgeSeriesOf(stats)
}

func (s *Service) buildActivitySection(ctx context.Context, rc *ReportContext, now time.Time) {
	since := now.Add(-trailingWindow)

	views, vErr := s.activity.CountViewsSince(ctx, since)
	purchases, pErr := s.sales.CountPurchasesSince(ctx, since)
	if vErr != nil || pErr != nil {
		s.log.Error("conversion inputs unavailable",
			zap.NamedError("views_err", vErr),
			zap.NamedError("purchases_err", pErr))
		rc.Unavailable = append(rc.Unavailable, "conversion_rate")
	} else {
		rc.ConversionRate = ConversionRate(purchases, views)
	}

	sessions, err := s.customers.ListSessions(ctx, since)
	if err != nil {
		s.log.Error("session query failed", zap.Error(err))
		rc.Unavailable = append(rc.Unavailable, "sessions")
		return
	}
	if d := MedianSessionDuration(sessions); d != nil {
		secs := d.Seconds()
		rc.MedianSessionDuration = &secs
	}
	rc.VisitsByHour = VisitsByHour(sessions)
}

func (s *Service) marshalSeries(rc *ReportContext) {
	rc.SalesByDateJSON = s.marshalOne(rc, "sales_by_date", rc.SalesByDate.Data)
	rc.SalesByGenreJSON = s.marshalOne(rc, "sales_by_genre", rc.SalesByGenre.Data)
	rc.AgeGroupsJSON = s.marshalOne(rc, "age_groups", rc.AgeGroups.Data)
}

func (s *Service) marshalOne(rc *ReportContext, name string, data any) string {
	b, err := json.Marshal(data)
	if err != nil {
		s.log.Error("chart series marshal failed", zap.String("series", name), zap.Error(err))
		rc.Unavailable = append(rc.Unavailable, name+"_json")
		return "[]"
	}
	return string(b)
}

func fieldErrorsFrom(err error) []FieldError {
	switch {
	case errors.Is(err, ErrInvalidSearch):
		return []FieldError{{Field: "search", Message: err.Error()}}
	case errors.Is(err, ErrRangeTooLarge):
		return []FieldError{{Field: "date_range", Message: err.Error()}}
	case errors.Is(err, ErrInvalidDateRange):
		return []FieldError{{Field: "date_range", Message: err.Error()}}
	}
	return []FieldError{{Message: err.Error()}}
}
