package analytics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidSearch is returned when the search text is too long or contains
// characters outside Latin/Cyrillic letters, digits and whitespace.
var ErrInvalidSearch = errors.New("invalid search text")

// ErrInvalidDateRange is returned when a date field is malformed or the
// start of the range is after its end.
var ErrInvalidDateRange = errors.New("invalid date range")

// ErrRangeTooLarge is returned by the range-bounded form when the requested
// span exceeds one year.
var ErrRangeTooLarge = errors.New("date range exceeds one year")

// SortKey enumerates the supported sale orderings. The literals match the
// query-parameter values accepted by the dashboard form.
type SortKey string

const (
	SortCreatedDesc SortKey = "-created_at"
	SortCreatedAsc  SortKey = "created_at"
	SortTotalDesc   SortKey = "-total"
	SortTotalAsc    SortKey = "total"
)

// DefaultSort is applied when the sort parameter is absent or unrecognized.
const DefaultSort = SortCreatedDesc

const (
	dateLayout   = "2006-01-02"
	maxSearchLen = 50
	maxRangeDays = 365
)

// FilterSpec is the validated, typed form of the user-supplied report filters.
type FilterSpec struct {
	SearchText string
	Sort       SortKey
	DateFrom   *time.Time
	DateTo     *time.Time
}

// DateRange is the validated form of the range-bounded report form, where
// both bounds are required.
type DateRange struct {
	Start time.Time
	End   time.Time
}

var validate *validator.Validate

var searchChars = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё0-9\s]*$`)

func init() {
	validate = validator.New()

	validate.RegisterValidation("search_chars", validateSearchChars)
}

func validateSearchChars(fl validator.FieldLevel) bool {
	return searchChars.MatchString(fl.Field().String())
}

type searchField struct {
	Search string `validate:"max=50,search_chars"`
}

// FilterParser validates raw query parameters into a FilterSpec. It is pure
// apart from diagnostic logging; the clock is injected so that "today"
// comparisons are testable.
type FilterParser struct {
	now func() time.Time
	log *zap.Logger
}

func NewFilterParser(now func() time.Time, log *zap.Logger) *FilterParser {
	if log == nil {
		log = zap.NewNop()
	}
	return &FilterParser{now: now, log: log}
}

// Parse validates the free-filter form (search, sort, date_from, date_to).
// Unknown sort keys fall back to DefaultSort silently; sort is cosmetic and
// must never fail the request.
func (p *FilterParser) Parse(params map[string]string) (FilterSpec, error) {
	spec := FilterSpec{Sort: DefaultSort}

	search := strings.TrimSpace(params["search"])
	if err := validate.Struct(searchField{Search: search}); err != nil {
		p.log.Warn("rejected search filter",
			zap.Int("length", len([]rune(search))),
			zap.Error(err))
		return FilterSpec{}, fmt.Errorf("%w: letters, digits and spaces, up to %d characters", ErrInvalidSearch, maxSearchLen)
	}
	spec.SearchText = search

	if raw := params["sort"]; raw != "" {
		if key, ok := parseSortKey(raw); ok {
			spec.Sort = key
		} else {
			p.log.Warn("unknown sort key, using default",
				zap.String("sort", raw),
				zap.String("fallback", string(DefaultSort)))
		}
	}

	from, err := p.parseDate(params["date_from"], "date_from")
	if err != nil {
		return FilterSpec{}, err
	}
	to, err := p.parseDate(params["date_to"], "date_to")
	if err != nil {
		return FilterSpec{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		p.log.Warn("inverted date range",
			zap.Time("date_from", *from),
			zap.Time("date_to", *to))
		return FilterSpec{}, fmt.Errorf("%w: date_from is after date_to", ErrInvalidDateRange)
	}
	spec.DateFrom = from
	spec.DateTo = to

	return spec, nil
}

// ParseDateRange validates the range-bounded form (start_date, end_date,
// both required, span capped at one year).
func (p *FilterParser) ParseDateRange(params map[string]string) (DateRange, error) {
	start, err := p.parseDate(params["start_date"], "start_date")
	if err != nil {
		return DateRange{}, err
	}
	end, err := p.parseDate(params["end_date"], "end_date")
	if err != nil {
		return DateRange{}, err
	}
	if start == nil || end == nil {
		return DateRange{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidDateRange)
	}
	if start.After(*end) {
		return DateRange{}, fmt.Errorf("%w: start_date is after end_date", ErrInvalidDateRange)
	}
	if end.Sub(*start) > maxRangeDays*24*time.Hour {
		p.log.Warn("rejected oversized date range",
			zap.Time("start_date", *start),
			zap.Time("end_date", *end))
		return DateRange{}, ErrRangeTooLarge
	}
	return DateRange{Start: *start, End: *end}, nil
}

func parseSortKey(raw string) (SortKey, bool) {
	switch SortKey(raw) {
	case SortCreatedDesc, SortCreatedAsc, SortTotalDesc, SortTotalAsc:
		return SortKey(raw), true
	}
	return "", false
}

// parseDate parses an optional ISO date. Future dates are capped to today
// rather than rejected; the date pickers constrain them client-side, so a
// future value is a widget quirk, not an error.
func (p *FilterParser) parseDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		p.log.Warn("malformed date filter", zap.String("field", field), zap.String("value", raw))
		return nil, fmt.Errorf("%w: %s is not a valid date", ErrInvalidDateRange, field)
	}
	today := truncateToDay(p.now())
	if d.After(today) {
		p.log.Debug("future date capped to today", zap.String("field", field), zap.Time("value", d))
		d = today
	}
	return &d, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
