package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bookshop/internal/analytics"
	"bookshop/internal/charts"
	"bookshop/internal/entity"
	"bookshop/internal/httpx"
)

// filterParamNames are the query parameters the report filter understands.
// Anything else on the URL is ignored.
var filterParamNames = []string{"search", "sort", "date_from", "date_to", "start_date", "end_date"}

type AnalyticsHandler struct {
	svc      *analytics.Service
	renderer charts.Renderer
	log      *zap.Logger
}

func NewAnalyticsHandler(svc *analytics.Service, renderer charts.Renderer, log *zap.Logger) *AnalyticsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsHandler{svc: svc, renderer: renderer, log: log}
}

// @Summary Sales dashboard
// @Description Aggregated sales report under the free filter form (staff only)
// @Tags analytics
// @Produce json
// @Param search query string false "Match against book title, customer username or genre"
// @Param sort query string false "One of -created_at, created_at, -total, total"
// @Param date_from query string false "Inclusive lower bound, YYYY-MM-DD"
// @Param date_to query string false "Inclusive upper bound, YYYY-MM-DD"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BuildReport(r.Context(), filterParams(r), callerFrom(r))
	h.respond(w, r, report, err, false)
}

// @Summary Sales statistics
// @Description Aggregated sales report over a required date range, with rendered charts (staff only)
// @Tags analytics
// @Produce json
// @Param start_date query string true "Inclusive lower bound, YYYY-MM-DD"
// @Param end_date query string true "Inclusive upper bound, YYYY-MM-DD"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /analytics/statistics [get]
func (h *AnalyticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BuildRangeReport(r.Context(), filterParams(r), callerFrom(r))
	h.respond(w, r, report, err, true)
}

// statisticsResponse carries the report plus server-rendered chart images
// for clients that cannot plot the raw series themselves.
type statisticsResponse struct {
	*analytics.ReportContext
	GenreChartPNG string `json:"genre_chart_png,omitempty"`
	AgeChartPNG   string `json:"age_chart_png,omitempty"`
}

func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, report *analytics.ReportContext, err error, withCharts bool) {
	if err != nil {
		if errors.Is(err, analytics.ErrUnauthorized) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", "staff role required", nil)
			return
		}
		h.log.Error("report build failed",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "could not build report", nil)
		return
	}

	if len(report.FieldErrors) > 0 {
		details := make([]httpx.ErrorDetail, 0, len(report.FieldErrors))
		for _, fe := range report.FieldErrors {
			details = append(details, httpx.ErrorDetail{Field: fe.Field, Message: fe.Message})
		}
		httpx.JSONError(w, http.StatusBadRequest, "invalid_filter", "invalid filter parameters", details)
		return
	}

	if !withCharts {
		httpx.JSONSuccess(w, report, nil)
		return
	}

	resp := statisticsResponse{ReportContext: report}
	resp.GenreChartPNG = h.renderGenreChart(r, report)
	resp.AgeChartPNG = h.renderAgeChart(r, report)
	httpx.JSONSuccess(w, resp, nil)
}

// Chart rendering failures degrade to the raw series; the report itself
// still goes out.
func (h *AnalyticsHandler) renderGenreChart(r *http.Request, report *analytics.ReportContext) string {
	if h.renderer == nil || len(report.SalesByGenre.Data) == 0 {
		return ""
	}
	labels := make([]string, 0, len(report.SalesByGenre.Data))
	values := make([]float64, 0, len(report.SalesByGenre.Data))
	for _, p := range report.SalesByGenre.Data {
		labels = append(labels, p.Genre)
		values = append(values, float64(p.TotalSold))
	}
	img, err := h.renderer.Render(charts.KindPie, labels, values, "Sales by genre")
	if err != nil {
		h.log.Warn("genre chart render failed",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err))
		return ""
	}
	return img
}

func (h *AnalyticsHandler) renderAgeChart(r *http.Request, report *analytics.ReportContext) string {
	if h.renderer == nil || len(report.AgeGroups.Data) == 0 {
		return ""
	}
	labels := make([]string, 0, len(report.AgeGroups.Data))
	values := make([]float64, 0, len(report.AgeGroups.Data))
	for _, p := range report.AgeGroups.Data {
		labels = append(labels, p.Age)
		values = append(values, float64(p.Count))
	}
	img, err := h.renderer.Render(charts.KindBar, labels, values, "Customers by age")
	if err != nil {
		h.log.Warn("age chart render failed",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err))
		return ""
	}
	return img
}

func callerFrom(r *http.Request) entity.User {
	return entity.User{
		ID:       httpx.UserIDFrom(r),
		Username: httpx.UsernameFrom(r),
		Role:     httpx.RoleFrom(r),
	}
}

func filterParams(r *http.Request) map[string]string {
	q := r.URL.Query()
	params := make(map[string]string, len(filterParamNames))
	for _, name := range filterParamNames {
		if v := q.Get(name); v != "" {
			params[name] = v
		}
	}
	return params
}
