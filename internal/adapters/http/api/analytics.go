package api

import (
	"context"
	"net/http"

	"github.com/okian/pulse/internal/domain/filter"
	"github.com/okian/pulse/internal/domain/types"
)

// Analytics view names served under /analytics/.
const (
	ViewDistribution = "distribution"
	ViewTrends       = "trends"
	ViewDepartments  = "departments"
	ViewCategories   = "categories"
	ViewConsistency  = "consistency"
	ViewSummary      = "summary"
	ViewDashboard    = "dashboard"
)

// AnalyticsViews lists the served views in route order.
func AnalyticsViews() []string {
	return []string{
		ViewDistribution, ViewTrends, ViewDepartments, ViewCategories,
		ViewConsistency, ViewSummary, ViewDashboard,
	}
}

// AnalyticsDependencies defines the interface for derived views.
type AnalyticsDependencies interface {
	Distribution(ctx context.Context, c filter.Criteria) ([]types.DistributionBucket, error)
	Trends(ctx context.Context, c filter.Criteria) ([]types.TrendPoint, error)
	Departments(ctx context.Context, c filter.Criteria) ([]types.DepartmentAggregate, error)
	Categories(ctx context.Context, c filter.Criteria) ([]types.CategoryBreakdown, error)
	Consistency(ctx context.Context, c filter.Criteria) (types.Consistency, error)
	Summary(ctx context.Context, c filter.Criteria) (types.Summary, error)
	Dashboard(ctx context.Context, c filter.Criteria) (types.Dashboard, error)
}

// AnalyticsHandler serves the analytics views.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// Handler returns the GET handler for one view. Unknown views 404.
func (h *AnalyticsHandler) Handler(view string) http.HandlerFunc {
	compute := h.computer(view)
	op := "api.analytics_" + view
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || compute == nil {
			http.NotFound(w, r)
			return
		}
		v, err := compute(r.Context(), parseCriteria(r.URL.Query()))
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type computeFunc func(ctx context.Context, c filter.Criteria) (any, error)

func adapt[T any](fn func(context.Context, filter.Criteria) (T, error)) computeFunc {
	return func(ctx context.Context, c filter.Criteria) (any, error) {
		return fn(ctx, c)
	}
}

func (h *AnalyticsHandler) computer(view string) computeFunc {
	switch view {
	case ViewDistribution:
		return adapt(h.deps.Distribution)
	case ViewTrends:
		return adapt(h.deps.Trends)
	case ViewDepartments:
		return adapt(h.deps.Departments)
	case ViewCategories:
		return adapt(h.deps.Categories)
	case ViewConsistency:
		return adapt(h.deps.Consistency)
	case ViewSummary:
		return adapt(h.deps.Summary)
	case ViewDashboard:
		return adapt(h.deps.Dashboard)
	default:
		return nil
	}
}
