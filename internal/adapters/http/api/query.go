package api

import (
	"net/url"
	"strings"

	"github.com/okian/pulse/internal/domain/filter"
)

// Query parameters accepted by every read route.
const (
	paramSearch      = "search"
	paramDepartment  = "department"
	paramStatus      = "status"
	paramPerformance = "performance"
	paramAttendance  = "attendance"
)

// parseCriteria builds filter criteria from a query string. List
// parameters may repeat or carry comma-separated values.
func parseCriteria(q url.Values) filter.Criteria {
	return filter.Criteria{
		SearchTerm:       q.Get(paramSearch),
		Departments:      listParam(q, paramDepartment),
		Statuses:         listParam(q, paramStatus),
		PerformanceBands: listParam(q, paramPerformance),
		AttendanceBands:  listParam(q, paramAttendance),
	}
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if v := strings.TrimSpace(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
