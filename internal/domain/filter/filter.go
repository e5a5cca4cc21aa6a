// Package filter narrows employee collections by free-text search and
// categorical criteria. Axes are AND-combined; labels within an axis are
// OR-combined; an empty axis does not constrain.
package filter

import (
	"strings"

	"github.com/okian/pulse/internal/domain/model"
)

// Criteria selects records. Each slice is treated as a set.
type Criteria struct {
	SearchTerm       string   `json:"search,omitempty"`
	Departments      []string `json:"departments,omitempty"`
	Statuses         []string `json:"statuses,omitempty"`
	PerformanceBands []string `json:"performanceBands,omitempty"`
	AttendanceBands  []string `json:"attendanceBands,omitempty"`
}

// IsEmpty reports whether the criteria constrain nothing.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.SearchTerm) == "" &&
		len(c.Departments) == 0 &&
		len(c.Statuses) == 0 &&
		len(c.PerformanceBands) == 0 &&
		len(c.AttendanceBands) == 0
}

// matcher is Criteria compiled for a single pass.
type matcher struct {
	term        string
	departments map[string]struct{}
	statuses    map[string]struct{}
	perf        map[string]struct{}
	attendance  map[string]struct{}
}

func compile(c Criteria) matcher {
	return matcher{
		term:        strings.ToLower(strings.TrimSpace(c.SearchTerm)),
		departments: toSet(c.Departments),
		statuses:    toSet(c.Statuses),
		perf:        toSet(c.PerformanceBands),
		attendance:  toSet(c.AttendanceBands),
	}
}

// toSet returns nil for an empty axis so that it passes everything.
func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func allows(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func (m matcher) match(e *model.Employee) bool {
	if m.term != "" && !m.search(e) {
		return false
	}
	return allows(m.departments, e.Department) &&
		allows(m.statuses, e.Status) &&
		allows(m.perf, PerformanceBand(e.Score)) &&
		allows(m.attendance, AttendanceBand(e.AttendanceRate))
}

func (m matcher) search(e *model.Employee) bool {
	for _, field := range [...]string{e.Name, e.Email, e.Department, e.Role} {
		if strings.Contains(strings.ToLower(field), m.term) {
			return true
		}
	}
	return false
}

// Apply returns the records matching c, in input order. The input slice is
// never modified; with empty criteria it is returned as is.
func Apply(records []model.Employee, c Criteria) []model.Employee {
	if len(records) == 0 {
		return []model.Employee{}
	}
	if c.IsEmpty() {
		return records
	}

	m := compile(c)
	out := make([]model.Employee, 0, len(records))
	for i := range records {
		if m.match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
