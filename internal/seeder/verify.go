package seeder

import (
	"errors"
	"fmt"

	"github.com/okian/pulse/internal/domain/types"
)

// ErrVerification marks a dashboard that breaks an analytics invariant.
var ErrVerification = errors.New("verification failed")

// expectedTrendPeriods is the length of the simulated trend series.
const expectedTrendPeriods = 6

// VerifyDashboard checks the dashboard against the number of records the
// run submitted.
func VerifyDashboard(d *types.Dashboard, want int) error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if d.Summary.Headcount != want {
		fail("headcount %d, want %d", d.Summary.Headcount, want)
	}

	total := 0
	for _, b := range d.Distribution {
		total += b.Count
	}
	if total != d.Summary.Headcount {
		fail("distribution counts %d records, headcount is %d", total, d.Summary.Headcount)
	}
	if sum := sumCounts(d.Summary.PerformanceBands); sum != d.Summary.Headcount {
		fail("performance bands count %d records, headcount is %d", sum, d.Summary.Headcount)
	}
	if sum := sumCounts(d.Summary.AttendanceBands); sum != d.Summary.Headcount {
		fail("attendance bands count %d records, headcount is %d", sum, d.Summary.Headcount)
	}

	deptTotal := 0
	for _, dep := range d.Departments {
		deptTotal += dep.EmployeeCount
	}
	if deptTotal != d.Summary.Headcount {
		fail("departments count %d records, headcount is %d", deptTotal, d.Summary.Headcount)
	}

	if idx := d.Consistency.Index; idx < 0 || idx > 100 {
		fail("consistency index %d out of range", idx)
	}
	if len(d.Trends) != expectedTrendPeriods {
		fail("%d trend periods, want %d", len(d.Trends), expectedTrendPeriods)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(problems...))
	}
	return nil
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
