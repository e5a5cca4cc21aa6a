// Package aggregate derives dashboard views from canonical employee records.
// Every function is pure and safe on empty input.
package aggregate

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/okian/pulse/internal/domain/filter"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
)

// TopPerformerScore is the minimum score counted as a top performer.
const TopPerformerScore = 90

// Trend band offsets from the period average.
const (
	trendTopOffset    = 15
	trendBottomOffset = 10
)

type bucketEdge struct {
	min, max float64
}

var bucketEdges = [...]bucketEdge{
	{0, 20},
	{21, 40},
	{41, 60},
	{61, 80},
	{81, 100},
}

// bucketIndex picks the first bucket containing score. Fractional scores
// between two edges fall into the lower bucket; out-of-range scores clamp.
func bucketIndex(score float64) int {
	for i := len(bucketEdges) - 1; i > 0; i-- {
		if score >= bucketEdges[i].min {
			return i
		}
	}
	return 0
}

// Distribution buckets effective scores into five fixed ranges.
func Distribution(records []model.Employee) []types.DistributionBucket {
	counts := make([]int, len(bucketEdges))
	for i := range records {
		counts[bucketIndex(records[i].Score)]++
	}

	total := len(records)
	out := make([]types.DistributionBucket, len(bucketEdges))
	for i, edge := range bucketEdges {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(counts[i]) / float64(total) * 100))
		}
		out[i] = types.DistributionBucket{
			Range:      fmt.Sprintf("%g-%g", edge.min, edge.max),
			Min:        edge.min,
			Max:        edge.max,
			Count:      counts[i],
			Percentage: pct,
		}
	}
	return out
}

// Trends synthesizes TrendPeriods points around the mean score. The series
// is simulated from the current records; it is not measured history. With
// no records every point is zero.
func Trends(records []model.Employee, opts ...Option) []types.TrendPoint {
	cfg := trendConfig{jitter: DefaultJitter}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]types.TrendPoint, TrendPeriods)
	if len(records) == 0 {
		for i := range out {
			out[i] = types.TrendPoint{Period: fmt.Sprintf("P%d", i+1)}
		}
		return out
	}

	avg := meanOf(records, func(e *model.Employee) float64 { return e.Score })
	for i := range out {
		v := avg + jitter(cfg)
		out[i] = types.TrendPoint{
			Period:  fmt.Sprintf("P%d", i+1),
			Average: round1(v),
			Top:     round1(v + trendTopOffset),
			Bottom:  round1(v - trendBottomOffset),
		}
	}
	return out
}

// jitter returns a value in [-cfg.jitter, +cfg.jitter].
func jitter(cfg trendConfig) float64 {
	if cfg.jitter == 0 {
		return 0
	}
	var f float64
	if cfg.rng != nil {
		f = cfg.rng.Float64()
	} else {
		f = rand.Float64()
	}
	return (f*2 - 1) * cfg.jitter
}

// Departments rolls records up per department in first-seen order. Records
// without a department are grouped as model.UnknownDepartment.
func Departments(records []model.Employee) []types.DepartmentAggregate {
	type acc struct {
		score, attendance, quality float64
		n                          int
	}

	index := make(map[string]int)
	var names []string
	var sums []acc
	for i := range records {
		e := &records[i]
		dept := e.Department
		if dept == "" {
			dept = model.UnknownDepartment
		}
		pos, ok := index[dept]
		if !ok {
			pos = len(sums)
			index[dept] = pos
			names = append(names, dept)
			sums = append(sums, acc{})
		}
		sums[pos].score += e.Score
		sums[pos].attendance += e.AttendanceRate
		sums[pos].quality += e.TaskQuality
		sums[pos].n++
	}

	out := make([]types.DepartmentAggregate, len(sums))
	for i, s := range sums {
		n := float64(s.n)
		out[i] = types.DepartmentAggregate{
			Department:     names[i],
			AvgScore:       round1(s.score / n),
			AvgAttendance:  round1(s.attendance / n),
			AvgTaskQuality: round1(s.quality / n),
			EmployeeCount:  s.n,
		}
	}
	return out
}

// Categories averages each weighted category across all records. Only keys
// of weights are reported; a record missing a category counts as 0.
func Categories(records []model.Employee, weights map[string]float64) []types.CategoryBreakdown {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.CategoryBreakdown, len(names))
	for i, name := range names {
		avg := meanOf(records, func(e *model.Employee) float64 { return e.Categories[name] })
		out[i] = types.CategoryBreakdown{
			Category:      name,
			AvgScore:      round1(avg),
			WeightPercent: int(math.Round(weights[name] * 100)),
		}
	}
	return out
}

// ConsistencyIndex reports the population standard deviation of scores and
// maps it onto [0,100], higher meaning more uniform.
func ConsistencyIndex(records []model.Employee) types.Consistency {
	if len(records) < 2 {
		return types.Consistency{StdDev: 0, Index: 100}
	}

	mean := meanOf(records, func(e *model.Employee) float64 { return e.Score })
	var sq float64
	for i := range records {
		d := records[i].Score - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(records)))

	idx := int(math.Round(100 - sd/10))
	idx = max(0, min(100, idx))
	return types.Consistency{StdDev: sd, Index: idx}
}

// Summarize computes the headline figures of records.
func Summarize(records []model.Employee) types.Summary {
	s := types.Summary{
		Headcount:        len(records),
		AvgScore:         round1(meanOf(records, func(e *model.Employee) float64 { return e.Score })),
		AvgAttendance:    round1(meanOf(records, func(e *model.Employee) float64 { return e.AttendanceRate })),
		PerformanceBands: zeroCounts(filter.PerformanceBands()),
		AttendanceBands:  zeroCounts(filter.AttendanceBands()),
		Statuses:         map[string]int{},
		Recommendations:  map[string]int{},
	}

	for i := range records {
		e := &records[i]
		perf := filter.PerformanceBand(e.Score)
		s.PerformanceBands[perf]++
		s.AttendanceBands[filter.AttendanceBand(e.AttendanceRate)]++
		if e.Score >= TopPerformerScore {
			s.TopPerformers++
		}
		if perf == filter.PerfNeedsImprovement {
			s.NeedsImprovement++
		}
		if e.Status != "" {
			s.Statuses[e.Status]++
		}
		rec := e.Recommendation
		if rec == "" {
			rec = model.NoRecommendation
		}
		s.Recommendations[rec]++
	}
	return s
}

// Build computes every view over the same records.
func Build(records []model.Employee, weights map[string]float64, opts ...Option) types.Dashboard {
	return types.Dashboard{
		Summary:      Summarize(records),
		Distribution: Distribution(records),
		Trends:       Trends(records, opts...),
		Departments:  Departments(records),
		Categories:   Categories(records, weights),
		Consistency:  ConsistencyIndex(records),
	}
}

func meanOf(records []model.Employee, field func(*model.Employee) float64) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for i := range records {
		sum += field(&records[i])
	}
	return sum / float64(len(records))
}

func zeroCounts(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for _, l := range labels {
		m[l] = 0
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
