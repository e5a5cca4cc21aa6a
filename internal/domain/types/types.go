// Package types contains the derived view shapes shared by the engine and
// the API. Every value is computed on demand and never stored.
package types

// DistributionBucket is one histogram bar over effective scores.
type DistributionBucket struct {
	Range      string  `json:"range"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage int     `json:"percentage"`
}

// TrendPoint is one simulated period. The values are synthesized from the
// current snapshot and are not measured history.
type TrendPoint struct {
	Period  string  `json:"period"`
	Average float64 `json:"average"`
	Top     float64 `json:"top"`
	Bottom  float64 `json:"bottom"`
}

// DepartmentAggregate is the rollup of one department.
type DepartmentAggregate struct {
	Department     string  `json:"department"`
	AvgScore       float64 `json:"avgScore"`
	AvgAttendance  float64 `json:"avgAttendance"`
	AvgTaskQuality float64 `json:"avgTaskQuality"`
	EmployeeCount  int     `json:"employeeCount"`
}

// CategoryBreakdown is the mean sub-score and weight of a review category.
type CategoryBreakdown struct {
	Category      string  `json:"category"`
	AvgScore      float64 `json:"avgScore"`
	WeightPercent int     `json:"weightPercent"`
}

// Consistency reports score dispersion and its [0,100] index.
type Consistency struct {
	StdDev float64 `json:"stdDev"`
	Index  int     `json:"index"`
}

// Summary carries the headline figures of a record set.
type Summary struct {
	Headcount        int            `json:"headcount"`
	AvgScore         float64        `json:"avgScore"`
	AvgAttendance    float64        `json:"avgAttendance"`
	TopPerformers    int            `json:"topPerformers"`
	NeedsImprovement int            `json:"needsImprovement"`
	PerformanceBands map[string]int `json:"performanceBands"`
	AttendanceBands  map[string]int `json:"attendanceBands"`
	Statuses         map[string]int `json:"statuses"`
	Recommendations  map[string]int `json:"recommendations"`
}

// Dashboard bundles every view computed over one record set.
type Dashboard struct {
	Summary      Summary               `json:"summary"`
	Distribution []DistributionBucket  `json:"distribution"`
	Trends       []TrendPoint          `json:"trends"`
	Departments  []DepartmentAggregate `json:"departments"`
	Categories   []CategoryBreakdown   `json:"categories"`
	Consistency  Consistency           `json:"consistency"`
}
