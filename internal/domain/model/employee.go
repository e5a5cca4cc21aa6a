// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Employment statuses used by the dashboard.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusOnLeave  = "On Leave"
)

// UnknownDepartment labels records with no department.
const UnknownDepartment = "Unknown"

// NoRecommendation labels records with no recommendation tag.
const NoRecommendation = "None"

// Number is a lenient numeric JSON value. Numbers and numeric strings decode
// to their value; any other non-null JSON decodes to 0. null or an absent
// key leaves the Number unset.
type Number struct {
	Value float64
	Set   bool
}

// Num returns a set Number.
func Num(v float64) Number { return Number{Value: v, Set: true} }

// Float returns the value, or 0 when unset.
func (n Number) Float() float64 {
	if !n.Set || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return 0
	}
	return n.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	*n = Number{Set: true}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value = f
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			n.Value = v
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float())
}

// ID is an employee identifier that accepts either a JSON string or number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*id = ID(num.String())
	return nil
}

// EmployeeRecord is the raw record shape delivered by the fetch layer.
// Numeric fields may be absent, null or malformed.
type EmployeeRecord struct {
	ID             ID                `json:"id" validate:"required"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	Department     string            `json:"department"`
	Role           string            `json:"role"`
	Status         string            `json:"status"`
	CompositeScore Number            `json:"compositeScore"`
	Score          Number            `json:"score"`
	AttendanceRate Number            `json:"attendanceRate"`
	TaskQuality    Number            `json:"taskQuality"`
	Categories     map[string]Number `json:"categories,omitempty"`
	Recommendation string            `json:"recommendation,omitempty"`
}

// Employee is the canonical record every computation works on. All numeric
// fields are defaulted; Score is the effective score.
type Employee struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email,omitempty"`
	Department     string             `json:"department"`
	Role           string             `json:"role"`
	Status         string             `json:"status"`
	Score          float64            `json:"compositeScore"`
	AttendanceRate float64            `json:"attendanceRate"`
	TaskQuality    float64            `json:"taskQuality"`
	Categories     map[string]float64 `json:"categories"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// EffectiveScore returns compositeScore when present, else the legacy score
// field, else 0.
func (r EmployeeRecord) EffectiveScore() float64 {
	if r.CompositeScore.Set {
		return r.CompositeScore.Float()
	}
	return r.Score.Float()
}

// Normalize converts a raw record into its canonical form. A blank
// department becomes UnknownDepartment.
func Normalize(r EmployeeRecord) Employee { //nolint:gocritic // hugeParam: records are decoded by value
	cats := make(map[string]float64, len(r.Categories))
	for name, v := range r.Categories {
		cats[name] = v.Float()
	}
	dept := r.Department
	if strings.TrimSpace(dept) == "" {
		dept = UnknownDepartment
	}
	return Employee{
		ID:             string(r.ID),
		Name:           r.Name,
		Email:          r.Email,
		Department:     dept,
		Role:           r.Role,
		Status:         r.Status,
		Score:          r.EffectiveScore(),
		AttendanceRate: r.AttendanceRate.Float(),
		TaskQuality:    r.TaskQuality.Float(),
		Categories:     cats,
		Recommendation: r.Recommendation,
	}
}

// NormalizeAll normalizes records preserving order.
func NormalizeAll(rs []EmployeeRecord) []Employee {
	out := make([]Employee, len(rs))
	for i := range rs {
		out[i] = Normalize(rs[i])
	}
	return out
}
