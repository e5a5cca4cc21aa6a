package seeder

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record is the wire shape posted to /snapshots. Numeric fields are loosely
// typed so the generator can emit strings, nulls and junk the way real
// upstream exports do.
type Record struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Department     string         `json:"department"`
	Role           string         `json:"role"`
	Status         string         `json:"status"`
	CompositeScore any            `json:"compositeScore,omitempty"`
	Score          any            `json:"score,omitempty"`
	AttendanceRate any            `json:"attendanceRate"`
	TaskQuality    any            `json:"taskQuality"`
	Categories     map[string]any `json:"categories,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
}

var (
	departments     = []string{"Engineering", "Sales", "Marketing", "Support", "Finance", "Operations", ""}
	roles           = []string{"Engineer", "Manager", "Analyst", "Specialist", "Lead"}
	statuses        = []string{"Active", "Active", "Active", "Inactive", "On Leave"}
	categories      = []string{"Punctuality", "Task Quality", "Teamwork"}
	recommendations = []string{"Promote", "Retain", "Train", "Review", ""}
	firstNames      = []string{"Ada", "Bo", "Chen", "Dana", "Eli", "Fatima", "Gus", "Hana", "Ivan", "Jo"}
	lastNames       = []string{"Okafor", "Silva", "Ng", "Kowalski", "Haddad", "Berg", "Ito", "Reyes"}
)

// Performance profiles weight the score spread across bands.
type profile struct {
	min, span float64
}

var profiles = []profile{
	{min: 60, span: 15}, // average
	{min: 60, span: 15},
	{min: 75, span: 15}, // good
	{min: 75, span: 15},
	{min: 90, span: 10}, // excellent
	{min: 20, span: 40}, // needs improvement
	{min: 0, span: 20},  // rare low tail
}

// Generator produces synthetic records.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. The same seed yields
// the same records apart from their uuids.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate builds n records with unique ids.
func (g *Generator) Generate(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = g.record(i)
	}
	return out
}

func (g *Generator) pick(list []string) string {
	return list[g.rng.IntN(len(list))]
}

func (g *Generator) record(i int) Record {
	p := profiles[g.rng.IntN(len(profiles))]
	score := round1(p.min + g.rng.Float64()*p.span)
	first, last := g.pick(firstNames), g.pick(lastNames)

	r := Record{
		ID:             uuid.NewString(),
		Name:           first + " " + last,
		Email:          fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		Department:     g.pick(departments),
		Role:           g.pick(roles),
		Status:         g.pick(statuses),
		AttendanceRate: round1(55 + g.rng.Float64()*45),
		TaskQuality:    round1(clamp(score + g.rng.NormFloat64()*8)),
		Categories:     make(map[string]any, len(categories)),
		CompositeScore: score,
		Recommendation: g.pick(recommendations),
	}
	for _, c := range categories {
		r.Categories[c] = round1(clamp(score + g.rng.NormFloat64()*10))
	}

	// Mix in the shapes the ingest path has to tolerate.
	switch g.rng.IntN(20) {
	case 0:
		r.CompositeScore, r.Score = nil, score // legacy field only
	case 1:
		r.CompositeScore = strconv.FormatFloat(score, 'f', 1, 64)
	case 2:
		r.AttendanceRate = nil
	case 3:
		r.TaskQuality = "n/a"
	}
	return r
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// Batches splits records into chunks of size n. n <= 0 yields one chunk.
func Batches(records []Record, n int) [][]Record {
	if n <= 0 || n >= len(records) {
		return [][]Record{records}
	}
	out := make([][]Record, 0, (len(records)+n-1)/n)
	for start := 0; start < len(records); start += n {
		end := min(start+n, len(records))
		out = append(out, records[start:end])
	}
	return out
}
