package seeder_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pulse/internal/adapters/http/api"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/internal/seeder"
	"github.com/okian/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		records := seeder.NewGenerator(42).Generate(500)

		Convey("Then it should produce unique ids", func() {
			seen := map[string]bool{}
			for _, r := range records {
				So(seen[r.ID], ShouldBeFalse)
				seen[r.ID] = true
			}
			So(len(seen), ShouldEqual, 500)
		})

		Convey("Then every record should decode through the ingest model", func() {
			data, err := json.Marshal(records)
			So(err, ShouldBeNil)
			var raw []model.EmployeeRecord
			So(json.Unmarshal(data, &raw), ShouldBeNil)
			for _, e := range model.NormalizeAll(raw) {
				So(e.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(e.AttendanceRate, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Then the same seed should repeat everything but the ids", func() {
			again := seeder.NewGenerator(42).Generate(500)
			So(again[10].Name, ShouldEqual, records[10].Name)
			So(again[10].CompositeScore, ShouldEqual, records[10].CompositeScore)
			So(again[10].ID, ShouldNotEqual, records[10].ID)
		})
	})
}

func TestBatches(t *testing.T) {
	Convey("Given ten records", t, func() {
		records := seeder.NewGenerator(1).Generate(10)

		Convey("Then a batch size of 4 should split them 4/4/2", func() {
			b := seeder.Batches(records, 4)
			So(len(b), ShouldEqual, 3)
			So(len(b[2]), ShouldEqual, 2)
		})

		Convey("Then a zero batch size should keep one snapshot", func() {
			So(len(seeder.Batches(records, 0)), ShouldEqual, 1)
		})
	})
}

func TestVerifyDashboard(t *testing.T) {
	Convey("Given a consistent dashboard", t, func() {
		d := types.Dashboard{
			Summary: types.Summary{
				Headcount:        3,
				PerformanceBands: map[string]int{"Excellent": 1, "Good": 2},
				AttendanceBands:  map[string]int{"Alert": 3},
			},
			Distribution: []types.DistributionBucket{{Count: 1}, {Count: 2}},
			Departments:  []types.DepartmentAggregate{{EmployeeCount: 3}},
			Trends:       make([]types.TrendPoint, 6),
			Consistency:  types.Consistency{Index: 88},
		}

		Convey("Then it should verify", func() {
			So(seeder.VerifyDashboard(&d, 3), ShouldBeNil)
		})

		Convey("When the histogram loses a record", func() {
			d.Distribution[1].Count = 1

			Convey("Then verification should fail", func() {
				err := seeder.VerifyDashboard(&d, 3)
				So(errors.Is(err, seeder.ErrVerification), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "distribution")
			})
		})

		Convey("When the headcount differs from what was sent", func() {
			So(seeder.VerifyDashboard(&d, 4), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		svc := service.New(service.WithQueueSize(4), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "seed", "records.json")

		Convey("When seeding in several batches", func() {
			stats, err := seeder.Run(ctx, &seeder.Config{
				BaseURL:    srv.URL,
				Employees:  250,
				Batch:      40,
				Workers:    4,
				Timeout:    5 * time.Second,
				Settle:     10 * time.Second,
				Seed:       7,
				OutputFile: out,
			})

			Convey("Then every record should be ingested and verified", func() {
				So(err, ShouldBeNil)
				So(stats.Snapshots, ShouldEqual, 7)
				So(stats.Accepted, ShouldEqual, 7)
				So(stats.Ingested, ShouldEqual, 250)
				So(stats.Headcount, ShouldEqual, 250)
			})

			Convey("And the generated records should be written out", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []seeder.Record
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(len(saved), ShouldEqual, 250)
			})
		})

		Convey("When the service is unreachable", func() {
			_, err := seeder.Run(ctx, &seeder.Config{BaseURL: "http://127.0.0.1:1", Employees: 1, Timeout: time.Second})

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
