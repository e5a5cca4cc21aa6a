package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pulse/internal/adapters/repository"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/filter"
	"github.com/okian/pulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(id, dept, status string, score, attendance float64) model.EmployeeRecord {
	return model.EmployeeRecord{
		ID:             model.ID(id),
		Name:           "Employee " + id,
		Email:          id + "@example.com",
		Department:     dept,
		Role:           "Engineer",
		Status:         status,
		CompositeScore: model.Num(score),
		AttendanceRate: model.Num(attendance),
		TaskQuality:    model.Num(score),
		Categories: map[string]model.Number{
			"Teamwork": model.Num(score / 2),
		},
	}
}

// waitForCount polls until the store holds n records.
func waitForCount(ctx context.Context, svc *service.Service, n int) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		recs, err := svc.Records(ctx, filter.Criteria{})
		if err == nil && len(recs) == n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(500),
			service.WithTrendJitter(0),
			service.WithCategoryWeights(map[string]float64{"Teamwork": 0.3}),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.SubmitSnapshot(ctx, model.Snapshot{
			SnapshotID: "base",
			Mode:       model.ModeReplace,
			Records: []model.EmployeeRecord{
				record("1", "Engineering", model.StatusActive, 95, 98),
				record("2", "Sales", model.StatusActive, 72, 88),
				record("3", "Engineering", model.StatusOnLeave, 45, 60),
			},
		})
		So(err, ShouldBeNil)
		So(waitForCount(ctx, svc, 3), ShouldBeTrue)

		Convey("When reading records", func() {
			recs, err := svc.Records(ctx, filter.Criteria{})

			Convey("Then they should come back normalized in order", func() {
				So(err, ShouldBeNil)
				So(recs[0].ID, ShouldEqual, "1")
				So(recs[2].ID, ShouldEqual, "3")
				So(recs[1].Score, ShouldEqual, 72)
			})
		})

		Convey("When fetching a single record", func() {
			e, err := svc.Record(ctx, "2")
			_, missing := svc.Record(ctx, "nope")

			Convey("Then it should be found by id", func() {
				So(err, ShouldBeNil)
				So(e.Department, ShouldEqual, "Sales")
				So(errors.Is(missing, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When filtering by department", func() {
			c := filter.Criteria{Departments: []string{"Engineering"}}
			recs, _ := svc.Records(ctx, c)
			sum, _ := svc.Summary(ctx, c)
			depts, _ := svc.Departments(ctx, c)

			Convey("Then every view should see the same subset", func() {
				So(len(recs), ShouldEqual, 2)
				So(sum.Headcount, ShouldEqual, 2)
				So(sum.AvgScore, ShouldEqual, 70)
				So(len(depts), ShouldEqual, 1)
				So(depts[0].EmployeeCount, ShouldEqual, 2)
			})
		})

		Convey("When a record arrives without a department", func() {
			_, err := svc.SubmitSnapshot(ctx, model.Snapshot{
				SnapshotID: "no-dept",
				Mode:       model.ModeMerge,
				Records:    []model.EmployeeRecord{record("4", "", model.StatusActive, 80, 90)},
			})
			So(err, ShouldBeNil)
			So(waitForCount(ctx, svc, 4), ShouldBeTrue)

			depts, _ := svc.Departments(ctx, filter.Criteria{})
			recs, _ := svc.Records(ctx, filter.Criteria{Departments: []string{model.UnknownDepartment}})

			Convey("Then the unknown rollup row should drill down to it", func() {
				So(depts[len(depts)-1].Department, ShouldEqual, model.UnknownDepartment)
				So(depts[len(depts)-1].EmployeeCount, ShouldEqual, 1)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].ID, ShouldEqual, "4")
			})
		})

		Convey("When computing the dashboard", func() {
			d, err := svc.Dashboard(ctx, filter.Criteria{})
			dist, _ := svc.Distribution(ctx, filter.Criteria{})
			trends, _ := svc.Trends(ctx, filter.Criteria{})
			cats, _ := svc.Categories(ctx, filter.Criteria{})
			cons, _ := svc.Consistency(ctx, filter.Criteria{})

			Convey("Then it should match the individual views", func() {
				So(err, ShouldBeNil)
				So(d.Summary.Headcount, ShouldEqual, 3)
				So(d.Distribution, ShouldResemble, dist)
				So(d.Trends, ShouldResemble, trends)
				So(d.Categories, ShouldResemble, cats)
				So(d.Consistency, ShouldResemble, cons)
				So(len(d.Trends), ShouldEqual, 6)
			})

			Convey("And the configured weights should be reported", func() {
				So(len(cats), ShouldEqual, 1)
				So(cats[0].Category, ShouldEqual, "Teamwork")
				So(cats[0].WeightPercent, ShouldEqual, 30)
			})
		})

		Convey("When the context is already canceled", func() {
			cctx, ccancel := context.WithCancel(ctx)
			ccancel()
			_, err := svc.Dashboard(cctx, filter.Criteria{})

			Convey("Then the read should fail with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When a merge snapshot follows", func() {
			_, err := svc.SubmitSnapshot(ctx, model.Snapshot{
				SnapshotID: "delta",
				Mode:       model.ModeMerge,
				Records: []model.EmployeeRecord{
					record("2", "Sales", model.StatusInactive, 80, 90),
					record("4", "Support", model.StatusActive, 66, 91),
				},
			})
			So(err, ShouldBeNil)

			Convey("Then records should be updated and appended", func() {
				So(waitForCount(ctx, svc, 4), ShouldBeTrue)
				e, _ := svc.Record(ctx, "2")
				So(e.Status, ShouldEqual, model.StatusInactive)
				So(e.Score, ShouldEqual, 80)
			})
		})

		Convey("When a replace snapshot follows", func() {
			_, err := svc.SubmitSnapshot(ctx, model.Snapshot{
				SnapshotID: "fresh",
				Records:    []model.EmployeeRecord{record("9", "Ops", model.StatusActive, 50, 50)},
			})
			So(err, ShouldBeNil)

			Convey("Then the old record set should be gone", func() {
				So(waitForCount(ctx, svc, 1), ShouldBeTrue)
				_, err := svc.Record(ctx, "1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When many merge snapshots arrive concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := fmt.Sprintf("m-%d", i)
					for {
						_, err := svc.SubmitSnapshot(ctx, model.Snapshot{
							SnapshotID: id,
							Mode:       model.ModeMerge,
							Records:    []model.EmployeeRecord{record(fmt.Sprintf("c-%d", i), "Ops", model.StatusActive, 70, 80)},
						})
						if !errors.Is(err, service.ErrBackpressure) {
							return
						}
						time.Sleep(time.Millisecond)
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every record should land", func() {
				So(waitForCount(ctx, svc, 23), ShouldBeTrue)
				stats := svc.GetStats()
				So(stats["records"], ShouldEqual, 23)
			})
		})
	})
}
