package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/pulse/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEmployeeRecordDecoding(t *testing.T) {
	convey.Convey("Given raw employee JSON from the fetch layer", t, func() {
		convey.Convey("When every numeric field is well formed", func() {
			raw := `{"id": 7, "name": "Sarah Johnson", "department": "Engineering",
				"compositeScore": 94, "attendanceRate": 98, "taskQuality": 96,
				"categories": {"Teamwork": 92}}`
			var r model.EmployeeRecord
			err := json.Unmarshal([]byte(raw), &r)

			convey.Convey("Then it should decode ids and numbers", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.ID, convey.ShouldEqual, model.ID("7"))
				convey.So(r.CompositeScore.Set, convey.ShouldBeTrue)
				convey.So(r.CompositeScore.Float(), convey.ShouldEqual, 94)
				convey.So(r.Categories["Teamwork"].Float(), convey.ShouldEqual, 92)
			})
		})

		convey.Convey("When numeric fields are strings, garbage or null", func() {
			raw := `{"id": "e-1", "compositeScore": "81.5", "attendanceRate": "n/a",
				"taskQuality": null, "categories": {"Punctuality": true}}`
			var r model.EmployeeRecord
			err := json.Unmarshal([]byte(raw), &r)

			convey.Convey("Then they should be coerced rather than rejected", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.CompositeScore.Float(), convey.ShouldEqual, 81.5)
				convey.So(r.AttendanceRate.Set, convey.ShouldBeTrue)
				convey.So(r.AttendanceRate.Float(), convey.ShouldEqual, 0)
				convey.So(r.TaskQuality.Set, convey.ShouldBeFalse)
				convey.So(r.Categories["Punctuality"].Float(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	convey.Convey("Given raw records with optional fields", t, func() {
		convey.Convey("When only the legacy score field is present", func() {
			e := model.Normalize(model.EmployeeRecord{ID: "1", Score: model.Num(77)})

			convey.Convey("Then the effective score should use it", func() {
				convey.So(e.Score, convey.ShouldEqual, 77)
			})
		})

		convey.Convey("When both score fields are present", func() {
			e := model.Normalize(model.EmployeeRecord{ID: "1", CompositeScore: model.Num(64), Score: model.Num(99)})

			convey.Convey("Then compositeScore should take priority", func() {
				convey.So(e.Score, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When compositeScore is present but zero", func() {
			e := model.Normalize(model.EmployeeRecord{ID: "1", CompositeScore: model.Num(0), Score: model.Num(99)})

			convey.Convey("Then presence rather than truthiness should decide", func() {
				convey.So(e.Score, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When numeric fields are absent", func() {
			e := model.Normalize(model.EmployeeRecord{ID: "2", Name: "Lisa"})

			convey.Convey("Then they should default to zero and categories to an empty map", func() {
				convey.So(e.Score, convey.ShouldEqual, 0)
				convey.So(e.AttendanceRate, convey.ShouldEqual, 0)
				convey.So(e.TaskQuality, convey.ShouldEqual, 0)
				convey.So(e.Categories, convey.ShouldNotBeNil)
				convey.So(len(e.Categories), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the department is missing or blank", func() {
			missing := model.Normalize(model.EmployeeRecord{ID: "3"})
			blank := model.Normalize(model.EmployeeRecord{ID: "4", Department: "  "})
			named := model.Normalize(model.EmployeeRecord{ID: "5", Department: "Sales"})

			convey.Convey("Then it should be labelled as unknown", func() {
				convey.So(missing.Department, convey.ShouldEqual, model.UnknownDepartment)
				convey.So(blank.Department, convey.ShouldEqual, model.UnknownDepartment)
				convey.So(named.Department, convey.ShouldEqual, "Sales")
			})
		})

		convey.Convey("When normalizing a batch", func() {
			out := model.NormalizeAll([]model.EmployeeRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}})

			convey.Convey("Then order should be preserved", func() {
				convey.So(len(out), convey.ShouldEqual, 3)
				convey.So(out[0].ID, convey.ShouldEqual, "a")
				convey.So(out[2].ID, convey.ShouldEqual, "c")
			})
		})
	})
}
