package profile_test

import (
	"math"
	"testing"

	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleRecords() []dataset.EventRecord {
	return []dataset.EventRecord{
		{Title: "Jane Doe homers (1)", Video: "v1", ExitVelocity: "95.0", HitDistance: "400", LaunchAngle: "25"},
		{Title: "Jane Doe homers (2)", Video: "v2", ExitVelocity: "93.0", HitDistance: "380", LaunchAngle: "28"},
		{Title: "Mark Lee homers (1)", Video: "v3", ExitVelocity: "90.0", HitDistance: "410", LaunchAngle: "30"},
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given the sample records", t, func() {
		recs := sampleRecords()

		Convey("When aggregating Jane Doe", func() {
			p := profile.Aggregate("Jane Doe", recs)

			Convey("Then each metric is the arithmetic mean", func() {
				So(p.Name, ShouldEqual, "Jane Doe")
				So(p.ExitVelocityAvg, ShouldEqual, 94.0)
				So(p.HitDistanceAvg, ShouldEqual, 390.0)
				So(p.LaunchAngleAvg, ShouldEqual, 26.5)
				So(p.SampleSize, ShouldEqual, 2)
			})
		})

		Convey("When aggregating a player with no records", func() {
			p := profile.Aggregate("Nonexistent Player", recs)

			Convey("Then every average is exactly zero", func() {
				So(p.ExitVelocityAvg, ShouldEqual, 0)
				So(p.HitDistanceAvg, ShouldEqual, 0)
				So(p.LaunchAngleAvg, ShouldEqual, 0)
				So(math.IsNaN(p.ExitVelocityAvg), ShouldBeFalse)
				So(p.SampleSize, ShouldEqual, 0)
			})
		})

		Convey("When the index-backed path is used", func() {
			ds := dataset.New(recs)

			Convey("Then it agrees with the linear scan", func() {
				So(profile.ForDataset("Jane Doe", ds), ShouldResemble, profile.Aggregate("Jane Doe", recs))
				So(profile.ForDataset("Mark Lee", ds), ShouldResemble, profile.Aggregate("Mark Lee", recs))
				So(profile.ForDataset("Nobody", ds), ShouldResemble, profile.Aggregate("Nobody", recs))
			})
		})
	})

	Convey("Given a record whose title only starts with the name", t, func() {
		recs := []dataset.EventRecord{
			{Title: "Jane Doe homers (1)", ExitVelocity: "100", HitDistance: "400", LaunchAngle: "20"},
			{Title: "Jane Doerr homers (1)", ExitVelocity: "90", HitDistance: "300", LaunchAngle: "30"},
			{Title: "Not Jane Doe homers (1)", ExitVelocity: "1", HitDistance: "1", LaunchAngle: "1"},
		}

		Convey("Then prefix matches are included and mid-title matches are not", func() {
			p := profile.Aggregate("Jane Doe", recs)
			So(p.SampleSize, ShouldEqual, 2)
			So(p.ExitVelocityAvg, ShouldEqual, 95)
			So(p.HitDistanceAvg, ShouldEqual, 350)
			So(p.LaunchAngleAvg, ShouldEqual, 25)
		})
	})

	Convey("Given one matched record with an unparseable exit velocity", t, func() {
		recs := []dataset.EventRecord{
			{Title: "Jane Doe homers (1)", ExitVelocity: "95.0", HitDistance: "400", LaunchAngle: "25"},
			{Title: "Jane Doe homers (2)", ExitVelocity: "n/a", HitDistance: "380", LaunchAngle: "28"},
			{Title: "Jane Doe homers (3)", ExitVelocity: "99.0", HitDistance: "420", LaunchAngle: "31"},
		}

		Convey("Then only that average is poisoned to NaN", func() {
			p := profile.Aggregate("Jane Doe", recs)
			So(math.IsNaN(p.ExitVelocityAvg), ShouldBeTrue)
			So(p.HitDistanceAvg, ShouldEqual, 400)
			So(p.LaunchAngleAvg, ShouldEqual, 28)
		})
	})
}

func TestParseMetric(t *testing.T) {
	Convey("Given metric strings", t, func() {
		So(profile.ParseMetric("95.5"), ShouldEqual, 95.5)
		So(profile.ParseMetric(" 400 "), ShouldEqual, 400)
		So(profile.ParseMetric("-3"), ShouldEqual, -3)
		So(math.IsNaN(profile.ParseMetric("")), ShouldBeTrue)
		So(math.IsNaN(profile.ParseMetric("fast")), ShouldBeTrue)
		So(math.IsNaN(profile.ParseMetric("95 mph")), ShouldBeTrue)
	})
}
