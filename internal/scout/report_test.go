package scout

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/okian/dinger/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReports(t *testing.T) {
	Convey("Given report writers", t, func() {
		var buf bytes.Buffer

		Convey("When a profile has a poisoned metric", func() {
			PrintProfile(&buf, types.Profile{
				Name:            "Bo Kim",
				ExitVelocityAvg: types.Metric(math.NaN()),
				HitDistanceAvg:  401,
				LaunchAngleAvg:  27.25,
				SampleSize:      3,
			})

			Convey("Then it renders as n/a next to the other averages", func() {
				So(buf.String(), ShouldContainSubstring, "Bo Kim")
				So(buf.String(), ShouldContainSubstring, "n/a")
				So(buf.String(), ShouldContainSubstring, "401.00")
				So(buf.String(), ShouldContainSubstring, "27.25")
			})
		})

		Convey("When neighbors are printed", func() {
			PrintNeighbors(&buf, []types.Neighbor{
				{Rank: 1, Profile: types.Profile{Name: "Mark Lee", SampleSize: 1}, Distance: 20.6},
				{Rank: 2, Profile: types.Profile{Name: "Ana Ruiz", SampleSize: 2}, Distance: 31},
			})

			Convey("Then each rank has a row", func() {
				So(buf.String(), ShouldContainSubstring, "Mark Lee")
				So(buf.String(), ShouldContainSubstring, "Ana Ruiz")
				So(buf.String(), ShouldContainSubstring, "20.60")
			})
		})

		Convey("When clips and load stats are printed", func() {
			PrintClips(&buf, types.MediaList{Player: "Jane Doe", Clips: []string{"https://clips.test/v1.mp4"}})
			PrintLoadStats(&buf, Stats{Submitted: 4, Accepted: 3, Duplicate: 1, Ready: 3, Duration: 1500 * time.Millisecond})

			Convey("Then both tables are written", func() {
				So(buf.String(), ShouldContainSubstring, "https://clips.test/v1.mp4")
				So(buf.String(), ShouldContainSubstring, "1.5s")
			})
		})
	})
}
