package scout

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := GenerateConfig{Players: 4, Events: 10, Seed: 42}

		Convey("When generating twice with the same seed", func() {
			var a, b bytes.Buffer
			So(Generate(&a, cfg), ShouldBeNil)
			So(Generate(&b, cfg), ShouldBeNil)

			Convey("Then the output is identical", func() {
				So(a.String(), ShouldEqual, b.String())
			})

			Convey("Then it parses as a dataset with every row attributed", func() {
				ds, err := dataset.Parse(&a)
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 10)
				So(ds.Dropped(), ShouldEqual, 0)
				So(len(ds.Names()), ShouldEqual, 4)
				So(ds.Records()[0].Video, ShouldStartWith, "https://clips.dinger.test/")
			})

			Convey("Then homer counters increase per player", func() {
				ds, _ := dataset.Parse(strings.NewReader(a.String()))
				So(ds.Records()[0].Title, ShouldContainSubstring, "homers (1)")
				So(ds.Records()[4].Title, ShouldContainSubstring, "homers (2)")
			})

			Convey("Then every metric is numeric", func() {
				ds, _ := dataset.Parse(strings.NewReader(a.String()))
				for _, name := range ds.Names() {
					p := profile.ForDataset(name, ds)
					So(p.ExitVelocityAvg, ShouldBeBetweenOrEqual, exitVeloMin, exitVeloMin+exitVeloRange)
					So(p.HitDistanceAvg, ShouldBeBetweenOrEqual, distanceMin, distanceMin+distanceRange)
					So(p.LaunchAngleAvg, ShouldBeBetweenOrEqual, angleMin, angleMin+angleRange)
				}
			})
		})

		Convey("When another seed is used", func() {
			var a, b bytes.Buffer
			So(Generate(&a, cfg), ShouldBeNil)
			cfg.Seed = 43
			So(Generate(&b, cfg), ShouldBeNil)

			Convey("Then the output differs", func() {
				So(a.String(), ShouldNotEqual, b.String())
			})
		})

		Convey("When counts are not positive", func() {
			err := Generate(&bytes.Buffer{}, GenerateConfig{Players: 0, Events: 5})
			So(errors.Is(err, ErrInvalidCount), ShouldBeTrue)
		})
	})
}

func TestPlayerNames(t *testing.T) {
	Convey("Given more players than the name grid holds", t, func() {
		names := playerNames(len(firstNames)*len(lastNames)*28 + 3)

		Convey("Then names are distinct and none prefixes another", func() {
			seen := make(map[string]bool, len(names))
			dup, prefixed := 0, 0
			for _, n := range names {
				if seen[n] {
					dup++
				}
				seen[n] = true
			}
			for _, n := range names[:200] {
				for _, m := range names {
					if n != m && strings.HasPrefix(m, n) {
						prefixed++
					}
				}
			}
			So(dup, ShouldEqual, 0)
			So(prefixed, ShouldEqual, 0)
		})
	})
}
