package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a gauge is set", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))
			manager.datasetRows.Set(3)

			Convey("Then metric names use the dinger_core prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool)
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["dinger_core_dataset_rows"], ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When updating the dataset shape", func() {
			UpdateDatasetShape(120, 14, 2)

			Convey("Then the gauges reflect it", func() {
				So(testutil.ToFloat64(globalManager.datasetRows), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.datasetPlayers), ShouldEqual, 14)
				So(testutil.ToFloat64(globalManager.datasetDropped), ShouldEqual, 2)
			})
		})

		Convey("When recording loads and failures", func() {
			loads := testutil.ToFloat64(globalManager.datasetLoads)
			failures := testutil.ToFloat64(globalManager.datasetLoadErrors)
			RecordDatasetLoad(12.5)
			RecordDatasetLoadError()

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.datasetLoads), ShouldEqual, loads+1)
				So(testutil.ToFloat64(globalManager.datasetLoadErrors), ShouldEqual, failures+1)
			})
		})

		Convey("When recording media picks", func() {
			hits := testutil.ToFloat64(globalManager.mediaPicks.WithLabelValues("hit"))
			empties := testutil.ToFloat64(globalManager.mediaPicks.WithLabelValues("empty"))
			RecordMediaPick(true)
			RecordMediaPick(false)
			RecordMediaPick(false)

			Convey("Then outcomes are labelled", func() {
				So(testutil.ToFloat64(globalManager.mediaPicks.WithLabelValues("hit")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.mediaPicks.WithLabelValues("empty")), ShouldEqual, empties+2)
			})
		})

		Convey("When recording digest and http activity", func() {
			So(func() {
				RecordProfileComputation(4)
				RecordRanking(1.5, 30)
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueRejected("full")
				RecordDigestBuilt(4)
				RecordDigestFailed()
				RecordDigestDuplicate()
				UpdateWorkerCount(2)
				UpdateDigestStoreLength(7)
				RecordHTTPRequest("profile", "GET", "200")
				RecordHTTPRequestDuration("profile", "GET", "200", 3)
				RecordErrorByEndpoint("similar", "GET", "client_error")
				RecordErrorByType("client_error", "medium")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.digestStoreLength), ShouldEqual, 7)
			})
		})

		Convey("When asking for the registry", func() {
			Convey("Then the custom registry is returned", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
