package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "eventdraw")
				So(manager.subsystem, ShouldEqual, "selector")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("games"),
				WithSubsystem("draws"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.itemsSelected.Add(3)

			Convey("Then metric names use the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "games_draws_items_selected_total")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2, 3})
			})
		})

		Convey("When options receive empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "eventdraw")
				So(manager.subsystem, ShouldEqual, "selector")
				So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})
	})
}

func TestSelectionMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a full round is recorded", func() {
			before := testutil.ToFloat64(globalManager.exhaustedRounds)
			beforeItems := testutil.ToFloat64(globalManager.itemsSelected)
			RecordRound("balanced", 2, 4, 2, 0.3)

			Convey("Then a short round counts as exhausted", func() {
				So(testutil.ToFloat64(globalManager.exhaustedRounds), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.itemsSelected), ShouldEqual, beforeItems+2)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateRoundStats(42.5, 7)
			UpdateActiveSessions(3)
			UpdateJournalQueueSize(5)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.repeatRate), ShouldEqual, 42.5)
				So(testutil.ToFloat64(globalManager.uniqueItems), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.journalQueueSize), ShouldEqual, 5)
			})
		})

		Convey("When counters are recorded", func() {
			So(func() {
				RecordInvalidDraw("empty_pool")
				RecordWeightAdjustment()
				RecordSeverePenalty()
				RecordStrategyChange("aggressive")
				RecordUnknownStrategy()
				RecordReset()
				RecordWeightInitialization()
				RecordSessionCreated()
				RecordSessionDeleted()
				RecordSessionExpired()
				RecordJournalWrite()
				RecordJournalError()
				RecordJournalDropped()
				RecordJournalWriteLatency(0.8)
				RecordHTTPRequest("/sessions", "POST", "201")
				RecordHTTPRequestDuration("/sessions", "POST", "201", 1.5)
				RecordErrorByEndpoint("/sessions", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry exposes the metrics", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
