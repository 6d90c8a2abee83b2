package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "resonance")
				So(manager.subsystem, ShouldEqual, "core")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names should carry the namespace and prefix", func() {
				manager.trainingsTotal.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_trainings_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "resonance")
				So(manager.subsystem, ShouldEqual, "core")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a training pass", func() {
			before := testutil.ToFloat64(globalManager.trainingsTotal)
			RecordTraining(12.5, 1000, 0.42)

			Convey("Then the counter and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.trainingsTotal), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.trainingSampleSize), ShouldEqual, 1000)
				So(testutil.ToFloat64(globalManager.trainingHeldOutR2), ShouldEqual, 0.42)
			})
		})

		Convey("When recording fallbacks by reason", func() {
			before := testutil.ToFloat64(globalManager.predictionFallbacks.WithLabelValues("model_unavailable"))
			RecordPredictionFallback("model_unavailable")
			RecordPredictionFallback("model_unavailable")

			Convey("Then the labelled counter should increase", func() {
				after := testutil.ToFloat64(globalManager.predictionFallbacks.WithLabelValues("model_unavailable"))
				So(after, ShouldEqual, before+2)
			})
		})

		Convey("When recording tier classifications", func() {
			before := testutil.ToFloat64(globalManager.tierClassifications.WithLabelValues("Global Icon"))
			RecordTierClassification("Global Icon")

			Convey("Then the tier counter should increase", func() {
				So(testutil.ToFloat64(globalManager.tierClassifications.WithLabelValues("Global Icon")), ShouldEqual, before+1)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordTrainingFailure()
					RecordDegenerateCorpus()
					RecordModelCacheHit()
					RecordModelCacheMiss()
					RecordModelCacheRetrain()
					UpdateModelCacheSize(3)
					RecordPrediction(71.2)
					RecordPredictionLatency(3.4)
					UpdateCalibrationModelR2("ridge", 0.7)
					UpdateCalibrationEnsembleR2(0.9)
					RecordGridEvaluation()
					UpdateQueueSize(4)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError("queue_full")
					RecordWorkerError()
					RecordWorkerProcessingLatency(0.2)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
					RecordHTTPRequest("resonance", "POST", "200")
					RecordHTTPRequestDuration("resonance", "POST", "200", 5)
					RecordErrorByEndpoint("tier", "POST", "client_error")
					RecordErrorByType("client_error", "medium")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordModelCacheHit()

		Convey("Then it should expose resonance metrics only", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "resonance_core_"), ShouldBeTrue)
			}
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.calibrationGridEvals)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordGridEvaluation()
			}()
		}
		wg.Wait()

		Convey("Then every increment should be counted", func() {
			So(testutil.ToFloat64(globalManager.calibrationGridEvals), ShouldEqual, before+50)
		})
	})
}
