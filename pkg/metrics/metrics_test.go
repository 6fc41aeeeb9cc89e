package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording import metrics", func() {
			Convey("Then it should record imported races", func() {
				So(func() {
					RecordRaceImported()
					RecordRaceImported()
				}, ShouldNotPanic)
			})

			Convey("And it should record imported results", func() {
				So(func() {
					RecordResultsImported(25)
					RecordResultsImported(0)
				}, ShouldNotPanic)
			})

			Convey("And it should record import errors", func() {
				So(func() {
					RecordImportError()
				}, ShouldNotPanic)
			})

			Convey("And it should record rating updates", func() {
				So(func() {
					RecordRatingUpdate()
					RecordRatingUpdate()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording resolution metrics", func() {
			Convey("Then it should record outcomes", func() {
				So(func() {
					RecordResolution("perfect")
					RecordResolution("confirmed")
					RecordResolution("new_entity")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording simulation metrics", func() {
			Convey("Then it should record runs and durations", func() {
				So(func() {
					RecordSimulation(120.5)
					RecordSimulation(0.0)
					RecordSimulation(30000.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When updating roster gauges", func() {
			Convey("Then it should accept any values", func() {
				So(func() {
					SetTeamCount(0)
					SetTeamCount(150)
					SetRunnerCount(2500)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record HTTP requests", func() {
				So(func() {
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequest("/races", "POST", "202")
					RecordHTTPRequest("/rankings", "GET", "200")
				}, ShouldNotPanic)
			})

			Convey("And it should record HTTP request duration", func() {
				So(func() {
					RecordHTTPRequestDuration("/healthz", "GET", "200", 5.0)
					RecordHTTPRequestDuration("/rankings", "GET", "200", 15.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording error metrics", func() {
			Convey("Then it should record errors by component", func() {
				So(func() {
					RecordErrorByComponent("import", "malformed_time")
					RecordErrorByComponent("simulation", "invalid_trials")
					RecordErrorByComponent("", "")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordRatingUpdate()
						SetRunnerCount(float64(j))
						RecordSimulation(float64(j))
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsOptionsValidation(t *testing.T) {
	Convey("Given metrics options validation", t, func() {
		Convey("When creating with empty or zero option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should hold and creation should succeed", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}
