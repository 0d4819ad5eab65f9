package metrics

import (
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

			Convey("Then it should be created with proxy defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "wordstat")
				So(manager.subsystem, ShouldEqual, "proxy")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("edge"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordDispatch("seasonality", "success")

			Convey("Then metric names and labels should reflect the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_edge_dispatches_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "action")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})
		})

		Convey("When creating with empty or nil options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithMetricPrefix(""),
				WithLatencyBuckets(nil),
				WithRefreshInterval(0),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "wordstat")
				So(manager.subsystem, ShouldEqual, "proxy")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given an isolated manager", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording dispatches", func() {
			manager.RecordDispatch("seo_keywords", "success")
			manager.RecordDispatch("seo_keywords", "success")
			manager.RecordDispatch("seasonality", "error")

			Convey("Then counters should be split by action and status", func() {
				So(testutil.ToFloat64(manager.dispatches.WithLabelValues("seo_keywords", "success")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.dispatches.WithLabelValues("seasonality", "error")), ShouldEqual, 1)
			})
		})

		Convey("When recording upstream calls", func() {
			manager.RecordUpstreamRequest("topRequests", "ok", 12)
			manager.RecordUpstreamRequest("topRequests", "status_error", 30)

			Convey("Then the outcome counter and latency histogram should be updated", func() {
				So(testutil.ToFloat64(manager.upstreamRequests.WithLabelValues("topRequests", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.upstreamRequests.WithLabelValues("topRequests", "status_error")), ShouldEqual, 1)
				So(testutil.CollectAndCount(manager.upstreamLatency), ShouldEqual, 1)
			})
		})

		Convey("When recording HTTP requests and errors", func() {
			manager.RecordHTTPRequest("dispatch", "POST", "200", 4)
			manager.RecordHTTPError("dispatch", "POST", "client_error", "medium", 2)

			Convey("Then both families should be populated", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("dispatch", "POST", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByEndpoint.WithLabelValues("dispatch", "POST", "client_error")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("client_error", "medium")), ShouldEqual, 1)
			})
		})

		Convey("When the manager is disabled", func() {
			disabled := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			disabled.RecordDispatch("seasonality", "success")
			disabled.RecordUpstreamRequest("dynamics", "ok", 1)

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(disabled.dispatches.WithLabelValues("seasonality", "success")), ShouldEqual, 0)
				So(testutil.ToFloat64(disabled.upstreamRequests.WithLabelValues("dynamics", "ok")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through package functions", func() {
			So(func() {
				RecordDispatch("seasonality", "success")
				RecordUpstreamRequest("dynamics", "ok", 10)
				RecordHTTPRequest("dispatch", "POST", "200", 3)
				RecordHTTPError("dispatch", "POST", "client_error", "medium", 1)
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)

			Convey("Then the custom registry should expose them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool, len(families))
				for _, mf := range families {
					names[mf.GetName()] = true
				}
				So(names["wordstat_proxy_dispatches_total"], ShouldBeTrue)
				So(names["wordstat_proxy_upstream_requests_total"], ShouldBeTrue)
				So(names["wordstat_proxy_http_requests_total"], ShouldBeTrue)
				So(names["wordstat_proxy_system_goroutine_count"], ShouldBeTrue)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given the default global manager", t, func() {
		before := GetRegistry()
		defer Init()

		Convey("When Init is called with configured options", func() {
			m := Init(
				WithNamespace("seo"),
				WithSubsystem("edge"),
				WithConstLabels(map[string]string{"region": "eu"}),
				WithRefreshInterval(3*time.Second),
			)
			RecordDispatch("seasonality", "success")

			Convey("Then a fresh registry should carry the new names", func() {
				So(GetRegistry(), ShouldNotEqual, before)
				So(m.registry, ShouldEqual, GetRegistry())
				So(RefreshInterval(), ShouldEqual, 3*time.Second)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					So(mf.GetName(), ShouldNotStartWith, "wordstat_")
					if mf.GetName() == "seo_edge_dispatches_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[1].GetName(), ShouldEqual, "region")
						So(mf.GetMetric()[0].GetLabel()[1].GetValue(), ShouldEqual, "eu")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When Init is called with recording disabled", func() {
			m := Init(WithMetricsEnabled(false))
			RecordDispatch("seo_keywords", "success")

			Convey("Then the package functions should record nothing", func() {
				So(testutil.ToFloat64(m.dispatches.WithLabelValues("seo_keywords", "success")), ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)
			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						manager.RecordDispatch("seo_keywords", "success")
						manager.RecordHTTPRequest("dispatch", "POST", "200", float64(j))
					}
					done <- true
				}()
			}
			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then every increment should be counted", func() {
				So(testutil.ToFloat64(manager.dispatches.WithLabelValues("seo_keywords", "success")), ShouldEqual, 1000)
			})
		})
	})
}
