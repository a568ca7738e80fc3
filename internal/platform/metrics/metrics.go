// Package metrics exposes Prometheus counters for the admission lifecycle and
// a latency histogram for the HTTP surface. Everything hangs off a Registry
// struct so tests can build an isolated instance.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Admissions      prometheus.Counter
	BedTransfers    prometheus.Counter
	DoctorTransfers prometheus.Counter
	Discharges      *prometheus.CounterVec
	Conflicts       *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.Admissions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipd_admissions_total",
		Help: "Number of inpatient admissions.",
	})
	r.BedTransfers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipd_bed_transfers_total",
		Help: "Number of bed-to-bed transfers.",
	})
	r.DoctorTransfers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipd_doctor_transfers_total",
		Help: "Number of attending doctor changes.",
	})
	r.Discharges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipd_discharges_total",
		Help: "Number of encounter closures by discharge type.",
	}, []string{"type"})
	r.Conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipd_bed_conflicts_total",
		Help: "Number of bed claims lost to a concurrent writer.",
	}, []string{"operation"})
	r.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ipd_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	r.reg.MustRegister(
		r.Admissions,
		r.BedTransfers,
		r.DoctorTransfers,
		r.Discharges,
		r.Conflicts,
		r.RequestDuration,
	)
	return r
}

// Handler returns the /metrics exposition handler for this registry.
func (r *Registry) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}

// Middleware observes request latency. Path is the registered route pattern,
// not the raw URL, to keep cardinality bounded.
func (r *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			r.RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
