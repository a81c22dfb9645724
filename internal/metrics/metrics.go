package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchcalc_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchcalc_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	solveDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchcalc_solve_duration_seconds",
			Help:    "Duration of a single fixpoint solve.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	solveSweeps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchcalc_solver_sweeps",
			Help:    "Number of catalogue sweeps per solve, including the final quiet sweep.",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
	)

	solveFirings = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchcalc_solver_firings",
			Help:    "Number of rule firings per solve.",
			Buckets: prometheus.LinearBuckets(0, 4, 8),
		},
	)

	ruleFiringsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchcalc_rule_firings_total",
			Help: "Total rule firings by rule label.",
		},
		[]string{"rule"},
	)

	tleDatasetSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchcalc_tle_dataset_size",
			Help: "Number of satellites in the loaded TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchcalc_tle_dataset_age_seconds",
			Help: "Seconds since the TLE dataset was loaded.",
		},
	)

	visibilityDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchcalc_visibility_duration_seconds",
			Help:    "Duration of a visibility sweep over the TLE dataset.",
			Buckets: prometheus.DefBuckets,
		},
	)

	visibilityErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchcalc_visibility_propagation_errors_total",
			Help: "Satellites skipped because SGP4 propagation failed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		solveDurationSeconds,
		solveSweeps,
		solveFirings,
		ruleFiringsTotal,
		tleDatasetSize,
		tleDatasetAgeSeconds,
		visibilityDurationSeconds,
		visibilityErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSolve records the duration and size of one solve.
func RecordSolve(d time.Duration, sweeps, firings int) {
	solveDurationSeconds.Observe(d.Seconds())
	solveSweeps.Observe(float64(sweeps))
	solveFirings.Observe(float64(firings))
}

// IncRuleFiring counts one firing of the rule with the given label.
func IncRuleFiring(rule string) {
	ruleFiringsTotal.WithLabelValues(rule).Inc()
}

// SetTLEDatasetSize sets the loaded satellite count.
func SetTLEDatasetSize(n int) {
	tleDatasetSize.Set(float64(n))
}

// SetTLEDatasetAge sets the dataset age gauge.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// RecordVisibility records one visibility sweep.
func RecordVisibility(d time.Duration, errors int) {
	visibilityDurationSeconds.Observe(d.Seconds())
	visibilityErrorsTotal.Add(float64(errors))
}

// knownRoutes are exact paths reported as their own label.
var knownRoutes = map[string]bool{
	"/":                          true,
	"/healthz":                   true,
	"/readyz":                    true,
	"/metrics":                   true,
	"/calculate":                 true,
	"/api/v1/calculate":          true,
	"/api/v1/transfer":           true,
	"/api/v1/satellites/visible": true,
	"/api/v1/tle/metadata":       true,
	"/api/v1/tle/reload":         true,
}

// normalizeRoute maps a request path to a bounded set of metric labels.
// Per-satellite routes collapse to one label and unknown paths become "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/satellites/"); ok {
		for _, leaf := range []string{"elements", "passes"} {
			if id, ok := strings.CutSuffix(rest, "/"+leaf); ok && id != "" && !strings.Contains(id, "/") {
				return "/api/v1/satellites/{norad_id}/" + leaf
			}
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
