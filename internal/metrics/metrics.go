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
	trackedBodies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "debris_tracked_bodies",
			Help: "Number of bodies in the debris field.",
		},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debris_propagations_total",
			Help: "Total per-body propagations by result.",
		},
		[]string{"result"},
	)

	fieldUpdateSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "debris_field_update_duration_seconds",
			Help:    "Time to propagate the whole field for one frame.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)

	framesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "debris_frames_total",
			Help: "Total rendered frames.",
		},
	)

	frameSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "debris_frame_duration_seconds",
			Help:    "Wall time spent producing one frame.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	timeScale = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "debris_time_scale",
			Help: "Simulated seconds per wall-clock second.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "debris_streams_active",
			Help: "Open field streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "debris_stream_messages_total",
			Help: "Total stream messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "debris_stream_bytes_total",
			Help: "Total bytes written to field streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debris_stream_errors_total",
			Help: "Total stream errors by reason.",
		},
		[]string{"reason"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debris_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debris_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(trackedBodies)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(fieldUpdateSeconds)
	prometheus.MustRegister(framesTotal)
	prometheus.MustRegister(frameSeconds)
	prometheus.MustRegister(timeScale)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
	prometheus.MustRegister(streamErrorsTotal)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
}

// SetTrackedBodies records the field size.
func SetTrackedBodies(n int) {
	trackedBodies.Set(float64(n))
}

// SetTimeScale records the clock's current time scale.
func SetTimeScale(s float64) {
	timeScale.Set(s)
}

// RecordFieldUpdate records one field update.
func RecordFieldUpdate(d time.Duration, updated, failed int) {
	fieldUpdateSeconds.Observe(d.Seconds())
	propagationsTotal.WithLabelValues("ok").Add(float64(updated))
	propagationsTotal.WithLabelValues("error").Add(float64(failed))
}

// RecordFrame records one rendered frame.
func RecordFrame(d time.Duration) {
	framesTotal.Inc()
	frameSeconds.Observe(d.Seconds())
}

// IncStreamsActive records an opened stream.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive records a closed stream.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages counts one sent stream message.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes counts bytes written to a stream.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors counts a stream error. reason is one of a fixed set.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the only path labels recorded; anything else is "other".
var knownRoutes = map[string]bool{
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/field":        true,
	"/api/v1/stream/field": true,
}

// normalizeRoute bounds label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/field/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/field/{index}"
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

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
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
