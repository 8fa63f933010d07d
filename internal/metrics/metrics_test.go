package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/field", "/api/v1/field"},
		{"/api/v1/field/3", "/api/v1/field/{index}"},
		{"/api/v1/field/", "other"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/api/v1/field/3/x", "other"},
		{"/", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRecordFieldUpdate(t *testing.T) {
	okBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues("error"))

	RecordFieldUpdate(2*time.Millisecond, 5, 2)

	if got := testutil.ToFloat64(propagationsTotal.WithLabelValues("ok")) - okBefore; got != 5 {
		t.Errorf("ok delta = %v, want 5", got)
	}
	if got := testutil.ToFloat64(propagationsTotal.WithLabelValues("error")) - errBefore; got != 2 {
		t.Errorf("error delta = %v, want 2", got)
	}
}

func TestGauges(t *testing.T) {
	SetTrackedBodies(42)
	if got := testutil.ToFloat64(trackedBodies); got != 42 {
		t.Errorf("tracked bodies = %v, want 42", got)
	}
	SetTimeScale(-60)
	if got := testutil.ToFloat64(timeScale); got != -60 {
		t.Errorf("time scale = %v, want -60", got)
	}
}

func TestRecordFrame(t *testing.T) {
	before := testutil.ToFloat64(framesTotal)
	RecordFrame(time.Millisecond)
	RecordFrame(time.Millisecond)
	if got := testutil.ToFloat64(framesTotal) - before; got != 2 {
		t.Errorf("frames delta = %v, want 2", got)
	}
}

// TestMiddlewareCardinality verifies that arbitrary paths produce a single
// "other" label.
func TestMiddlewareCardinality(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404"))
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/unknown/"+string(rune('a'+i)), nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404")) - before; got != 10 {
		t.Errorf("other/GET/404 delta = %v, want 10", got)
	}
}

func TestStreamMetrics(t *testing.T) {
	activeBefore := testutil.ToFloat64(streamsActive)
	IncStreamsActive()
	IncStreamsActive()
	DecStreamsActive()
	if got := testutil.ToFloat64(streamsActive) - activeBefore; got != 1 {
		t.Errorf("active delta = %v, want 1", got)
	}
	DecStreamsActive()

	bytesBefore := testutil.ToFloat64(streamBytesTotal)
	msgBefore := testutil.ToFloat64(streamMessagesTotal)
	IncStreamMessages()
	AddStreamBytes(128)
	if got := testutil.ToFloat64(streamBytesTotal) - bytesBefore; got != 128 {
		t.Errorf("bytes delta = %v, want 128", got)
	}
	if got := testutil.ToFloat64(streamMessagesTotal) - msgBefore; got != 1 {
		t.Errorf("messages delta = %v, want 1", got)
	}

	errBefore := testutil.ToFloat64(streamErrorsTotal.WithLabelValues("send_error"))
	IncStreamErrors("send_error")
	if got := testutil.ToFloat64(streamErrorsTotal.WithLabelValues("send_error")) - errBefore; got != 1 {
		t.Errorf("send_error delta = %v, want 1", got)
	}
}

func TestMiddlewareFlushes(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("wrapped writer does not implement http.Flusher")
		}
		w.Write([]byte("data: {}\n\n"))
		f.Flush()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stream/field", nil))
	if !rec.Flushed {
		t.Error("flush did not reach the underlying writer")
	}
}
