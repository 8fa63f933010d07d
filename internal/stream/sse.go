// Package stream implements Server-Sent Events (SSE) streaming of field
// snapshots. Clients connect via GET /api/v1/stream/field and receive the
// latest rendered frame at a fixed interval.
//
// SSE message format:
//
//	data: {"type":"field","frame":42,"t":"2024-10-06T12:00:00.5Z","updated":8,"failed":0,"bodies":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","bodies":8,"interval_ms":500}\n\n
//
// A frame is sent only when it differs from the last one sent. Keep-alive
// comments (:\n\n) are sent every KeepaliveInterval of silence.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/star/debrisview/internal/debris"
	"github.com/star/debrisview/internal/metrics"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrent     int           // Max open streams (default: 4).
	Interval          time.Duration // Default send interval (default: 500ms).
	KeepaliveInterval time.Duration // Keep-alive ping interval (default: 30s).
}

// DefaultConfig returns the compiled-in stream settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:     4,
		Interval:          500 * time.Millisecond,
		KeepaliveInterval: 30 * time.Second,
	}
}

const (
	minIntervalMs = 50
	maxIntervalMs = 10000
)

// Handler manages SSE streaming connections.
type Handler struct {
	store  *debris.Store
	config Config
	slots  slots
	logger *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *debris.Store, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		config: config,
		slots:  newSlots(config.MaxConcurrent),
		logger: logger,
	}
}

// HandleField serves the SSE field stream.
// GET /api/v1/stream/field?interval_ms=500
func (h *Handler) HandleField(w http.ResponseWriter, r *http.Request) {
	interval := h.config.Interval
	if v := r.URL.Query().Get("interval_ms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minIntervalMs || n > maxIntervalMs {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid interval_ms parameter, must be %d-%d", minIntervalMs, maxIntervalMs))
			return
		}
		interval = time.Duration(n) * time.Millisecond
	}

	ip := clientIP(r)
	if !h.slots.tryAcquire() {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream limit reached",
			"remote_ip", ip,
			"open", h.slots.inUse(),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamsActive()
	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_ms", interval.Milliseconds(),
	)

	defer func() {
		h.slots.release()
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	c := newClient(w, h.logger)
	// The server's WriteTimeout would cut a long-lived stream.
	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}
	defer func() {
		h.logger.Debug("stream totals", "remote_ip", ip, "events", c.events, "bytes", c.bytes)
	}()

	// Jittered retry (3-7s) spreads reconnects after a restart.
	if err := c.retry(time.Duration(3000+rand.Intn(4000)) * time.Millisecond); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (retry)", "remote_ip", ip, "error", err)
		return
	}

	meta := metadataMessage{Type: "metadata", IntervalMs: interval.Milliseconds()}
	last := h.store.Get()
	if last != nil {
		meta.Bodies = len(last.Bodies)
	}
	if err := c.data(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}
	if last != nil {
		if err := c.data(newFieldMessage(last)); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			snap := h.store.Get()
			if snap == nil || snap == last {
				continue
			}
			last = snap

			if err := c.data(newFieldMessage(snap)); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.keepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SSE message payload types.

type metadataMessage struct {
	Type       string `json:"type"`
	Bodies     int    `json:"bodies"`
	IntervalMs int64  `json:"interval_ms"`
}

type fieldMessage struct {
	Type    string        `json:"type"`
	Frame   uint64        `json:"frame"`
	T       string        `json:"t"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Bodies  []bodyPayload `json:"bodies"`
}

type bodyPayload struct {
	I  int        `json:"i"`
	ID int        `json:"id"`
	P  [3]float32 `json:"p"`
}

func newFieldMessage(s *debris.Snapshot) fieldMessage {
	bodies := make([]bodyPayload, len(s.Bodies))
	for i, b := range s.Bodies {
		bodies[i] = bodyPayload{I: b.Index, ID: b.CatalogID, P: b.World}
	}
	return fieldMessage{
		Type:    "field",
		Frame:   s.Frame,
		T:       s.Time.UTC().Format(time.RFC3339Nano),
		Updated: s.Updated,
		Failed:  s.Failed,
		Bodies:  bodies,
	}
}
