package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/debrisview/internal/metrics"
)

// writeTimeout bounds each event write.
const writeTimeout = 30 * time.Second

// client writes SSE events to one connection.
type client struct {
	w      io.Writer
	rc     *http.ResponseController
	logger *slog.Logger

	events int64
	bytes  int64
}

func newClient(w http.ResponseWriter, logger *slog.Logger) *client {
	return &client{w: w, rc: http.NewResponseController(w), logger: logger}
}

// event writes one raw SSE block and flushes it.
func (c *client) event(block string) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}
	n, err := io.WriteString(c.w, block)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := c.rc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	c.bytes += int64(n)
	metrics.AddStreamBytes(int64(n))
	return nil
}

// data sends v as a "data:" event.
func (c *client) data(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := c.event("data: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	c.events++
	metrics.IncStreamMessages()
	return nil
}

// keepalive sends an empty SSE comment.
func (c *client) keepalive() error {
	return c.event(":\n\n")
}

// retry tells the browser how long to wait before reconnecting.
func (c *client) retry(d time.Duration) error {
	return c.event(fmt.Sprintf("retry: %d\n\n", d.Milliseconds()))
}
