// Package sse implements the long-lived push side of the chat and notification
// streams. Each connection moves Open -> Streaming -> Closed: it writes a
// keepalive frame on open, then forwards mailbox values as `data:` frames and
// writes another keepalive whenever the mailbox stays idle for the keepalive
// interval. Serve returns only when the client goes away or a write fails.
package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"portalchat/internal/mailbox"
)

var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

// SetHeaders prepares w for an event stream.
func SetHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Serve streams mb to w until ctx is done or the transport fails.
// The caller owns the mailbox registration and must release it after Serve returns.
func Serve[T any](ctx context.Context, w http.ResponseWriter, mb *mailbox.Mailbox[T], keepalive time.Duration, ping T) error {
	if _, ok := w.(http.Flusher); !ok {
		return ErrStreamingUnsupported
	}
	rc := http.NewResponseController(w)
	// Long-lived: the server-wide write timeout must not cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	SetHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := writeFrame(w, rc, ping); err != nil {
		return err
	}

	for {
		v, ok, err := mb.Wait(ctx, keepalive)
		if err != nil {
			return nil
		}
		if !ok {
			v = ping
		}
		if err := writeFrame(w, rc, v); err != nil {
			return err
		}
	}
}

func writeFrame(w http.ResponseWriter, rc *http.ResponseController, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return rc.Flush()
}
