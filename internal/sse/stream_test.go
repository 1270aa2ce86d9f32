package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalchat/internal/mailbox"
)

type frame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var ping = frame{Type: "ping"}

func startStream(t *testing.T, mb *mailbox.Mailbox[frame], keepalive time.Duration) (*bufio.Reader, context.CancelFunc, <-chan error) {
	t.Helper()
	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- Serve(r.Context(), w, mb, keepalive, ping)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))
	return bufio.NewReader(resp.Body), cancel, done
}

func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServe_PingThenData(t *testing.T) {
	mb := mailbox.New[frame](4)
	r, cancel, _ := startStream(t, mb, time.Minute)
	defer cancel()

	assert.JSONEq(t, `{"type":"ping"}`, readData(t, r))

	mb.Offer(frame{Type: "msg", Text: "hola"})
	assert.JSONEq(t, `{"type":"msg","text":"hola"}`, readData(t, r))
}

func TestServe_KeepaliveOnIdle(t *testing.T) {
	mb := mailbox.New[frame](4)
	r, cancel, _ := startStream(t, mb, 20*time.Millisecond)
	defer cancel()

	assert.JSONEq(t, `{"type":"ping"}`, readData(t, r))
	assert.JSONEq(t, `{"type":"ping"}`, readData(t, r), "idle stream must emit keepalive")

	mb.Offer(frame{Type: "kick"})
	for {
		data := readData(t, r)
		if data != `{"type":"ping"}` {
			assert.JSONEq(t, `{"type":"kick"}`, data)
			break
		}
	}
}

func TestServe_ReturnsOnClientDisconnect(t *testing.T) {
	mb := mailbox.New[frame](4)
	r, cancel, done := startStream(t, mb, time.Minute)
	readData(t, r)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after the client disconnected")
	}
}

type noFlushWriter struct{ http.ResponseWriter }

func TestServe_RequiresFlusher(t *testing.T) {
	mb := mailbox.New[frame](1)
	rec := httptest.NewRecorder()

	err := Serve(context.Background(), noFlushWriter{rec}, mb, time.Second, ping)
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
