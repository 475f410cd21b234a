// Package livestream pushes document snapshots to a browser as
// Server-Sent Events. Each change-stream update becomes one "snapshot" event
// carrying the full JSON document.
package livestream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultHeartbeat is the interval of keep-alive comments.
const DefaultHeartbeat = 25 * time.Second

// WatchFunc blocks, calling emit for every new version of the document,
// until ctx is cancelled or an error occurs.
type WatchFunc[T any] func(ctx context.Context, emit func(T) error) error

// Stream writes events to one client.
type Stream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// Open prepares w for an event stream. It fails if w cannot flush.
func Open(w http.ResponseWriter) (*Stream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("livestream: response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &Stream{w: w, flusher: f}, nil
}

// Send writes one event with v encoded as JSON.
func (s *Stream) Send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Ping writes a comment line so proxies keep the connection open.
func (s *Stream) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Options tune Serve.
type Options struct {
	Heartbeat time.Duration
	Log       *zap.Logger
	// Resource names the stream in logs.
	Resource string
}

// Serve streams snapshots until the client goes away. If initial is non-nil
// it is sent first so the client renders immediately.
func Serve[T any](w http.ResponseWriter, r *http.Request, initial *T, watch WatchFunc[T], opts Options) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	every := opts.Heartbeat
	if every <= 0 {
		every = DefaultHeartbeat
	}

	s, err := Open(w)
	if err != nil {
		log.Error("live stream unavailable", zap.String("resource", opts.Resource), zap.Error(err))
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if initial != nil {
		if err := s.Send("snapshot", initial); err != nil {
			return
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.Ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	err = watch(ctx, func(v T) error { return s.Send("snapshot", v) })
	clientGone := ctx.Err() != nil
	cancel()
	wg.Wait()

	if err != nil && !clientGone {
		log.Warn("live stream ended", zap.String("resource", opts.Resource), zap.Error(err))
		_ = s.Send("error", map[string]string{"message": "stream interrupted"})
	}
}
