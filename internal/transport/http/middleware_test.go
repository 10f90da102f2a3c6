package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/holds", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, zap.New(core)).ServeHTTP(rec, req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" {
		t.Fatalf("expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/holds" {
		t.Fatalf("expected path /holds, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Fatalf("expected status 201, got %v", fields["status"])
	}
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, zap.New(core)).ServeHTTP(rec, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusOK) {
		t.Fatalf("expected default status 200 in log, got %v", got)
	}
}

type countingLimiter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[key]++
	return l.calls[key] <= limit
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	newHandler := func(limiter Limiter, limit int, trusted []netip.Prefix) http.Handler {
		return RateLimit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), limiter, "holds", limit, time.Minute, trusted)
	}
	send := func(handler http.Handler, remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/holds", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("limits per peer address", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(&countingLimiter{}, 2, nil)
		for i := 0; i < 2; i++ {
			if code := send(handler, "10.0.0.1:5000", ""); code != http.StatusNoContent {
				t.Fatalf("request %d: expected 204, got %d", i, code)
			}
		}
		if code := send(handler, "10.0.0.1:5001", ""); code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", code)
		}
		if code := send(handler, "10.0.0.2:5000", ""); code != http.StatusNoContent {
			t.Fatalf("expected other client to pass, got %d", code)
		}
	})

	t.Run("forwarded header from untrusted peer is ignored", func(t *testing.T) {
		t.Parallel()

		limiter := &countingLimiter{}
		handler := newHandler(limiter, 1, nil)
		allowed := 0
		for i := 0; i < 5; i++ {
			forwarded := fmt.Sprintf("198.51.100.%d", i+1)
			if send(handler, "203.0.113.9:4000", forwarded) == http.StatusNoContent {
				allowed++
			}
		}
		if allowed != 1 {
			t.Fatalf("expected 1 of 5 requests allowed, got %d", allowed)
		}
		if len(limiter.calls) != 1 || limiter.calls["holds:203.0.113.9"] != 5 {
			t.Fatalf("expected limiter keyed by peer address, got %v", limiter.calls)
		}
	})

	t.Run("trusted proxy forwards client address", func(t *testing.T) {
		t.Parallel()

		limiter := &countingLimiter{}
		trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
		handler := newHandler(limiter, 1, trusted)

		if code := send(handler, "10.0.0.1:5000", "198.51.100.1, 203.0.113.7, 10.0.0.5"); code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", code)
		}
		if _, ok := limiter.calls["holds:203.0.113.7"]; !ok {
			t.Fatalf("expected key from rightmost untrusted hop, got %v", limiter.calls)
		}
		if code := send(handler, "10.0.0.2:5000", "203.0.113.7"); code != http.StatusTooManyRequests {
			t.Fatalf("expected same client behind another proxy to be limited, got %d", code)
		}
		if code := send(handler, "10.0.0.1:5000", "not-an-ip"); code != http.StatusNoContent {
			t.Fatalf("expected malformed header to fall back to peer, got %d", code)
		}
		if _, ok := limiter.calls["holds:10.0.0.1"]; !ok {
			t.Fatalf("expected peer key for malformed header, got %v", limiter.calls)
		}
	})
}

func TestRateLimit_DisabledWithoutLimiter(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RateLimit(next, nil, "holds", 1, time.Minute, nil)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/holds", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}
}
