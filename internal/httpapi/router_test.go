package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler, path string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s body: %v", path, err)
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	h := NewRouter(pingerFunc(func(context.Context) error { return errors.New("down") }), zap.NewNop())

	code, body := get(t, h, "/healthz")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("liveness must not depend on the db: %d %v", code, body)
	}
}

func TestReadyz(t *testing.T) {
	up := NewRouter(pingerFunc(func(context.Context) error { return nil }), zap.NewNop())
	if code, body := get(t, up, "/readyz"); code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected ready, got %d %v", code, body)
	}

	down := NewRouter(pingerFunc(func(context.Context) error { return errors.New("connection refused") }), zap.NewNop())
	code, body := get(t, down, "/readyz")
	if code != http.StatusServiceUnavailable || body["error"] != "connection refused" {
		t.Fatalf("expected 503, got %d %v", code, body)
	}
}
