package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"wydatki/internal/log"
)

func newTestServer() *Server {
	logger := log.New(log.Config{Component: log.ComponentHTTP, Output: io.Discard})
	return NewServer(":0", Status{Backend: "memory", Pending: func() int { return 2 }}, logger)
}

func TestAlive(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Body.String() != "Bot is alive!" {
		t.Fatalf("body=%q", rr.Body.String())
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
}

func TestAliveHead(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/", nil))

	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer()

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Backend != "memory" || body.Pending != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer()

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != tc.want {
			t.Errorf("%s %s: status=%d want %d", tc.method, tc.path, rr.Code, tc.want)
		}
	}
}
