package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codefill/internal/platform/config"
	phttp "codefill/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestNewServer_Defaults(t *testing.T) {
	t.Setenv("API_ADDR", "")
	srv := phttp.NewServer(config.New())
	if srv.Addr() != "127.0.0.1:4000" {
		t.Fatalf("addr = %q", srv.Addr())
	}
	r := srv.Router()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("bad response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewServer_AddrFromPrefixedEnv(t *testing.T) {
	t.Setenv("CODEFILL_API_ADDR", "127.0.0.1:4317")
	srv := phttp.NewServer(config.New().Prefix("CODEFILL_"))
	if srv.Addr() != "127.0.0.1:4317" {
		t.Fatalf("addr = %q", srv.Addr())
	}
}

func TestNewServer_Options(t *testing.T) {
	called := false
	phttp.NewServer(config.New(), func(*chi.Mux) { called = true })
	if !called {
		t.Fatalf("option not applied")
	}
}

func TestServer_ShutdownEndsRun(t *testing.T) {
	t.Setenv("API_ADDR", "127.0.0.1:0")
	srv := phttp.NewServer(config.New())

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Shutdown")
	}
}

func TestServer_Run_ReturnsListenError(t *testing.T) {
	t.Setenv("API_ADDR", "127.0.0.1:abc")
	if err := phttp.NewServer(config.New()).Run(context.Background()); err == nil {
		t.Fatalf("expected a listen error")
	}
}

func TestServer_Run_StopsWhenContextEnds(t *testing.T) {
	t.Setenv("API_ADDR", "127.0.0.1:0")
	srv := phttp.NewServer(config.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
