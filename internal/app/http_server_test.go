package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/greenlogist/internal/health"
	"github.com/vladislavdragonenkov/greenlogist/internal/version"
)

func TestMetricsMux_Endpoints(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "greenlogist_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer(newMetricsMux(healthcheck.NewHandler(version.GetVersion()), registry))
	defer srv.Close()

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/metrics", wantCode: http.StatusOK, wantBody: "greenlogist_test_total 1"},
		{path: "/healthz", wantCode: http.StatusOK, wantBody: `"status":"healthy"`},
		{path: "/livez", wantCode: http.StatusOK, wantBody: "ok"},
		{path: "/readyz", wantCode: http.StatusOK, wantBody: "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("failed to get %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantCode {
				t.Errorf("expected status %d for %s, got %d", tt.wantCode, tt.path, resp.StatusCode)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("expected %s body to contain %q, got %q", tt.path, tt.wantBody, string(body))
			}
		})
	}
}

func TestMetricsMux_ReadinessFailsOnUnhealthyStorage(t *testing.T) {
	handler := healthcheck.NewHandler(version.GetVersion())
	handler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))

	srv := httptest.NewServer(newMetricsMux(handler, prometheus.NewRegistry()))
	defer srv.Close()

	for _, path := range []string{"/readyz", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("failed to get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503 for %s, got %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/livez")
	if err != nil {
		t.Fatalf("failed to get /livez: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("liveness must not depend on storage, got %d", resp.StatusCode)
	}
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")

	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())

	srv := startMetricsServer(ctx, addr, logger, healthcheck.NewHandler(version.GetVersion()), prometheus.NewRegistry())
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}

	url := fmt.Sprintf("http://%s/livez", addr)
	waitForHTTP(t, url)

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err != nil {
			return
		}
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server should be stopped after context cancellation")
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

func TestServeHTTP_ShutdownIsNotAnError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: http.NewServeMux(), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serveHTTP(srv, lis) }()

	waitForHTTP(t, "http://"+lis.Addr().String()+"/")
	shutdownHTTP(srv, log.WithField("test", "serve-http"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveHTTP did not return after shutdown")
	}
}

// waitForHTTP ждёт, пока сервер начнёт принимать соединения.
func waitForHTTP(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s did not start", url)
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
