package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/healthprobe"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

type fakeStatusProvider struct {
	opps     []types.Opportunity
	positions []types.PositionInFlight
	venues   []types.VenueHealth
}

func (f *fakeStatusProvider) Opportunities() []types.Opportunity       { return f.opps }
func (f *fakeStatusProvider) Positions() []types.PositionInFlight     { return f.positions }
func (f *fakeStatusProvider) VenueHealth() []types.VenueHealth        { return f.venues }

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "8080", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	if server == nil {
		t.Fatal("New() returned nil server")
	}
	if server.server == nil {
		t.Error("New() server.server is nil")
	}
	if server.logger != cfg.Logger {
		t.Error("New() logger not set correctly")
	}
}

func TestHealthEndpoint(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestReadyEndpoint(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		setReady       bool
		expectedStatus int
	}{
		{name: "ready_when_set", setReady: true, expectedStatus: http.StatusOK},
		{name: "not_ready_initially", setReady: false, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := healthprobe.New()
			if tt.setReady {
				hc.SetReady(true)
			}

			cfg := &Config{Port: "0", Logger: logger, HealthChecker: hc}
			server := New(cfg)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			server.server.Handler.ServeHTTP(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Ready endpoint status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Metrics endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics response body: %v", err)
	}
	if len(body) == 0 {
		t.Error("Metrics endpoint returned empty body")
	}
}

func TestOpportunitiesEndpoint(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	provider := &fakeStatusProvider{opps: []types.Opportunity{{Pair: types.MarketPair{ID: "pair-1"}, RawEdge: 0.05}}}

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker, Status: provider}
	server := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Opportunities endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []types.Opportunity
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Pair.ID != "pair-1" {
		t.Errorf("unexpected opportunities payload: %+v", got)
	}
}

func TestPositionsEndpoint_NotRegisteredWithoutProvider(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected route not registered without a status provider, got %d", resp.StatusCode)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Errorf("Start() returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}

func TestServer_RouteNotFound(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	cfg := &Config{Port: "0", Logger: logger, HealthChecker: healthChecker}
	server := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Non-existent route status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
