package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poselink/poselink/internal/bridge"
	"github.com/poselink/poselink/internal/events"
	"github.com/poselink/poselink/internal/publisher"
)

func newTestServer(t *testing.T, opts *Options) *Server {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.EventBus == nil {
		opts.EventBus = events.New()
	}
	if opts.Bridge == nil {
		opts.Bridge = bridge.New(bridge.Options{Publisher: publisher.NewLogPublisher(nil)})
	}
	return NewServer(opts)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Status = %q, want ok", body.Status)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, &Options{
		ListenerState: func() ListenerState {
			return ListenerState{Status: "Receiving", Endpoint: "0.0.0.0:54321"}
		},
		NATSConnected: func() bool { return true },
		Uptime:        func() string { return "5m0s" },
	})

	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		ListenerStatus string `json:"listener_status"`
		Endpoint       string `json:"endpoint"`
		Source         string `json:"source"`
		SubjectCount   int    `json:"subject_count"`
		NATSConnected  bool   `json:"nats_connected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.ListenerStatus != "Receiving" {
		t.Errorf("ListenerStatus = %q, want Receiving", body.ListenerStatus)
	}
	if body.Endpoint != "0.0.0.0:54321" {
		t.Errorf("Endpoint = %q", body.Endpoint)
	}
	if body.Source == "" {
		t.Error("Source should be populated from the bridge")
	}
	if !body.NATSConnected {
		t.Error("NATSConnected should be true")
	}
}

func TestSubjectsEndpointEmpty(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var body struct {
		Subjects []any `json:"subjects"`
		Count    int   `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Count != 0 || len(body.Subjects) != 0 {
		t.Errorf("Expected empty subject list, got %+v", body)
	}
}

func TestBasicAuthRequired(t *testing.T) {
	srv := newTestServer(t, &Options{
		AuthUsername: "operator",
		AuthPassword: "secret",
	})

	// Health is unauthenticated.
	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Health status = %d, want 200", rec.Code)
	}

	// Status requires credentials.
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Unauthenticated status = %d, want 401", rec.Code)
	}

	// Valid credentials pass.
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("operator", "secret")
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Authenticated status = %d, want 200", rec.Code)
	}

	// Wrong password is rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("operator", "wrong")
	rec = httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Bad credentials status = %d, want 401", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/status", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Missing CORS allow-origin header")
	}
}
