package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stewardbot/steward/internal/dispatch"
	"github.com/stewardbot/steward/internal/pipeline"
	"github.com/stewardbot/steward/internal/platform"
)

type stubCompleter struct {
	response string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubCompleter) Ping(ctx context.Context) error { return nil }

func testServer(t *testing.T, completion string) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	host := platform.Info{Family: platform.POSIX, HomeDir: t.TempDir(), Shell: "sh"}
	pipe := pipeline.New(&stubCompleter{response: completion}, &dispatch.Providers{}, host, nil, logger)
	return NewServer("", 0, pipe, nil, logger)
}

func TestHandleCommand(t *testing.T) {
	s := testServer(t, `{"intent": "exit", "entities": {}}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader(`{"command": "goodbye"}`))
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp CommandResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != dispatch.Sentinel {
		t.Errorf("response = %q, want sentinel", resp.Response)
	}
	if !resp.OK || resp.Intent != "exit" {
		t.Errorf("got %+v", resp)
	}
}

func TestHandleCommand_HTML(t *testing.T) {
	s := testServer(t, `{"intent": "exit", "entities": {}}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader(`{"command": "goodbye", "html": true}`))
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)

	var resp CommandResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != dispatch.Sentinel {
		t.Errorf("response = %q, want sentinel", resp.Response)
	}
	if !strings.Contains(resp.HTML, "Goodbye!") {
		t.Errorf("html = %q, want rendered response", resp.HTML)
	}
}

func TestHandleCommand_BadBody(t *testing.T) {
	s := testServer(t, "{}")

	req := httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCommand_MissingCommand(t *testing.T) {
	s := testServer(t, "{}")

	req := httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, "{}")

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	s := testServer(t, "{}")

	rec := httptest.NewRecorder()
	s.handleVersion(rec, httptest.NewRequest(http.MethodGet, "/v1/version", nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["version"] == "" {
		t.Error("version field missing")
	}
}

func TestHandleHistory_Disabled(t *testing.T) {
	s := testServer(t, "{}")

	rec := httptest.NewRecorder()
	s.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", rec.Code)
	}
}

func TestHandleHistory_BadLimit(t *testing.T) {
	s := testServer(t, "{}")

	for _, limit := range []string{"0", "-1", "9999", "many"} {
		rec := httptest.NewRecorder()
		s.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/v1/history?limit="+limit, nil))
		// Disabled history wins over limit validation only when nil;
		// here history is nil so 404 is also acceptable, but a bad
		// limit must never be a 200.
		if rec.Code == http.StatusOK {
			t.Errorf("limit %q: status 200, want an error", limit)
		}
	}
}

func TestHandleRoot_NotFoundForOtherPaths(t *testing.T) {
	s := testServer(t, "{}")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	s.handleRoot(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
