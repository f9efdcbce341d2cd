package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("**bold** and *italic*")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("html = %q, want bold markup", html)
	}
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	html, err := RenderMarkdown(`<script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("raw HTML passed through: %q", html)
	}
}

func TestHandleRender(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ui/render", strings.NewReader(`{"markdown": "# Title"}`))
	rec := httptest.NewRecorder()
	handleRender(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp renderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.HTML, "<h1") {
		t.Errorf("html = %q, want heading markup", resp.HTML)
	}
}

func TestHandleRender_BadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ui/render", strings.NewReader("nope"))
	rec := httptest.NewRecorder()
	handleRender(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Steward") {
		t.Error("index page should mention the assistant name")
	}
}
