package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestHandleDashboard_RendersShell(t *testing.T) {
	h := NewDashboardPageHandlers("Test Panel")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Test Panel</title>") {
		t.Fatal("page title missing")
	}
	for _, marker := range []string{"/api/status", "/api/chat", "/api/flowise/chatflows", "/api/learning/status", "/api/ethics/principles", "/api/config/security", "/api/services/analyze"} {
		if !strings.Contains(body, marker) {
			t.Fatalf("dashboard shell does not reference %s", marker)
		}
	}
}

// TestHandleDashboard_WellFormed parses the rendered page and checks the
// elements the polling script manipulates actually exist.
func TestHandleDashboard_WellFormed(t *testing.T) {
	h := NewDashboardPageHandlers("Test Panel")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	doc, err := html.Parse(rec.Body)
	if err != nil {
		t.Fatalf("parse rendered page: %v", err)
	}

	ids := map[string]bool{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key == "id" {
					ids[attr.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, want := range []string{"tiles", "chat-log", "chat-form", "chat-target", "flow-list", "learning-status", "learning-history", "ethics-principles", "security-config", "services-analysis", "updated"} {
		if !ids[want] {
			t.Fatalf("element #%s missing from dashboard shell", want)
		}
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	h := NewDashboardPageHandlers("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	if !strings.Contains(rec.Body.String(), "Self-Sustain Control Panel") {
		t.Fatal("default title missing")
	}
}

func TestHandleDashboard_UnknownPath(t *testing.T) {
	h := NewDashboardPageHandlers("Test Panel")

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
