package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

type fixedPending int

func (f fixedPending) Len() int { return int(f) }

func serve(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Root(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Pending: fixedPending(0)})

	w := serve(t, r, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "Discord Bot is running!" {
		t.Fatalf("body = %q", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("response must carry a request ID")
	}
}

func TestRouter_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Pending: fixedPending(3)})

	w := serve(t, r, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Pending != 3 {
		t.Fatalf("body = %+v", body)
	}
}

func TestRouter_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Pending: fixedPending(0)})

	// Hit a counted route first so the scrape has something to show.
	serve(t, r, http.MethodGet, "/")

	w := serve(t, r, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "requestbot_http_requests_total") {
		t.Fatal("scrape output missing request counter")
	}
}

func TestRouter_InteractionsMountedOnlyWhenConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bare := NewRouter(Options{Pending: fixedPending(0)})
	if w := serve(t, bare, http.MethodPost, "/interactions"); w.Code != http.StatusNotFound {
		t.Fatalf("unconfigured webhook: status = %d, want 404", w.Code)
	}

	wired := NewRouter(Options{
		Pending:      fixedPending(0),
		Interactions: func(c *gin.Context) { c.Status(http.StatusOK) },
	})
	if w := serve(t, wired, http.MethodPost, "/interactions"); w.Code != http.StatusOK {
		t.Fatalf("configured webhook: status = %d", w.Code)
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Pending: fixedPending(0)})
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(t, r, http.MethodGet, "/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestRouter_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Options{Pending: fixedPending(0)})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "rid-123" {
		t.Fatalf("request ID = %q, want propagated value", got)
	}
}
