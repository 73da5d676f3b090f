package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/observability"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

const chainBody = `{
  "graph": {
    "vertices": [
      {"id": "a", "width": 40, "height": 20},
      {"id": "b", "width": 40, "height": 20},
      {"id": "c", "width": 40, "height": 20}
    ],
    "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c"}, {"from": "a", "to": "c"}]
  },
  "config": {
    "layout": {"algorithm": "sugiyama"},
    "overlap": {"algorithm": "none"}
  }%s
}`

func newTestServer() *Server {
	logger := log.New(io.Discard)
	return New(pipeline.NewRunner(nil, nil, logger), logger)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/layout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer().Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestAlgorithms(t *testing.T) {
	h := newTestServer().Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/algorithms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var kinds pipeline.Kinds
	if err := json.NewDecoder(rec.Body).Decode(&kinds); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"random", "kk", "sugiyama", "compound-fdp"} {
		if !contains(kinds.Layout, want) {
			t.Errorf("Layout kinds = %v, missing %q", kinds.Layout, want)
		}
	}
	if !contains(kinds.Routing, "pathfinder") {
		t.Errorf("Routing kinds = %v, missing pathfinder", kinds.Routing)
	}
}

func TestLayout_DefaultFormat(t *testing.T) {
	rec := post(t, newTestServer().Handler(), strings.Replace(chainBody, "%s", "", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var l graph.Layout
	if err := json.NewDecoder(rec.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if l.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(l.Vertices) != 3 {
		t.Fatalf("len(Vertices) = %d, want 3", len(l.Vertices))
	}
	if len(l.Edges) != 3 {
		t.Fatalf("len(Edges) = %d, want 3", len(l.Edges))
	}
	for _, e := range l.Edges {
		if len(e.Points) < 2 {
			t.Errorf("edge %s->%s has %d points, want a routed polyline", e.From, e.To, len(e.Points))
		}
	}
	ys := map[float64]bool{}
	for _, v := range l.Vertices {
		ys[v.Y] = true
	}
	if len(ys) != 3 {
		t.Errorf("distinct layer heights = %d, want 3", len(ys))
	}
}

func TestLayout_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		check       func(t *testing.T, body string)
	}{
		{FormatResult, "application/json", func(t *testing.T, body string) {
			var res pipeline.Result
			if err := json.Unmarshal([]byte(body), &res); err != nil {
				t.Fatal(err)
			}
			if res.Stats.VertexCount != 3 || len(res.Positions) != 3 {
				t.Errorf("Result = %d vertices, %d positions, want 3", res.Stats.VertexCount, len(res.Positions))
			}
		}},
		{FormatDOT, "text/vnd.graphviz", func(t *testing.T, body string) {
			if !strings.HasPrefix(body, "digraph G {") {
				t.Errorf("body = %q, want a digraph", body)
			}
		}},
	}
	h := newTestServer().Handler()
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := post(t, h, strings.Replace(chainBody, "%s", `, "format": "`+tt.format+`"`, 1))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			tt.check(t, rec.Body.String())
		})
	}
}

func TestLayout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   gerrors.Code
	}{
		{"malformed json", `{"graph":`, http.StatusBadRequest, gerrors.ErrCodeInvalidFormat},
		{"unknown vertex", `{"graph":{"vertices":[{"id":"a"}],"edges":[{"from":"a","to":"z"}]}}`,
			http.StatusBadRequest, gerrors.ErrCodeInvalidGraph},
		{"unknown layout", `{"graph":{"vertices":[{"id":"a"}]},"config":{"layout":{"algorithm":"spring"}}}`,
			http.StatusNotFound, gerrors.ErrCodeUnknownAlgorithm},
		{"invalid params", `{"graph":{"vertices":[{"id":"a"}]},"config":{"layout":{"kk":{"width":-1}}}}`,
			http.StatusBadRequest, gerrors.ErrCodeInvalidConfiguration},
		{"unknown format", `{"graph":{"vertices":[{"id":"a"}]},"format":"png"}`,
			http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
	}
	h := newTestServer().Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestLayout_BodyTooLarge(t *testing.T) {
	s := newTestServer()
	s.maxBodyBytes = 16
	rec := post(t, s.Handler(), strings.Replace(chainBody, "%s", "", 1))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

type httpEvent struct {
	method, route string
	status        int
}

type recordingHTTPHooks struct {
	mu        sync.Mutex
	requests  []httpEvent
	responses []httpEvent
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, httpEvent{method: method, route: route})
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, httpEvent{method, route, status})
}

func TestObserve(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	h := newTestServer().Handler()
	post(t, h, `{"graph":`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	want := []httpEvent{
		{http.MethodPost, "/v1/layout", http.StatusBadRequest},
		{http.MethodGet, "/healthz", http.StatusOK},
	}
	if len(hooks.responses) != len(want) {
		t.Fatalf("responses = %v, want %v", hooks.responses, want)
	}
	for i, w := range want {
		if hooks.responses[i] != w {
			t.Errorf("response %d = %+v, want %+v", i, hooks.responses[i], w)
		}
		if hooks.requests[i].route != w.route {
			t.Errorf("request %d route = %q, want %q", i, hooks.requests[i].route, w.route)
		}
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer().ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
