package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/graphlayout/pkg/config"
	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/render"
)

// Response formats for POST /v1/layout.
const (
	FormatLayout = "layout"
	FormatResult = "result"
	FormatDOT    = "dot"
	FormatSVG    = "svg"
)

// LayoutRequest is the body of POST /v1/layout. Config is merged over the
// defaults, so a request only names what it changes.
type LayoutRequest struct {
	Graph  graph.Document `json:"graph"`
	Config *config.Config `json:"config,omitempty"`
	// Format selects the response body; empty means "layout".
	Format   string `json:"format,omitempty"`
	UseCache bool   `json:"use_cache,omitempty"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAlgorithms handles GET /v1/algorithms.
func (s *Server) handleAlgorithms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Registry.Kinds())
}

// handleLayout handles POST /v1/layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req := LayoutRequest{Config: config.Default()}
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Code: gerrors.ErrCodeInvalidInput})
			return
		}
		s.writeError(w, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "invalid request body"))
		return
	}
	switch req.Format {
	case "":
		req.Format = FormatLayout
	case FormatLayout, FormatResult, FormatDOT, FormatSVG:
	default:
		s.writeError(w, gerrors.New(gerrors.ErrCodeInvalidInput, "unknown format %q", req.Format))
		return
	}

	g, err := graph.ToGraph(req.Graph)
	if err != nil {
		s.writeError(w, gerrors.Wrap(gerrors.ErrCodeInvalidGraph, err, "invalid graph"))
		return
	}

	opts := req.Config.Options()
	opts.UseCache = req.UseCache
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(s.runner.Registry); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Run(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Cancelled {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "layout cancelled", Code: gerrors.ErrCodeInternal})
		return
	}

	switch req.Format {
	case FormatResult:
		writeJSON(w, http.StatusOK, res)
	case FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(render.ToDOT(g, render.Options{SelfLoop: opts.SelfLoop})))
	case FormatSVG:
		svg, err := render.RenderSVG(r.Context(), render.ToDOT(g, render.Options{SelfLoop: opts.SelfLoop}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		writeJSON(w, http.StatusOK, res.Layout(g, opts.SelfLoop))
	}
}

type errorBody struct {
	Error string       `json:"error"`
	Code  gerrors.Code `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a coded error as JSON. Server-side failures are logged.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := gerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: gerrors.UserMessage(err), Code: gerrors.GetCode(err)})
}
