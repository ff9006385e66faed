package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/viewer"
)

// =============================================================================
// Responses
// =============================================================================

// created is the response to POST /graphs.
type created struct {
	ID     string       `json:"id"`
	Layout graph.Layout `json:"layout"`
}

// toggled is the response to a group toggle.
type toggled struct {
	Group  string       `json:"group"`
	View   graph.View   `json:"view"`
	Layout graph.Layout `json:"layout"`
}

type zoomRequest struct {
	Scale float64 `json:"scale"`
}

type zoomed struct {
	LOD      int     `json:"lod"`
	Changed  bool    `json:"changed"`
	Detailed bool    `json:"detailed"`
	Scale    float64 `json:"scale"`
}

type health struct {
	Status   string         `json:"status"`
	Sessions int            `json:"sessions"`
	Build    buildinfo.Info `json:"build"`
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
		Kind    string      `json:"kind,omitempty"`
		ID      string      `json:"id,omitempty"`
		Prior   string      `json:"prior,omitempty"`
	} `json:"error"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, health{Status: "ok", Sessions: n, Build: buildinfo.Get()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	doc, err := graph.ReadDocument(http.MaxBytesReader(w, r.Body, maxBodyBytes), documentFormat(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.create(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/graphs/"+sess.rec.ID)
	s.writeJSON(w, http.StatusCreated, created{ID: sess.rec.ID, Layout: sess.viewer.Export()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, sess.viewer.Export())
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var mod viewer.Modification
	if !s.decode(w, r, &mod) {
		return
	}
	sess, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	if err := sess.viewer.Modify(r.Context(), mod); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.persist(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.viewer.Export())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	group := chi.URLParam(r, "group")
	view, err := sess.viewer.ToggleGroup(r.Context(), group)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.persist(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toggled{Group: group, View: view, Layout: sess.viewer.Export()})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Scale <= 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", req.Scale))
		return
	}
	sess, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	changed := sess.viewer.Zoom(req.Scale)
	if changed {
		if err := s.persist(r.Context(), sess); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, zoomed{
		LOD:      sess.viewer.Lod(),
		Changed:  changed,
		Detailed: sess.viewer.Detailed(),
		Scale:    sess.viewer.Scale(),
	})
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sess.svg.Bytes())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.remove(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// acquire looks up the session named in the URL and locks it. On failure it
// writes the error response and returns false.
func (s *Server) acquire(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	sess.mu.Lock()
	if sess.deleted {
		sess.mu.Unlock()
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", sess.rec.ID))
		return nil, false
	}
	return sess, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	return true
}

// documentFormat picks the document decoder from the Content-Type header.
func documentFormat(r *http.Request) string {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return graph.FormatYAML
	default:
		return graph.FormatJSON
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	body.Error.Message = errors.UserMessage(err)
	if se, ok := asStructural(err); ok {
		body.Error.Kind, body.Error.ID, body.Error.Prior = string(se.Kind), se.ID, se.Prior
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		if body.Error.Code == "" {
			body.Error.Code = errors.ErrCodeInternal
		}
	}
	s.writeJSON(w, status, body)
}

func asStructural(err error) (*errors.StructuralError, bool) {
	var se *errors.StructuralError
	ok := stderrors.As(err, &se)
	return se, ok
}

// statusFor maps an error to an HTTP status: structural and input errors are
// the client's fault, unknown sessions are 404, everything else is 500.
func statusFor(err error) int {
	if errors.IsStructural(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeSessionNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidZoom:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// Middleware
// =============================================================================

// observe reports every request to the HTTP observability hooks with its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
	})
}
