package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/familymap/pkg/buildinfo"
	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/editor"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/httputil"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/layout/rank"
	"github.com/matzehuels/familymap/pkg/pipeline"
	"github.com/matzehuels/familymap/pkg/render"
)

// Response headers.
const (
	HeaderCache         = "X-Cache"
	HeaderLayoutApplied = "X-Layout-Applied"
	HeaderDiagnostic    = "X-Layout-Diagnostic"
)

// ValidateResponse is the body of /api/v1/validate.
type ValidateResponse struct {
	Valid   bool        `json:"valid"`
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Persons int         `json:"persons"`
	Unions  int         `json:"unions"`
}

// EdgeRequest names a prospective edge within a document.
type EdgeRequest struct {
	Document document.Document `json:"document"`
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Policy   string            `json:"policy,omitempty"`
}

// CycleResponse is the body of /api/v1/cycle.
type CycleResponse struct {
	Cycle bool `json:"cycle"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"solver": s.runner.Engine.SolverName(),
		"build":  buildinfo.Get(),
	})
}

func (s *Server) decodeDocument(w http.ResponseWriter, r *http.Request) (document.Document, bool) {
	var doc document.Document
	if err := httputil.DecodeJSON(w, r, &doc, s.maxBody); err != nil {
		httputil.WriteError(w, err)
		return doc, false
	}
	return doc, true
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Layout(r.Context(), doc, pipeline.Options{
		Policy:  r.URL.Query().Get("policy"),
		Refresh: r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	setLayoutHeaders(w, res)
	httputil.WriteJSON(w, http.StatusOK, res.Document)
}

func setLayoutHeaders(w http.ResponseWriter, res *pipeline.LayoutResult) {
	if res.CacheHit {
		w.Header().Set(HeaderCache, "HIT")
	} else {
		w.Header().Set(HeaderCache, "MISS")
	}
	w.Header().Set(HeaderLayoutApplied, strconv.FormatBool(res.Applied))
	if res.Diagnostic != nil {
		w.Header().Set(HeaderDiagnostic, errors.UserMessage(res.Diagnostic))
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	opts := pipeline.Options{
		Policy:   q.Get("policy"),
		Formats:  []string{format},
		Relayout: q.Get("relayout") == "true",
		Title:    q.Get("title"),
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(opts.Formats) != 1 {
		httputil.WriteError(w, errors.New(errors.ErrCodeInvalidFormat, "render one format per request"))
		return
	}

	res, err := s.runner.Render(r.Context(), doc, opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if res.Layout != nil {
		setLayoutHeaders(w, res.Layout)
	}
	f := opts.Formats[0]
	w.Header().Set("Content-Type", render.Format(f).ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[f])
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.decodeDocument(w, r)
	if !ok {
		return
	}
	g, _, err := doc.ToGraph()
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, ValidateResponse{
			Code:    errors.GetCode(err),
			Message: errors.UserMessage(err),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidateResponse{
		Valid:   true,
		Persons: len(g.Persons()),
		Unions:  len(g.Unions()),
	})
}

func (s *Server) decodeEdge(w http.ResponseWriter, r *http.Request) (EdgeRequest, family.Graph, rank.Direction, bool) {
	var req EdgeRequest
	if err := httputil.DecodeJSON(w, r, &req, s.maxBody); err != nil {
		httputil.WriteError(w, err)
		return req, family.Graph{}, "", false
	}
	g, dir, err := req.Document.ToGraph()
	if err != nil {
		httputil.WriteError(w, err)
		return req, family.Graph{}, "", false
	}
	return req, g, dir, true
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	req, g, _, ok := s.decodeEdge(w, r)
	if !ok {
		return
	}
	for _, id := range []string{req.Source, req.Target} {
		if _, found := g.Node(id); !found {
			httputil.WriteError(w, errors.New(errors.ErrCodeNotFound, "no node %q", id))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, CycleResponse{
		Cycle: family.WouldCreateCycle(g, req.Source, req.Target),
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	req, g, dir, ok := s.decodeEdge(w, r)
	if !ok {
		return
	}
	policy, err := layout.ParsePolicy(req.Policy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ed := editor.New(editor.State{
		Graph:     g,
		Direction: dir,
		Friendly:  policy == layout.PolicyFriendly,
	}, editor.Options{
		IDs:          family.NewSequentialIDs(g),
		Layout:       s.runner.Engine,
		HistoryLimit: 1,
		Logger:       s.logger,
	})
	if _, err := ed.Connect(r.Context(), req.Source, req.Target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := ed.LastLayout()
	w.Header().Set(HeaderLayoutApplied, strconv.FormatBool(res.Applied))
	if res.Err != nil {
		w.Header().Set(HeaderDiagnostic, errors.UserMessage(res.Err))
	}
	httputil.WriteJSON(w, http.StatusOK, ed.Document())
}
