// Package server exposes clone runs over HTTP: start a run, poll it,
// list recent runs, watch progress over a websocket, and fetch the
// produced assets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pagesmith/internal/artifact"
	"pagesmith/internal/capture"
	"pagesmith/internal/runner"
	"pagesmith/internal/runstore"
)

// Defaults are applied to request fields the client leaves unset.
type Defaults struct {
	Refine     int
	Width      int
	Height     int
	Wait       capture.WaitUntil
	NavTimeout time.Duration
	FullPage   bool
	// AI reflects whether a provider credential is configured at all.
	AI bool
}

type Server struct {
	Runner  *runner.Runner
	Store   *runstore.Store
	Hub     *runner.Hub
	Log     zerolog.Logger
	DataDir string
	// Mirror, when set, backs asset requests for runs whose output
	// directory is not on this instance.
	Mirror   *artifact.S3Store
	Defaults Defaults
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/clones", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/watch", s.handleWatch)
		r.Get("/{id}/assets", s.handleAssetIndex)
		r.Get("/{id}/assets/*", s.handleAsset)
	})

	return r
}

type createRequest struct {
	URL       string `json:"url"`
	Refine    *int   `json:"refine,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Wait      string `json:"wait,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
	FullPage  *bool  `json:"full_page,omitempty"`
	AI        *bool  `json:"ai,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	target := strings.TrimSpace(req.URL)
	if u, err := url.Parse(target); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	id := uuid.NewString()
	rec := runstore.Record{
		ID:        id,
		URL:       target,
		Status:    runstore.StatusRunning,
		CreatedAt: time.Now(),
	}
	if err := s.Store.Put(rec); err != nil {
		s.Log.Error().Err(err).Msg("record create failed")
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	runReq := s.buildRunRequest(id, req)
	go func() {
		// The run outlives the HTTP request.
		if _, err := s.Runner.Run(context.Background(), id, runReq); err != nil {
			s.Log.Warn().Err(err).Str("run_id", id).Msg("run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, rec)
}

func (s *Server) buildRunRequest(id string, req createRequest) runner.Request {
	d := s.Defaults
	out := runner.Request{
		URL:      strings.TrimSpace(req.URL),
		OutDir:   runner.OutDirFor(s.DataDir, id),
		Width:    d.Width,
		Height:   d.Height,
		Wait:     d.Wait,
		Timeout:  d.NavTimeout,
		FullPage: d.FullPage,
		Refine:   d.Refine,
		AI:       d.AI,
	}
	if req.Width > 0 {
		out.Width = req.Width
	}
	if req.Height > 0 {
		out.Height = req.Height
	}
	if req.Wait != "" {
		out.Wait = capture.ParseWaitUntil(req.Wait)
	}
	if req.TimeoutMS > 0 {
		out.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	if req.FullPage != nil {
		out.FullPage = *req.FullPage
	}
	if req.Refine != nil && *req.Refine >= 0 {
		out.Refine = *req.Refine
	}
	if req.AI != nil {
		// A client may opt out of AI, but cannot opt in without a
		// configured provider.
		out.AI = *req.AI && d.AI
	}
	return out
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recent := s.Store.Recent(50)
	if recent == nil {
		recent = []runstore.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recent})
}

// handleAsset serves one file from a finished run directory. When the
// directory is not on this instance (shared run store, several daemons)
// the configured mirror answers instead: a presigned URL when possible,
// a proxied read otherwise.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.Store.Get(id)
	if !ok || rec.OutDir == "" {
		writeError(w, http.StatusNotFound, "unknown run or no assets yet")
		return
	}
	name := chi.URLParam(r, "*")
	if name == "" || strings.Contains(name, "..") || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "invalid asset name")
		return
	}
	path := filepath.Join(rec.OutDir, name)
	if _, err := os.Stat(path); err == nil {
		http.ServeFile(w, r, path)
		return
	}
	if s.Mirror == nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if u, err := s.Mirror.PresignedURL(r.Context(), id, name, time.Hour); err == nil {
		http.Redirect(w, r, u, http.StatusFound)
		return
	}
	data, err := s.Mirror.Get(r.Context(), id, name)
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		s.Log.Warn().Err(err).Str("run_id", id).Str("asset", name).Msg("mirror read failed")
		writeError(w, http.StatusBadGateway, "mirror read failed")
		return
	}
	ct := artifact.ContentTypes[name]
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(data)
}

// handleAssetIndex lists the asset names of a run, preferring the local
// directory and falling back to the mirror.
func (s *Server) handleAssetIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.Store.Get(id)
	if !ok || rec.OutDir == "" {
		writeError(w, http.StatusNotFound, "unknown run or no assets yet")
		return
	}
	if entries, err := os.ReadDir(rec.OutDir); err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"assets": names})
		return
	}
	if s.Mirror != nil {
		if names, err := s.Mirror.List(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"assets": names})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": []string{}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
