// Package server exposes the generation flow over a small JSON API: create a
// session to get a first batch, revise it with comments, persist it as
// drafts, and trigger image generation per draft.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"social_post_generator/config"
	"social_post_generator/drafts"
	"social_post_generator/generator"
	"social_post_generator/images"
	"social_post_generator/research"
	"social_post_generator/responseparser"
)

const llmTimeout = 120 * time.Second

type Server struct {
	agent    *generator.Agent
	store    *drafts.Store
	images   *images.Generator // nil disables the image endpoint
	research *research.Client  // nil disables prompt context lookups
	genCfg   config.GeneratorConfig
	sessions *sessionStore
	logger   *logrus.Logger
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func New(agent *generator.Agent, store *drafts.Store, imgGen *images.Generator, researcher *research.Client, genCfg config.GeneratorConfig, logger *logrus.Logger) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if store == nil {
		return nil, errors.New("draft store required")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Server{
		agent:    agent,
		store:    store,
		images:   imgGen,
		research: researcher,
		genCfg:   genCfg,
		sessions: newStore(),
		logger:   logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.handleSessionCreate)
	mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	mux.HandleFunc("/api/drafts", s.handleDraftDates)
	mux.HandleFunc("/api/drafts/", s.handleDraftsByDate)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type sessionCreateReq struct {
	Topic       string   `json:"topic"`
	Date        string   `json:"date"`
	Count       int      `json:"count"`
	Tone        string   `json:"tone"`
	Audience    string   `json:"audience"`
	Constraints []string `json:"constraints"`
}

type sessionResp struct {
	SessionID string                `json:"session_id"`
	Batch     *responseparser.Batch `json:"batch"`
	Turns     int                   `json:"turns"`
}

type reviseReq struct {
	Comment string `json:"comment"`
}

type saveReq struct {
	Date string `json:"date"`
}

type saveResp struct {
	JSONPath string `json:"json_path"`
	CSVPath  string `json:"csv_path"`
}

type imageReq struct {
	Index int `json:"index"`
}

type imageResp struct {
	ImagePath string `json:"image_path"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sessionCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	spec := generator.Spec{
		Topic:       req.Topic,
		Date:        req.Date,
		Count:       req.Count,
		Tone:        req.Tone,
		Audience:    req.Audience,
		Constraints: req.Constraints,
	}
	if spec.Count <= 0 {
		spec.Count = s.genCfg.PostsPerDay
	}
	if spec.Tone == "" {
		spec.Tone = s.genCfg.Tone
	}
	if spec.Audience == "" {
		spec.Audience = s.genCfg.Audience
	}
	spec.Constraints = append(spec.Constraints, s.genCfg.Constraints...)

	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	s.enrichSpec(ctx, &spec)

	id := newSessionID()
	sess := generator.NewSession(id, spec, s.agent)
	batch, err := sess.Propose(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.sessions.set(id, sess)
	writeJSON(w, sessionResp{SessionID: id, Batch: batch, Turns: len(sess.History)})
}

// enrichSpec adds past titles and ephemerides context when the collaborators
// are wired; failures only cost context, never the request.
func (s *Server) enrichSpec(ctx context.Context, spec *generator.Spec) {
	if titles, err := s.store.PastTitles(15); err == nil {
		spec.PastTitles = titles
	} else {
		s.logger.Warnf("past titles unavailable: %v", err)
	}
	if s.research != nil && spec.Date != "" {
		eph, err := s.research.SearchEphemerides(ctx, spec.Date, s.genCfg.Topics)
		if err != nil {
			s.logger.Warnf("ephemerides lookup failed: %v", err)
			return
		}
		spec.Ephemerides = eph
	}
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	sess, ok := s.sessions.get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, sessionResp{SessionID: id, Batch: sess.Batch, Turns: len(sess.History)})
	case action == "" && r.Method == http.MethodPost:
		s.handleRevise(w, r, sess)
	case action == "save" && r.Method == http.MethodPost:
		s.handleSave(w, r, sess)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req reviseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	batch, err := sess.Revise(ctx, req.Comment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, sessionResp{SessionID: sess.ID, Batch: batch, Turns: len(sess.History)})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req saveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sess.Batch == nil {
		http.Error(w, "session has no batch to save", http.StatusConflict)
		return
	}
	date := req.Date
	if date == "" {
		date = sess.Spec.Date
	}
	jsonPath, err := s.store.SaveBatch(sess.Batch, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if date == "" {
		date = sess.Batch.Posts[0].Date
	}
	csvPath, err := s.store.ExportCSV(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, saveResp{JSONPath: jsonPath, CSVPath: csvPath})
}

func (s *Server) handleDraftDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dates, err := s.store.ListDates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string][]string{"dates": dates})
}

func (s *Server) handleDraftsByDate(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/drafts/")
	date, action, _ := strings.Cut(rest, "/")
	if date == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		records, err := s.store.LoadDrafts(date)
		if err != nil {
			http.Error(w, "no drafts for "+date, http.StatusNotFound)
			return
		}
		writeJSON(w, records)
	case action == "image" && r.Method == http.MethodPost:
		s.handleGenerateImage(w, r, date)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request, date string) {
	if s.images == nil {
		http.Error(w, "image generation is not configured", http.StatusNotImplemented)
		return
	}
	var req imageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.store.LoadDrafts(date)
	if err != nil {
		http.Error(w, "no drafts for "+date, http.StatusNotFound)
		return
	}
	if req.Index < 0 || req.Index >= len(records) {
		http.Error(w, "draft index out of range", http.StatusBadRequest)
		return
	}
	draft := records[req.Index]

	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	path, err := s.images.Generate(ctx, draft.Title, draft.ImageDescription, draft.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := s.store.UpdateImagePath(date, req.Index, path); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, imageResp{ImagePath: path})
}

// --- Helpers ---

func newSessionID() string {
	return strings.ReplaceAll(time.Now().Format("20060102T150405.000000000"), ".", "")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	})
}
