// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package devserver is a local protection backend with a fixed rule set. It
// serves the same wire contract the client speaks and exists for development
// and soak testing.
package devserver

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen@v2.5.1 -config oapi-codegen.yaml openapi.yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playguard/internal/health"
	"github.com/ManuGH/playguard/internal/log"
	"github.com/ManuGH/playguard/internal/protection/api"
)

// MountPath is where the session endpoints live.
const MountPath = "/api/protection"

const maxBodyBytes = 64 << 10

// Config configures the server.
type Config struct {
	Rules          Rules
	RateLimitPerIP int
	PlaybackBase   string
	PlaybackTTL    time.Duration
	Service        string
	Version        string
}

// Server implements the protection endpoints over a Registry.
type Server struct {
	cfg      Config
	rules    atomic.Pointer[Rules]
	registry Registry
	now      func() time.Time
	logger   zerolog.Logger
}

func New(cfg Config, registry Registry) *Server {
	if cfg.PlaybackTTL <= 0 {
		cfg.PlaybackTTL = 10 * time.Minute
	}
	if cfg.Service == "" {
		cfg.Service = "playguard-devserver"
	}
	s := &Server{
		cfg:      cfg,
		registry: registry,
		now:      time.Now,
		logger:   log.WithComponent("devserver"),
	}
	s.rules.Store(&cfg.Rules)
	return s
}

// SetRules swaps the rule set for subsequent requests.
func (s *Server) SetRules(r Rules) {
	s.rules.Store(&r)
	s.logger.Info().
		Int("max_viewers", r.MaxViewers).
		Int("block_events", len(r.BlockEvents)).
		Msg("rules updated")
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(tracing(s.cfg.Service))
	r.Use(accessLog)

	checks := health.NewManager(s.cfg.Version)
	checks.RegisterChecker(health.NewPingChecker("registry", s.registry.HealthCheck))
	r.Get("/healthz", checks.ServeHealth)
	r.Get("/readyz", checks.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(MountPath, func(r chi.Router) {
		if s.cfg.RateLimitPerIP > 0 {
			r.Use(rateLimit(s.cfg.RateLimitPerIP, time.Minute))
		}
		r.Use(bearerAuth)
		HandlerWithOptions(s, ChiServerOptions{
			BaseRouter:       r,
			ErrorHandlerFunc: paramError,
		})
	})
	r.Get("/openapi.json", serveOpenAPI)
	return r
}

var _ ServerInterface = (*Server)(nil)

func paramError(w http.ResponseWriter, _ *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_parameter", Detail: err.Error()})
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := GetSwagger()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "openapi_unavailable", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_body", Detail: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str(log.FieldRequestID, log.RequestIDFromContext(r.Context())).Msg("session registry failure")
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "registry_unavailable"})
}

// lookup loads the caller's own session. It writes the response on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, token string) (Record, bool) {
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing_session_token"})
		return Record{}, false
	}
	rec, err := s.registry.Get(r.Context(), token)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown_session"})
		return Record{}, false
	case err != nil:
		s.writeStoreError(w, r, err)
		return Record{}, false
	}
	if rec.Account != accountFromContext(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown_session"})
		return Record{}, false
	}
	return rec, true
}

// settle persists a block, refreshes liveness and returns the verdict to send.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, rec Record, v api.Verdict) (api.Verdict, bool) {
	if rec.Blocked {
		return api.Verdict{Action: api.ActionBlock, BlockedReason: rec.BlockedReason}, true
	}
	rec.LastSeen = s.now()
	if v.IsBlock() {
		rec.Blocked = true
		rec.BlockedReason = v.BlockedReason
		s.logger.Info().
			Str(log.FieldContentID, rec.ContentID).
			Str(log.FieldAccount, rec.Account).
			Str(log.FieldBlockedReason, v.BlockedReason).
			Msg("session blocked")
	}
	if err := s.registry.Put(r.Context(), rec); err != nil {
		s.writeStoreError(w, r, err)
		return api.Verdict{}, false
	}
	return v, true
}

// StartSession registers a session for the caller's account.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ContentID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing_content_id"})
		return
	}

	now := s.now()
	rec := Record{
		Token:     uuid.NewString(),
		ContentID: req.ContentID,
		Account:   accountFromContext(r.Context()),
		StartedAt: now,
		LastSeen:  now,
	}
	if err := s.registry.Put(r.Context(), rec); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	v, ok := s.viewerVerdict(w, r, rec)
	if !ok {
		return
	}
	v, ok = s.settle(w, r, rec, v)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, api.StartResponse{
		SessionToken:  rec.Token,
		Action:        v.Action,
		BlockedReason: v.BlockedReason,
	})
}

func (s *Server) viewerVerdict(w http.ResponseWriter, r *http.Request, rec Record) (api.Verdict, bool) {
	live, err := s.registry.Live(r.Context(), rec.Account)
	if err != nil {
		s.writeStoreError(w, r, err)
		return api.Verdict{}, false
	}
	return s.rules.Load().Viewers(live), true
}

// SendHeartbeat applies the heartbeat rules and the viewer limit.
func (s *Server) SendHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req SendHeartbeatJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	rec, ok := s.lookup(w, r, req.SessionToken)
	if !ok {
		return
	}

	v := s.rules.Load().Heartbeat(req)
	if !v.IsBlock() && !rec.Blocked {
		if v, ok = s.viewerVerdict(w, r, rec); !ok {
			return
		}
	}
	if v, ok = s.settle(w, r, rec, v); !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) ReportEvent(w http.ResponseWriter, r *http.Request) {
	var req ReportEventJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	rec, ok := s.lookup(w, r, req.SessionToken)
	if !ok {
		return
	}
	s.logger.Debug().
		Str(log.FieldContentID, rec.ContentID).
		Str(log.FieldEventType, string(req.EventType)).
		Str(log.FieldSeverity, string(req.Severity)).
		Msg("protection event")

	v, ok := s.settle(w, r, rec, s.rules.Load().Event(req.EventType))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetPlaybackUrl binds the device to the session and signs a playback URL.
func (s *Server) GetPlaybackUrl(w http.ResponseWriter, r *http.Request) {
	var req GetPlaybackUrlJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	rec, ok := s.lookup(w, r, req.SessionToken)
	if !ok {
		return
	}
	if rec.Blocked {
		writeJSON(w, http.StatusForbidden, api.Verdict{Action: api.ActionBlock, BlockedReason: rec.BlockedReason})
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing_device_id"})
		return
	}

	rec.DeviceID = req.DeviceID
	rec.LastSeen = s.now()
	if err := s.registry.Put(r.Context(), rec); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PlaybackResponse{PlaybackURL: s.playbackURL(rec)})
}

func (s *Server) playbackURL(rec Record) string {
	q := url.Values{}
	q.Set("session", rec.Token)
	q.Set("device", rec.DeviceID)
	q.Set("expires", fmt.Sprintf("%d", s.now().Add(s.cfg.PlaybackTTL).Unix()))
	return strings.TrimRight(s.cfg.PlaybackBase, "/") + "/" + url.PathEscape(rec.ContentID) + "?" + q.Encode()
}

// EndSession releases the session. Unknown or foreign tokens are ignored.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	var req EndSessionJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	if req.SessionToken != "" {
		rec, err := s.registry.Get(r.Context(), req.SessionToken)
		if err == nil && rec.Account == accountFromContext(r.Context()) {
			if err := s.registry.Delete(r.Context(), req.SessionToken); err != nil {
				s.writeStoreError(w, r, err)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the server-side state of one of the caller's sessions.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionToken openapi_types.UUID) {
	rec, ok := s.lookup(w, r, sessionToken.String())
	if !ok {
		return
	}
	state := SessionState{
		Action:       api.ActionAllow,
		ContentId:    rec.ContentID,
		SessionToken: sessionToken,
		StartedAt:    rec.StartedAt,
		LastSeen:     rec.LastSeen,
	}
	if rec.Blocked {
		state.Action = api.ActionBlock
		state.BlockedReason = &rec.BlockedReason
	}
	if rec.DeviceID != "" {
		state.DeviceId = &rec.DeviceID
	}
	writeJSON(w, http.StatusOK, state)
}
