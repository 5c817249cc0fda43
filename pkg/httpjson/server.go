// Package httpjson exposes the coordination service over an HTTP+JSON
// binding. Routing is segment based; custom verbs use the ":verb" suffix
// convention (POST /v1/sessions/{id}:complete) and session-scoped
// collections nest under their session (POST /v1/sessions/{id}/messages).
package httpjson

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
	"github.com/jllopis/cabildo/pkg/team"
	"github.com/jllopis/cabildo/pkg/telemetry"
)

// Server routes HTTP+JSON requests to a coordination service.
type Server struct {
	svc    *team.Service
	logger *slog.Logger
}

// New creates a new HTTP+JSON server wrapper.
func New(svc *team.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// ServeHTTP routes requests under /v1 to the coordination service.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.svc == nil {
		s.writeError(w, cerrors.New(cerrors.CodeInternal, "service not configured", nil))
		return
	}
	segments := normalizePath(r.URL.Path)
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}
	switch segments[0] {
	case "healthz":
		s.handleHealth(w, r)
	case "sessions":
		s.handleSessions(w, r, segments)
	case "alerts":
		s.requirePost(w, r, s.handleEmergencyBroadcast)
	case "performance":
		s.requirePost(w, r, s.handleTrackPerformance)
	case "analytics":
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		s.handleAnalytics(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) requirePost(w http.ResponseWriter, r *http.Request, handler func(http.ResponseWriter, *http.Request)) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 1 {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		s.handleCreateSession(w, r)
		return
	}
	id := segments[1]
	if strings.HasSuffix(id, ":complete") {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		id = strings.TrimSuffix(id, ":complete")
		s.handleCompleteSession(w, r.WithContext(telemetry.ContextWithSession(r.Context(), id)), id)
		return
	}
	r = r.WithContext(telemetry.ContextWithSession(r.Context(), id))
	if len(segments) == 3 {
		// Child collections live under their session.
		switch segments[2] {
		case "contributions":
			s.requirePost(w, r, func(w http.ResponseWriter, r *http.Request) {
				s.handleSubmitContribution(w, r, id)
			})
		case "consensus":
			s.requirePost(w, r, func(w http.ResponseWriter, r *http.Request) {
				s.handleBuildConsensus(w, r, id)
			})
		case "messages":
			s.requirePost(w, r, func(w http.ResponseWriter, r *http.Request) {
				s.handleSendMessage(w, r, id)
			})
		default:
			http.NotFound(w, r)
		}
		return
	}
	if len(segments) > 3 || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.handleGetSession(w, r, id)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string           `json:"session_name"`
		Type        team.SessionType `json:"session_type"`
		Coordinator string           `json:"coordinator_agent"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	session, err := s.svc.CreateSession(r.Context(), req.Name, req.Type, req.Coordinator)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "session": session})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := s.svc.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": detail})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Results map[string]any `json:"results"`
	}
	// An empty body completes the session with no result metadata.
	if err := decodeJSON(r, &req); err != nil && !isEmptyBody(err) {
		s.writeError(w, err)
		return
	}
	if err := s.svc.CompleteSession(r.Context(), id, req.Results); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": id})
}

func (s *Server) handleSubmitContribution(w http.ResponseWriter, r *http.Request, sessionID string) {
	var input team.ContributionInput
	if err := decodeJSON(r, &input); err != nil {
		s.writeError(w, err)
		return
	}
	input.SessionID = sessionID
	contribution, err := s.svc.SubmitContribution(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "contribution": contribution})
}

func (s *Server) handleBuildConsensus(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req struct {
		Topic           string                `json:"decision_topic"`
		Category        team.DecisionCategory `json:"decision_category"`
		Recommendations []team.Recommendation `json:"agent_recommendations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.svc.BuildConsensus(r.Context(), sessionID, req.Topic, req.Category, req.Recommendations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "consensus": result})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	var input team.MessageInput
	if err := decodeJSON(r, &input); err != nil {
		s.writeError(w, err)
		return
	}
	input.SessionID = sessionID
	message, err := s.svc.SendMessage(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": message})
}

func (s *Server) handleEmergencyBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AlertType string         `json:"alert_type"`
		AlertData map[string]any `json:"alert_data"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.AlertType == "" {
		s.writeError(w, cerrors.New(cerrors.CodeInvalidInput, "alert_type is required", nil))
		return
	}
	session, err := s.svc.EmergencyBroadcast(r.Context(), req.AlertType, req.AlertData)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "session": session})
}

func (s *Server) handleTrackPerformance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID   string  `json:"agent_id"`
		SessionID string  `json:"session_id"`
		Type      string  `json:"metric_type"`
		Value     float64 `json:"metric_value"`
		Context   string  `json:"measurement_context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	metric, err := s.svc.TrackPerformance(r.Context(), req.AgentID, req.SessionID, req.Type, req.Value, req.Context)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "metric": metric})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("timeRange")
	if window == "" {
		window = "7d"
	}
	report, err := s.svc.Analytics(r.Context(), window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analytics": report})
}

// errEmptyBody marks decode failures caused by an absent request body so
// handlers that accept one can tell them apart from malformed JSON.
var errEmptyBody = cerrors.New(cerrors.CodeInvalidInput, "empty body", nil)

func isEmptyBody(err error) bool {
	return err == errEmptyBody
}

func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return cerrors.New(cerrors.CodeInvalidInput, "invalid body", err)
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		return cerrors.New(cerrors.CodeInvalidInput, "malformed JSON body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	ce := cerrors.AsCabildoError(err)
	if ce.StatusCode >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", ce.Code, "error", ce)
	}
	body := map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    string(ce.Code),
			"message": ce.Message,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ce.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func normalizePath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	segments := strings.Split(path, "/")
	if segments[0] == "v1" {
		segments = segments[1:]
	}
	return segments
}
