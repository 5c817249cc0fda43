// Package team implements weighted multi-agent coordination: sessions,
// agent contributions, consensus rounds, inter-agent messaging, and
// read-only analytics over the recorded history.
package team

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
	"github.com/jllopis/cabildo/pkg/telemetry"
)

const (
	// defaultCoordinator runs sessions when the caller names none.
	defaultCoordinator = "AICommander"

	// defaultConfidence applies when a contribution carries no score.
	defaultConfidence = 0.8

	// thresholds stored on the session row, derived from session type.
	emergencyThreshold = 0.8
	standardThreshold  = 0.6
)

// Service coordinates sessions, contributions, consensus rounds, and
// messaging over a set of record stores. All state lives in the stores;
// the service itself is stateless apart from its collaborators.
type Service struct {
	stores  Stores
	metrics *telemetry.CoordinationMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a coordination metrics tracker.
func WithMetrics(metrics *telemetry.CoordinationMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a coordination service over the given stores.
func NewService(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		logger: slog.Default(),
		tracer: otel.Tracer("cabildo/team"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession allocates an active session. The session type defaults to
// development and the coordinator to defaultCoordinator. Name emptiness is
// the caller's responsibility.
func (s *Service) CreateSession(ctx context.Context, name string, sessionType SessionType, coordinator string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "team.create_session")
	defer span.End()

	if sessionType == "" {
		sessionType = SessionDevelopment
	}
	if coordinator == "" {
		coordinator = defaultCoordinator
	}
	threshold := standardThreshold
	if sessionType == SessionEmergency {
		threshold = emergencyThreshold
	}

	session, err := s.stores.Sessions.Insert(ctx, Session{
		Name:         name,
		Type:         sessionType,
		Status:       SessionActive,
		Threshold:    threshold,
		Participants: AllRoles(),
		Coordinator:  coordinator,
		Metadata: map[string]any{
			"created_with": "cabildo",
			"version":      "1.0",
		},
		CreatedAt: s.now(),
	})
	if err != nil {
		err = s.storeErr(ctx, err, "create session", "insert session failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrSessionID, session.ID),
		attribute.String(telemetry.AttrSessionType, string(session.Type)),
	)
	s.metrics.RecordSessionCreated(ctx, string(session.Type))
	s.logger.InfoContext(ctx, "session created",
		"session_id", session.ID, "session_type", session.Type, "coordinator", coordinator)
	return session, nil
}

// GetSession returns a session plus all associated contributions, consensus
// records, messages, and performance metrics. The child lookups are
// independent; an empty child set is an empty list, never an error.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionDetail, error) {
	ctx, span := s.tracer.Start(ctx, "team.get_session")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSessionID, sessionID))

	session, err := s.stores.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, s.storeErr(ctx, err, "get session", "load session failed")
	}

	filter := RecordFilter{SessionID: sessionID}
	contributions, err := s.stores.Contributions.List(ctx, filter)
	if err != nil {
		return nil, s.storeErr(ctx, err, "get session", "load contributions failed")
	}
	consensus, err := s.stores.Consensus.List(ctx, filter)
	if err != nil {
		return nil, s.storeErr(ctx, err, "get session", "load consensus records failed")
	}
	messages, err := s.stores.Messages.List(ctx, filter)
	if err != nil {
		return nil, s.storeErr(ctx, err, "get session", "load messages failed")
	}
	performance, err := s.stores.Metrics.List(ctx, filter)
	if err != nil {
		return nil, s.storeErr(ctx, err, "get session", "load performance metrics failed")
	}

	return &SessionDetail{
		Session:        session,
		Contributions:  contributions,
		Consensus:      consensus,
		Communications: messages,
		Performance:    performance,
	}, nil
}

// CompleteSession moves a session to completed, stamps the completion time,
// and stores the caller-supplied result metadata verbatim. A missing session
// is an error; repeating the call on a completed session overwrites the
// completion fields and succeeds.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, results map[string]any) error {
	ctx, span := s.tracer.Start(ctx, "team.complete_session")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSessionID, sessionID))

	err := s.stores.Sessions.Complete(ctx, sessionID, SessionCompletion{
		CompletedAt: s.now(),
		Metadata:    results,
	})
	if err != nil {
		return s.storeErr(ctx, err, "complete session", "complete session failed")
	}
	s.logger.InfoContext(ctx, "session completed", "session_id", sessionID)
	return nil
}

// ContributionInput describes one contribution submission. A nil Confidence
// defaults to defaultConfidence.
type ContributionInput struct {
	SessionID  string         `json:"session_id"`
	AgentID    string         `json:"agent_id"`
	Role       AgentRole      `json:"agent_type"`
	Type       string         `json:"contribution_type"`
	Content    map[string]any `json:"content"`
	Confidence *float64       `json:"confidence_score,omitempty"`
}

// SubmitContribution appends a contribution to a session. Duplicates are not
// detected; an agent may submit the same contribution type repeatedly and
// every submission is retained.
func (s *Service) SubmitContribution(ctx context.Context, input ContributionInput) (*Contribution, error) {
	ctx, span := s.tracer.Start(ctx, "team.submit_contribution")
	defer span.End()

	if input.SessionID == "" {
		return nil, cerrors.New(cerrors.CodeInvalidInput, "session id is required", nil)
	}
	if input.AgentID == "" {
		return nil, cerrors.New(cerrors.CodeInvalidInput, "agent id is required", nil)
	}
	confidence := defaultConfidence
	if input.Confidence != nil {
		confidence = *input.Confidence
		if confidence < 0 || confidence > 1 {
			return nil, cerrors.New(cerrors.CodeInvalidInput, "confidence score must be in [0,1]", nil).
				WithContext("confidence_score", confidence)
		}
	}

	contribution, err := s.stores.Contributions.Insert(ctx, Contribution{
		SessionID:  input.SessionID,
		AgentID:    input.AgentID,
		Role:       input.Role,
		Type:       input.Type,
		Content:    input.Content,
		Confidence: confidence,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, s.storeErr(ctx, err, "submit contribution", "insert contribution failed")
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrSessionID, input.SessionID),
		attribute.String(telemetry.AttrAgentRole, string(input.Role)),
		attribute.String(telemetry.AttrContributionID, contribution.ID),
	)
	s.metrics.RecordContribution(ctx, string(input.Role))
	return contribution, nil
}

// TrackPerformance records one performance data point for an agent.
func (s *Service) TrackPerformance(ctx context.Context, agentID, sessionID, metricType string, value float64, measurementContext string) (*PerformanceMetric, error) {
	if agentID == "" {
		return nil, cerrors.New(cerrors.CodeInvalidInput, "agent id is required", nil)
	}
	metric, err := s.stores.Metrics.Insert(ctx, PerformanceMetric{
		AgentID:   agentID,
		SessionID: sessionID,
		Type:      metricType,
		Value:     value,
		Context:   measurementContext,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, s.storeErr(ctx, err, "track performance", "insert performance metric failed")
	}
	return metric, nil
}

// storeErr passes typed errors through unchanged and wraps anything else as
// a store failure, recording it in the error metrics either way.
func (s *Service) storeErr(ctx context.Context, err error, component, msg string) error {
	var ce *cerrors.CabildoError
	if !stderrors.As(err, &ce) {
		ce = cerrors.New(cerrors.CodeStoreFailure, msg, err)
	}
	s.metrics.RecordError(ctx, ce, component)
	return ce
}
