package team

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
	"github.com/jllopis/cabildo/pkg/telemetry"
)

// responseWindow is how long a recipient has to answer a message that
// requires a response. The deadline is stored metadata only; nothing
// schedules or enforces it.
const responseWindow = 5 * time.Minute

// MessageInput describes one message send. An empty Receiver denotes a
// broadcast; an empty Priority defaults to MEDIUM.
type MessageInput struct {
	SessionID        string          `json:"session_id"`
	Sender           string          `json:"sender_agent"`
	Receiver         string          `json:"receiver_agent,omitempty"`
	Type             string          `json:"message_type"`
	Content          map[string]any  `json:"content"`
	Priority         MessagePriority `json:"priority,omitempty"`
	RequiresResponse bool            `json:"requires_response"`
}

// SendMessage persists one inter-agent message. When a response is required
// the deadline is stamped responseWindow ahead of now.
func (s *Service) SendMessage(ctx context.Context, input MessageInput) (*Message, error) {
	ctx, span := s.tracer.Start(ctx, "team.send_message")
	defer span.End()

	if input.SessionID == "" {
		return nil, cerrors.New(cerrors.CodeInvalidInput, "session id is required", nil)
	}
	if input.Sender == "" {
		return nil, cerrors.New(cerrors.CodeInvalidInput, "sender is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	message := Message{
		SessionID:        input.SessionID,
		Sender:           input.Sender,
		Receiver:         input.Receiver,
		Type:             input.Type,
		Priority:         priority,
		Content:          input.Content,
		RequiresResponse: input.RequiresResponse,
		CreatedAt:        s.now(),
	}
	if input.RequiresResponse {
		message.ResponseDeadline = s.now().Add(responseWindow)
	}

	stored, err := s.stores.Messages.Insert(ctx, message)
	if err != nil {
		return nil, s.storeErr(ctx, err, "messaging", "insert message failed")
	}

	broadcast := stored.Receiver == ""
	span.SetAttributes(
		attribute.String(telemetry.AttrSessionID, stored.SessionID),
		attribute.String(telemetry.AttrMessageType, stored.Type),
		attribute.Bool(telemetry.AttrBroadcast, broadcast),
	)
	s.metrics.RecordMessage(ctx, stored.Type, string(stored.Priority), broadcast)
	return stored, nil
}

// EmergencyBroadcast opens an emergency session and broadcasts a CRITICAL
// alert to every agent. A session-creation failure aborts the whole
// operation. A message failure after the session exists is returned with the
// created session id attached; the session is not rolled back.
func (s *Service) EmergencyBroadcast(ctx context.Context, alertType string, alertData map[string]any) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "team.emergency_broadcast")
	defer span.End()

	session, err := s.CreateSession(ctx,
		fmt.Sprintf("Emergency Response - %s", alertType),
		SessionEmergency,
		defaultCoordinator)
	if err != nil {
		return nil, err
	}

	severity := "HIGH"
	if v, ok := alertData["severity"].(string); ok && v != "" {
		severity = v
	}
	_, err = s.SendMessage(ctx, MessageInput{
		SessionID: session.ID,
		Sender:    defaultCoordinator,
		Type:      "ALERT",
		Priority:  PriorityCritical,
		Content: map[string]any{
			"alert_type": alertType,
			"severity":   severity,
			"data":       alertData,
			"timestamp":  s.now().Format(time.RFC3339),
		},
		RequiresResponse: true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "emergency alert broadcast failed after session creation",
			"session_id", session.ID, "alert_type", alertType, "error", err)
		return nil, cerrors.AsCabildoError(err).WithContext("session_id", session.ID)
	}

	s.logger.InfoContext(ctx, "emergency response session opened",
		"session_id", session.ID, "alert_type", alertType, "severity", severity)
	return session, nil
}
