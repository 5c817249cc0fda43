// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/cabildo/pkg/errors"
)

// CoordinationMetrics tracks session, contribution, and consensus activity
// for production monitoring.
type CoordinationMetrics struct {
	// sessionCounter tracks sessions created by type
	sessionCounter metric.Int64Counter

	// contributionCounter tracks contributions submitted by role
	contributionCounter metric.Int64Counter

	// consensusCounter tracks consensus rounds by category and outcome
	consensusCounter metric.Int64Counter

	// consensusDuration tracks consensus computation wall time in ms
	consensusDuration metric.Float64Histogram

	// messageCounter tracks messages sent by type and priority
	messageCounter metric.Int64Counter

	// errorCounter tracks errors by code and component
	errorCounter metric.Int64Counter
}

// NewCoordinationMetrics creates a coordination metrics tracker with OTEL meters.
func NewCoordinationMetrics() (*CoordinationMetrics, error) {
	meter := otel.Meter("cabildo/coordination")

	sessionCounter, err := meter.Int64Counter(
		"cabildo.sessions.created",
		metric.WithDescription("Coordination sessions created by type"),
	)
	if err != nil {
		return nil, err
	}

	contributionCounter, err := meter.Int64Counter(
		"cabildo.contributions.submitted",
		metric.WithDescription("Agent contributions submitted by role"),
	)
	if err != nil {
		return nil, err
	}

	consensusCounter, err := meter.Int64Counter(
		"cabildo.consensus.rounds",
		metric.WithDescription("Consensus rounds by category and outcome"),
	)
	if err != nil {
		return nil, err
	}

	consensusDuration, err := meter.Float64Histogram(
		"cabildo.consensus.duration_ms",
		metric.WithDescription("Consensus computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	messageCounter, err := meter.Int64Counter(
		"cabildo.messages.sent",
		metric.WithDescription("Inter-agent messages sent by type and priority"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"cabildo.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &CoordinationMetrics{
		sessionCounter:      sessionCounter,
		contributionCounter: contributionCounter,
		consensusCounter:    consensusCounter,
		consensusDuration:   consensusDuration,
		messageCounter:      messageCounter,
		errorCounter:        errorCounter,
	}, nil
}

// RecordSessionCreated increments the session counter.
func (cm *CoordinationMetrics) RecordSessionCreated(ctx context.Context, sessionType string) {
	if cm == nil {
		return
	}
	cm.sessionCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrSessionType, sessionType)))
}

// RecordContribution increments the contribution counter for a role.
func (cm *CoordinationMetrics) RecordContribution(ctx context.Context, role string) {
	if cm == nil {
		return
	}
	cm.contributionCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrAgentRole, role)))
}

// RecordConsensusRound records one consensus round with its outcome and duration.
func (cm *CoordinationMetrics) RecordConsensusRound(ctx context.Context, category, resolution string, reached bool, durationMs int64) {
	if cm == nil {
		return
	}
	attrs := metric.WithAttributes(ConsensusAttrs(category, resolution, reached)...)
	cm.consensusCounter.Add(ctx, 1, attrs)
	cm.consensusDuration.Record(ctx, float64(durationMs), attrs)
}

// RecordMessage increments the message counter.
func (cm *CoordinationMetrics) RecordMessage(ctx context.Context, messageType, priority string, broadcast bool) {
	if cm == nil {
		return
	}
	cm.messageCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrMessageType, messageType),
			attribute.String(AttrMessagePriority, priority),
			attribute.Bool(AttrBroadcast, broadcast),
		))
}

// RecordError increments the error counter for the given error and component.
func (cm *CoordinationMetrics) RecordError(ctx context.Context, err error, component string) {
	if cm == nil || err == nil {
		return
	}
	if ce, ok := err.(*errors.CabildoError); ok {
		cm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String(AttrErrorCode, string(ce.Code)),
				attribute.String("component", component),
				attribute.String(AttrErrorRecoverable, ce.RecoverableString()),
			),
		)
		return
	}
	cm.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrErrorCode, "UNKNOWN"),
			attribute.String("component", component),
		),
	)
}
