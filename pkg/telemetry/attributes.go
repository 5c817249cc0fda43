// Copyright 2026 © The Cabildo Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich attributes
// for coordination observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Cabildo coordination telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Session attributes
	AttrSessionID   = "cabildo.session.id"
	AttrSessionType = "cabildo.session.type"
	AttrCoordinator = "cabildo.session.coordinator"

	// Agent attributes
	AttrAgentID   = "cabildo.agent.id"
	AttrAgentRole = "cabildo.agent.role"

	// Contribution attributes
	AttrContributionID   = "cabildo.contribution.id"
	AttrContributionType = "cabildo.contribution.type"
	AttrConfidence       = "cabildo.contribution.confidence"

	// Consensus attributes
	AttrDecisionTopic    = "cabildo.consensus.topic"
	AttrDecisionCategory = "cabildo.consensus.category"
	AttrConsensusReached = "cabildo.consensus.reached"
	AttrResolutionMethod = "cabildo.consensus.resolution_method"
	AttrSupportRatio     = "cabildo.consensus.support_ratio"
	AttrVotes            = "cabildo.consensus.votes"

	// Message attributes
	AttrMessageType     = "cabildo.message.type"
	AttrMessagePriority = "cabildo.message.priority"
	AttrBroadcast       = "cabildo.message.broadcast"

	// Error attributes
	AttrErrorCode        = "cabildo.error.code"
	AttrErrorRecoverable = "cabildo.error.recoverable"
)

// SessionAttrs returns common session attributes for spans and metrics.
func SessionAttrs(sessionID, sessionType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
		attribute.String(AttrSessionType, sessionType),
	}
}

// ConsensusAttrs returns attributes describing a consensus outcome.
func ConsensusAttrs(category, resolution string, reached bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrDecisionCategory, category),
		attribute.String(AttrResolutionMethod, resolution),
		attribute.Bool(AttrConsensusReached, reached),
	}
}
