package team

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
	"github.com/jllopis/cabildo/pkg/telemetry"
)

// categoryFractions maps a decision category to the fraction of the full
// role census whose votes it requires.
var categoryFractions = map[DecisionCategory]float64{
	CategoryCritical: 0.8,
	CategoryMajor:    0.6,
	CategoryMinor:    0.4,
}

// Ratio bands for weighted classification. These are a separate axis from
// the per-category required-vote counts: required votes describe quorum
// expectations, the bands classify the weighted outcome.
const (
	approvalRatio  = 0.6
	rejectionRatio = 0.4
)

// Resolution method labels recorded on the consensus record.
const (
	resolutionUnanimous    = "unanimous_support"
	resolutionMajority     = "majority_support"
	resolutionInsufficient = "insufficient_support"
)

// Decision status labels.
const (
	statusApproved            = "approved"
	statusConditionalApproval = "conditional_approval"
	statusRejected            = "rejected"
)

// tally is the outcome of a weighted consensus computation.
type tally struct {
	reached          bool
	totalWeight      float64
	supportingWeight float64
	totalVotes       int
	decision         Decision
	resolutionMethod string
	winningRoles     []AgentRole
}

// BuildConsensus runs one weighted consensus round: it computes the quorum
// requirement for the category, detects conflicting positions, tallies the
// weighted recommendations, classifies the outcome, and persists the
// resulting record. When consensus is reached, contributions referenced by
// winning recommendations are marked approved best-effort: an approval
// failure is logged and the remaining winners are still processed, so the
// persisted consensus record always stands.
func (s *Service) BuildConsensus(ctx context.Context, sessionID, topic string, category DecisionCategory, recommendations []Recommendation) (*ConsensusResult, error) {
	ctx, span := s.tracer.Start(ctx, "team.build_consensus")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrSessionID, sessionID),
		attribute.String(telemetry.AttrDecisionTopic, topic),
		attribute.String(telemetry.AttrDecisionCategory, string(category)),
	)

	start := s.now()

	fraction, ok := categoryFractions[category]
	if !ok {
		err := cerrors.New(cerrors.CodeInvalidInput,
			fmt.Sprintf("unknown decision category %q", category), nil).
			WithAttribute(telemetry.AttrDecisionCategory, string(category))
		s.metrics.RecordError(ctx, err, "consensus")
		return nil, err
	}
	requiredVotes := int(math.Ceil(float64(len(AllRoles())) * fraction))

	record, err := s.stores.Consensus.Insert(ctx, ConsensusRecord{
		SessionID:     sessionID,
		Topic:         topic,
		Category:      category,
		RequiredVotes: requiredVotes,
		Conflicts:     identifyConflicts(recommendations),
		CreatedAt:     start,
	})
	if err != nil {
		return nil, s.storeErr(ctx, err, "consensus", "insert consensus record failed")
	}

	result := tallyRecommendations(recommendations)
	consensusTime := s.now().Sub(start).Milliseconds()

	err = s.stores.Consensus.Finalize(ctx, record.ID, ConsensusFinal{
		Reached:          result.reached,
		ActualVotes:      result.totalVotes,
		Decision:         result.decision,
		ConsensusTimeMs:  consensusTime,
		ResolutionMethod: result.resolutionMethod,
	})
	if err != nil {
		return nil, s.storeErr(ctx, err, "consensus", "finalize consensus record failed")
	}

	if result.reached {
		s.approveWinningContributions(ctx, recommendations, result.winningRoles)
	}

	span.SetAttributes(
		attribute.Bool(telemetry.AttrConsensusReached, result.reached),
		attribute.String(telemetry.AttrResolutionMethod, result.resolutionMethod),
		attribute.Int(telemetry.AttrVotes, result.totalVotes),
	)
	s.metrics.RecordConsensusRound(ctx, string(category), result.resolutionMethod, result.reached, consensusTime)
	s.logger.InfoContext(ctx, "consensus round resolved",
		"session_id", sessionID,
		"topic", topic,
		"category", category,
		"consensus", result.reached,
		"resolution", result.resolutionMethod,
		"votes", result.totalVotes,
		"required", requiredVotes,
		"consensus_time_ms", consensusTime)

	return &ConsensusResult{
		ConsensusID:     record.ID,
		Reached:         result.reached,
		Votes:           result.totalVotes,
		Required:        requiredVotes,
		Decision:        result.decision,
		ConsensusTimeMs: consensusTime,
	}, nil
}

// tallyRecommendations accumulates role weights into supporting and opposing
// buckets and classifies the support ratio. The ratio is normalized against
// the weights actually present, not the global census, so partial and
// unknown-role inputs still classify sensibly. An empty input has zero total
// weight and is treated as no consensus.
func tallyRecommendations(recommendations []Recommendation) tally {
	var totalWeight, supportingWeight float64
	supporting := make([]AgentRole, 0)
	opposing := make([]AgentRole, 0)

	for _, rec := range recommendations {
		weight := rec.Role.Weight()
		totalWeight += weight
		if supports(rec) {
			supportingWeight += weight
			supporting = append(supporting, rec.Role)
		} else {
			opposing = append(opposing, rec.Role)
		}
	}

	ratio := 0.0
	if totalWeight > 0 {
		ratio = supportingWeight / totalWeight
	}
	percentage := fmt.Sprintf("%.1f", ratio*100)

	result := tally{
		totalWeight:      totalWeight,
		supportingWeight: supportingWeight,
		totalVotes:       len(recommendations),
		winningRoles:     supporting,
	}

	switch {
	case ratio >= approvalRatio:
		result.reached = true
		result.resolutionMethod = resolutionUnanimous
		result.decision = Decision{
			Status:            statusApproved,
			SupportingRoles:   supporting,
			SupportPercentage: percentage,
		}
	case ratio > rejectionRatio:
		result.resolutionMethod = resolutionMajority
		result.decision = Decision{
			Status:            statusConditionalApproval,
			SupportingRoles:   supporting,
			OpposingRoles:     opposing,
			SupportPercentage: percentage,
		}
	default:
		result.resolutionMethod = resolutionInsufficient
		result.decision = Decision{
			Status:            statusRejected,
			SupportingRoles:   supporting,
			OpposingRoles:     opposing,
			SupportPercentage: percentage,
		}
	}
	return result
}

// supports reports whether a recommendation counts toward the supporting
// weight: an explicit APPROVE label or a true support flag.
func supports(rec Recommendation) bool {
	return rec.Recommendation == "APPROVE" || rec.Support
}

// identifyConflicts groups recommendations by position (label plus support
// flag) and reports every group holding more than one agent. Single-agent
// positions are not conflicts. Group order follows first appearance in the
// input.
func identifyConflicts(recommendations []Recommendation) []ConflictCluster {
	order := make([]string, 0)
	groups := make(map[string][]AgentRole)
	for _, rec := range recommendations {
		key := fmt.Sprintf("%s_%t", rec.Recommendation, rec.Support)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec.Role)
	}

	clusters := make([]ConflictCluster, 0)
	for _, key := range order {
		if roles := groups[key]; len(roles) > 1 {
			clusters = append(clusters, ConflictCluster{Position: key, Roles: roles})
		}
	}
	return clusters
}

// approveWinningContributions marks referenced contributions of winning
// roles as approved. Failures are logged and skipped; the consensus record
// is already persisted and is not rolled back.
func (s *Service) approveWinningContributions(ctx context.Context, recommendations []Recommendation, winners []AgentRole) {
	winning := make(map[AgentRole]bool, len(winners))
	for _, role := range winners {
		winning[role] = true
	}
	for _, rec := range recommendations {
		if !winning[rec.Role] || rec.ContributionID == "" {
			continue
		}
		if err := s.stores.Contributions.MarkApproved(ctx, rec.ContributionID, 1); err != nil {
			s.metrics.RecordError(ctx, err, "consensus")
			s.logger.WarnContext(ctx, "approving winning contribution failed",
				"contribution_id", rec.ContributionID,
				"agent_type", rec.Role,
				"error", err)
		}
	}
}
