package team

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Analytics computes read-only rollups over the recorded history. The window
// is "7d", "30d", or anything else for unfiltered. The computation is a pure
// reduce over a snapshot of sessions and consensus records; nothing is
// mutated.
func (s *Service) Analytics(ctx context.Context, window string) (*AnalyticsReport, error) {
	ctx, span := s.tracer.Start(ctx, "team.analytics")
	defer span.End()

	var cutoff time.Time
	switch window {
	case "7d":
		cutoff = s.now().AddDate(0, 0, -7)
	case "30d":
		cutoff = s.now().AddDate(0, 0, -30)
	}

	sessions, err := s.stores.Sessions.List(ctx, SessionFilter{CreatedAfter: cutoff})
	if err != nil {
		return nil, s.storeErr(ctx, err, "analytics", "list sessions failed")
	}
	records, err := s.stores.Consensus.List(ctx, RecordFilter{CreatedAfter: cutoff})
	if err != nil {
		return nil, s.storeErr(ctx, err, "analytics", "list consensus records failed")
	}

	completed := 0
	participation := make(map[AgentRole]int)
	for _, session := range sessions {
		if session.Status == SessionCompleted {
			completed++
		}
		for _, role := range session.Participants {
			participation[role]++
		}
	}

	return &AnalyticsReport{
		TimeRange:            window,
		TotalSessions:        len(sessions),
		CompletedSessions:    completed,
		ConsensusRate:        consensusRate(records),
		AverageConsensusTime: averageConsensusTime(records),
		AgentParticipation:   participation,
	}, nil
}

// consensusRate is the percentage of consensus records that reached
// consensus, one decimal. A bare "0" when there are no records at all.
func consensusRate(records []*ConsensusRecord) string {
	if len(records) == 0 {
		return "0"
	}
	reached := 0
	for _, record := range records {
		if record.Reached {
			reached++
		}
	}
	return fmt.Sprintf("%.1f", float64(reached)/float64(len(records))*100)
}

// averageConsensusTime is the mean consensus time in milliseconds over the
// records that carry one, rounded to the nearest integer. 0 when none do.
func averageConsensusTime(records []*ConsensusRecord) int64 {
	var total, count int64
	for _, record := range records {
		if record.ConsensusTimeMs > 0 {
			total += record.ConsensusTimeMs
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(count)))
}
