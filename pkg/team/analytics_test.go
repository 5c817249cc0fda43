package team

import (
	"context"
	"testing"
	"time"

	ctesting "github.com/jllopis/cabildo/pkg/testing"
)

func TestAnalyticsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.Analytics(context.Background(), "all")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if report.TotalSessions != 0 || report.CompletedSessions != 0 {
		t.Errorf("expected zero sessions, got %+v", report)
	}
	if report.ConsensusRate != "0" {
		t.Errorf("expected consensus rate 0 with no records, got %s", report.ConsensusRate)
	}
	if report.AverageConsensusTime != 0 {
		t.Errorf("expected zero average time, got %d", report.AverageConsensusTime)
	}
}

func TestAnalyticsConsensusRate(t *testing.T) {
	svc, stores := newTestService(t)
	ctx := context.Background()

	for _, reached := range []bool{true, true, false} {
		record, err := stores.Consensus.Insert(ctx, ConsensusRecord{SessionID: "sess-1"})
		if err != nil {
			t.Fatalf("insert record: %v", err)
		}
		if err := stores.Consensus.Finalize(ctx, record.ID, ConsensusFinal{
			Reached:         reached,
			ConsensusTimeMs: 100,
		}); err != nil {
			t.Fatalf("finalize record: %v", err)
		}
	}

	report, err := svc.Analytics(ctx, "all")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if report.ConsensusRate != "66.7" {
		t.Errorf("expected consensus rate 66.7, got %s", report.ConsensusRate)
	}
}

func TestAnalyticsConsensusRateAllFailed(t *testing.T) {
	svc, stores := newTestService(t)
	ctx := context.Background()

	record, err := stores.Consensus.Insert(ctx, ConsensusRecord{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
	if err := stores.Consensus.Finalize(ctx, record.ID, ConsensusFinal{Reached: false}); err != nil {
		t.Fatalf("finalize record: %v", err)
	}

	report, err := svc.Analytics(ctx, "all")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	// Records exist, so the rate keeps its one-decimal form.
	if report.ConsensusRate != "0.0" {
		t.Errorf("expected consensus rate 0.0 with only failed rounds, got %s", report.ConsensusRate)
	}
}

func TestAnalyticsAverageConsensusTime(t *testing.T) {
	svc, stores := newTestService(t)
	ctx := context.Background()

	// Records with zero time are excluded from the mean.
	for _, ms := range []int64{100, 201, 0} {
		record, err := stores.Consensus.Insert(ctx, ConsensusRecord{SessionID: "sess-1"})
		if err != nil {
			t.Fatalf("insert record: %v", err)
		}
		if err := stores.Consensus.Finalize(ctx, record.ID, ConsensusFinal{
			Reached:         true,
			ConsensusTimeMs: ms,
		}); err != nil {
			t.Fatalf("finalize record: %v", err)
		}
	}

	report, err := svc.Analytics(ctx, "all")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if report.AverageConsensusTime != 151 {
		t.Errorf("expected average 151 ms, got %d", report.AverageConsensusTime)
	}
}

func TestAnalyticsParticipationAndCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	assert := ctesting.NewAssertions(t)

	first, err := svc.CreateSession(ctx, "first", SessionDevelopment, "")
	assert.AssertNoError(err, "create first session")
	_, err = svc.CreateSession(ctx, "second", SessionDevelopment, "")
	assert.AssertNoError(err, "create second session")
	assert.AssertNoError(svc.CompleteSession(ctx, first.ID, nil), "complete first session")

	report, err := svc.Analytics(ctx, "all")
	assert.AssertNoError(err, "analytics")
	assert.AssertEqual(2, report.TotalSessions, "total sessions")
	assert.AssertEqual(1, report.CompletedSessions, "completed sessions")
	for _, role := range AllRoles() {
		assert.AssertEqual(2, report.AgentParticipation[role], "participation for "+string(role))
	}
}

func TestAnalyticsWindowFilters(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(stores, WithClock(fixedClock(now)))

	if _, err := stores.Sessions.Insert(ctx, Session{
		Name: "old", Status: SessionActive, CreatedAt: now.AddDate(0, 0, -14),
	}); err != nil {
		t.Fatalf("insert old session: %v", err)
	}
	if _, err := stores.Sessions.Insert(ctx, Session{
		Name: "recent", Status: SessionActive, CreatedAt: now.AddDate(0, 0, -2),
	}); err != nil {
		t.Fatalf("insert recent session: %v", err)
	}

	assert := ctesting.NewAssertions(t)

	weekly, err := svc.Analytics(ctx, "7d")
	assert.AssertNoError(err, "analytics 7d")
	assert.AssertEqual(1, weekly.TotalSessions, "sessions inside 7d window")

	monthly, err := svc.Analytics(ctx, "30d")
	assert.AssertNoError(err, "analytics 30d")
	assert.AssertEqual(2, monthly.TotalSessions, "sessions inside 30d window")

	all, err := svc.Analytics(ctx, "all")
	assert.AssertNoError(err, "analytics unfiltered")
	assert.AssertEqual(2, all.TotalSessions, "sessions unfiltered")
}
