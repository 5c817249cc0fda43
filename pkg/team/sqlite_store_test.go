package team

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
)

func newSQLiteStores(t *testing.T) Stores {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "cabildo-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	stores, err := NewSQLiteStores(db)
	if err != nil {
		t.Fatalf("new sqlite stores: %v", err)
	}
	return stores
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	created := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	session, err := stores.Sessions.Insert(ctx, Session{
		Name:         "rollout review",
		Type:         SessionDevelopment,
		Status:       SessionActive,
		Threshold:    0.6,
		Participants: AllRoles(),
		Coordinator:  "AICommander",
		Metadata:     map[string]any{"created_with": "cabildo"},
		CreatedAt:    created,
	})
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected assigned session id")
	}

	loaded, err := stores.Sessions.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if loaded.Name != "rollout review" || loaded.Type != SessionDevelopment {
		t.Errorf("unexpected session %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, loaded.CreatedAt)
	}
	if len(loaded.Participants) != 5 {
		t.Errorf("expected 5 participants, got %v", loaded.Participants)
	}
	if loaded.Metadata["created_with"] != "cabildo" {
		t.Errorf("expected metadata round-trip, got %v", loaded.Metadata)
	}
	if !loaded.CompletedAt.IsZero() {
		t.Errorf("expected zero completion time, got %v", loaded.CompletedAt)
	}

	completedAt := created.Add(time.Hour)
	if err := stores.Sessions.Complete(ctx, session.ID, SessionCompletion{
		CompletedAt: completedAt,
		Metadata:    map[string]any{"outcome": "shipped"},
	}); err != nil {
		t.Fatalf("complete session: %v", err)
	}
	loaded, err = stores.Sessions.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get completed session: %v", err)
	}
	if loaded.Status != SessionCompleted {
		t.Errorf("expected completed status, got %s", loaded.Status)
	}
	if !loaded.CompletedAt.Equal(completedAt) {
		t.Errorf("expected completed_at %v, got %v", completedAt, loaded.CompletedAt)
	}
	if loaded.Metadata["outcome"] != "shipped" {
		t.Errorf("expected completion metadata, got %v", loaded.Metadata)
	}
}

func TestSQLiteSessionList(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, status := range []SessionStatus{SessionActive, SessionActive, SessionCompleted} {
		if _, err := stores.Sessions.Insert(ctx, Session{
			Name: "s", Type: SessionDevelopment, Status: status,
			Participants: AllRoles(), Coordinator: "AICommander",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
	}

	active, err := stores.Sessions.List(ctx, SessionFilter{Status: SessionActive})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active sessions, got %d", len(active))
	}

	recent, err := stores.Sessions.List(ctx, SessionFilter{CreatedAfter: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 sessions after cutoff, got %d", len(recent))
	}
	if len(recent) == 2 && recent[0].CreatedAt.Before(recent[1].CreatedAt) {
		t.Errorf("expected newest-first ordering")
	}
}

func TestSQLiteSessionNotFound(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	_, err := stores.Sessions.Get(ctx, "missing")
	assertNotFound(t, err)
	err = stores.Sessions.Complete(ctx, "missing", SessionCompletion{CompletedAt: time.Now()})
	assertNotFound(t, err)
}

func TestSQLiteContributionRoundTrip(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	contribution, err := stores.Contributions.Insert(ctx, Contribution{
		SessionID:  "sess-1",
		AgentID:    "dev-1",
		Role:       RoleDevelopment,
		Type:       "patch",
		Content:    map[string]any{"files": float64(3)},
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("insert contribution: %v", err)
	}

	loaded, err := stores.Contributions.Get(ctx, contribution.ID)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if loaded.Role != RoleDevelopment || loaded.Confidence != 0.9 {
		t.Errorf("unexpected contribution %+v", loaded)
	}
	if loaded.Content["files"] != float64(3) {
		t.Errorf("expected content round-trip, got %v", loaded.Content)
	}
	if loaded.Approved || loaded.ApprovalVotes != 0 {
		t.Errorf("expected unapproved contribution, got %+v", loaded)
	}

	if err := stores.Contributions.MarkApproved(ctx, contribution.ID, 1); err != nil {
		t.Fatalf("mark approved: %v", err)
	}
	if err := stores.Contributions.MarkApproved(ctx, contribution.ID, 1); err != nil {
		t.Fatalf("mark approved again: %v", err)
	}
	loaded, err = stores.Contributions.Get(ctx, contribution.ID)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if !loaded.Approved {
		t.Errorf("expected approved contribution")
	}
	if loaded.ApprovalVotes != 2 {
		t.Errorf("expected 2 accumulated votes, got %d", loaded.ApprovalVotes)
	}

	assertNotFound(t, stores.Contributions.MarkApproved(ctx, "missing", 1))
}

func TestSQLiteContributionListByAgent(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	for _, agent := range []string{"dev-1", "dev-1", "mon-1"} {
		if _, err := stores.Contributions.Insert(ctx, Contribution{
			SessionID: "sess-1", AgentID: agent, Role: RoleDevelopment, Type: "patch",
		}); err != nil {
			t.Fatalf("insert contribution: %v", err)
		}
	}

	mine, err := stores.Contributions.List(ctx, RecordFilter{SessionID: "sess-1", AgentID: "dev-1"})
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 contributions for dev-1, got %d", len(mine))
	}
	other, err := stores.Contributions.List(ctx, RecordFilter{SessionID: "other"})
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty list for unknown session, got %d", len(other))
	}
}

func TestSQLiteConsensusRoundTrip(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	record, err := stores.Consensus.Insert(ctx, ConsensusRecord{
		SessionID:     "sess-1",
		Topic:         "adopt rate limiter",
		Category:      CategoryMajor,
		RequiredVotes: 3,
		Conflicts: []ConflictCluster{
			{Position: "APPROVE_true", Roles: []AgentRole{RoleDevelopment, RoleMonitoring}},
		},
	})
	if err != nil {
		t.Fatalf("insert consensus record: %v", err)
	}

	if err := stores.Consensus.Finalize(ctx, record.ID, ConsensusFinal{
		Reached:     true,
		ActualVotes: 4,
		Decision: Decision{
			Status:            "approved",
			SupportingRoles:   []AgentRole{RoleDevelopment, RoleMonitoring},
			SupportPercentage: "65.0",
		},
		ConsensusTimeMs:  42,
		ResolutionMethod: "unanimous_support",
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	loaded, err := stores.Consensus.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get consensus record: %v", err)
	}
	if loaded.Topic != "adopt rate limiter" || loaded.Category != CategoryMajor {
		t.Errorf("unexpected record %+v", loaded)
	}
	if !loaded.Reached || loaded.ActualVotes != 4 || loaded.ConsensusTimeMs != 42 {
		t.Errorf("expected finalized fields, got %+v", loaded)
	}
	if loaded.ResolutionMethod != "unanimous_support" {
		t.Errorf("unexpected resolution method %s", loaded.ResolutionMethod)
	}
	if loaded.Decision.Status != "approved" || loaded.Decision.SupportPercentage != "65.0" {
		t.Errorf("expected decision round-trip, got %+v", loaded.Decision)
	}
	if len(loaded.Conflicts) != 1 || len(loaded.Conflicts[0].Roles) != 2 {
		t.Errorf("expected conflict cluster round-trip, got %+v", loaded.Conflicts)
	}

	assertNotFound(t, stores.Consensus.Finalize(ctx, "missing", ConsensusFinal{}))
}

func TestSQLiteMessageRoundTrip(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	deadline := time.Date(2026, 4, 1, 10, 5, 0, 0, time.UTC)
	if _, err := stores.Messages.Insert(ctx, Message{
		SessionID:        "sess-1",
		Sender:           "AICommander",
		Type:             "ALERT",
		Priority:         PriorityCritical,
		Content:          map[string]any{"severity": "HIGH"},
		RequiresResponse: true,
		ResponseDeadline: deadline,
	}); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if _, err := stores.Messages.Insert(ctx, Message{
		SessionID: "sess-1", Sender: "dev-1", Receiver: "mon-1",
		Type: "STATUS", Priority: PriorityMedium,
	}); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	messages, err := stores.Messages.List(ctx, RecordFilter{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	alert := messages[0]
	if alert.Receiver != "" || !alert.RequiresResponse {
		t.Errorf("expected broadcast requiring response, got %+v", alert)
	}
	if !alert.ResponseDeadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, alert.ResponseDeadline)
	}
	if alert.Content["severity"] != "HIGH" {
		t.Errorf("expected content round-trip, got %v", alert.Content)
	}
	if messages[1].ResponseDeadline != (time.Time{}) {
		t.Errorf("expected zero deadline, got %v", messages[1].ResponseDeadline)
	}
}

func TestSQLiteAgentFilterIgnoredWithoutColumn(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	if _, err := stores.Messages.Insert(ctx, Message{
		SessionID: "sess-1", Sender: "dev-1", Type: "STATUS", Priority: PriorityMedium,
	}); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	record, err := stores.Consensus.Insert(ctx, ConsensusRecord{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("insert consensus record: %v", err)
	}

	// Messages and consensus rows have no agent column, so an AgentID
	// filter must not leak into the query.
	messages, err := stores.Messages.List(ctx, RecordFilter{SessionID: "sess-1", AgentID: "dev-1"})
	if err != nil {
		t.Fatalf("list messages with agent filter: %v", err)
	}
	if len(messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(messages))
	}

	records, err := stores.Consensus.List(ctx, RecordFilter{SessionID: "sess-1", AgentID: "dev-1"})
	if err != nil {
		t.Fatalf("list consensus records with agent filter: %v", err)
	}
	if len(records) != 1 || records[0].ID != record.ID {
		t.Errorf("expected the inserted consensus record, got %d records", len(records))
	}
}

func TestSQLiteMetricRoundTrip(t *testing.T) {
	stores := newSQLiteStores(t)
	ctx := context.Background()

	if _, err := stores.Metrics.Insert(ctx, PerformanceMetric{
		AgentID:   "dev-1",
		SessionID: "sess-1",
		Type:      "response_time_ms",
		Value:     420,
		Context:   "consensus round",
	}); err != nil {
		t.Fatalf("insert metric: %v", err)
	}

	metrics, err := stores.Metrics.List(ctx, RecordFilter{SessionID: "sess-1", AgentID: "dev-1"})
	if err != nil {
		t.Fatalf("list metrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(metrics))
	}
	if metrics[0].Value != 420 || metrics[0].Context != "consensus round" {
		t.Errorf("unexpected metric %+v", metrics[0])
	}
}

func TestServiceOverSQLite(t *testing.T) {
	stores := newSQLiteStores(t)
	svc := NewService(stores)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "integration", SessionDevelopment, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	contribution, err := svc.SubmitContribution(ctx, ContributionInput{
		SessionID: session.ID, AgentID: "dev-1", Role: RoleDevelopment,
		Type: "patch", Content: map[string]any{"diff": "..."},
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}
	result, err := svc.BuildConsensus(ctx, session.ID, "merge", CategoryMinor, []Recommendation{
		{Role: RoleDevelopment, Recommendation: "APPROVE", Support: true, ContributionID: contribution.ID},
		{Role: RoleSystemAnalyst, Recommendation: "APPROVE", Support: true},
	})
	if err != nil {
		t.Fatalf("BuildConsensus: %v", err)
	}
	if !result.Reached {
		t.Fatalf("expected consensus reached, got %+v", result)
	}

	approved, err := stores.Contributions.Get(ctx, contribution.ID)
	if err != nil {
		t.Fatalf("get contribution: %v", err)
	}
	if !approved.Approved || approved.ApprovalVotes != 1 {
		t.Errorf("expected approved contribution with one vote, got %+v", approved)
	}

	detail, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(detail.Contributions) != 1 || len(detail.Consensus) != 1 {
		t.Errorf("expected one contribution and one consensus record, got %+v", detail)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected not found error")
	}
	var ce *cerrors.CabildoError
	if !stderrors.As(err, &ce) || ce.Code != cerrors.CodeNotFound {
		t.Errorf("expected CodeNotFound, got %v", err)
	}
}
