package team

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
)

// MemorySessionStore keeps sessions in memory. Intended for tests and the
// memory store driver.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Insert stores a new session, assigning an id when absent.
func (s *MemorySessionStore) Insert(_ context.Context, session Session) (*Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	copied := cloneSession(&session)
	s.mu.Lock()
	s.sessions[session.ID] = copied
	s.mu.Unlock()
	return cloneSession(copied), nil
}

// Get returns a session by id.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, cerrors.New(cerrors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	return cloneSession(session), nil
}

// Complete marks a session completed, overwriting completion fields in place.
func (s *MemorySessionStore) Complete(_ context.Context, id string, completion SessionCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return cerrors.New(cerrors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	session.Status = SessionCompleted
	session.CompletedAt = completion.CompletedAt
	session.Metadata = cloneMap(completion.Metadata)
	return nil
}

// List returns sessions matching the filter, newest first.
func (s *MemorySessionStore) List(_ context.Context, filter SessionFilter) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0)
	for _, session := range s.sessions {
		if !filter.CreatedAfter.IsZero() && session.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		out = append(out, cloneSession(session))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MemoryContributionStore keeps contributions in memory.
type MemoryContributionStore struct {
	mu            sync.RWMutex
	contributions map[string]*Contribution
}

// NewMemoryContributionStore creates an in-memory contribution store.
func NewMemoryContributionStore() *MemoryContributionStore {
	return &MemoryContributionStore{contributions: make(map[string]*Contribution)}
}

// Insert stores a new contribution.
func (s *MemoryContributionStore) Insert(_ context.Context, contribution Contribution) (*Contribution, error) {
	if contribution.ID == "" {
		contribution.ID = uuid.NewString()
	}
	if contribution.CreatedAt.IsZero() {
		contribution.CreatedAt = time.Now().UTC()
	}
	copied := cloneContribution(&contribution)
	s.mu.Lock()
	s.contributions[contribution.ID] = copied
	s.mu.Unlock()
	return cloneContribution(copied), nil
}

// Get returns a contribution by id.
func (s *MemoryContributionStore) Get(_ context.Context, id string) (*Contribution, error) {
	s.mu.RLock()
	contribution, ok := s.contributions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, cerrors.New(cerrors.CodeNotFound, "contribution not found", nil).
			WithContext("contribution_id", id)
	}
	return cloneContribution(contribution), nil
}

// MarkApproved flips the approval flag and bumps the vote counter.
func (s *MemoryContributionStore) MarkApproved(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contribution, ok := s.contributions[id]
	if !ok {
		return cerrors.New(cerrors.CodeNotFound, "contribution not found", nil).
			WithContext("contribution_id", id)
	}
	contribution.Approved = true
	contribution.ApprovalVotes += delta
	return nil
}

// List returns contributions matching the filter in submission order.
func (s *MemoryContributionStore) List(_ context.Context, filter RecordFilter) ([]*Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Contribution, 0)
	for _, contribution := range s.contributions {
		if filter.SessionID != "" && contribution.SessionID != filter.SessionID {
			continue
		}
		if filter.AgentID != "" && contribution.AgentID != filter.AgentID {
			continue
		}
		if !filter.CreatedAfter.IsZero() && contribution.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		out = append(out, cloneContribution(contribution))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryConsensusStore keeps consensus records in memory.
type MemoryConsensusStore struct {
	mu      sync.RWMutex
	records map[string]*ConsensusRecord
}

// NewMemoryConsensusStore creates an in-memory consensus store.
func NewMemoryConsensusStore() *MemoryConsensusStore {
	return &MemoryConsensusStore{records: make(map[string]*ConsensusRecord)}
}

// Insert stores a new consensus record.
func (s *MemoryConsensusStore) Insert(_ context.Context, record ConsensusRecord) (*ConsensusRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	copied := cloneConsensusRecord(&record)
	s.mu.Lock()
	s.records[record.ID] = copied
	s.mu.Unlock()
	return cloneConsensusRecord(copied), nil
}

// Get returns a consensus record by id.
func (s *MemoryConsensusStore) Get(_ context.Context, id string) (*ConsensusRecord, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, cerrors.New(cerrors.CodeNotFound, "consensus record not found", nil).
			WithContext("consensus_id", id)
	}
	return cloneConsensusRecord(record), nil
}

// Finalize writes the decision fields of a consensus record.
func (s *MemoryConsensusStore) Finalize(_ context.Context, id string, final ConsensusFinal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return cerrors.New(cerrors.CodeNotFound, "consensus record not found", nil).
			WithContext("consensus_id", id)
	}
	record.Reached = final.Reached
	record.ActualVotes = final.ActualVotes
	record.Decision = cloneDecision(final.Decision)
	record.ConsensusTimeMs = final.ConsensusTimeMs
	record.ResolutionMethod = final.ResolutionMethod
	return nil
}

// List returns consensus records matching the filter, oldest first.
func (s *MemoryConsensusStore) List(_ context.Context, filter RecordFilter) ([]*ConsensusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ConsensusRecord, 0)
	for _, record := range s.records {
		if filter.SessionID != "" && record.SessionID != filter.SessionID {
			continue
		}
		if !filter.CreatedAfter.IsZero() && record.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		out = append(out, cloneConsensusRecord(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryMessageStore keeps messages in memory.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string]*Message
}

// NewMemoryMessageStore creates an in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{messages: make(map[string]*Message)}
}

// Insert stores a new message.
func (s *MemoryMessageStore) Insert(_ context.Context, message Message) (*Message, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	copied := cloneMessage(&message)
	s.mu.Lock()
	s.messages[message.ID] = copied
	s.mu.Unlock()
	return cloneMessage(copied), nil
}

// List returns messages matching the filter, oldest first.
func (s *MemoryMessageStore) List(_ context.Context, filter RecordFilter) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Message, 0)
	for _, message := range s.messages {
		if filter.SessionID != "" && message.SessionID != filter.SessionID {
			continue
		}
		if !filter.CreatedAfter.IsZero() && message.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		out = append(out, cloneMessage(message))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryMetricStore keeps performance metrics in memory.
type MemoryMetricStore struct {
	mu      sync.RWMutex
	metrics map[string]*PerformanceMetric
}

// NewMemoryMetricStore creates an in-memory metric store.
func NewMemoryMetricStore() *MemoryMetricStore {
	return &MemoryMetricStore{metrics: make(map[string]*PerformanceMetric)}
}

// Insert stores a new performance metric.
func (s *MemoryMetricStore) Insert(_ context.Context, metric PerformanceMetric) (*PerformanceMetric, error) {
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	copied := metric
	s.mu.Lock()
	s.metrics[metric.ID] = &copied
	s.mu.Unlock()
	result := copied
	return &result, nil
}

// List returns metrics matching the filter, oldest first.
func (s *MemoryMetricStore) List(_ context.Context, filter RecordFilter) ([]*PerformanceMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PerformanceMetric, 0)
	for _, metric := range s.metrics {
		if filter.SessionID != "" && metric.SessionID != filter.SessionID {
			continue
		}
		if filter.AgentID != "" && metric.AgentID != filter.AgentID {
			continue
		}
		if !filter.CreatedAfter.IsZero() && metric.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		copied := *metric
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneSession(s *Session) *Session {
	copied := *s
	copied.Participants = append([]AgentRole(nil), s.Participants...)
	copied.Metadata = cloneMap(s.Metadata)
	return &copied
}

func cloneContribution(c *Contribution) *Contribution {
	copied := *c
	copied.Content = cloneMap(c.Content)
	return &copied
}

func cloneConsensusRecord(r *ConsensusRecord) *ConsensusRecord {
	copied := *r
	copied.Conflicts = make([]ConflictCluster, len(r.Conflicts))
	for i, cluster := range r.Conflicts {
		copied.Conflicts[i] = ConflictCluster{
			Position: cluster.Position,
			Roles:    append([]AgentRole(nil), cluster.Roles...),
		}
	}
	copied.Decision = cloneDecision(r.Decision)
	return &copied
}

func cloneDecision(d Decision) Decision {
	d.SupportingRoles = append([]AgentRole(nil), d.SupportingRoles...)
	d.OpposingRoles = append([]AgentRole(nil), d.OpposingRoles...)
	return d
}

func cloneMessage(m *Message) *Message {
	copied := *m
	copied.Content = cloneMap(m.Content)
	return &copied
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
