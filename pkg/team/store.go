package team

import (
	"context"
	"time"
)

// SessionFilter limits session queries.
type SessionFilter struct {
	CreatedAfter time.Time
	Status       SessionStatus
}

// SessionCompletion carries the fields written when a session completes.
type SessionCompletion struct {
	CompletedAt time.Time
	Metadata    map[string]any
}

// ConsensusFinal carries the fields written when a consensus round resolves.
type ConsensusFinal struct {
	Reached          bool
	ActualVotes      int
	Decision         Decision
	ConsensusTimeMs  int64
	ResolutionMethod string
}

// RecordFilter limits child-record queries.
type RecordFilter struct {
	SessionID    string
	AgentID      string
	CreatedAfter time.Time
}

// SessionStore persists coordination sessions.
type SessionStore interface {
	Insert(ctx context.Context, session Session) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// Complete marks the session completed. It reports the session as not
	// found when no row matches; repeating it overwrites the completion
	// fields in place.
	Complete(ctx context.Context, id string, completion SessionCompletion) error
	List(ctx context.Context, filter SessionFilter) ([]*Session, error)
}

// ContributionStore persists agent contributions.
type ContributionStore interface {
	Insert(ctx context.Context, contribution Contribution) (*Contribution, error)
	Get(ctx context.Context, id string) (*Contribution, error)
	// MarkApproved sets the approval flag and adds delta to the vote
	// counter. Concurrent callers race last-write-wins at the store.
	MarkApproved(ctx context.Context, id string, delta int) error
	List(ctx context.Context, filter RecordFilter) ([]*Contribution, error)
}

// ConsensusStore persists consensus records.
type ConsensusStore interface {
	Insert(ctx context.Context, record ConsensusRecord) (*ConsensusRecord, error)
	Get(ctx context.Context, id string) (*ConsensusRecord, error)
	Finalize(ctx context.Context, id string, final ConsensusFinal) error
	List(ctx context.Context, filter RecordFilter) ([]*ConsensusRecord, error)
}

// MessageStore persists inter-agent messages.
type MessageStore interface {
	Insert(ctx context.Context, message Message) (*Message, error)
	List(ctx context.Context, filter RecordFilter) ([]*Message, error)
}

// MetricStore persists agent performance metrics.
type MetricStore interface {
	Insert(ctx context.Context, metric PerformanceMetric) (*PerformanceMetric, error)
	List(ctx context.Context, filter RecordFilter) ([]*PerformanceMetric, error)
}

// Stores groups the record stores the service operates on.
type Stores struct {
	Sessions      SessionStore
	Contributions ContributionStore
	Consensus     ConsensusStore
	Messages      MessageStore
	Metrics       MetricStore
}

// NewMemoryStores returns a Stores backed entirely by in-memory maps.
func NewMemoryStores() Stores {
	return Stores{
		Sessions:      NewMemorySessionStore(),
		Contributions: NewMemoryContributionStore(),
		Consensus:     NewMemoryConsensusStore(),
		Messages:      NewMemoryMessageStore(),
		Metrics:       NewMemoryMetricStore(),
	}
}
