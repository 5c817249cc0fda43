package team

import "time"

// SessionType determines the default consensus threshold of a session.
type SessionType string

const (
	SessionDevelopment SessionType = "development"
	SessionEmergency   SessionType = "emergency"
)

// SessionStatus captures the one-way session lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is the top-level coordination container. Contributions, consensus
// rounds, and messages all reference it by id.
type Session struct {
	ID     string        `json:"id"`
	Name   string        `json:"session_name"`
	Type   SessionType   `json:"session_type"`
	Status SessionStatus `json:"status"`
	// Threshold is advisory session metadata derived from the session type
	// (0.8 emergency, 0.6 otherwise). Consensus classification uses the
	// fixed ratio bands in consensus.go, not this value.
	Threshold    float64        `json:"consensus_threshold"`
	Participants []AgentRole    `json:"participants"`
	Coordinator  string         `json:"coordinator_agent"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  time.Time      `json:"completed_at,omitzero"`
}

// Contribution is one agent's stored input to a session. Contributions are
// never deleted; the consensus engine flips Approved when the owning role
// ends up among the winners.
type Contribution struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"team_session_id"`
	AgentID       string         `json:"agent_id"`
	Role          AgentRole      `json:"agent_type"`
	Type          string         `json:"contribution_type"`
	Content       map[string]any `json:"content"`
	Confidence    float64        `json:"confidence_score"`
	Approved      bool           `json:"is_approved"`
	ApprovalVotes int            `json:"approval_votes"`
	CreatedAt     time.Time      `json:"created_at"`
}

// DecisionCategory maps to the required-vote fraction of a consensus round.
type DecisionCategory string

const (
	CategoryCritical DecisionCategory = "CRITICAL"
	CategoryMajor    DecisionCategory = "MAJOR"
	CategoryMinor    DecisionCategory = "MINOR"
)

// Recommendation is one agent's vote in a consensus round. A recommendation
// supports the topic when its label is "APPROVE" or Support is true.
// ContributionID optionally points at a prior contribution to approve when
// the role wins.
type Recommendation struct {
	Role           AgentRole `json:"agent_type"`
	Recommendation string    `json:"recommendation"`
	Support        bool      `json:"support"`
	Reasoning      string    `json:"reasoning,omitempty"`
	ContributionID string    `json:"contribution_id,omitempty"`
}

// ConflictCluster reports a group of two or more agents that took the same
// position, keyed by recommendation label and support flag. Informational
// only; it never blocks the computation.
type ConflictCluster struct {
	Position string      `json:"position"`
	Roles    []AgentRole `json:"agents"`
}

// Decision is the structured outcome of a consensus classification.
type Decision struct {
	Status            string      `json:"status"`
	SupportingRoles   []AgentRole `json:"supporting_agents"`
	OpposingRoles     []AgentRole `json:"opposing_agents,omitempty"`
	SupportPercentage string      `json:"support_percentage"`
}

// ConsensusRecord is one decision request within a session. It is created at
// the start of a consensus computation and finalized exactly once.
type ConsensusRecord struct {
	ID               string            `json:"id"`
	SessionID        string            `json:"team_session_id"`
	Topic            string            `json:"decision_topic"`
	Category         DecisionCategory  `json:"decision_category"`
	RequiredVotes    int               `json:"required_votes"`
	Conflicts        []ConflictCluster `json:"conflicting_opinions,omitempty"`
	Reached          bool              `json:"consensus_reached"`
	ActualVotes      int               `json:"actual_votes"`
	Decision         Decision          `json:"final_decision"`
	ConsensusTimeMs  int64             `json:"consensus_time_ms"`
	ResolutionMethod string            `json:"resolution_method"`
	CreatedAt        time.Time         `json:"created_at"`
}

// MessagePriority orders inter-agent notifications.
type MessagePriority string

const (
	PriorityLow      MessagePriority = "LOW"
	PriorityMedium   MessagePriority = "MEDIUM"
	PriorityHigh     MessagePriority = "HIGH"
	PriorityCritical MessagePriority = "CRITICAL"
)

// Message records one inter-agent notification. An empty Receiver denotes a
// broadcast. ResponseDeadline is metadata only; nothing enforces it.
type Message struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"team_session_id"`
	Sender           string          `json:"sender_agent"`
	Receiver         string          `json:"receiver_agent,omitempty"`
	Type             string          `json:"message_type"`
	Priority         MessagePriority `json:"priority"`
	Content          map[string]any  `json:"content"`
	RequiresResponse bool            `json:"requires_response"`
	ResponseDeadline time.Time       `json:"response_deadline,omitzero"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PerformanceMetric is one measured data point about an agent's work inside
// a session.
type PerformanceMetric struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	SessionID string    `json:"team_session_id"`
	Type      string    `json:"metric_type"`
	Value     float64   `json:"metric_value"`
	Context   string    `json:"measurement_context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDetail is the denormalized read of a session: the session row plus
// all child records, each fetched independently.
type SessionDetail struct {
	Session        *Session             `json:"session"`
	Contributions  []*Contribution      `json:"contributions"`
	Consensus      []*ConsensusRecord   `json:"consensus"`
	Communications []*Message           `json:"communications"`
	Performance    []*PerformanceMetric `json:"performance"`
}

// ConsensusResult is returned to the caller of BuildConsensus.
type ConsensusResult struct {
	ConsensusID     string   `json:"consensus_id"`
	Reached         bool     `json:"consensus"`
	Votes           int      `json:"votes"`
	Required        int      `json:"required"`
	Decision        Decision `json:"decision"`
	ConsensusTimeMs int64    `json:"consensus_time_ms"`
}

// AnalyticsReport is a read-only rollup over a time window.
type AnalyticsReport struct {
	TimeRange            string            `json:"time_range"`
	TotalSessions        int               `json:"total_sessions"`
	CompletedSessions    int               `json:"completed_sessions"`
	ConsensusRate        string            `json:"consensus_rate"`
	AverageConsensusTime int64             `json:"average_consensus_time_ms"`
	AgentParticipation   map[AgentRole]int `json:"agent_participation"`
}
