package team

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
	"github.com/jllopis/cabildo/pkg/resilience"

	_ "modernc.org/sqlite"
)

// writeRetry retries writes that lose the SQLite write lock to a concurrent
// transaction. Reads are not retried; they do not take the write lock.
var writeRetry = resilience.DefaultRetryConfig().
	WithMaxAttempts(3).
	WithInitialDelay(25 * time.Millisecond).
	WithMaxDelay(250 * time.Millisecond).
	WithIsRecoverable(isSQLiteBusy)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func execWrite(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := writeRetry.Do(ctx, func() error {
		var execErr error
		result, execErr = db.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

const (
	sessionTable      = "team_sessions"
	contributionTable = "agent_contributions"
	consensusTable    = "team_consensus"
	messageTable      = "team_communications"
	metricTable       = "agent_performance"
)

// OpenSQLite opens (or creates) a SQLite database at the given DSN and
// ensures the coordination schema exists.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewSQLiteStores returns a Stores backed by the given SQLite database.
// The schema is ensured on construction.
func NewSQLiteStores(db *sql.DB) (Stores, error) {
	if db == nil {
		return Stores{}, fmt.Errorf("db is nil")
	}
	if err := ensureSQLiteSchema(db); err != nil {
		return Stores{}, err
	}
	return Stores{
		Sessions:      &SQLiteSessionStore{db: db},
		Contributions: &SQLiteContributionStore{db: db},
		Consensus:     &SQLiteConsensusStore{db: db},
		Messages:      &SQLiteMessageStore{db: db},
		Metrics:       &SQLiteMetricStore{db: db},
	}, nil
}

func ensureSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_name TEXT NOT NULL,
			session_type TEXT NOT NULL,
			status TEXT NOT NULL,
			consensus_threshold REAL NOT NULL,
			participants_json BLOB NOT NULL,
			coordinator_agent TEXT NOT NULL,
			metadata_json BLOB,
			created_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL DEFAULT 0
		);`, sessionTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status);`, sessionTable, sessionTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at);`, sessionTable, sessionTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			team_session_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			agent_type TEXT NOT NULL,
			contribution_type TEXT NOT NULL,
			content_json BLOB,
			confidence_score REAL NOT NULL,
			is_approved INTEGER NOT NULL DEFAULT 0,
			approval_votes INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`, contributionTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(team_session_id);`, contributionTable, contributionTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			team_session_id TEXT NOT NULL,
			decision_topic TEXT NOT NULL,
			decision_category TEXT NOT NULL,
			required_votes INTEGER NOT NULL,
			conflicts_json BLOB,
			consensus_reached INTEGER NOT NULL DEFAULT 0,
			actual_votes INTEGER NOT NULL DEFAULT 0,
			decision_json BLOB,
			consensus_time_ms INTEGER NOT NULL DEFAULT 0,
			resolution_method TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`, consensusTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(team_session_id);`, consensusTable, consensusTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at);`, consensusTable, consensusTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			team_session_id TEXT NOT NULL,
			sender_agent TEXT NOT NULL,
			receiver_agent TEXT NOT NULL DEFAULT '',
			message_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			content_json BLOB,
			requires_response INTEGER NOT NULL DEFAULT 0,
			response_deadline INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`, messageTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(team_session_id);`, messageTable, messageTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			team_session_id TEXT NOT NULL,
			metric_type TEXT NOT NULL,
			metric_value REAL NOT NULL,
			measurement_context TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`, metricTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(team_session_id);`, metricTable, metricTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_agent ON %s(agent_id);`, metricTable, metricTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteSessionStore persists sessions in a SQLite database.
type SQLiteSessionStore struct {
	db *sql.DB
}

// Insert stores a new session, assigning an id when absent.
func (s *SQLiteSessionStore) Insert(ctx context.Context, session Session) (*Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	participants, err := json.Marshal(session.Participants)
	if err != nil {
		return nil, err
	}
	metadata, err := marshalMap(session.Metadata)
	if err != nil {
		return nil, err
	}
	_, err = execWrite(ctx, s.db,
		fmt.Sprintf(`INSERT INTO %s (id, session_name, session_type, status, consensus_threshold,
			participants_json, coordinator_agent, metadata_json, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, sessionTable),
		session.ID, session.Name, string(session.Type), string(session.Status), session.Threshold,
		participants, session.Coordinator, metadata, session.CreatedAt.UnixMilli(), millisOrZero(session.CompletedAt))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, session.ID)
}

// Get returns a session by id.
func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, session_name, session_type, status, consensus_threshold,
			participants_json, coordinator_agent, metadata_json, created_at, completed_at
			FROM %s WHERE id = ?`, sessionTable), id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, cerrors.New(cerrors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	return session, err
}

// Complete marks a session completed.
func (s *SQLiteSessionStore) Complete(ctx context.Context, id string, completion SessionCompletion) error {
	metadata, err := marshalMap(completion.Metadata)
	if err != nil {
		return err
	}
	result, err := execWrite(ctx, s.db,
		fmt.Sprintf("UPDATE %s SET status = ?, completed_at = ?, metadata_json = ? WHERE id = ?", sessionTable),
		string(SessionCompleted), completion.CompletedAt.UnixMilli(), metadata, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cerrors.New(cerrors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	return nil
}

// List returns sessions matching the filter, newest first.
func (s *SQLiteSessionStore) List(ctx context.Context, filter SessionFilter) ([]*Session, error) {
	where := "1=1"
	args := make([]any, 0)
	if !filter.CreatedAfter.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, filter.CreatedAfter.UnixMilli())
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, session_name, session_type, status, consensus_threshold,
			participants_json, coordinator_agent, metadata_json, created_at, completed_at
			FROM %s WHERE %s ORDER BY created_at DESC`, sessionTable, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session       Session
		sessionType   string
		status        string
		participants  []byte
		metadata      []byte
		createdAtMs   int64
		completedAtMs int64
	)
	err := row.Scan(&session.ID, &session.Name, &sessionType, &status, &session.Threshold,
		&participants, &session.Coordinator, &metadata, &createdAtMs, &completedAtMs)
	if err != nil {
		return nil, err
	}
	session.Type = SessionType(sessionType)
	session.Status = SessionStatus(status)
	if err := json.Unmarshal(participants, &session.Participants); err != nil {
		return nil, err
	}
	if err := unmarshalMap(metadata, &session.Metadata); err != nil {
		return nil, err
	}
	session.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	if completedAtMs > 0 {
		session.CompletedAt = time.UnixMilli(completedAtMs).UTC()
	}
	return &session, nil
}

// SQLiteContributionStore persists contributions in a SQLite database.
type SQLiteContributionStore struct {
	db *sql.DB
}

// Insert stores a new contribution.
func (s *SQLiteContributionStore) Insert(ctx context.Context, contribution Contribution) (*Contribution, error) {
	if contribution.ID == "" {
		contribution.ID = uuid.NewString()
	}
	if contribution.CreatedAt.IsZero() {
		contribution.CreatedAt = time.Now().UTC()
	}
	content, err := marshalMap(contribution.Content)
	if err != nil {
		return nil, err
	}
	_, err = execWrite(ctx, s.db,
		fmt.Sprintf(`INSERT INTO %s (id, team_session_id, agent_id, agent_type, contribution_type,
			content_json, confidence_score, is_approved, approval_votes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, contributionTable),
		contribution.ID, contribution.SessionID, contribution.AgentID, string(contribution.Role),
		contribution.Type, content, contribution.Confidence, boolToInt(contribution.Approved),
		contribution.ApprovalVotes, contribution.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, contribution.ID)
}

// Get returns a contribution by id.
func (s *SQLiteContributionStore) Get(ctx context.Context, id string) (*Contribution, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, team_session_id, agent_id, agent_type, contribution_type,
			content_json, confidence_score, is_approved, approval_votes, created_at
			FROM %s WHERE id = ?`, contributionTable), id)
	contribution, err := scanContribution(row)
	if err == sql.ErrNoRows {
		return nil, cerrors.New(cerrors.CodeNotFound, "contribution not found", nil).
			WithContext("contribution_id", id)
	}
	return contribution, err
}

// MarkApproved flips the approval flag and bumps the vote counter in one
// statement so the increment happens at the store.
func (s *SQLiteContributionStore) MarkApproved(ctx context.Context, id string, delta int) error {
	result, err := execWrite(ctx, s.db,
		fmt.Sprintf("UPDATE %s SET is_approved = 1, approval_votes = approval_votes + ? WHERE id = ?", contributionTable),
		delta, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cerrors.New(cerrors.CodeNotFound, "contribution not found", nil).
			WithContext("contribution_id", id)
	}
	return nil
}

// List returns contributions matching the filter in submission order.
func (s *SQLiteContributionStore) List(ctx context.Context, filter RecordFilter) ([]*Contribution, error) {
	where, args := buildRecordFilter(filter)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, team_session_id, agent_id, agent_type, contribution_type,
			content_json, confidence_score, is_approved, approval_votes, created_at
			FROM %s WHERE %s ORDER BY created_at ASC`, contributionTable, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Contribution, 0)
	for rows.Next() {
		contribution, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contribution)
	}
	return out, rows.Err()
}

func scanContribution(row rowScanner) (*Contribution, error) {
	var (
		contribution Contribution
		role         string
		content      []byte
		approved     int
		createdAtMs  int64
	)
	err := row.Scan(&contribution.ID, &contribution.SessionID, &contribution.AgentID, &role,
		&contribution.Type, &content, &contribution.Confidence, &approved,
		&contribution.ApprovalVotes, &createdAtMs)
	if err != nil {
		return nil, err
	}
	contribution.Role = AgentRole(role)
	contribution.Approved = approved != 0
	if err := unmarshalMap(content, &contribution.Content); err != nil {
		return nil, err
	}
	contribution.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	return &contribution, nil
}

// SQLiteConsensusStore persists consensus records in a SQLite database.
type SQLiteConsensusStore struct {
	db *sql.DB
}

// Insert stores a new consensus record.
func (s *SQLiteConsensusStore) Insert(ctx context.Context, record ConsensusRecord) (*ConsensusRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	conflicts, err := json.Marshal(record.Conflicts)
	if err != nil {
		return nil, err
	}
	decision, err := json.Marshal(record.Decision)
	if err != nil {
		return nil, err
	}
	_, err = execWrite(ctx, s.db,
		fmt.Sprintf(`INSERT INTO %s (id, team_session_id, decision_topic, decision_category,
			required_votes, conflicts_json, consensus_reached, actual_votes, decision_json,
			consensus_time_ms, resolution_method, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, consensusTable),
		record.ID, record.SessionID, record.Topic, string(record.Category),
		record.RequiredVotes, conflicts, boolToInt(record.Reached), record.ActualVotes, decision,
		record.ConsensusTimeMs, record.ResolutionMethod, record.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, record.ID)
}

// Get returns a consensus record by id.
func (s *SQLiteConsensusStore) Get(ctx context.Context, id string) (*ConsensusRecord, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, team_session_id, decision_topic, decision_category, required_votes,
			conflicts_json, consensus_reached, actual_votes, decision_json, consensus_time_ms,
			resolution_method, created_at FROM %s WHERE id = ?`, consensusTable), id)
	record, err := scanConsensus(row)
	if err == sql.ErrNoRows {
		return nil, cerrors.New(cerrors.CodeNotFound, "consensus record not found", nil).
			WithContext("consensus_id", id)
	}
	return record, err
}

// Finalize writes the decision fields of a consensus record.
func (s *SQLiteConsensusStore) Finalize(ctx context.Context, id string, final ConsensusFinal) error {
	decision, err := json.Marshal(final.Decision)
	if err != nil {
		return err
	}
	result, err := execWrite(ctx, s.db,
		fmt.Sprintf(`UPDATE %s SET consensus_reached = ?, actual_votes = ?, decision_json = ?,
			consensus_time_ms = ?, resolution_method = ? WHERE id = ?`, consensusTable),
		boolToInt(final.Reached), final.ActualVotes, decision,
		final.ConsensusTimeMs, final.ResolutionMethod, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return cerrors.New(cerrors.CodeNotFound, "consensus record not found", nil).
			WithContext("consensus_id", id)
	}
	return nil
}

// List returns consensus records matching the filter, oldest first.
func (s *SQLiteConsensusStore) List(ctx context.Context, filter RecordFilter) ([]*ConsensusRecord, error) {
	where, args := buildSessionFilter(filter)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, team_session_id, decision_topic, decision_category, required_votes,
			conflicts_json, consensus_reached, actual_votes, decision_json, consensus_time_ms,
			resolution_method, created_at FROM %s WHERE %s ORDER BY created_at ASC`, consensusTable, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*ConsensusRecord, 0)
	for rows.Next() {
		record, err := scanConsensus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanConsensus(row rowScanner) (*ConsensusRecord, error) {
	var (
		record      ConsensusRecord
		category    string
		conflicts   []byte
		reached     int
		decision    []byte
		createdAtMs int64
	)
	err := row.Scan(&record.ID, &record.SessionID, &record.Topic, &category, &record.RequiredVotes,
		&conflicts, &reached, &record.ActualVotes, &decision, &record.ConsensusTimeMs,
		&record.ResolutionMethod, &createdAtMs)
	if err != nil {
		return nil, err
	}
	record.Category = DecisionCategory(category)
	record.Reached = reached != 0
	if len(conflicts) > 0 {
		if err := json.Unmarshal(conflicts, &record.Conflicts); err != nil {
			return nil, err
		}
	}
	if len(decision) > 0 {
		if err := json.Unmarshal(decision, &record.Decision); err != nil {
			return nil, err
		}
	}
	record.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	return &record, nil
}

// SQLiteMessageStore persists messages in a SQLite database.
type SQLiteMessageStore struct {
	db *sql.DB
}

// Insert stores a new message.
func (s *SQLiteMessageStore) Insert(ctx context.Context, message Message) (*Message, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	content, err := marshalMap(message.Content)
	if err != nil {
		return nil, err
	}
	_, err = execWrite(ctx, s.db,
		fmt.Sprintf(`INSERT INTO %s (id, team_session_id, sender_agent, receiver_agent, message_type,
			priority, content_json, requires_response, response_deadline, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, messageTable),
		message.ID, message.SessionID, message.Sender, message.Receiver, message.Type,
		string(message.Priority), content, boolToInt(message.RequiresResponse),
		millisOrZero(message.ResponseDeadline), message.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	result := message
	result.Content = cloneMap(message.Content)
	return &result, nil
}

// List returns messages matching the filter, oldest first.
func (s *SQLiteMessageStore) List(ctx context.Context, filter RecordFilter) ([]*Message, error) {
	where, args := buildSessionFilter(filter)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, team_session_id, sender_agent, receiver_agent, message_type, priority,
			content_json, requires_response, response_deadline, created_at
			FROM %s WHERE %s ORDER BY created_at ASC`, messageTable, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Message, 0)
	for rows.Next() {
		var (
			message     Message
			priority    string
			content     []byte
			requires    int
			deadlineMs  int64
			createdAtMs int64
		)
		if err := rows.Scan(&message.ID, &message.SessionID, &message.Sender, &message.Receiver,
			&message.Type, &priority, &content, &requires, &deadlineMs, &createdAtMs); err != nil {
			return nil, err
		}
		message.Priority = MessagePriority(priority)
		message.RequiresResponse = requires != 0
		if err := unmarshalMap(content, &message.Content); err != nil {
			return nil, err
		}
		if deadlineMs > 0 {
			message.ResponseDeadline = time.UnixMilli(deadlineMs).UTC()
		}
		message.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		out = append(out, &message)
	}
	return out, rows.Err()
}

// SQLiteMetricStore persists performance metrics in a SQLite database.
type SQLiteMetricStore struct {
	db *sql.DB
}

// Insert stores a new performance metric.
func (s *SQLiteMetricStore) Insert(ctx context.Context, metric PerformanceMetric) (*PerformanceMetric, error) {
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	_, err := execWrite(ctx, s.db,
		fmt.Sprintf(`INSERT INTO %s (id, agent_id, team_session_id, metric_type, metric_value,
			measurement_context, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`, metricTable),
		metric.ID, metric.AgentID, metric.SessionID, metric.Type, metric.Value,
		metric.Context, metric.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	result := metric
	return &result, nil
}

// List returns metrics matching the filter, oldest first.
func (s *SQLiteMetricStore) List(ctx context.Context, filter RecordFilter) ([]*PerformanceMetric, error) {
	where, args := buildRecordFilter(filter)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, agent_id, team_session_id, metric_type, metric_value,
			measurement_context, created_at FROM %s WHERE %s ORDER BY created_at ASC`, metricTable, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*PerformanceMetric, 0)
	for rows.Next() {
		var (
			metric      PerformanceMetric
			createdAtMs int64
		)
		if err := rows.Scan(&metric.ID, &metric.AgentID, &metric.SessionID, &metric.Type,
			&metric.Value, &metric.Context, &createdAtMs); err != nil {
			return nil, err
		}
		metric.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		out = append(out, &metric)
	}
	return out, rows.Err()
}

// buildRecordFilter is for tables that carry an agent_id column
// (contributions, metrics). Tables without one use buildSessionFilter,
// which ignores AgentID the way the memory stores do.
func buildRecordFilter(filter RecordFilter) (string, []any) {
	where, args := buildSessionFilter(filter)
	if filter.AgentID != "" {
		where += " AND agent_id = ?"
		args = append(args, filter.AgentID)
	}
	return where, args
}

func buildSessionFilter(filter RecordFilter) (string, []any) {
	where := "1=1"
	args := make([]any, 0)
	if filter.SessionID != "" {
		where += " AND team_session_id = ?"
		args = append(args, filter.SessionID)
	}
	if !filter.CreatedAfter.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, filter.CreatedAfter.UnixMilli())
	}
	return where, args
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMap(data []byte, out *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func millisOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
