package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/audit"
)

// SQLiteAuditStore is the append-only audit log over the same database as
// SQLiteRepository. It never issues UPDATE or DELETE against audit_entries.
type SQLiteAuditStore struct {
	db *sql.DB
}

var _ audit.Store = (*SQLiteAuditStore)(nil)

// NewSQLiteAuditStore wraps a repository's database handle as an audit store.
func NewSQLiteAuditStore(r *SQLiteRepository) *SQLiteAuditStore {
	return &SQLiteAuditStore{db: r.db}
}

// Append implements audit.Store.
func (s *SQLiteAuditStore) Append(entry *audit.Entry) error {
	metadata := "{}"
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("%w: encode metadata: %v", domain.ErrAuditWriteFailed, err)
		}
		metadata = string(data)
	}
	// action_id is a nullable FK: entries outside an action's lifecycle
	// (transitions, gates, denied proposals) carry no action reference.
	var actionID interface{}
	if entry.ActionID != "" {
		actionID = entry.ActionID
	}
	_, err := s.db.Exec(`INSERT INTO audit_entries (id, action_id, project_id, category, actor, policy_level, confidence, rationale, metadata, prev_hash, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, actionID, entry.ProjectID, string(entry.Category), entry.Actor,
		string(entry.PolicyLevel), string(entry.Confidence), entry.Rationale, metadata,
		entry.PrevHash, entry.Hash, fmtTime(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWriteFailed, err)
	}
	return nil
}

func scanAuditEntry(row interface{ Scan(...interface{}) error }) (*audit.Entry, error) {
	var e audit.Entry
	var actionID sql.NullString
	var category, level, confidence, metadata, createdAt string
	if err := row.Scan(&e.ID, &actionID, &e.ProjectID, &category, &e.Actor, &level, &confidence, &e.Rationale, &metadata, &e.PrevHash, &e.Hash, &createdAt); err != nil {
		return nil, err
	}
	e.ActionID = actionID.String
	e.Category = audit.Category(category)
	e.PolicyLevel = aipolicy.Level(level)
	e.Confidence = audit.Confidence(confidence)
	e.Timestamp = parseTime(createdAt)
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &e, nil
}

const auditColumns = `id, action_id, project_id, category, actor, policy_level, confidence, rationale, metadata, prev_hash, hash, created_at`

// List implements audit.Store. Entries come back in insertion order; the
// time-range half of the filter is applied in SQL, the rest in memory via
// Filter.Matches so the two implementations cannot drift.
func (s *SQLiteAuditStore) List(filter audit.Filter) ([]*audit.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE 1=1`
	args := []interface{}{}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, fmtTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, fmtTime(filter.Until))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*audit.Entry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(e) {
			result = append(result, e)
		}
	}
	return result, rows.Err()
}

// Last implements audit.Store.
func (s *SQLiteAuditStore) Last() (*audit.Entry, error) {
	row := s.db.QueryRow(`SELECT ` + auditColumns + ` FROM audit_entries ORDER BY seq DESC LIMIT 1`)
	e, err := scanAuditEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// Count implements audit.Store.
func (s *SQLiteAuditStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
