package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/aipolicy"
	"github.com/harborview/governor/pkg/domain/dependency"
	"github.com/harborview/governor/pkg/domain/gate"
	"github.com/harborview/governor/pkg/domain/planning"
)

// schema is applied on open. The audit table carries no update/delete paths
// in this package; revocation of those grants at the database level is the
// operator's half of the append-only contract.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	current_phase TEXT NOT NULL,
	allow_phase_rollback INTEGER NOT NULL DEFAULT 0,
	allowed_ai_actions TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS initiatives (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	blocked_reason TEXT NOT NULL DEFAULT '',
	progress INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	initiative_id TEXT NOT NULL REFERENCES initiatives(id),
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	blocked_reason TEXT NOT NULL DEFAULT '',
	blocker_type TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dependency_edges (
	id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	type TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (project_id, id)
);
CREATE TABLE IF NOT EXISTS stage_gates (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	from_phase TEXT NOT NULL,
	to_phase TEXT NOT NULL,
	criteria TEXT NOT NULL DEFAULT '[]',
	requires_approval INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	decision_id TEXT NOT NULL DEFAULT '',
	passed_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	gate_id TEXT NOT NULL,
	approver_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	decided_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS ai_actions (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	type TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	required_level TEXT NOT NULL,
	status TEXT NOT NULL,
	proposed_by TEXT NOT NULL,
	decided_by TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	decided_at TEXT NOT NULL DEFAULT '',
	executed_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS audit_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	action_id TEXT REFERENCES ai_actions(id),
	project_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	actor TEXT NOT NULL,
	policy_level TEXT NOT NULL DEFAULT '',
	confidence TEXT NOT NULL,
	rationale TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	prev_hash TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS policy_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	config TEXT NOT NULL
);
`

// SQLiteRepository persists governed entities in an embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ domain.Repository = (*SQLiteRepository)(nil)

// OpenSQLite opens (and migrates) a SQLite database at the given path.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Serialized access keeps entity writes from interleaving mid-statement.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// DB exposes the handle for transactional composition (see AuditedSave).
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r *SQLiteRepository) SaveProject(p *gate.Project) error {
	allowed, err := json.Marshal(p.AllowedAIActions)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO projects (id, name, current_phase, allow_phase_rollback, allowed_ai_actions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, current_phase=excluded.current_phase,
			allow_phase_rollback=excluded.allow_phase_rollback, allowed_ai_actions=excluded.allowed_ai_actions`,
		p.ID, p.Name, p.CurrentPhase, boolToInt(p.Governance.AllowPhaseRollback), string(allowed))
	return err
}

func (r *SQLiteRepository) GetProject(id string) (*gate.Project, error) {
	row := r.db.QueryRow(`SELECT id, name, current_phase, allow_phase_rollback, allowed_ai_actions FROM projects WHERE id = ?`, id)
	var p gate.Project
	var rollback int
	var allowed string
	if err := row.Scan(&p.ID, &p.Name, &p.CurrentPhase, &rollback, &allowed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Governance.AllowPhaseRollback = rollback != 0
	if err := json.Unmarshal([]byte(allowed), &p.AllowedAIActions); err != nil {
		return nil, fmt.Errorf("decode allowed actions: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) SaveInitiative(i *planning.Initiative) error {
	_, err := r.db.Exec(`INSERT INTO initiatives (id, project_id, name, status, blocked_reason, progress, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id=excluded.project_id, name=excluded.name, status=excluded.status,
			blocked_reason=excluded.blocked_reason, progress=excluded.progress, version=excluded.version, updated_at=excluded.updated_at`,
		i.ID, i.ProjectID, i.Name, string(i.Status), i.BlockedReason, i.Progress, i.Version,
		fmtTime(i.CreatedAt), fmtTime(i.UpdatedAt))
	return err
}

func (r *SQLiteRepository) scanInitiative(row interface{ Scan(...interface{}) error }) (*planning.Initiative, error) {
	var i planning.Initiative
	var status, createdAt, updatedAt string
	if err := row.Scan(&i.ID, &i.ProjectID, &i.Name, &status, &i.BlockedReason, &i.Progress, &i.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	i.Status = planning.InitiativeStatus(status)
	i.CreatedAt = parseTime(createdAt)
	i.UpdatedAt = parseTime(updatedAt)
	return &i, nil
}

func (r *SQLiteRepository) GetInitiative(id string) (*planning.Initiative, error) {
	row := r.db.QueryRow(`SELECT id, project_id, name, status, blocked_reason, progress, version, created_at, updated_at
		FROM initiatives WHERE id = ?`, id)
	return r.scanInitiative(row)
}

func (r *SQLiteRepository) ListInitiatives(projectID string) ([]*planning.Initiative, error) {
	rows, err := r.db.Query(`SELECT id, project_id, name, status, blocked_reason, progress, version, created_at, updated_at
		FROM initiatives WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*planning.Initiative
	for rows.Next() {
		i, err := r.scanInitiative(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SaveTask(t *planning.Task) error {
	_, err := r.db.Exec(`INSERT INTO tasks (id, initiative_id, title, status, blocked_reason, blocker_type, priority, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET initiative_id=excluded.initiative_id, title=excluded.title, status=excluded.status,
			blocked_reason=excluded.blocked_reason, blocker_type=excluded.blocker_type, priority=excluded.priority,
			progress=excluded.progress, updated_at=excluded.updated_at`,
		t.ID, t.InitiativeID, t.Title, string(t.Status), t.BlockedReason, string(t.BlockerType),
		string(t.Priority), t.Progress, fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt))
	return err
}

func (r *SQLiteRepository) scanTask(row interface{ Scan(...interface{}) error }) (*planning.Task, error) {
	var t planning.Task
	var status, blockerType, priority, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.InitiativeID, &t.Title, &status, &t.BlockedReason, &blockerType, &priority, &t.Progress, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.Status = planning.TaskStatus(status)
	t.BlockerType = planning.BlockerType(blockerType)
	t.Priority = planning.TaskPriority(priority)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func (r *SQLiteRepository) GetTask(id string) (*planning.Task, error) {
	row := r.db.QueryRow(`SELECT id, initiative_id, title, status, blocked_reason, blocker_type, priority, progress, created_at, updated_at
		FROM tasks WHERE id = ?`, id)
	return r.scanTask(row)
}

func (r *SQLiteRepository) ListTasks(initiativeID string) ([]*planning.Task, error) {
	rows, err := r.db.Query(`SELECT id, initiative_id, title, status, blocked_reason, blocker_type, priority, progress, created_at, updated_at
		FROM tasks WHERE initiative_id = ? ORDER BY id`, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*planning.Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteTask(id string) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveEdge(projectID string, e *dependency.Edge) error {
	_, err := r.db.Exec(`INSERT INTO dependency_edges (id, project_id, from_id, to_id, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, projectID, e.FromID, e.ToID, string(e.Type), fmtTime(e.CreatedAt))
	return err
}

func (r *SQLiteRepository) DeleteEdge(projectID, edgeID string) error {
	res, err := r.db.Exec(`DELETE FROM dependency_edges WHERE project_id = ? AND id = ?`, projectID, edgeID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return dependency.ErrEdgeNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListEdges(projectID string) ([]*dependency.Edge, error) {
	rows, err := r.db.Query(`SELECT id, from_id, to_id, type, created_at FROM dependency_edges WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*dependency.Edge
	for rows.Next() {
		var e dependency.Edge
		var edgeType, createdAt string
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &edgeType, &createdAt); err != nil {
			return nil, err
		}
		e.Type = dependency.EdgeType(edgeType)
		e.CreatedAt = parseTime(createdAt)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SaveGate(g *gate.StageGate) error {
	criteria, err := json.Marshal(g.Criteria)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO stage_gates (id, project_id, from_phase, to_phase, criteria, requires_approval, status, decision_id, passed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id=excluded.project_id, from_phase=excluded.from_phase, to_phase=excluded.to_phase,
			criteria=excluded.criteria, requires_approval=excluded.requires_approval, status=excluded.status,
			decision_id=excluded.decision_id, passed_at=excluded.passed_at`,
		g.ID, g.ProjectID, g.FromPhase, g.ToPhase, string(criteria), boolToInt(g.RequiresApproval),
		string(g.Status), g.DecisionID, fmtTime(g.PassedAt))
	return err
}

func (r *SQLiteRepository) scanGate(row interface{ Scan(...interface{}) error }) (*gate.StageGate, error) {
	var g gate.StageGate
	var criteria, status, passedAt string
	var requiresApproval int
	if err := row.Scan(&g.ID, &g.ProjectID, &g.FromPhase, &g.ToPhase, &criteria, &requiresApproval, &status, &g.DecisionID, &passedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteria), &g.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	g.RequiresApproval = requiresApproval != 0
	g.Status = gate.Status(status)
	g.PassedAt = parseTime(passedAt)
	return &g, nil
}

func (r *SQLiteRepository) GetGate(id string) (*gate.StageGate, error) {
	row := r.db.QueryRow(`SELECT id, project_id, from_phase, to_phase, criteria, requires_approval, status, decision_id, passed_at
		FROM stage_gates WHERE id = ?`, id)
	return r.scanGate(row)
}

func (r *SQLiteRepository) ListGates(projectID string) ([]*gate.StageGate, error) {
	rows, err := r.db.Query(`SELECT id, project_id, from_phase, to_phase, criteria, requires_approval, status, decision_id, passed_at
		FROM stage_gates WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*gate.StageGate
	for rows.Next() {
		g, err := r.scanGate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SaveDecision(d *gate.Decision) error {
	_, err := r.db.Exec(`INSERT INTO decisions (id, gate_id, approver_id, status, reason, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET gate_id=excluded.gate_id, approver_id=excluded.approver_id,
			status=excluded.status, reason=excluded.reason, decided_at=excluded.decided_at`,
		d.ID, d.GateID, d.ApproverID, string(d.Status), d.Reason, fmtTime(d.DecidedAt))
	return err
}

func (r *SQLiteRepository) GetDecision(id string) (*gate.Decision, error) {
	row := r.db.QueryRow(`SELECT id, gate_id, approver_id, status, reason, decided_at FROM decisions WHERE id = ?`, id)
	var d gate.Decision
	var status, decidedAt string
	if err := row.Scan(&d.ID, &d.GateID, &d.ApproverID, &status, &d.Reason, &decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d.Status = gate.ApprovalStatus(status)
	d.DecidedAt = parseTime(decidedAt)
	return &d, nil
}

func (r *SQLiteRepository) SaveAction(a *aiaction.Action) error {
	payload := string(a.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := r.db.Exec(`INSERT INTO ai_actions (id, project_id, type, payload, required_level, status, proposed_by, decided_by, rejection_reason, created_at, decided_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, decided_by=excluded.decided_by,
			rejection_reason=excluded.rejection_reason, decided_at=excluded.decided_at, executed_at=excluded.executed_at`,
		a.ID, a.ProjectID, a.Type, payload, string(a.RequiredPolicyLevel), string(a.Status),
		a.ProposedBy, a.DecidedBy, a.RejectionReason, fmtTime(a.CreatedAt), fmtTime(a.DecidedAt), fmtTime(a.ExecutedAt))
	return err
}

func (r *SQLiteRepository) scanAction(row interface{ Scan(...interface{}) error }) (*aiaction.Action, error) {
	var a aiaction.Action
	var payload, level, status, createdAt, decidedAt, executedAt string
	if err := row.Scan(&a.ID, &a.ProjectID, &a.Type, &payload, &level, &status, &a.ProposedBy, &a.DecidedBy, &a.RejectionReason, &createdAt, &decidedAt, &executedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Payload = json.RawMessage(payload)
	a.RequiredPolicyLevel = aipolicy.Level(level)
	a.Status = aiaction.Status(status)
	a.CreatedAt = parseTime(createdAt)
	a.DecidedAt = parseTime(decidedAt)
	a.ExecutedAt = parseTime(executedAt)
	return &a, nil
}

func (r *SQLiteRepository) GetAction(id string) (*aiaction.Action, error) {
	row := r.db.QueryRow(`SELECT id, project_id, type, payload, required_level, status, proposed_by, decided_by, rejection_reason, created_at, decided_at, executed_at
		FROM ai_actions WHERE id = ?`, id)
	return r.scanAction(row)
}

func (r *SQLiteRepository) ListActions(projectID string, status aiaction.Status) ([]*aiaction.Action, error) {
	query := `SELECT id, project_id, type, payload, required_level, status, proposed_by, decided_by, rejection_reason, created_at, decided_at, executed_at FROM ai_actions WHERE 1=1`
	args := []interface{}{}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*aiaction.Action
	for rows.Next() {
		a, err := r.scanAction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SavePolicy(cfg *domain.PolicyConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO policy_config (id, config) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET config=excluded.config`, string(data))
	return err
}

func (r *SQLiteRepository) LoadPolicy() (*domain.PolicyConfig, error) {
	row := r.db.QueryRow(`SELECT config FROM policy_config WHERE id = 1`)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultPolicyConfig(), nil
		}
		return nil, err
	}
	var cfg domain.PolicyConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode policy config: %w", err)
	}
	return &cfg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
