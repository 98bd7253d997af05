package application

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborview/governor/pkg/domain"
	"github.com/harborview/governor/pkg/domain/audit"
)

// AuditService owns the hash-chained audit log. Every governed decision in
// the engine funnels through Record, which seals the new entry against the
// chain head under a single mutex so concurrent writers cannot fork the chain.
type AuditService struct {
	mu    sync.Mutex
	store audit.Store
}

var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(store audit.Store) *AuditService {
	return &AuditService{store: store}
}

// Record seals and appends one entry. Missing ID/timestamp/confidence are
// filled in; callers that computed real signals pass the grade themselves.
func (s *AuditService) Record(entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Confidence == "" {
		entry.Confidence = audit.ConfidenceMedium
	}

	prev := ""
	last, err := s.store.Last()
	if err != nil {
		return fmt.Errorf("read chain head: %w", err)
	}
	if last != nil {
		prev = last.Hash
	}
	entry.Seal(prev)

	if err := s.store.Append(entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Log implements domain.AuditLogger for callers that only have an action name
// and metadata. The category is derived from the action's prefix, e.g.
// "gate.decided" records under the gate category.
func (s *AuditService) Log(action string, actor string, metadata map[string]interface{}) error {
	category := audit.CategoryPolicyCheck
	switch {
	case strings.HasPrefix(action, "task.") || strings.HasPrefix(action, "initiative."):
		category = audit.CategoryTransition
	case strings.HasPrefix(action, "dependency."):
		category = audit.CategoryDependency
	case strings.HasPrefix(action, "gate.") || strings.HasPrefix(action, "project."):
		category = audit.CategoryGate
	}
	return s.Record(&audit.Entry{
		Category:  category,
		Actor:     actor,
		Rationale: action,
		Metadata:  metadata,
	})
}

// GetAuditLogs returns entries matching the filter in chain order.
func (s *AuditService) GetAuditLogs(filter audit.Filter) ([]*audit.Entry, error) {
	return s.store.List(filter)
}

// GetAuditStats aggregates the filtered entries.
func (s *AuditService) GetAuditStats(filter audit.Filter) (audit.Stats, error) {
	entries, err := s.store.List(filter)
	if err != nil {
		return audit.Stats{}, err
	}
	return audit.ComputeStats(entries), nil
}

// IntegrityError reports the first entry whose hash or chain link is broken.
type IntegrityError struct {
	Index   int
	EntryID string
	Reason  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("audit chain broken at entry %d (%s): %s", e.Index, e.EntryID, e.Reason)
}

// VerifyIntegrity walks the full chain, recomputing every hash and checking
// each link against its predecessor. Returns the number of verified entries.
func (s *AuditService) VerifyIntegrity() (int, error) {
	entries, err := s.store.List(audit.Filter{})
	if err != nil {
		return 0, err
	}
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return i, &IntegrityError{Index: i, EntryID: e.ID, Reason: "prev_hash does not match predecessor"}
		}
		if e.CalculateHash() != e.Hash {
			return i, &IntegrityError{Index: i, EntryID: e.ID, Reason: "stored hash does not match recomputed hash"}
		}
		prev = e.Hash
	}
	return len(entries), nil
}
