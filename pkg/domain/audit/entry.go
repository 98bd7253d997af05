// Package audit defines the immutable, explainable record written for every
// governed decision. Entries are hash-chained and append-only: nothing in the
// normal API updates or deletes them.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/harborview/governor/pkg/domain/aipolicy"
)

// Category classifies the governed decision an entry records.
type Category string

const (
	CategoryTransition    Category = "transition"
	CategoryDependency    Category = "dependency"
	CategoryGate          Category = "gate"
	CategoryActionDecided Category = "action_decided"
	CategoryActionRun     Category = "action_executed"
	CategoryPolicyCheck   Category = "policy_check"
)

// Entry is one immutable audit record. Created exactly once per governed
// decision; never updated or deleted.
type Entry struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	ProjectID   string                 `json:"project_id,omitempty"`
	ActionID    string                 `json:"action_id,omitempty"`
	Category    Category               `json:"category"`
	Actor       string                 `json:"actor"`
	PolicyLevel aipolicy.Level         `json:"policy_level,omitempty"`
	Confidence  Confidence             `json:"confidence"`
	Rationale   string                 `json:"rationale"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	PrevHash    string                 `json:"prev_hash,omitempty"`
	Hash        string                 `json:"hash,omitempty"`
}

// CalculateHash generates a deterministic SHA256 hash of the entry data.
func (e *Entry) CalculateHash() string {
	h := sha256.New()
	// Deterministic sequence: PrevHash + ID + Timestamp + Category + Actor + fields + Metadata
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.ID))
	h.Write([]byte(e.Timestamp.Format(time.RFC3339Nano)))
	h.Write([]byte(e.Category))
	h.Write([]byte(e.Actor))
	h.Write([]byte(e.ActionID))
	h.Write([]byte(e.PolicyLevel))
	h.Write([]byte(e.Confidence))
	h.Write([]byte(e.Rationale))
	h.Write([]byte(canonicalJSON(e.Metadata)))
	return hex.EncodeToString(h.Sum(nil))
}

// Seal links the entry to its predecessor and computes its own hash.
func (e *Entry) Seal(prevHash string) {
	e.PrevHash = prevHash
	e.Hash = e.CalculateHash()
}

// canonicalJSON produces a deterministic JSON representation of metadata.
// Keys are sorted alphabetically to ensure consistent hashing.
func canonicalJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		ordered = append(ordered, keyJSON...)
		ordered = append(ordered, ':')
		ordered = append(ordered, valJSON...)
	}
	ordered = append(ordered, '}')

	return string(ordered)
}

// Store is the append-only persistence surface for audit entries. There is
// deliberately no update or delete; retention/erasure runs through a
// separately permissioned path outside this core.
type Store interface {
	// Append adds an entry, chaining it to the previous one.
	Append(entry *Entry) error
	// List returns entries matching the filter in chronological order.
	List(filter Filter) ([]*Entry, error)
	// Last returns the most recent entry, or nil when the store is empty.
	Last() (*Entry, error)
	// Count returns the total number of entries.
	Count() (int, error)
}
