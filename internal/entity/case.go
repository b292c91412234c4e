package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/constants"
)

// SignalMap is the open mapping of signal name -> signal value accumulated
// for a case. Values are JSON-representable (lists, booleans, scalars).
type SignalMap map[string]any

// Merge returns a copy of m with every key of other overwriting m's entry.
// Neither input is mutated; re-running the pipeline replaces duplicate
// keys, it never appends.
func (m SignalMap) Merge(other SignalMap) SignalMap {
	out := make(SignalMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Case is the unit of work: one uploaded document plus its analysis state.
type Case struct {
	CaseID      uuid.UUID
	OwnerID     string
	Status      constants.CaseStatus
	RiskScore   *int // present only once status = analyzed
	Signals     SignalMap
	Explanation string
	// OriginalFile is the stored upload path; set at upload time, never
	// mutated thereafter.
	OriginalFile string
	Filename     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy reports whether the principal may act on the case.
func (c *Case) OwnedBy(userID string, isAdmin bool) bool {
	return isAdmin || c.OwnerID == userID
}
