// Package memo provides the basic immutable memo value stored by slabs.
package memo

import (
	"sync/atomic"

	"github.com/memomesh/memomesh/slab"
)

// Memo is an immutable fact: an id, the record it belongs to, the
// parent memo ids it supersedes, and a replication target. The evicting
// flag is the only mutable state and is advisory.
type Memo struct {
	id       string
	rid      string
	parents  []string
	replicas int

	evicting atomic.Bool
}

// New constructs a memo. The parents slice is copied; callers may reuse
// theirs.
func New(id, rid string, parents []string, desiredReplicas int) *Memo {
	if desiredReplicas < 0 {
		desiredReplicas = 0
	}
	return &Memo{
		id:       id,
		rid:      rid,
		parents:  append([]string(nil), parents...),
		replicas: desiredReplicas,
	}
}

// ID returns the memo's globally unique id.
func (m *Memo) ID() string { return m.id }

// RecordID returns the record this memo belongs to.
func (m *Memo) RecordID() string { return m.rid }

// ParentIDs returns a copy of the superseded memo ids.
func (m *Memo) ParentIDs() []string {
	return append([]string(nil), m.parents...)
}

// DesiredReplicas returns the replication target.
func (m *Memo) DesiredReplicas() int { return m.replicas }

// Evicting sets or clears the advisory eviction-in-progress flag.
func (m *Memo) Evicting(v bool) { m.evicting.Store(v) }

// IsEvicting reports the advisory eviction-in-progress flag.
func (m *Memo) IsEvicting() bool { return m.evicting.Load() }

// Compile-time check: ensure Memo satisfies the slab's contract.
var _ slab.Memo = (*Memo)(nil)
