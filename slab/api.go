package slab

// Memo is the unit of storage: an immutable fact constructed elsewhere.
// The slab reads identity, record membership, parent links, and the
// replication target; Evicting is an advisory flag the slab sets while
// an eviction of the memo is in progress.
//
// Implementations must be safe for concurrent use: a memo pushed to a
// remote slab is shared between slabs.
type Memo interface {
	// ID is globally unique and stable across slabs.
	ID() string

	// RecordID names the record this memo belongs to.
	RecordID() string

	// ParentIDs returns the memo ids this memo supersedes (may be empty).
	ParentIDs() []string

	// DesiredReplicas returns the replication target K >= 0.
	DesiredReplicas() int

	// Evicting marks (or clears) eviction-in-progress. Advisory only.
	Evicting(bool)
}

// PeerState describes a remote slab's participation for a referenced memo.
type PeerState uint8

const (
	// PeerNone — not participating; on the wire it means "remove me".
	PeerNone PeerState = 0
	// PeerInterested — participating without holding a copy.
	PeerInterested PeerState = 1
	// PeerHasCopy — participating and holding a copy.
	PeerHasCopy PeerState = 2
)

// String returns a stable label.
func (s PeerState) String() string {
	switch s {
	case PeerNone:
		return "none"
	case PeerInterested:
		return "interested"
	case PeerHasCopy:
		return "has_copy"
	default:
		return "unknown"
	}
}

// PeeringChanges is an outbound batch of peering updates:
// remote slab id → (memo id → new peer state).
type PeeringChanges map[string]map[string]PeerState

// add records a single change, allocating the inner map on first use.
func (c PeeringChanges) add(remoteSlabID, memoID string, state PeerState) {
	m, ok := c[remoteSlabID]
	if !ok {
		m = make(map[string]PeerState)
		c[remoteSlabID] = m
	}
	m[memoID] = state
}

// Mesh is the inter-slab directory and transport the slab collaborates
// with. The slab only ever calls the mesh; it never locks it.
//
// Re-entrancy contract: SendPeeringChanges and PushMemoToSlab may be
// invoked while the calling slab's lock is held. Implementations must
// deliver asynchronously (or at minimum must never synchronously call
// back into the slab identified by fromSlabID).
type Mesh interface {
	// RegisterSlab adds a slab to the directory. Called once from New.
	// Registration fails on duplicate slab ids.
	RegisterSlab(s *Slab) error

	// SendPeeringChanges delivers a batch of peering updates. Inter-slab
	// delivery is unordered and at-least-once; receivers ignore unknown
	// memo ids.
	SendPeeringChanges(fromSlabID string, changes PeeringChanges)

	// AcceptingSlabIDs returns up to want slab ids willing to accept a
	// replica, excluding the given ids. Best effort: may return fewer
	// than want, or none.
	AcceptingSlabIDs(exclude map[string]struct{}, want int) []string

	// PushMemoToSlab delivers a copy of the memo to another slab.
	// Delivery may be asynchronous; on the receiver the mesh invokes
	// PutMemo and reports the new copy back to the sender as a peering
	// change. An unknown target is an error.
	PushMemoToSlab(fromSlabID, toSlabID string, m Memo) error
}

// Record is a live observer of a single record, notified as new memos
// for that record arrive. Observers must be safe to invoke from any
// goroutine; they may call back into the slab from AddedMemos.
type Record interface {
	// RecordID names the observed record.
	RecordID() string

	// AddedMemos is invoked after the memos are fully indexed and
	// resident in the slab.
	AddedMemos(memos []Memo)
}
