package slab

import "sort"

// Peering registry: tracks, per referenced memo id, which local memos
// reference it (refPeerings[x].memos) and which remote slabs
// participate and at what state (refPeerings[x].remotes). Every local
// memo self-peers with its own id on insert; localPeerings records the
// referenced ids per local memo so teardown can walk them on kill.

// RegisterMemoPeering records that memo m references refMemoID and
// that remoteSlabID participates for it at the given state. Newly
// learned remotes are batched into an outbound change and, unless
// silent, emitted to the mesh.
func (s *Slab) RegisterMemoPeering(m Memo, refMemoID, remoteSlabID string, state PeerState, silent bool) {
	s.UpdateMemoPeerings(m, map[string]map[string]PeerState{
		refMemoID: {remoteSlabID: state},
	}, silent)
}

// UpdateMemoPeerings is the bulk form of RegisterMemoPeering:
// peerings maps referenced memo id → (remote slab id → state).
//
// Already-known remotes are not updated here; inbound updates go
// through ReceivePeeringChange.
func (s *Slab) UpdateMemoPeerings(m Memo, peerings map[string]map[string]PeerState, silent bool) {
	s.mu.Lock()
	changes := s.updatePeeringsLocked(m.ID(), peerings)
	s.mu.Unlock()

	if !silent && len(changes) > 0 {
		s.mesh.SendPeeringChanges(s.id, changes)
		s.met.PeeringChange()
	}
}

func (s *Slab) updatePeeringsLocked(memoID string, peerings map[string]map[string]PeerState) PeeringChanges {
	if _, ok := s.localPeerings[memoID]; !ok {
		s.localPeerings[memoID] = nil
	}

	changes := make(PeeringChanges)
	for refID, remotes := range peerings {
		s.localPeerings[memoID] = appendAbsent(s.localPeerings[memoID], refID)

		rp, ok := s.refPeerings[refID]
		if !ok {
			rp = &refPeering{remotes: make(map[string]PeerState)}
			s.refPeerings[refID] = rp
		}
		rp.memos = appendAbsent(rp.memos, memoID)

		for remote, state := range remotes {
			if remote == s.id {
				continue
			}
			if _, known := rp.remotes[remote]; known {
				continue
			}
			rp.remotes[remote] = state
			changes.add(remote, memoID, state)
		}
	}
	return changes
}

// ReceivePeeringChange applies an inbound batch from another slab:
// memo id → new state for the sender. Unknown memo ids are ignored
// (soft-state convergence makes at-least-once delivery safe); state
// PeerNone removes the sender's entry.
func (s *Slab) ReceivePeeringChange(senderSlabID string, change map[string]PeerState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for memoID, state := range change {
		rp, ok := s.refPeerings[memoID]
		if !ok {
			continue
		}
		if state == PeerNone {
			delete(rp.remotes, senderSlabID)
		} else {
			rp.remotes[senderSlabID] = state
		}
	}
}

// deregisterPeeringLocked tears down all peerings held by the departing
// memo and returns the outbound changes: for every referenced id whose
// local interest set drains, each remaining remote is told state
// PeerNone, keyed by the departing memo's id.
func (s *Slab) deregisterPeeringLocked(memoID string) PeeringChanges {
	changes := make(PeeringChanges)
	for _, refID := range s.localPeerings[memoID] {
		rp, ok := s.refPeerings[refID]
		if !ok {
			continue
		}
		rp.memos = splice(rp.memos, memoID)
		if len(rp.memos) > 0 {
			continue
		}
		for remote := range rp.remotes {
			changes.add(remote, memoID, PeerNone)
		}
		delete(s.refPeerings, refID)
	}
	delete(s.localPeerings, memoID)
	return changes
}

// PeeringsForMemo snapshots the remote participation for every memo id
// m references: referenced id → (slab id → state). With includeSelf,
// this slab appears per referenced id as PeerHasCopy when the reference
// is resident here and PeerInterested otherwise.
func (s *Slab) PeeringsForMemo(m Memo, includeSelf bool) map[string]map[string]PeerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]PeerState)
	for _, refID := range s.localPeerings[m.ID()] {
		rp, ok := s.refPeerings[refID]
		if !ok {
			continue
		}
		snap := make(map[string]PeerState, len(rp.remotes)+1)
		for remote, state := range rp.remotes {
			snap[remote] = state
		}
		if includeSelf {
			if _, resident := s.memosByID[refID]; resident {
				snap[s.id] = PeerHasCopy
			} else {
				snap[s.id] = PeerInterested
			}
		}
		out[refID] = snap
	}
	return out
}

// MemoPeers returns the remote slab ids participating for memoID,
// sorted for determinism. With mustHaveCopy only PeerHasCopy remotes
// qualify; otherwise any participating remote does. The second return
// is false when the memo id is unknown to the registry.
func (s *Slab) MemoPeers(memoID string, mustHaveCopy bool) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoPeersLocked(memoID, mustHaveCopy)
}

func (s *Slab) memoPeersLocked(memoID string, mustHaveCopy bool) ([]string, bool) {
	rp, ok := s.refPeerings[memoID]
	if !ok {
		return nil, false
	}
	peers := make([]string, 0, len(rp.remotes))
	for remote, state := range rp.remotes {
		if mustHaveCopy && state != PeerHasCopy {
			continue
		}
		if state == PeerNone {
			continue
		}
		peers = append(peers, remote)
	}
	sort.Strings(peers)
	return peers, true
}
