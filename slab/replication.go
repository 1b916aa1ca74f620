package slab

// Replication guard: pushes a memo toward its replication target.
// Success is optimistic — pushes are issued, not acknowledged, and a
// check that finds no accepting slab also succeeds. Only a failed push
// makes the check fail; the memo then stays resident and is re-checked
// on the next eviction cycle.

// CheckMemoReplicationFactor pushes m toward its replication target.
// A target of zero succeeds immediately with no mesh traffic.
// Concurrent calls for the same memo id are coalesced, so a burst of
// puts produces at most one in-flight check per memo. The eviction
// path's check (checkReplicationLocked) does not go through this
// coalescing.
func (s *Slab) CheckMemoReplicationFactor(m Memo) error {
	desired := m.DesiredReplicas()
	if desired <= 0 {
		return nil
	}
	_, err, _ := s.repl.Do(m.ID(), func() (any, error) {
		s.mu.Lock()
		excl := s.replicaExclusionsLocked(m.ID())
		s.mu.Unlock()
		return nil, s.pushToAccepting(m, excl, desired)
	})
	return err
}

// checkReplicationLocked is the eviction-path variant, invoked with the
// slab lock held. The mesh contract (no synchronous re-entry into the
// calling slab) keeps the callouts safe under the lock.
func (s *Slab) checkReplicationLocked(m Memo) error {
	desired := m.DesiredReplicas()
	if desired <= 0 {
		return nil
	}
	return s.pushToAccepting(m, s.replicaExclusionsLocked(m.ID()), desired)
}

// replicaExclusionsLocked gathers the slabs that already hold a copy,
// plus this slab itself.
func (s *Slab) replicaExclusionsLocked(memoID string) map[string]struct{} {
	excl := map[string]struct{}{s.id: {}}
	if peers, ok := s.memoPeersLocked(memoID, true); ok {
		for _, p := range peers {
			excl[p] = struct{}{}
		}
	}
	return excl
}

// pushToAccepting asks the mesh for up to desired accepting slabs and
// pushes the memo to each. Push failures are logged; the last one is
// returned so eviction keeps the memo resident.
func (s *Slab) pushToAccepting(m Memo, excl map[string]struct{}, desired int) error {
	var last error
	for _, target := range s.mesh.AcceptingSlabIDs(excl, desired) {
		if err := s.mesh.PushMemoToSlab(s.id, target, m); err != nil {
			s.log.Error("memo push failed", "memo", m.ID(), "target", target, "error", err)
			last = err
			continue
		}
		s.met.ReplicationPush()
	}
	return last
}
