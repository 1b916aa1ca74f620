package slab

// Eviction engine: trims the slab back to its quota from the LRU head,
// gating each kill on the replication guard and on head-memo safety.

// EvictMemos walks victims from the LRU head until size is back at the
// quota. The next link is captured before each kill since victims
// unlink themselves; a victim that survives (replication not yet
// sufficient, or a protected head) is simply skipped this cycle.
func (s *Slab) EvictMemos() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictMemosLocked()
}

func (s *Slab) evictMemosLocked() {
	for n := s.head; n != nil && s.size > s.quota; {
		next := n.next
		s.evictMemoLocked(n, EvictQuota)
		n = next
	}
}

// EvictMemo evicts one memo by id: replication check first, then kill.
// Unknown ids are a usage error, logged and ignored.
func (s *Slab) EvictMemo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.memosByID[id]
	if !ok {
		s.log.Warn("evict of unknown memo", "memo", id)
		return
	}
	s.evictMemoLocked(n, EvictRequested)
}

func (s *Slab) evictMemoLocked(n *node, reason EvictReason) {
	m := n.memo
	m.Evicting(true)
	if err := s.checkReplicationLocked(m); err != nil {
		// A replication push failed; the memo stays resident and will
		// be retried on the next eviction cycle.
		m.Evicting(false)
		s.log.Warn("eviction deferred", "memo", m.ID(), "error", err)
		return
	}
	if !s.killLocked(n, reason) {
		m.Evicting(false)
	}
}

// KillMemo removes a memo by id without a replication check. Unknown
// ids are a usage error, logged and ignored. A head memo of a record
// that has subscribers is protected: the kill aborts and the memo stays
// resident.
func (s *Slab) KillMemo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.memosByID[id]
	if !ok {
		s.log.Warn("kill of unknown memo", "memo", id)
		return
	}
	s.killLocked(n, EvictKilled)
}

// killLocked tears the memo out of the slab: indexes, peering, LRU,
// size. Returns false when head-memo protection refused the kill.
func (s *Slab) killLocked(n *node, reason EvictReason) bool {
	m := n.memo
	id := m.ID()

	// A head memo an observer is actively projecting must stay.
	if len(s.recordsByID[m.RecordID()]) > 0 && len(s.memoIDsByParent[id]) == 0 {
		s.met.KillRefused()
		return false
	}

	s.removeFromIndexesLocked(m)
	changes := s.deregisterPeeringLocked(id)
	s.unlink(n)
	s.size--

	if len(changes) > 0 {
		s.mesh.SendPeeringChanges(s.id, changes)
		s.met.PeeringChange()
	}
	s.met.Evict(reason)
	s.met.Size(s.size)
	return true
}
