package slab

import "testing"

// Self-peering: immediately after a put, the memo's ref entry lists the
// memo itself locally and no remotes.
func TestPeering_SelfPeerOnPut(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("m1", "R", nil, 0))

	s.mu.Lock()
	rp := s.refPeerings["m1"]
	if rp == nil {
		s.mu.Unlock()
		t.Fatal("no ref peering for m1")
	}
	if len(rp.memos) != 1 || rp.memos[0] != "m1" {
		s.mu.Unlock()
		t.Fatalf("ref memos %v, want [m1]", rp.memos)
	}
	if len(rp.remotes) != 0 {
		s.mu.Unlock()
		t.Fatalf("remotes %v, want empty", rp.remotes)
	}
	refs := append([]string(nil), s.localPeerings["m1"]...)
	s.mu.Unlock()

	if len(refs) != 1 || refs[0] != "m1" {
		t.Fatalf("local peerings %v, want [m1]", refs)
	}
	// Self-peering produces no outbound change.
	if fm.sendCount() != 0 {
		t.Fatalf("self-peering emitted %d batches", fm.sendCount())
	}
}

// Registering a remote records its state and emits one batch addressed
// to it, keyed by the local memo id.
func TestPeering_RegisterEmitsChange(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)

	s.RegisterMemoPeering(m, "m1", "x", PeerHasCopy, false)

	if fm.sendCount() != 1 {
		t.Fatalf("sends=%d, want 1", fm.sendCount())
	}
	fm.mu.Lock()
	batch := fm.sends[0]
	fm.mu.Unlock()
	if batch.from != "a" {
		t.Fatalf("batch from %q, want a", batch.from)
	}
	if st := batch.changes["x"]["m1"]; st != PeerHasCopy {
		t.Fatalf("change state %v, want PeerHasCopy", st)
	}

	if peers, ok := s.MemoPeers("m1", true); !ok || len(peers) != 1 || peers[0] != "x" {
		t.Fatalf("MemoPeers=%v ok=%v, want [x]", peers, ok)
	}
}

// silent suppresses emission but still records the remote.
func TestPeering_SilentRegister(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)

	s.RegisterMemoPeering(m, "m1", "x", PeerInterested, true)

	if fm.sendCount() != 0 {
		t.Fatalf("silent register emitted %d batches", fm.sendCount())
	}
	if peers, ok := s.MemoPeers("m1", false); !ok || len(peers) != 1 || peers[0] != "x" {
		t.Fatalf("MemoPeers=%v ok=%v, want [x]", peers, ok)
	}
	// But not a copy-holder.
	if peers, _ := s.MemoPeers("m1", true); len(peers) != 0 {
		t.Fatalf("copy holders %v, want none", peers)
	}
}

// Known remotes are not updated by the outbound path; inbound changes
// go through ReceivePeeringChange, which also removes on state 0.
func TestPeering_InboundUpdatesAndRemoval(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)

	s.RegisterMemoPeering(m, "m1", "x", PeerInterested, true)
	// Re-registering with a different state must not downgrade/update.
	s.RegisterMemoPeering(m, "m1", "x", PeerHasCopy, false)
	if fm.sendCount() != 0 {
		t.Fatalf("known remote re-register emitted %d batches", fm.sendCount())
	}
	if peers, _ := s.MemoPeers("m1", true); len(peers) != 0 {
		t.Fatalf("state silently upgraded: %v", peers)
	}

	// Inbound change does update.
	s.ReceivePeeringChange("x", map[string]PeerState{"m1": PeerHasCopy})
	if peers, _ := s.MemoPeers("m1", true); len(peers) != 1 || peers[0] != "x" {
		t.Fatalf("inbound upgrade lost: %v", peers)
	}

	// State 0 removes the sender's entry.
	s.ReceivePeeringChange("x", map[string]PeerState{"m1": PeerNone})
	if peers, _ := s.MemoPeers("m1", false); len(peers) != 0 {
		t.Fatalf("state 0 did not remove: %v", peers)
	}

	// Unknown memo ids are ignored silently.
	s.ReceivePeeringChange("x", map[string]PeerState{"ghost": PeerHasCopy})
	if _, ok := s.MemoPeers("ghost", false); ok {
		t.Fatal("unknown memo id must stay unknown")
	}
}

// MemoPeers distinguishes copy-holders from mere participants and
// reports unknown ids as absent.
func TestPeering_MemoPeers(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)
	s.UpdateMemoPeerings(m, map[string]map[string]PeerState{
		"m1": {"x": PeerHasCopy, "y": PeerInterested},
	}, true)

	all, ok := s.MemoPeers("m1", false)
	if !ok || len(all) != 2 || all[0] != "x" || all[1] != "y" {
		t.Fatalf("all peers %v ok=%v, want [x y]", all, ok)
	}
	holders, _ := s.MemoPeers("m1", true)
	if len(holders) != 1 || holders[0] != "x" {
		t.Fatalf("holders %v, want [x]", holders)
	}
	if _, ok := s.MemoPeers("nope", false); ok {
		t.Fatal("unknown id must report absent")
	}
}

// Killing the last local referent of a ref entry notifies remaining
// remotes with state 0, keyed by the departing memo's id, and drops
// the entry.
func TestPeering_DeregisterOnKill(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)
	s.RegisterMemoPeering(m, "m1", "x", PeerHasCopy, true)

	s.KillMemo("m1")

	if fm.sendCount() != 1 {
		t.Fatalf("sends=%d, want 1 teardown batch", fm.sendCount())
	}
	fm.mu.Lock()
	batch := fm.sends[0]
	fm.mu.Unlock()
	if st, ok := batch.changes["x"]["m1"]; !ok || st != PeerNone {
		t.Fatalf("teardown change %v, want m1->PeerNone for x", batch.changes)
	}

	s.mu.Lock()
	_, refLeft := s.refPeerings["m1"]
	_, localLeft := s.localPeerings["m1"]
	s.mu.Unlock()
	if refLeft || localLeft {
		t.Fatal("peering state must be gone after kill")
	}
}

// A ref entry survives while other local memos still reference it.
func TestPeering_SharedRefSurvivesKill(t *testing.T) {
	t.Parallel()

	s, fm := newTestSlab(t, 5, 10)
	m1 := newTestMemo("m1", "R", nil, 0)
	m2 := newTestMemo("m2", "R", []string{"m1"}, 0)
	s.PutMemo(m1)
	s.PutMemo(m2)
	// m2 peers with m1 (its parent) as well as with itself.
	s.UpdateMemoPeerings(m2, map[string]map[string]PeerState{
		"m1": {"x": PeerHasCopy},
	}, true)

	s.KillMemo("m2")

	s.mu.Lock()
	rp := s.refPeerings["m1"]
	s.mu.Unlock()
	if rp == nil {
		t.Fatal("ref peering for m1 must survive: m1 still references it")
	}
	for _, id := range rp.memos {
		if id == "m2" {
			t.Fatal("m2 must be gone from ref memo list")
		}
	}
	// m2's own ref entry drained with no remotes: nothing to notify.
	if fm.sendCount() != 0 {
		t.Fatalf("unexpected teardown batches: %d", fm.sendCount())
	}
}

// PeeringsForMemo snapshots remotes per referenced id; includeSelf adds
// this slab as a copy-holder for resident refs.
func TestPeering_Snapshot(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	m := newTestMemo("m1", "R", nil, 0)
	s.PutMemo(m)
	s.UpdateMemoPeerings(m, map[string]map[string]PeerState{
		"m1":   {"x": PeerHasCopy},
		"gone": {"y": PeerInterested},
	}, true)

	snap := s.PeeringsForMemo(m, false)
	if st := snap["m1"]["x"]; st != PeerHasCopy {
		t.Fatalf("snapshot m1/x = %v", st)
	}
	if _, hasSelf := snap["m1"]["a"]; hasSelf {
		t.Fatal("self must be absent without includeSelf")
	}

	snap = s.PeeringsForMemo(m, true)
	if st := snap["m1"]["a"]; st != PeerHasCopy {
		t.Fatalf("self state for resident ref = %v, want PeerHasCopy", st)
	}
	if st := snap["gone"]["a"]; st != PeerInterested {
		t.Fatalf("self state for non-resident ref = %v, want PeerInterested", st)
	}
}
