package slab

import "testing"

// lruOrder snapshots memo ids head→tail.
func lruOrder(s *Slab) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for n := s.head; n != nil; n = n.next {
		ids = append(ids, n.memo.ID())
	}
	return ids
}

// Deterministic LRU eviction: quota 2, limit 3. Put m1..m3, promote m1
// with a get, then put m4: the insert overflows the limit and trims to
// quota from the head, evicting m2 then m3 and leaving {m1, m4}.
func TestLRU_EvictionOnOverflow(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 2, 3)
	s.PutMemo(newTestMemo("m1", "r1", nil, 0))
	s.PutMemo(newTestMemo("m2", "r2", nil, 0))
	s.PutMemo(newTestMemo("m3", "r3", nil, 0))

	if _, ok := s.GetMemo("m1"); !ok { // promote m1 to tail
		t.Fatal("expect hit for m1")
	}
	s.PutMemo(newTestMemo("m4", "r4", nil, 0))

	if s.Size() != 2 {
		t.Fatalf("size=%d, want quota=2", s.Size())
	}
	got := lruOrder(s)
	if len(got) != 2 || got[0] != "m1" || got[1] != "m4" {
		t.Fatalf("lru order %v, want [m1 m4]", got)
	}
	for _, id := range []string{"m2", "m3"} {
		if _, ok := s.GetMemo(id); ok {
			t.Fatalf("%s must be evicted", id)
		}
	}
	checkInvariants(t, s)
}

// Get promotes to tail; getting the tail is a no-op.
func TestLRU_Promotion(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("m1", "r1", nil, 0))
	s.PutMemo(newTestMemo("m2", "r2", nil, 0))
	s.PutMemo(newTestMemo("m3", "r3", nil, 0))

	s.GetMemo("m2")
	if got := lruOrder(s); got[0] != "m1" || got[2] != "m2" {
		t.Fatalf("after get m2: %v, want [m1 m3 m2]", got)
	}

	s.GetMemo("m2") // already tail
	if got := lruOrder(s); got[2] != "m2" {
		t.Fatalf("tail get must not reorder: %v", got)
	}

	s.GetMemo("m1") // promote head
	if got := lruOrder(s); got[0] != "m3" || got[2] != "m1" {
		t.Fatalf("after get m1: %v, want [m3 m2 m1]", got)
	}
}

// Unlinking the only memo leaves an empty ring with nil head and tail.
func TestLRU_SingleElement(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("m1", "r1", nil, 0))
	s.KillMemo("m1")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head != nil || s.tail != nil || s.size != 0 {
		t.Fatalf("ring not empty: head=%v tail=%v size=%d", s.head, s.tail, s.size)
	}
}
