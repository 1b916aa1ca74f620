package slab

import "testing"

// Parent chain: m2 cites m1, so m2 is the sole head and the parent
// index records the child.
func TestIndex_ParentChainHead(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("m1", "R", nil, 0))
	s.PutMemo(newTestMemo("m2", "R", []string{"m1"}, 0))

	heads := s.HeadMemoIDsForRecord("R")
	if len(heads) != 1 || heads[0] != "m2" {
		t.Fatalf("heads %v, want [m2]", heads)
	}
	if kids := s.ChildMemoIDs("m1"); len(kids) != 1 || kids[0] != "m2" {
		t.Fatalf("children of m1 = %v, want [m2]", kids)
	}
}

// Two concurrent children of the same parent are both heads; killing
// one child restores the other as the only head, and killing both
// restores the parent.
func TestIndex_SiblingHeads(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("m1", "R", nil, 0))
	s.PutMemo(newTestMemo("m2", "R", []string{"m1"}, 0))
	s.PutMemo(newTestMemo("m3", "R", []string{"m1"}, 0))

	heads := s.HeadMemoIDsForRecord("R")
	if len(heads) != 2 || heads[0] != "m2" || heads[1] != "m3" {
		t.Fatalf("heads %v, want [m2 m3]", heads)
	}
	if kids := s.ChildMemoIDs("m1"); len(kids) != 2 {
		t.Fatalf("children of m1 = %v, want two", kids)
	}

	s.KillMemo("m3")
	if heads := s.HeadMemoIDsForRecord("R"); len(heads) != 1 || heads[0] != "m2" {
		t.Fatalf("heads after kill m3: %v, want [m2]", heads)
	}
	s.KillMemo("m2")
	if heads := s.HeadMemoIDsForRecord("R"); len(heads) != 1 || heads[0] != "m1" {
		t.Fatalf("heads after kill m2: %v, want [m1]", heads)
	}
}

// Record queries: membership, insertion order, and emptiness.
func TestIndex_RecordQueries(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	if s.HasMemosForRecord("R") {
		t.Fatal("empty record must report no memos")
	}
	s.PutMemo(newTestMemo("m1", "R", nil, 0))
	s.PutMemo(newTestMemo("m2", "R", []string{"m1"}, 0))
	s.PutMemo(newTestMemo("x1", "X", nil, 0))

	if !s.HasMemosForRecord("R") {
		t.Fatal("record R must have memos")
	}
	ms := s.MemosForRecord("R")
	if len(ms) != 2 || ms[0].ID() != "m1" || ms[1].ID() != "m2" {
		t.Fatalf("MemosForRecord order wrong: %v", ms)
	}

	s.KillMemo("m2")
	s.KillMemo("m1")
	if s.HasMemosForRecord("R") {
		t.Fatal("record R must be empty after kills")
	}
	if got := s.MemosForRecord("R"); got != nil {
		t.Fatalf("MemosForRecord after kills = %v, want nil", got)
	}
}

// Heads across records stay independent.
func TestIndex_HeadsPerRecord(t *testing.T) {
	t.Parallel()

	s, _ := newTestSlab(t, 5, 10)
	s.PutMemo(newTestMemo("a1", "A", nil, 0))
	s.PutMemo(newTestMemo("b1", "B", nil, 0))
	s.PutMemo(newTestMemo("b2", "B", []string{"b1"}, 0))

	if heads := s.HeadMemoIDsForRecord("A"); len(heads) != 1 || heads[0] != "a1" {
		t.Fatalf("heads(A)=%v", heads)
	}
	if heads := s.HeadMemoIDsForRecord("B"); len(heads) != 1 || heads[0] != "b2" {
		t.Fatalf("heads(B)=%v", heads)
	}
	hm := s.HeadMemosForRecord("B")
	if len(hm) != 1 || hm[0].ID() != "b2" {
		t.Fatalf("HeadMemosForRecord(B)=%v", hm)
	}
}
