// Package slab implements one node of a distributed, content-addressed
// memo store: an in-memory slab holding immutable memos that compose
// into records and form a parent/child DAG, with LRU-driven eviction
// gated on replication and peering state shared across a mesh of slabs.
//
// Design
//
//   - Storage: the slab keeps a map[id]*node for lookups and an
//     intrusive doubly linked LRU ring for recency (head = least
//     recently used, tail = most recent). Record and parent reverse
//     indexes make the per-memo head test O(1); listing a record's
//     heads walks that record's resident memos. All mutations are
//     serialized on one slab lock; operations are O(1) expected.
//
//   - Records and heads: memos sharing a record id compose into a
//     record; a memo citing older memos as parents supersedes them.
//     A record's current value is projected from its head memos — the
//     resident memos no resident memo cites as a parent.
//
//   - Eviction: PutMemo into a slab at its hard Limit trims from the
//     LRU head back to the soft Quota. Each victim must first pass the
//     replication guard (its pushes toward the replica target are issued
//     without a push error; copies are not awaited) and head-memo
//     protection (a head of a record with live subscribers is never
//     killed). Victims that fail either
//     gate stay resident and are retried on the next cycle.
//
//   - Peering: every resident memo registers interest in the memos it
//     references (itself included) and tracks which remote slabs
//     participate and whether they hold a copy. Changes batch into
//     mesh deliveries; inbound changes apply as soft state, so
//     unordered at-least-once delivery converges.
//
//   - Replication: a memo with a replica target is pushed to accepting
//     slabs chosen by the mesh, excluding slabs that already hold a
//     copy. Success is optimistic (pushes are issued, not awaited);
//     concurrent checks per memo id are coalesced via singleflight.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Put/Evict/Size and
//     peering/replication signals. NoopMetrics is the default; the
//     metrics/prom package exports to Prometheus.
//
// Basic usage
//
//	m := mesh.NewLocal(nil)
//	s, err := slab.New(slab.Options{ID: "a", Mesh: m})
//	if err != nil { ... }
//	defer s.Close()
//
//	s.PutMemo(memo.New(s.GenChildID(), "doc-1", nil, 0))
//	heads := s.HeadMemoIDsForRecord("doc-1")
//
// Replication across slabs
//
//	a, _ := slab.New(slab.Options{ID: "a", Mesh: m})
//	b, _ := slab.New(slab.Options{ID: "b", Mesh: m})
//	a.PutMemo(memo.New("x", "doc-1", nil, 1)) // pushed to b
//
// Subscriptions
//
//	s.SubscribeRecord(view)         // view implements slab.Record
//	s.PutMemo(child)                // view.AddedMemos([]Memo{child})
//	s.UnsubscribeRecord(view)
//
// Thread-safety: all Slab methods are safe for concurrent use. Record
// observers are invoked outside the slab lock and may call back into
// the slab. Mesh implementations must not synchronously re-enter the
// calling slab (see Mesh).
package slab
