// Package record provides a minimal materialized view over one record:
// a live observer that follows the record's memos as they arrive and
// projects its current head set from the slab.
package record

import (
	"sync"

	"github.com/memomesh/memomesh/slab"
)

// View observes a single record on a slab. While subscribed, it counts
// delivered memos and keeps the record's head memos pinned (the slab
// refuses to kill a head of a subscribed record).
type View struct {
	rid string
	s   *slab.Slab

	mu    sync.Mutex
	seen  int
	memos []slab.Memo // delivered since Watch, in arrival order
}

// Watch subscribes a new view to the record on the given slab.
func Watch(s *slab.Slab, rid string) *View {
	v := &View{rid: rid, s: s}
	s.SubscribeRecord(v)
	return v
}

// RecordID names the observed record.
func (v *View) RecordID() string { return v.rid }

// AddedMemos receives newly resident memos for the record.
func (v *View) AddedMemos(memos []slab.Memo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen += len(memos)
	v.memos = append(v.memos, memos...)
}

// MemoCount returns how many memos arrived since Watch.
func (v *View) MemoCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen
}

// Delivered returns the memos delivered since Watch, in arrival order.
func (v *View) Delivered() []slab.Memo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]slab.Memo(nil), v.memos...)
}

// HeadIDs projects the record's current head memo ids from the slab.
func (v *View) HeadIDs() []string {
	return v.s.HeadMemoIDsForRecord(v.rid)
}

// Close unsubscribes the view; the record's heads are no longer pinned
// on its behalf.
func (v *View) Close() {
	v.s.UnsubscribeRecord(v)
}

// Compile-time check: ensure View implements slab.Record.
var _ slab.Record = (*View)(nil)
