// Package mesh provides an in-process mesh: the slab directory and
// transport slabs collaborate with inside a single process.
package mesh

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/memomesh/memomesh/slab"
)

// Local is an in-process Mesh. Slabs register under their ids; memo
// pushes and peering batches are delivered on their own goroutines, so
// a slab may call the mesh while holding its own lock (the slab.Mesh
// re-entrancy contract).
type Local struct {
	log *slog.Logger

	mu    sync.RWMutex
	slabs map[string]*slab.Slab
	order []string // registration order; drives accepting-slab selection

	inflight sync.WaitGroup
}

// NewLocal constructs an empty local mesh. A nil logger defaults to
// slog.Default().
func NewLocal(log *slog.Logger) *Local {
	if log == nil {
		log = slog.Default()
	}
	return &Local{
		log:   log,
		slabs: make(map[string]*slab.Slab),
	}
}

// RegisterSlab adds a slab to the directory. Duplicate ids fail.
func (l *Local) RegisterSlab(s *slab.Slab) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := s.ID()
	if _, ok := l.slabs[id]; ok {
		return fmt.Errorf("mesh: slab id %q already registered", id)
	}
	l.slabs[id] = s
	l.order = append(l.order, id)
	return nil
}

// DeregisterSlab removes a slab from the directory. Removal is soft:
// in-flight deliveries to the slab still complete.
func (l *Local) DeregisterSlab(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.slabs[id]; !ok {
		return
	}
	delete(l.slabs, id)
	for i, x := range l.order {
		if x == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// SendPeeringChanges fans the batch out to each addressed slab
// asynchronously. Changes addressed to unknown slabs are dropped with
// a debug line; the peering protocol is soft state.
func (l *Local) SendPeeringChanges(fromSlabID string, changes slab.PeeringChanges) {
	for remote, change := range changes {
		target, ok := l.lookup(remote)
		if !ok {
			l.log.Debug("peering change for unknown slab", "from", fromSlabID, "to", remote)
			continue
		}
		ch := change
		l.inflight.Add(1)
		go func() {
			defer l.inflight.Done()
			target.ReceivePeeringChange(fromSlabID, ch)
		}()
	}
}

// AcceptingSlabIDs returns up to want registered slab ids not in
// exclude, in registration order. Best effort: fewer (or none) when the
// directory is small.
func (l *Local) AcceptingSlabIDs(exclude map[string]struct{}, want int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var ids []string
	for _, id := range l.order {
		if len(ids) >= want {
			break
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// PushMemoToSlab delivers a copy of the memo to the target slab on its
// own goroutine, then reports the new copy back to the sender as a
// PeerHasCopy change. An unknown target is an error.
func (l *Local) PushMemoToSlab(fromSlabID, toSlabID string, m slab.Memo) error {
	target, ok := l.lookup(toSlabID)
	if !ok {
		return fmt.Errorf("mesh: push to unknown slab %q", toSlabID)
	}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		target.PutMemo(m)
		if sender, ok := l.lookup(fromSlabID); ok {
			sender.ReceivePeeringChange(toSlabID, map[string]slab.PeerState{
				m.ID(): slab.PeerHasCopy,
			})
		}
	}()
	return nil
}

// Quiesce blocks until deliveries issued so far have completed. Useful
// in tests; deliveries may themselves trigger new asynchronous work
// (e.g. replication on the receiver), so callers settle in rounds.
func (l *Local) Quiesce() {
	l.inflight.Wait()
}

func (l *Local) lookup(id string) (*slab.Slab, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.slabs[id]
	return s, ok
}

// Compile-time check: ensure Local implements slab.Mesh.
var _ slab.Mesh = (*Local)(nil)
