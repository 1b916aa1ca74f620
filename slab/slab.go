package slab

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Construction errors.
var (
	// ErrMissingID is returned by New when Options.ID is empty.
	ErrMissingID = errorsNew("slab: missing id")
	// ErrBadSlabID is returned by New when Options.ID is not one or two
	// base-36 characters.
	ErrBadSlabID = errorsNew("slab: id must be 1-2 base-36 characters")
	// ErrMissingMesh is returned by New when Options.Mesh is nil.
	ErrMissingMesh = errorsNew("slab: missing mesh")
	// ErrSlabCapExceeded is returned by New when the process already
	// hosts MaxSlabs slabs.
	ErrSlabCapExceeded = errorsNew("slab: process slab cap exceeded")
	// ErrBadBounds is returned by New when Limit < Quota after defaults.
	ErrBadBounds = errorsNew("slab: limit must be >= quota")
)

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// Slab is one in-memory memo store. It keeps resident memos in an
// LRU-ordered ring with record and parent indexes, tracks per-memo
// peering interest across remote slabs, and couples eviction to the
// replication factor: a victim is pushed toward its replica target
// first and is kept only when a push fails (pushes are not awaited).
//
// All methods are safe for concurrent use. Mutations are serialized on
// one mutex; the replication check fired by PutMemo runs on its own
// goroutine, while the eviction path checks replication under the lock.
type Slab struct {
	id    string
	mesh  Mesh
	quota int
	limit int

	log *slog.Logger
	met Metrics

	// ---- guarded by mu ----
	mu              sync.Mutex
	memosByID       map[string]*node
	memoIDsByRecord map[string][]string // record id → resident memo ids, insertion order
	memoIDsByParent map[string][]string // parent memo id → resident child memo ids
	recordsByID     map[string][]Record // record id → subscribed observers
	localPeerings   map[string][]string // local memo id → referenced memo ids, in order
	refPeerings     map[string]*refPeering
	head            *node // least recently used
	tail            *node // most recently used
	size            int

	childSeq atomic.Uint64
	closed   atomic.Bool

	// repl coalesces concurrent replication checks per memo id.
	repl singleflight.Group
	// inflight tracks replication goroutines; Close drains them.
	inflight sync.WaitGroup
}

// refPeering is the interest set for one referenced memo id: the local
// memos that reference it and the remote slabs participating for it.
type refPeering struct {
	memos   []string
	remotes map[string]PeerState
}

// New constructs a slab, reserves a process slab slot, and registers
// the slab with the mesh. See Options for defaults.
func New(opt Options) (*Slab, error) {
	if opt.ID == "" {
		return nil, ErrMissingID
	}
	if !validSlabID(opt.ID) {
		return nil, ErrBadSlabID
	}
	if opt.Mesh == nil {
		return nil, ErrMissingMesh
	}
	quota := opt.Quota
	if quota <= 0 {
		quota = DefaultQuota
	}
	limit := opt.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit < quota {
		return nil, ErrBadBounds
	}
	met := opt.Metrics
	if met == nil {
		met = NoopMetrics{}
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := acquireSlabSlot(); err != nil {
		return nil, err
	}

	s := &Slab{
		id:              opt.ID,
		mesh:            opt.Mesh,
		quota:           quota,
		limit:           limit,
		log:             log.With("slab", opt.ID),
		met:             met,
		memosByID:       make(map[string]*node),
		memoIDsByRecord: make(map[string][]string),
		memoIDsByParent: make(map[string][]string),
		recordsByID:     make(map[string][]Record),
		localPeerings:   make(map[string][]string),
		refPeerings:     make(map[string]*refPeering),
	}

	if err := opt.Mesh.RegisterSlab(s); err != nil {
		releaseSlabSlot()
		return nil, err
	}
	return s, nil
}

// ID returns the slab identity.
func (s *Slab) ID() string { return s.id }

// Quota returns the soft residency target.
func (s *Slab) Quota() int { return s.quota }

// Limit returns the hard residency cap.
func (s *Slab) Limit() int { return s.limit }

// Size returns the current count of resident memos.
func (s *Slab) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// PutMemo makes a memo resident. Duplicate ids are a complete no-op:
// no LRU promotion, no peering, no subscriber notification (replication
// delivery may duplicate). After indexing, record subscribers receive
// AddedMemos, the memo self-peers with state PeerHasCopy, and a
// replication check is fired asynchronously; its failures are logged,
// never surfaced.
//
// An insert into a slab already at its limit triggers eviction from the
// LRU head down to the quota.
func (s *Slab) PutMemo(m Memo) {
	if s.closed.Load() {
		return
	}
	id := m.ID()
	rid := m.RecordID()

	s.mu.Lock()
	if _, ok := s.memosByID[id]; ok {
		s.mu.Unlock()
		return
	}

	n := &node{memo: m}
	s.memosByID[id] = n
	s.memoIDsByRecord[rid] = append(s.memoIDsByRecord[rid], id)
	for _, p := range m.ParentIDs() {
		s.memoIDsByParent[p] = appendAbsent(s.memoIDsByParent[p], id)
	}

	observers := append([]Record(nil), s.recordsByID[rid]...)

	s.pushTail(n)
	s.size++
	if s.size > s.limit {
		s.evictMemosLocked()
	}

	// Self-peer, unless the insert itself was evicted back out.
	if _, resident := s.memosByID[id]; resident {
		s.updatePeeringsLocked(id, map[string]map[string]PeerState{
			id: {s.id: PeerHasCopy},
		})
	}

	s.met.Put()
	s.met.Size(s.size)
	s.mu.Unlock()

	// Observers run without the slab lock so they may re-enter.
	for _, r := range observers {
		r.AddedMemos([]Memo{m})
	}

	if m.DesiredReplicas() > 0 {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			if s.closed.Load() {
				return
			}
			if err := s.CheckMemoReplicationFactor(m); err != nil {
				s.log.Error("replication check failed", "memo", id, "error", err)
			}
		}()
	}
}

// GetMemo returns the memo for id and promotes it to the LRU tail.
func (s *Slab) GetMemo(id string) (Memo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.memosByID[id]
	if !ok {
		s.met.Miss()
		return nil, false
	}
	s.moveToTail(n)
	s.met.Hit()
	return n.memo, true
}

// Close marks the slab closed, drains in-flight replication, and
// releases the process slab slot. Resident memos stay in place and no
// peering teardown is sent; the mesh's soft-state convergence absorbs
// that. A closed slab ignores further puts.
func (s *Slab) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.inflight.Wait()
	releaseSlabSlot()
	return nil
}

// appendAbsent appends v to xs unless already present.
func appendAbsent(xs []string, v string) []string {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

// splice removes the first occurrence of v from xs, preserving order.
func splice(xs []string, v string) []string {
	for i, x := range xs {
		if x == v {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}
