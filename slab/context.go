package slab

import "sync"

// Context is a per-client causal-barrier handle. A client touches the
// records it reads; Stale then reports whether a record's head set has
// advanced past what the client last observed.
type Context struct {
	id   string
	slab *Slab

	mu   sync.Mutex
	seen map[string][]string // record id → head memo ids at last Touch
}

// CreateContext produces a new client handle with a slab-scoped id.
func (s *Slab) CreateContext() *Context {
	return &Context{
		id:   s.GenChildID(),
		slab: s,
		seen: make(map[string][]string),
	}
}

// ID returns the context's slab-scoped id.
func (c *Context) ID() string { return c.id }

// Touch records the record's current head memo ids as observed and
// returns them.
func (c *Context) Touch(rid string) []string {
	heads := c.slab.HeadMemoIDsForRecord(rid)
	c.mu.Lock()
	c.seen[rid] = heads
	c.mu.Unlock()
	return heads
}

// Stale reports whether the record's head set differs from what this
// context last observed via Touch. An untouched record is stale iff it
// has any heads.
func (c *Context) Stale(rid string) bool {
	heads := c.slab.HeadMemoIDsForRecord(rid)
	c.mu.Lock()
	last := c.seen[rid]
	c.mu.Unlock()

	if len(heads) != len(last) {
		return true
	}
	known := make(map[string]struct{}, len(last))
	for _, id := range last {
		known[id] = struct{}{}
	}
	for _, id := range heads {
		if _, ok := known[id]; !ok {
			return true
		}
	}
	return false
}
