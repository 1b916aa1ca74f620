package slab

import "log/slog"

// Defaults applied by New when the corresponding Options field is zero.
const (
	// DefaultQuota is the soft residency target an eviction cycle
	// trims back down to.
	DefaultQuota = 5

	// DefaultLimit is the hard residency cap; an insert into a slab at
	// the limit triggers eviction down to the quota.
	DefaultLimit = 10
)

// Options configures a slab. ID and Mesh are required; the remaining
// fields are zero-value safe and defaulted in New:
//   - Quota <= 0   => DefaultQuota
//   - Limit <= 0   => DefaultLimit
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => slog.Default()
type Options struct {
	// ID is the slab identity, unique within a mesh. One or two
	// lowercase base-36 characters (the 2-digit namespace bounds the
	// process at MaxSlabs slabs).
	ID string

	// Mesh is the inter-slab directory and transport. Required;
	// New registers the slab with it.
	Mesh Mesh

	// Quota is the soft residency target (memo count).
	Quota int

	// Limit is the hard residency cap. Must be >= Quota after defaults.
	Limit int

	// Metrics receives Hit/Miss/Put/Evict/Size and peering signals.
	Metrics Metrics

	// Logger reports usage errors and asynchronous replication
	// failures. Nil => slog.Default().
	Logger *slog.Logger
}
