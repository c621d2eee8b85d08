// Package cpu compiles and executes individual ir graph nodes against the
// host CPU: it selects memory layouts, probes instruction-set capability to
// pick a kernel tier, caches compiled executors keyed by a content hash of
// the node parameters, and derives generic N-dimensional data-permutation
// plans for layout-aware operators.
//
// The package is purely in-memory and single-process: no configuration
// files, no persisted state. Graph rewriting happens one level above, in
// ir/rewrite; this package compiles the nodes that survive it.
package cpu

// Runtime holds the state shared by every node compiled for this backend.
// Today that is only the executor cache; it is bounded across the whole
// runtime, so two nodes with identical attributes share one executor.
type Runtime struct {
	cache *ExecutorCache
}

// NewRuntime returns a Runtime with a cache bounded to capacity entries
// (<= 0 selects DefaultCacheCapacity).
func NewRuntime(capacity int) *Runtime {
	return &Runtime{cache: NewExecutorCache(capacity)}
}

// Cache returns the runtime-wide executor cache.
func (r *Runtime) Cache() *ExecutorCache { return r.cache }
