package cpu

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/govino/govino/types/xsync"
)

// CacheKey is implemented by compiled-attribute records: a deterministic
// combined hash plus an equality relation consistent with it.
type CacheKey interface {
	Hash() uint64
	Equal(other CacheKey) bool
}

// Executor is a compiled, immutable kernel bound to one attribute record.
// Immutability is what makes a cached executor safe for concurrent use by
// distinct worker threads.
type Executor interface {
	Exec(src, dst []byte, batch int) error
}

// DefaultCacheCapacity bounds the runtime-wide executor cache. Entries are
// small compiled plans, so the default is generous.
const DefaultCacheCapacity = 1024

type buildResult struct {
	executor Executor
	err      error
}

type cacheEntry struct {
	key   CacheKey
	latch *xsync.LatchWithValue[buildResult]
	elem  *list.Element
}

// ExecutorCache memoizes compiled executors keyed by attribute content.
//
// It is shared across the whole runtime: many inference calls reuse the same
// node with identical shape/layout, and recompiling the permutation plan per
// call would dominate cost for small tensors.
//
// Concurrency contract: callers racing on the same key trigger exactly one
// builder invocation; the others block until it resolves and observe the
// same executor. A failed build is propagated to every waiter and leaves no
// entry behind, so the next call retries from scratch.
type ExecutorCache struct {
	mu       sync.Mutex
	capacity int
	buckets  map[uint64][]*cacheEntry
	lru      list.List // of *cacheEntry, front = most recently used
}

// NewExecutorCache returns a cache bounded to the given number of entries.
// capacity <= 0 selects DefaultCacheCapacity.
func NewExecutorCache(capacity int) *ExecutorCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ExecutorCache{
		capacity: capacity,
		buckets:  make(map[uint64][]*cacheEntry),
	}
}

// Len returns the current number of entries (including in-flight builds).
func (c *ExecutorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// GetOrCreate returns the executor compiled for key, building it with
// builder on a miss. wasCached reports whether an entry (possibly still
// building) already existed.
//
// The builder runs synchronously on the calling goroutine; concurrent
// callers for the same key block until it resolves. A builder returning
// (nil, nil) is a sequencing error.
func (c *ExecutorCache) GetOrCreate(key CacheKey, builder func() (Executor, error)) (
	executor Executor, wasCached bool, err error) {
	hash := key.Hash()

	c.mu.Lock()
	if entry := c.lockedFind(hash, key); entry != nil {
		c.lru.MoveToFront(entry.elem)
		c.mu.Unlock()
		klog.V(2).Infof("executor cache: hit for key %#x", hash)
		result := entry.latch.Wait()
		if result.err != nil {
			// The build this caller raced with failed; the entry is already
			// gone, so a later call retries cleanly.
			return nil, false, result.err
		}
		return result.executor, true, nil
	}

	entry := &cacheEntry{
		key:   key,
		latch: xsync.NewLatchWithValue[buildResult](),
	}
	entry.elem = c.lru.PushFront(entry)
	c.buckets[hash] = append(c.buckets[hash], entry)
	c.lockedEvict()
	c.mu.Unlock()

	klog.V(2).Infof("executor cache: miss for key %#x, compiling", hash)
	executor, err = builder()
	if err == nil && executor == nil {
		err = errors.WithMessage(ErrSequencing, "cache builder returned no executor")
	}
	if err != nil {
		c.remove(hash, entry)
		entry.latch.Trigger(buildResult{err: err})
		return nil, false, err
	}
	entry.latch.Trigger(buildResult{executor: executor})
	return executor, false, nil
}

// lockedFind returns the live entry equal to key, or nil.
func (c *ExecutorCache) lockedFind(hash uint64, key CacheKey) *cacheEntry {
	for _, entry := range c.buckets[hash] {
		if entry.key.Equal(key) {
			return entry
		}
	}
	return nil
}

// lockedEvict drops least-recently-used resolved entries until the cache
// fits its capacity. In-flight builds are never evicted: doing so could let
// two builders run for the same key at once.
//
// Eviction never invalidates an executor mid-use -- holders keep their
// reference; the cache merely stops handing it out.
func (c *ExecutorCache) lockedEvict() {
	for elem := c.lru.Back(); elem != nil && c.lru.Len() > c.capacity; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)
		if entry.latch.Test() {
			c.lockedRemove(entry.key.Hash(), entry)
		}
		elem = prev
	}
}

func (c *ExecutorCache) remove(hash uint64, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lockedRemove(hash, entry)
}

func (c *ExecutorCache) lockedRemove(hash uint64, entry *cacheEntry) {
	bucket := c.buckets[hash]
	for i, candidate := range bucket {
		if candidate == entry {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(c.buckets, hash)
	} else {
		c.buckets[hash] = bucket
	}
	c.lru.Remove(entry.elem)
}
