package cpu

import (
	"hash/maphash"

	"github.com/gomlx/gopjrt/dtypes"
)

// ShuffleChannelsAttrs is the compiled-key record of one ShuffleChannels
// node: everything that determines the executor's behavior for one
// shape/layout combination, and nothing else.
//
// It supports a combined Hash and an Equal consistent with it -- equal
// records hash identically -- which is what lets the runtime cache share
// executors across nodes.
type ShuffleChannelsAttrs struct {
	Layout LayoutType
	DType  dtypes.DType

	// DataRank is the logical input rank; Axis is the shuffle axis, already
	// normalized to be non-negative; SpatialRank = DataRank - Axis - 1.
	DataRank    int
	Axis        int
	SpatialRank int

	// Group must divide SrcDims[Axis] exactly -- enforced before the record
	// ever reaches the planner.
	Group int

	// DataSize is the element size in bytes.
	DataSize int

	// SrcDims are the logical dims, SrcBlockDims the physical dims in
	// storage order (see MemoryDescriptor.BlockDims).
	SrcDims      []int
	SrcBlockDims []int
}

// attrsHashSeed is fixed once per process: hashes are only ever compared
// within the lifetime of the runtime cache.
var attrsHashSeed = maphash.MakeSeed()

// Hash combines every documented field into one deterministic value.
func (a *ShuffleChannelsAttrs) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(attrsHashSeed)
	writeInt := func(v int) {
		var buf [8]byte
		u := uint64(v)
		for i := range buf {
			buf[i] = byte(u >> (8 * i))
		}
		h.Write(buf[:])
	}
	writeInt(int(a.Layout))
	writeInt(int(a.DType))
	writeInt(a.DataRank)
	writeInt(a.Axis)
	writeInt(a.SpatialRank)
	writeInt(a.Group)
	writeInt(a.DataSize)
	writeInt(len(a.SrcDims))
	for _, d := range a.SrcDims {
		writeInt(d)
	}
	writeInt(len(a.SrcBlockDims))
	for _, d := range a.SrcBlockDims {
		writeInt(d)
	}
	return h.Sum64()
}

// Equal reports whether the two records describe the same compilation.
func (a *ShuffleChannelsAttrs) Equal(other CacheKey) bool {
	rhs, ok := other.(*ShuffleChannelsAttrs)
	if !ok {
		return false
	}
	if a.Layout != rhs.Layout || a.DType != rhs.DType ||
		a.DataRank != rhs.DataRank || a.Axis != rhs.Axis ||
		a.SpatialRank != rhs.SpatialRank || a.Group != rhs.Group ||
		a.DataSize != rhs.DataSize {
		return false
	}
	return intsEqual(a.SrcDims, rhs.SrcDims) && intsEqual(a.SrcBlockDims, rhs.SrcBlockDims)
}

// clone deep-copies the record so the cache key cannot alias the node's
// mutable state.
func (a *ShuffleChannelsAttrs) clone() *ShuffleChannelsAttrs {
	c := *a
	c.SrcDims = append([]int(nil), a.SrcDims...)
	c.SrcBlockDims = append([]int(nil), a.SrcBlockDims...)
	return &c
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
