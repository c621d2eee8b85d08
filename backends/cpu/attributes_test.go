package cpu

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func testAttrs() *ShuffleChannelsAttrs {
	return &ShuffleChannelsAttrs{
		Layout:       LayoutPlanar,
		DType:        dtypes.Float32,
		DataRank:     4,
		Axis:         1,
		SpatialRank:  2,
		Group:        2,
		DataSize:     4,
		SrcDims:      []int{2, 4, 3, 3},
		SrcBlockDims: []int{2, 4, 3, 3},
	}
}

func TestAttrsHashEqualConsistency(t *testing.T) {
	a := testAttrs()
	b := testAttrs()

	// Independently built equal records: equal and identically hashed.
	require.True(t, a.Equal(b))
	require.True(t, b.Equal(a))
	require.Equal(t, a.Hash(), b.Hash())

	// Hash is a pure function: repeated calls agree, and a deep copy hashes
	// the same.
	require.Equal(t, a.Hash(), a.Hash())
	require.Equal(t, a.Hash(), a.clone().Hash())
}

func TestAttrsInequality(t *testing.T) {
	base := testAttrs()
	mutations := map[string]func(*ShuffleChannelsAttrs){
		"layout":       func(a *ShuffleChannelsAttrs) { a.Layout = LayoutChannelsLast },
		"dtype":        func(a *ShuffleChannelsAttrs) { a.DType = dtypes.Int8 },
		"rank":         func(a *ShuffleChannelsAttrs) { a.DataRank = 3 },
		"axis":         func(a *ShuffleChannelsAttrs) { a.Axis = 2 },
		"spatial rank": func(a *ShuffleChannelsAttrs) { a.SpatialRank = 1 },
		"group":        func(a *ShuffleChannelsAttrs) { a.Group = 4 },
		"data size":    func(a *ShuffleChannelsAttrs) { a.DataSize = 1 },
		"src dims":     func(a *ShuffleChannelsAttrs) { a.SrcDims = []int{2, 4, 3, 4} },
		"block dims":   func(a *ShuffleChannelsAttrs) { a.SrcBlockDims = []int{2, 4, 9} },
	}
	for name, mutate := range mutations {
		other := testAttrs()
		mutate(other)
		require.False(t, base.Equal(other), "mutation %q should break equality", name)
	}
}
