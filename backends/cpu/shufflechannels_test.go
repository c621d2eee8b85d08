package cpu

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/govino/govino/ir"
)

// shuffleNode builds Parameter -> ShuffleChannels over the given dims.
func shuffleNode(t *testing.T, dims []int, axis, group int) *ir.Node {
	g := ir.NewGraph("test")
	shape := ir.MakeShape(dtypes.Uint8, dims...)
	p, err := g.AddNode(ir.OpParameter, 1, "x", nil, nil, []ir.Shape{shape})
	require.NoError(t, err)
	node, err := g.AddNode(ir.OpShuffleChannels, 1, "shuffle",
		&ir.ShuffleChannelsAttrs{Axis: axis, Group: group},
		[]*ir.Value{p.Output(0)}, []ir.Shape{shape})
	require.NoError(t, err)
	return node
}

func TestShuffleChannelsNodeAxisNormalization(t *testing.T) {
	// axis -3 against rank 4 normalizes to 1.
	node := shuffleNode(t, []int{2, 4, 2, 2}, -3, 2)
	s, err := NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)
	require.Equal(t, 1, s.Axis())
	require.True(t, s.SupportsDynamicBatch())

	// Batch-axis shuffles cannot honor a partial batch.
	node = shuffleNode(t, []int{2, 4, 2, 2}, 0, 2)
	s, err = NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)
	require.False(t, s.SupportsDynamicBatch())

	node = shuffleNode(t, []int{2, 4}, 7, 2)
	_, err = NewShuffleChannels(NewRuntime(0), node)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestShuffleChannelsNodeDescriptors(t *testing.T) {
	// Channel-axis shuffle: no blocked variants.
	node := shuffleNode(t, []int{2, 4, 2, 2}, 1, 2)
	s, err := NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)
	descriptors, err := s.SupportedDescriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	// Spatial-axis shuffle: blocked variants offered too.
	node = shuffleNode(t, []int{2, 8, 4, 2}, 2, 2)
	s, err = NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)
	descriptors, err = s.SupportedDescriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, 4)
}

func TestShuffleChannelsNodeExecute(t *testing.T) {
	dims := []int{2, 4, 2, 2}
	node := shuffleNode(t, dims, 1, 2)
	runtime := NewRuntime(0)
	s, err := NewShuffleChannels(runtime, node)
	require.NoError(t, err)

	// Sequencing: execution before PrepareParams is a hard error.
	src := sequentialBytes(numElements(dims), 1)
	dst := make([]byte, len(src))
	require.ErrorIs(t, s.Execute(src, dst, -1), ErrSequencing)

	desc, err := NewMemoryDescriptor(LayoutPlanar, dtypes.Uint8, dims)
	require.NoError(t, err)
	require.NoError(t, s.PrepareParams(desc))

	require.NoError(t, s.Execute(src, dst, -1))
	require.Equal(t, refShuffle(dims, 1, 2, 1, src), dst)
}

func TestShuffleChannelsNodesShareExecutor(t *testing.T) {
	dims := []int{2, 6, 3}
	runtime := NewRuntime(0)
	desc, err := NewMemoryDescriptor(LayoutPlanar, dtypes.Uint8, dims)
	require.NoError(t, err)

	a, err := NewShuffleChannels(runtime, shuffleNode(t, dims, 1, 3))
	require.NoError(t, err)
	b, err := NewShuffleChannels(runtime, shuffleNode(t, dims, 1, 3))
	require.NoError(t, err)

	require.NoError(t, a.PrepareParams(desc))
	require.NoError(t, b.PrepareParams(desc))

	// Identical attribute records compile once and share the executor.
	require.Same(t, a.executor, b.executor)
	require.Equal(t, 1, runtime.Cache().Len())
}

func TestShuffleChannelsNodeBadGroup(t *testing.T) {
	dims := []int{2, 5, 3}
	node := shuffleNode(t, dims, 1, 2)
	s, err := NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)

	desc, err := NewMemoryDescriptor(LayoutPlanar, dtypes.Uint8, dims)
	require.NoError(t, err)
	require.ErrorIs(t, s.PrepareParams(desc), ErrConfiguration)
}

func TestShuffleChannelsNodeDynamicBatch(t *testing.T) {
	dims := []int{4, 6, 2}
	node := shuffleNode(t, dims, 1, 3)
	s, err := NewShuffleChannels(NewRuntime(0), node)
	require.NoError(t, err)

	desc, err := NewMemoryDescriptor(LayoutPlanar, dtypes.Uint8, dims)
	require.NoError(t, err)
	require.NoError(t, s.PrepareParams(desc))

	src := sequentialBytes(numElements(dims), 1)
	full := make([]byte, len(src))
	require.NoError(t, s.Execute(src, full, -1))

	partial := make([]byte, len(src))
	require.NoError(t, s.Execute(src, partial, 2))

	sliceBytes := 6 * 2
	require.Equal(t, full[:2*sliceBytes], partial[:2*sliceBytes])
}

func TestIsSupportedShuffleChannels(t *testing.T) {
	node := shuffleNode(t, []int{2, 4}, 1, 2)
	ok, _ := IsSupportedShuffleChannels(node)
	require.True(t, ok)

	g := ir.NewGraph("test")
	other, err := g.AddNode(ir.OpParameter, 1, "x", nil, nil,
		[]ir.Shape{ir.MakeShape(dtypes.Float32, 2)})
	require.NoError(t, err)
	ok, reason := IsSupportedShuffleChannels(other)
	require.False(t, ok)
	require.NotEmpty(t, reason)
}
