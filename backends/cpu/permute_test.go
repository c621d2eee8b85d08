package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// makePlan fills the derived fields of a plan from dims and order.
func makePlan(dataSize int, srcDims []int, order []int) PermuteParams {
	rank := len(srcDims)
	params := PermuteParams{
		DataSize:      dataSize,
		Order:         order,
		SrcBlockDims:  srcDims,
		DstBlockDims:  make([]int, rank),
		SrcBlockOrder: identityOrder(rank),
		DstBlockOrder: identityOrder(rank),
	}
	for i, axis := range order {
		params.DstBlockDims[i] = params.SrcBlockDims[axis]
	}
	return params
}

// sequentialBytes returns n*dataSize bytes where element i is encoded from i,
// so every element is distinguishable.
func sequentialBytes(n, dataSize int) []byte {
	buf := make([]byte, n*dataSize)
	for i := 0; i < n; i++ {
		for b := 0; b < dataSize; b++ {
			buf[i*dataSize+b] = byte((i + b*13) % 251)
		}
	}
	return buf
}

func numElements(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

func TestPermuteKernelValidation(t *testing.T) {
	// Not a permutation.
	params := makePlan(4, []int{2, 3}, []int{0, 1})
	params.Order = []int{0, 0}
	_, err := NewPermuteKernel(params)
	require.ErrorIs(t, err, ErrConfiguration)

	// Destination dims disagree with the gather.
	params = makePlan(4, []int{2, 3}, []int{1, 0})
	params.DstBlockDims = []int{2, 3}
	_, err = NewPermuteKernel(params)
	require.ErrorIs(t, err, ErrConfiguration)

	// Zero element size.
	params = makePlan(0, []int{2, 3}, []int{0, 1})
	_, err = NewPermuteKernel(params)
	require.ErrorIs(t, err, ErrConfiguration)

	// Non-identity block-iteration orders are reserved for future layouts.
	params = makePlan(4, []int{2, 3}, []int{0, 1})
	params.SrcBlockOrder = []int{1, 0}
	_, err = NewPermuteKernel(params)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPermuteIdentity(t *testing.T) {
	params := makePlan(2, []int{2, 3, 4}, []int{0, 1, 2})
	kernel, err := NewPermuteKernel(params)
	require.NoError(t, err)

	src := sequentialBytes(numElements(params.SrcBlockDims), params.DataSize)
	dst := make([]byte, len(src))
	kernel.Execute(src, dst, -1)
	require.Equal(t, src, dst)
}

func TestPermuteRoundTrip(t *testing.T) {
	srcDims := []int{2, 3, 4, 5}
	order := []int{2, 0, 3, 1}
	params := makePlan(4, srcDims, order)
	kernel, err := NewPermuteKernel(params)
	require.NoError(t, err)

	src := sequentialBytes(numElements(srcDims), params.DataSize)
	mid := make([]byte, len(src))
	kernel.Execute(src, mid, -1)
	require.NotEqual(t, src, mid)

	// The inverse permutation restores the original element order exactly.
	inverse := make([]int, len(order))
	for i, axis := range order {
		inverse[axis] = i
	}
	backParams := makePlan(params.DataSize, params.DstBlockDims, inverse)
	backKernel, err := NewPermuteKernel(backParams)
	require.NoError(t, err)

	back := make([]byte, len(src))
	backKernel.Execute(mid, back, -1)
	require.Equal(t, src, back)
}

func TestPermuteAgainstNaive(t *testing.T) {
	srcDims := []int{3, 2, 4}
	order := []int{1, 2, 0}
	params := makePlan(1, srcDims, order)
	kernel, err := NewPermuteKernel(params)
	require.NoError(t, err)

	src := sequentialBytes(numElements(srcDims), 1)
	dst := make([]byte, len(src))
	kernel.Execute(src, dst, -1)

	// dst[i0,i1,i2] = src[coords gathered by order].
	want := make([]byte, len(src))
	dstDims := params.DstBlockDims
	for i0 := 0; i0 < dstDims[0]; i0++ {
		for i1 := 0; i1 < dstDims[1]; i1++ {
			for i2 := 0; i2 < dstDims[2]; i2++ {
				dstCoords := []int{i0, i1, i2}
				srcCoords := make([]int, 3)
				for d, axis := range order {
					srcCoords[axis] = dstCoords[d]
				}
				srcOff := (srcCoords[0]*srcDims[1]+srcCoords[1])*srcDims[2] + srcCoords[2]
				dstOff := (i0*dstDims[1]+i1)*dstDims[2] + i2
				want[dstOff] = src[srcOff]
			}
		}
	}
	require.Equal(t, want, dst)
}

func TestPermuteBatchOverride(t *testing.T) {
	srcDims := []int{4, 3, 2}
	order := []int{0, 2, 1} // batch axis untouched
	params := makePlan(2, srcDims, order)
	kernel, err := NewPermuteKernel(params)
	require.NoError(t, err)

	src := sequentialBytes(numElements(srcDims), params.DataSize)
	full := make([]byte, len(src))
	kernel.Execute(src, full, -1)

	partial := make([]byte, len(src))
	kernel.Execute(src, partial, 2)

	// Identical to the full run truncated to the first 2 batch slices.
	sliceBytes := 3 * 2 * params.DataSize
	require.Equal(t, full[:2*sliceBytes], partial[:2*sliceBytes])
	for _, b := range partial[2*sliceBytes:] {
		require.Zero(t, b)
	}

	// A non-positive override processes the full static batch.
	again := make([]byte, len(src))
	kernel.Execute(src, again, 0)
	require.Equal(t, full, again)
}
