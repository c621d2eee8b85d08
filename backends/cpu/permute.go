package cpu

import (
	"github.com/pkg/errors"

	"github.com/gomlx/exceptions"
)

// PermuteParams is a reshape-then-reorder plan consumed by the generic
// strided-copy kernel: the source tensor is viewed as SrcBlockDims, and dst
// axis i iterates src axis Order[i], so DstBlockDims[i] =
// SrcBlockDims[Order[i]].
//
// SrcBlockOrder and DstBlockOrder allow a future layout to reorder the block
// dims themselves; every layout handled today uses the identity.
type PermuteParams struct {
	// DataSize is the element size in bytes.
	DataSize int

	Order        []int
	SrcBlockDims []int
	DstBlockDims []int

	SrcBlockOrder []int
	DstBlockOrder []int
}

// identityOrder returns [0, 1, ..., n).
func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func isIdentityOrder(order []int) bool {
	for i, v := range order {
		if v != i {
			return false
		}
	}
	return true
}

// PermuteKernel executes a PermuteParams plan over raw byte buffers.
//
// The kernel is immutable after construction and therefore safe for
// concurrent use; each Execute call is synchronous and touches only the
// caller-supplied buffers.
type PermuteKernel struct {
	params PermuteParams

	// dstStrides are element strides of the destination dims (row-major);
	// srcSteps[i] is the source element stride that one step along dst axis
	// i advances by.
	dstStrides []int
	srcSteps   []int

	srcSize int // total elements
}

// NewPermuteKernel validates the plan and precomputes its strides.
func NewPermuteKernel(params PermuteParams) (*PermuteKernel, error) {
	rank := len(params.SrcBlockDims)
	if rank == 0 {
		return nil, errors.WithMessage(ErrConfiguration, "permute plan has rank 0")
	}
	if params.DataSize <= 0 {
		return nil, errors.WithMessagef(ErrConfiguration,
			"permute plan has invalid element size %d", params.DataSize)
	}
	if len(params.Order) != rank || len(params.DstBlockDims) != rank {
		return nil, errors.WithMessagef(ErrConfiguration,
			"permute plan dims/order lengths disagree: order=%d, src=%d, dst=%d",
			len(params.Order), rank, len(params.DstBlockDims))
	}
	seen := make([]bool, rank)
	for _, axis := range params.Order {
		if axis < 0 || axis >= rank || seen[axis] {
			return nil, errors.WithMessagef(ErrConfiguration,
				"permute plan order %v is not a permutation of rank %d", params.Order, rank)
		}
		seen[axis] = true
	}
	for i, axis := range params.Order {
		if params.DstBlockDims[i] != params.SrcBlockDims[axis] {
			return nil, errors.WithMessagef(ErrConfiguration,
				"permute plan dst dim #%d (%d) != src dim #%d (%d)",
				i, params.DstBlockDims[i], axis, params.SrcBlockDims[axis])
		}
	}
	if !isIdentityOrder(params.SrcBlockOrder) || !isIdentityOrder(params.DstBlockOrder) {
		return nil, errors.WithMessage(ErrConfiguration,
			"non-identity block-iteration orders are not supported")
	}

	srcStrides := make([]int, rank)
	stride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		srcStrides[axis] = stride
		stride *= params.SrcBlockDims[axis]
	}
	srcSize := stride

	dstStrides := make([]int, rank)
	stride = 1
	for axis := rank - 1; axis >= 0; axis-- {
		dstStrides[axis] = stride
		stride *= params.DstBlockDims[axis]
	}

	srcSteps := make([]int, rank)
	for i, axis := range params.Order {
		srcSteps[i] = srcStrides[axis]
	}

	return &PermuteKernel{
		params:     params,
		dstStrides: dstStrides,
		srcSteps:   srcSteps,
		srcSize:    srcSize,
	}, nil
}

// SizeBytes returns the buffer size the full plan reads and writes.
func (k *PermuteKernel) SizeBytes() int {
	return k.srcSize * k.params.DataSize
}

// Execute copies src into dst following the plan.
//
// If 0 < batch < the outermost destination extent and the plan keeps the
// outer axis in place (Order[0] == 0), only that many leading outer slices
// are moved; any other batch value processes the full plan. Identical plan,
// src and batch produce byte-identical output.
func (k *PermuteKernel) Execute(src, dst []byte, batch int) {
	outer := k.params.DstBlockDims[0]
	if batch > 0 && batch < outer && k.params.Order[0] == 0 {
		outer = batch
	}
	need := k.SizeBytes()
	if len(src) < need || len(dst) < need {
		exceptions.Panicf("PermuteKernel.Execute: buffers too small, need %d bytes, got src=%d dst=%d",
			need, len(src), len(dst))
	}
	k.walk(src, dst, 0, 0, 0, outer)
}

// walk recursively iterates the destination index space in row-major order;
// offsets are in elements. The innermost axis degenerates to a single copy
// when its source stride is contiguous.
func (k *PermuteKernel) walk(src, dst []byte, axis, srcOff, dstOff, extent int) {
	es := k.params.DataSize
	srcStep := k.srcSteps[axis]
	if axis == len(k.dstStrides)-1 {
		if srcStep == 1 {
			copy(dst[dstOff*es:(dstOff+extent)*es], src[srcOff*es:(srcOff+extent)*es])
			return
		}
		for i := 0; i < extent; i++ {
			copy(dst[(dstOff+i)*es:(dstOff+i+1)*es], src[srcOff*es:(srcOff+1)*es])
			srcOff += srcStep
		}
		return
	}
	dstStep := k.dstStrides[axis]
	nextExtent := k.params.DstBlockDims[axis+1]
	for i := 0; i < extent; i++ {
		k.walk(src, dst, axis+1, srcOff, dstOff, nextExtent)
		srcOff += srcStep
		dstOff += dstStep
	}
}
