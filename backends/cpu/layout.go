package cpu

import (
	"github.com/pkg/errors"

	"github.com/gomlx/gopjrt/dtypes"
)

// LayoutType tags the physical arrangement of a tensor's elements in memory,
// independent of its logical shape.
type LayoutType uint8

const (
	// LayoutPlanar stores elements in plain row-major logical order
	// ([N, C, spatial...]).
	LayoutPlanar LayoutType = iota

	// LayoutChannelsLast relocates the channel axis to the end
	// ([N, spatial..., C]).
	LayoutChannelsLast

	// LayoutBlocked8 tiles the channel axis into contiguous blocks of 8
	// ([N, ceil(C/8), spatial..., 8]).
	LayoutBlocked8

	// LayoutBlocked16 tiles the channel axis into contiguous blocks of 16.
	LayoutBlocked16
)

// channelAxis is the logical position of the channel dimension in every
// layout this backend understands.
const channelAxis = 1

// String implements fmt.Stringer.
func (l LayoutType) String() string {
	switch l {
	case LayoutPlanar:
		return "planar"
	case LayoutChannelsLast:
		return "channels-last"
	case LayoutBlocked8:
		return "blocked8"
	case LayoutBlocked16:
		return "blocked16"
	default:
		return "invalid-layout"
	}
}

// IsBlocked reports whether the layout tiles the channel axis.
func (l LayoutType) IsBlocked() bool {
	return l == LayoutBlocked8 || l == LayoutBlocked16
}

// BlockSize returns the channel tile width, or 0 for non-blocked layouts.
func (l LayoutType) BlockSize() int {
	switch l {
	case LayoutBlocked8:
		return 8
	case LayoutBlocked16:
		return 16
	default:
		return 0
	}
}

// MemoryDescriptor describes one physical realization of a logical tensor:
// layout tag, element precision, the logical dims and the physical (blocked)
// dims actually laid out in memory.
type MemoryDescriptor struct {
	Layout LayoutType
	DType  dtypes.DType

	// Dims are the logical dimensions, outermost first.
	Dims []int

	// BlockDims are the physical dimensions in storage order. For
	// LayoutPlanar they equal Dims; for the other layouts they are derived
	// by NewMemoryDescriptor.
	BlockDims []int
}

// NewMemoryDescriptor builds the descriptor for the given layout over the
// logical dims, deriving the physical block dims.
//
// Channels-last and blocked layouts need a channel axis, so they require
// rank >= 2. Blocked layouts pad the channel extent up to a multiple of the
// block size.
func NewMemoryDescriptor(layout LayoutType, dtype dtypes.DType, dims []int) (MemoryDescriptor, error) {
	desc := MemoryDescriptor{
		Layout: layout,
		DType:  dtype,
		Dims:   append([]int(nil), dims...),
	}
	rank := len(dims)
	switch layout {
	case LayoutPlanar:
		desc.BlockDims = append([]int(nil), dims...)
	case LayoutChannelsLast:
		if rank < 2 {
			return desc, errors.WithMessagef(ErrConfiguration,
				"channels-last layout needs rank >= 2, got rank %d", rank)
		}
		desc.BlockDims = make([]int, 0, rank)
		desc.BlockDims = append(desc.BlockDims, dims[0])
		desc.BlockDims = append(desc.BlockDims, dims[2:]...)
		desc.BlockDims = append(desc.BlockDims, dims[channelAxis])
	case LayoutBlocked8, LayoutBlocked16:
		if rank < 2 {
			return desc, errors.WithMessagef(ErrConfiguration,
				"%s layout needs rank >= 2, got rank %d", layout, rank)
		}
		blockSize := layout.BlockSize()
		channelBlocks := (dims[channelAxis] + blockSize - 1) / blockSize
		desc.BlockDims = make([]int, 0, rank+1)
		desc.BlockDims = append(desc.BlockDims, dims[0], channelBlocks)
		desc.BlockDims = append(desc.BlockDims, dims[2:]...)
		desc.BlockDims = append(desc.BlockDims, blockSize)
	default:
		return desc, errors.WithMessagef(ErrConfiguration, "unknown layout tag %d", layout)
	}
	return desc, nil
}

// Rank of the logical shape.
func (m MemoryDescriptor) Rank() int { return len(m.Dims) }

// SizeBytes returns the physical buffer size the descriptor requires.
func (m MemoryDescriptor) SizeBytes() int {
	size := int(m.DType.Size())
	for _, d := range m.BlockDims {
		size *= d
	}
	return size
}
