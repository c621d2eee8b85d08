package cpu

import (
	"github.com/pkg/errors"

	"github.com/gomlx/gopjrt/dtypes"
)

// PrimitiveDescriptor is one (layout, precision) pair a node advertises as
// supported, with the kernel tier attached. Input and output of the operators
// in this backend always share layout and precision, so one pair describes
// both sides.
type PrimitiveDescriptor struct {
	Layout LayoutType
	DType  dtypes.DType
	Tier   ISATier

	// DynamicBatch is whether exec may process only a leading subset of the
	// batch dimension without recompiling.
	DynamicBatch bool
}

// supportedByteSizes are the element widths the generic copy kernel handles.
var supportedByteSizes = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true}

// supportedDescriptors enumerates the descriptor pairs for a layout-permissive
// shuffle-like operator.
//
// Quantized subgraphs prefer channels-last storage, so it is offered first
// there and second otherwise. The blocked 8/16 variants are added only when
// the operator's special axis is not the channel axis: shuffling the channel
// dimension of a channel-tiled layout would tear the tiles apart.
func supportedDescriptors(quantized bool, dtype dtypes.DType, axis int,
	dynamicBatch bool) ([]PrimitiveDescriptor, error) {
	if dtype == dtypes.InvalidDType {
		return nil, errors.WithMessage(ErrConfiguration, "invalid element precision")
	}
	if !supportedByteSizes[int(dtype.Size())] {
		return nil, errors.WithMessagef(ErrConfiguration,
			"unsupported precision %s (element size %d bytes)", dtype, dtype.Size())
	}

	first, second := LayoutPlanar, LayoutChannelsLast
	if quantized {
		first, second = second, first
	}

	tier := CPUTier()
	descriptors := []PrimitiveDescriptor{
		{Layout: first, DType: dtype, Tier: tier, DynamicBatch: dynamicBatch},
		{Layout: second, DType: dtype, Tier: tier, DynamicBatch: dynamicBatch},
	}
	if axis != channelAxis {
		descriptors = append(descriptors,
			PrimitiveDescriptor{Layout: LayoutBlocked8, DType: dtype, Tier: tier, DynamicBatch: dynamicBatch},
			PrimitiveDescriptor{Layout: LayoutBlocked16, DType: dtype, Tier: tier, DynamicBatch: dynamicBatch})
	}
	return descriptors, nil
}
