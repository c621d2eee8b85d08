package cpu

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/govino/govino/ir"
)

// ShuffleChannels is the CPU compilation of one ir ShuffleChannels node:
// descriptor enumeration, lazy executor construction through the runtime
// cache, and buffer-level execution.
type ShuffleChannels struct {
	runtime *Runtime
	name    string

	dtype     dtypes.DType
	quantized bool

	// axis is already normalized from the possibly-negative attribute.
	axis     int
	group    int
	dataRank int

	// supportsDynamicBatch: shuffling the batch axis itself makes a partial
	// batch semantically different, so the override is only offered when the
	// axis leaves the batch dimension untouched.
	supportsDynamicBatch bool

	executor *ShuffleChannelsExecutor
}

// IsSupportedShuffleChannels reports whether the CPU backend can compile the
// node, with a reason when it cannot. Unsupported is not an error: the node
// simply falls back to another backend.
func IsSupportedShuffleChannels(node *ir.Node) (bool, string) {
	if node.OpType() != ir.OpShuffleChannels {
		return false, "not a ShuffleChannels operation"
	}
	if _, ok := node.Attrs().(*ir.ShuffleChannelsAttrs); !ok {
		return false, "node carries no ShuffleChannels attributes"
	}
	return true, ""
}

// NewShuffleChannels builds the compilation front for the node.
//
// The node's attributes (group count, axis) arrive externally validated:
// group divisibility is re-checked before planning, but out-of-range values
// are a precondition violation of the caller.
func NewShuffleChannels(runtime *Runtime, node *ir.Node) (*ShuffleChannels, error) {
	if ok, reason := IsSupportedShuffleChannels(node); !ok {
		return nil, errors.WithMessagef(ErrConfiguration, "node %q: %s", node.Name(), reason)
	}
	if node.NumInputs() != 1 || node.NumOutputs() != 1 {
		return nil, errors.WithMessagef(ErrConfiguration,
			"node %q has incorrect number of input/output edges", node.Name())
	}

	attrs := node.Attrs().(*ir.ShuffleChannelsAttrs)
	inputShape := node.Input(0).Shape()
	dataRank := inputShape.Rank()

	axis := attrs.Axis
	if axis < 0 {
		axis += dataRank
	}
	if axis < 0 || axis >= dataRank {
		return nil, errors.WithMessagef(ErrConfiguration,
			"node %q: axis %d out of range for rank %d", node.Name(), attrs.Axis, dataRank)
	}

	return &ShuffleChannels{
		runtime:              runtime,
		name:                 node.Name(),
		dtype:                inputShape.DType,
		quantized:            node.IsQuantized(),
		axis:                 axis,
		group:                attrs.Group,
		dataRank:             dataRank,
		supportsDynamicBatch: axis != 0,
	}, nil
}

// Axis returns the normalized shuffle axis.
func (s *ShuffleChannels) Axis() int { return s.axis }

// SupportsDynamicBatch reports whether Execute honors a batch override.
func (s *ShuffleChannels) SupportsDynamicBatch() bool { return s.supportsDynamicBatch }

// SupportedDescriptors enumerates the (layout, precision) pairs this node
// advertises, most preferred first, each tagged with the process-wide kernel
// tier.
func (s *ShuffleChannels) SupportedDescriptors() ([]PrimitiveDescriptor, error) {
	return supportedDescriptors(s.quantized, s.dtype, s.axis, s.supportsDynamicBatch)
}

// PrepareParams finalizes the attribute record against the selected memory
// descriptor and obtains the executor, compiling it unless an identical
// record is already cached.
//
// The descriptor's dims must be fully static by the time this is called.
func (s *ShuffleChannels) PrepareParams(desc MemoryDescriptor) error {
	if desc.DType != s.dtype {
		return errors.WithMessagef(ErrConfiguration,
			"node %q: descriptor precision %s does not match node precision %s",
			s.name, desc.DType, s.dtype)
	}
	if desc.Rank() != s.dataRank {
		return errors.WithMessagef(ErrConfiguration,
			"node %q: descriptor rank %d does not match node rank %d",
			s.name, desc.Rank(), s.dataRank)
	}
	extent := desc.Dims[s.axis]
	if s.group <= 0 || extent%s.group != 0 {
		return errors.WithMessagef(ErrConfiguration,
			"node %q: group %d does not divide axis extent %d", s.name, s.group, extent)
	}

	attrs := &ShuffleChannelsAttrs{
		Layout:       desc.Layout,
		DType:        desc.DType,
		DataRank:     s.dataRank,
		Axis:         s.axis,
		SpatialRank:  s.dataRank - s.axis - 1,
		Group:        s.group,
		DataSize:     int(desc.DType.Size()),
		SrcDims:      append([]int(nil), desc.Dims...),
		SrcBlockDims: append([]int(nil), desc.BlockDims...),
	}

	executor, wasCached, err := s.runtime.Cache().GetOrCreate(attrs, func() (Executor, error) {
		return NewShuffleChannelsExecutor(attrs)
	})
	if err != nil {
		return errors.WithMessagef(err, "node %q: preparing shuffle-channels executor", s.name)
	}
	klog.V(2).Infof("shuffle-channels %q: executor ready (cached=%v, layout=%s, tier=%s)",
		s.name, wasCached, desc.Layout, CPUTier())
	s.executor = executor.(*ShuffleChannelsExecutor)
	return nil
}

// Execute runs the compiled plan over the raw buffers.
//
// dynamicBatch > 0 requests a partial batch; it is honored only when the
// node supports dynamic batching, and otherwise the full static batch is
// processed. Buffers are caller-owned, no ownership transfer occurs.
func (s *ShuffleChannels) Execute(src, dst []byte, dynamicBatch int) error {
	if s.executor == nil {
		return errors.WithMessagef(ErrSequencing,
			"node %q has no compiled executor; PrepareParams must run first", s.name)
	}
	batch := -1
	if s.supportsDynamicBatch && dynamicBatch > 0 {
		batch = dynamicBatch
	}
	return s.executor.Exec(src, dst, batch)
}
