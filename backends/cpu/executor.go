package cpu

import (
	"github.com/pkg/errors"
)

// ShuffleChannelsExecutor is the compiled form of one ShuffleChannels
// attribute record: a permutation plan realizing "split axis A into
// (group, extent/group), swap the two, recombine" over the record's physical
// memory layout.
//
// The executor is immutable after construction.
type ShuffleChannelsExecutor struct {
	attrs  *ShuffleChannelsAttrs
	kernel *PermuteKernel
}

var _ Executor = (*ShuffleChannelsExecutor)(nil)

// NewShuffleChannelsExecutor derives the permutation plan for the given
// attribute record and compiles the copy kernel for it.
//
// The plan depends only on the record, so it is computed once per unique
// record and reused across every batch with matching shape and layout.
func NewShuffleChannelsExecutor(attrs *ShuffleChannelsAttrs) (*ShuffleChannelsExecutor, error) {
	switch attrs.Layout {
	case LayoutPlanar, LayoutChannelsLast, LayoutBlocked8, LayoutBlocked16:
	default:
		return nil, errors.WithMessagef(ErrConfiguration,
			"shuffle-channels executor supports planar, channels-last, blocked8 and blocked16 layouts, got %s",
			attrs.Layout)
	}
	if attrs.Axis < 0 || attrs.Axis >= attrs.DataRank {
		return nil, errors.WithMessagef(ErrConfiguration,
			"shuffle axis %d out of range for rank %d", attrs.Axis, attrs.DataRank)
	}
	if attrs.Group <= 0 || attrs.SrcDims[attrs.Axis]%attrs.Group != 0 {
		return nil, errors.WithMessagef(ErrConfiguration,
			"group %d does not divide axis extent %d", attrs.Group, attrs.SrcDims[attrs.Axis])
	}
	if attrs.Layout.IsBlocked() && attrs.Axis == channelAxis {
		return nil, errors.WithMessagef(ErrConfiguration,
			"%s layout cannot shuffle the channel axis itself", attrs.Layout)
	}

	params, err := buildShufflePlan(attrs)
	if err != nil {
		return nil, err
	}
	kernel, err := NewPermuteKernel(params)
	if err != nil {
		return nil, err
	}
	return &ShuffleChannelsExecutor{attrs: attrs.clone(), kernel: kernel}, nil
}

// Attrs returns the record the executor was compiled for.
func (e *ShuffleChannelsExecutor) Attrs() *ShuffleChannelsAttrs { return e.attrs }

// Exec runs the compiled plan over the raw buffers.
//
// batch > 0 and smaller than the static batch restricts the copy to that
// many leading batch slices; any other value processes the full static
// batch. The buffers are caller-owned and must outlive the call.
func (e *ShuffleChannelsExecutor) Exec(src, dst []byte, batch int) error {
	if e.kernel == nil {
		return errors.WithMessage(ErrNotReady, "shuffle-channels plan was not compiled")
	}
	e.kernel.Execute(src, dst, batch)
	return nil
}

// buildShufflePlan derives the reshape+permute plan from the attribute
// record, under one of four layout-driven templates. All templates preserve
// the true physical element order, so the generic strided copy produces the
// correct result for any rank: the spatial remainder is always folded into a
// single product dimension, never enumerated per axis.
func buildShufflePlan(attrs *ShuffleChannelsAttrs) (PermuteParams, error) {
	isBlocked := attrs.Layout.IsBlocked()
	// A rank-2 channels-last tensor stores [N, C] exactly like planar.
	isChannelsLast := attrs.Layout == LayoutChannelsLast && attrs.DataRank > 2
	srcDims := attrs.SrcDims
	srcBlockDims := attrs.SrcBlockDims

	// 2 for the decomposed axis pair, 1 for the folded spatial dim, plus the
	// channel-block tail when blocked with nothing spatial left to fold into.
	batchRank := attrs.Axis
	reshapedRank := batchRank + 2
	if attrs.SpatialRank != 0 {
		reshapedRank++
	}
	if isBlocked && attrs.SpatialRank == 0 {
		reshapedRank++
	}

	params := PermuteParams{
		DataSize:     attrs.DataSize,
		Order:        make([]int, reshapedRank),
		SrcBlockDims: make([]int, reshapedRank),
	}

	groupSize := srcDims[attrs.Axis] / attrs.Group
	spatialShapeSize := 1
	if attrs.SpatialRank != 0 {
		for i := batchRank + 1; i < attrs.DataRank; i++ {
			spatialShapeSize *= srcDims[i]
		}
	}

	// decomposeAndTranspose introduces the (G, groupSize) pair at the given
	// position with the two axes swapped in the output order.
	decomposeAndTranspose := func(axis int) {
		params.SrcBlockDims[axis] = attrs.Group
		params.SrcBlockDims[axis+1] = groupSize
		params.Order[axis] = axis + 1
		params.Order[axis+1] = axis
	}

	switch {
	case isBlocked:
		blockSize := srcBlockDims[len(srcBlockDims)-1]
		channelBlocks := srcBlockDims[1]
		if attrs.Axis > channelAxis {
			// Axis on spatial: physical leading dims (batch, channel blocks
			// and any spatial dims before the axis) pass through; everything
			// after the split folds together with the block tail.
			for i := 0; i < batchRank; i++ {
				params.Order[i] = i
				params.SrcBlockDims[i] = srcBlockDims[i]
			}
			decomposeAndTranspose(batchRank)
			params.Order[batchRank+2] = batchRank + 2
			params.SrcBlockDims[batchRank+2] = spatialShapeSize * blockSize
		} else {
			// Axis on batch: split at position 0, fold channel blocks, the
			// block tail and all spatial dims into one dim at position 2.
			decomposeAndTranspose(0)
			folded := channelBlocks * blockSize
			for i := 2; i < attrs.DataRank; i++ {
				folded *= srcDims[i]
			}
			params.Order[2] = 2
			params.SrcBlockDims[2] = folded
		}

	case isChannelsLast:
		switch {
		case attrs.Axis == channelAxis:
			// Channel-last storage puts the channel at the end: batch, then
			// the whole spatial volume, then the split pair.
			params.Order[0] = 0
			params.SrcBlockDims[0] = srcDims[0]
			params.Order[1] = 1
			params.SrcBlockDims[1] = spatialShapeSize
			decomposeAndTranspose(2)
		case attrs.Axis > channelAxis:
			// Axis on spatial: the leading dims are reindexed around the
			// relocated channel dim, which storage places last.
			for i := 0; i < batchRank; i++ {
				switch {
				case i == 0:
					params.Order[0] = 0
					params.SrcBlockDims[0] = srcDims[0]
				case i == 1:
					params.Order[reshapedRank-1] = reshapedRank - 1
					params.SrcBlockDims[reshapedRank-1] = srcDims[1]
				default:
					params.Order[i-1] = i - 1
					params.SrcBlockDims[i-1] = srcDims[i]
				}
			}
			decomposeAndTranspose(batchRank - 1)
			if attrs.SpatialRank != 0 {
				params.Order[batchRank+1] = batchRank + 1
				params.SrcBlockDims[batchRank+1] = spatialShapeSize
			}
		default:
			// Axis on batch: split at position 0; the spatial volume and the
			// relocated channel fold into one trailing dim.
			decomposeAndTranspose(0)
			params.Order[2] = 2
			params.SrcBlockDims[2] = spatialShapeSize
		}

	default: // planar (and rank-2 channels-last, which stores identically)
		for i := 0; i < batchRank; i++ {
			params.Order[i] = i
			params.SrcBlockDims[i] = srcDims[i]
		}
		decomposeAndTranspose(batchRank)
		if attrs.SpatialRank != 0 {
			params.Order[batchRank+2] = batchRank + 2
			params.SrcBlockDims[batchRank+2] = spatialShapeSize
		}
	}

	params.SrcBlockOrder = identityOrder(reshapedRank)
	params.DstBlockOrder = identityOrder(reshapedRank)
	params.DstBlockDims = make([]int, reshapedRank)
	for i := 0; i < reshapedRank; i++ {
		params.DstBlockDims[i] = params.SrcBlockDims[params.Order[i]]
	}
	return params, nil
}
