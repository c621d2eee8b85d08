package ir

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim marks a dimension whose extent is not statically known.
const DynamicDim = -1

// Shape holds the data type and dimensions of a Value.
//
// Dimensions may be DynamicDim: such shapes are legal in the IR, but nodes
// cannot be compiled for execution until every dimension they depend on is
// resolved.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// MakeShape returns a Shape with the given dtype and dimensions.
func MakeShape(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: make([]int, len(dimensions))}
	copy(s.Dimensions, dimensions)
	return s
}

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// Dim returns the extent of the given axis. Negative axes count from the end,
// following the usual convention.
func (s Shape) Dim(axis int) int {
	if axis < 0 {
		axis += s.Rank()
	}
	return s.Dimensions[axis]
}

// IsStatic reports whether every dimension is statically known.
func (s Shape) IsStatic() bool {
	for _, d := range s.Dimensions {
		if d == DynamicDim {
			return false
		}
	}
	return true
}

// Size returns the number of elements, or DynamicDim if any dimension is
// dynamic.
func (s Shape) Size() int {
	size := 1
	for _, d := range s.Dimensions {
		if d == DynamicDim {
			return DynamicDim
		}
		size *= d
	}
	return size
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return MakeShape(s.DType, s.Dimensions...)
}

// Equal reports whether the two shapes have the same dtype and dimensions.
func (s Shape) Equal(other Shape) bool {
	if s.DType != other.DType || s.Rank() != other.Rank() {
		return false
	}
	for i, d := range s.Dimensions {
		if d != other.Dimensions[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	parts := make([]string, 0, s.Rank())
	for _, d := range s.Dimensions {
		if d == DynamicDim {
			parts = append(parts, "?")
		} else {
			parts = append(parts, fmt.Sprintf("%d", d))
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}
