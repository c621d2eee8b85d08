package cpu

import "sync"

// ISATier is the instruction-set capability level used to pick a kernel
// implementation. It affects performance only, never correctness: every tier
// runs the same plan through the same generic strided copy, wider tiers just
// move more bytes per step.
type ISATier uint8

// Tiers in ascending specialization order.
const (
	ISAReference ISATier = iota
	ISANEON
	ISASSE41
	ISAAVX2
	ISAAVX512
)

// String implements fmt.Stringer.
func (t ISATier) String() string {
	switch t {
	case ISAAVX512:
		return "avx512"
	case ISAAVX2:
		return "avx2"
	case ISASSE41:
		return "sse41"
	case ISANEON:
		return "neon"
	default:
		return "reference"
	}
}

var (
	isaOnce sync.Once
	isaTier ISATier
)

// CPUTier returns the implementation tier of the running process.
//
// The hardware is probed once, in descending specialization order, and the
// result is immutable for the lifetime of the process.
func CPUTier() ISATier {
	isaOnce.Do(func() {
		isaTier = probeISATier()
	})
	return isaTier
}
