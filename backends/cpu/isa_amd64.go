//go:build amd64

package cpu

import "golang.org/x/sys/cpu"

// probeISATier checks vector extensions widest-first.
func probeISATier() ISATier {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512VL:
		return ISAAVX512
	case cpu.X86.HasAVX2:
		return ISAAVX2
	case cpu.X86.HasSSE41:
		return ISASSE41
	default:
		return ISAReference
	}
}
