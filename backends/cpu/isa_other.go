//go:build !amd64 && !arm64

package cpu

// probeISATier falls back to the scalar reference tier on architectures
// without a specialized kernel.
func probeISATier() ISATier {
	return ISAReference
}
