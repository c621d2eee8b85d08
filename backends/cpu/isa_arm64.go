//go:build arm64

package cpu

// probeISATier returns the NEON tier: ASIMD is always available on ARM64.
func probeISATier() ISATier {
	return ISANEON
}
