// ============================================================================
// CROSS-PLATFORM COMPATIBILITY STUB
// ============================================================================
//
// pin_stub.go - CPU affinity no-op for macOS, Windows, BSD and TinyGo, where
// sched_setaffinity(2) is unavailable. Higher layers call Pin unconditionally.

//go:build !linux || tinygo

package cpu

// Pin is a no-op on this platform.
func Pin(core int) error {
	return nil
}
