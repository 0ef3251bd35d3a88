// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - ARM64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: ARM64 Spin-Wait Hint
//
// Description:
//   Emits YIELD inside spin loops. On big.LITTLE and Apple Silicon parts this
//   tells the core it is waiting on another agent.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build arm64 && !noasm && cgo

package cpu

/*
#ifdef __aarch64__
static inline void cpu_yield() {
    __asm__ __volatile__("yield" ::: "memory");
}
#else
#error "This file requires ARM64 architecture"
#endif
*/
import "C"

// Relax emits the ARM64 YIELD instruction.
//
//go:nosplit
func Relax() {
	C.cpu_yield()
}
