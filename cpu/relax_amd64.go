// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - AMD64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: x86-64 Spin-Wait Hint
//
// Description:
//   Emits PAUSE inside spin loops (irq.Spin, consumer polling). Lets the sibling
//   hyperthread make progress and avoids the memory-order mis-speculation penalty
//   when the awaited cache line finally changes.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build amd64 && !noasm && cgo

package cpu

/*
#ifdef __x86_64__
static inline void cpu_pause() {
    __asm__ __volatile__("pause" ::: "memory");
}
#else
#error "This file requires x86-64 architecture"
#endif
*/
import "C"

// Relax emits the x86-64 PAUSE instruction.
//
//go:nosplit
func Relax() {
	C.cpu_pause()
}
