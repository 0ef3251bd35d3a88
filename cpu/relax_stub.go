// relax_stub.go — no-op Relax for targets without a spin hint
//
// Covers RISC-V, MIPS, wasm, TinyGo and any build with the noasm tag or cgo
// disabled. Spinning callers still make progress through Go's asynchronous
// preemption and their own Gosched budget.

//go:build (!amd64 && !arm64) || noasm || !cgo

package cpu

// Relax is a no-op on this target.
//
//go:nosplit
func Relax() {}
