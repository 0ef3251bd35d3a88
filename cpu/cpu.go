// Package cpu holds the two hardware-facing helpers shared by the spin lock
// and the pinned consumer: a spin-wait hint and OS-thread core pinning.
package cpu

// MaxCores is the highest core index Pin accepts plus one (size of unix.CPUSet).
const MaxCores = 1024
