// pin_linux.go - Linux CPU affinity via sched_setaffinity(2)

//go:build linux && !tinygo

package cpu

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Pin binds the calling OS thread to core. Callers lock the goroutine to its
// thread first (runtime.LockOSThread); otherwise the mask is applied to
// whichever thread happens to run it.
//
// A negative core leaves the affinity untouched.
func Pin(core int) error {
	if core < 0 {
		return nil
	}
	if core >= MaxCores {
		return errors.Errorf("cpu: core %d out of range", core)
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(core)

	// pid 0 = calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "cpu: pin core %d", core)
	}
	return nil
}
