package utils

import (
	"os"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for human-readable print paths.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Number Formatting — No fmt, No strconv
///////////////////////////////////////////////////////////////////////////////

// Itoa formats n in base 10.
func Itoa(n int) string {
	if n < 0 {
		return "-" + Utoa(uint64(-n))
	}
	return Utoa(uint64(n))
}

// Utoa formats n in base 10.
func Utoa(n uint64) string {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[i:])
}

const hexDigits = "0123456789abcdef"

// Hex16 formats v as four lowercase hex digits with a 0x prefix.
func Hex16(v uint16) string {
	b := [6]byte{'0', 'x',
		hexDigits[v>>12&0xF], hexDigits[v>>8&0xF],
		hexDigits[v>>4&0xF], hexDigits[v&0xF]}
	return string(b[:])
}

///////////////////////////////////////////////////////////////////////////////
// Diagnostic Output
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr unbuffered. Errors are dropped: there is
// nowhere left to report them.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// PrintInfo writes msg to stdout unbuffered.
//
//go:nosplit
func PrintInfo(msg string) {
	_, _ = os.Stdout.WriteString(msg)
}
