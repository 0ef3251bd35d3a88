// entry.go — packed exchange layout for Entry
//
// Firmware peers expect a queue record as a tightly packed header with no
// padding. A Go slice header cannot be laid out that way, so the exchange
// form inlines the payload after the header:
//
//	offset 0: addr   uint16 little-endian
//	offset 2: length uint16 little-endian
//	offset 4: payload bytes

package ring

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// PackedHeaderSize is the fixed header length of a packed frame.
	PackedHeaderSize = 4

	// MaxPayload is the largest payload the 16-bit length field can carry.
	MaxPayload = 1<<16 - 1
)

var (
	// ErrShortFrame reports a buffer shorter than its declared frame.
	ErrShortFrame = errors.New("ring: short packed frame")

	// ErrPayloadTooLarge reports a payload that does not fit the 16-bit length.
	ErrPayloadTooLarge = errors.New("ring: payload exceeds 65535 bytes")
)

// PackedSize returns the packed frame length for e.
func PackedSize(e *Entry) int {
	return PackedHeaderSize + len(e.Payload)
}

// AppendPacked appends the packed frame of e to dst.
func AppendPacked(dst []byte, e *Entry) ([]byte, error) {
	if len(e.Payload) > MaxPayload {
		return dst, ErrPayloadTooLarge
	}
	dst = binary.LittleEndian.AppendUint16(dst, e.Addr)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(e.Payload)))
	return append(dst, e.Payload...), nil
}

// UnpackPacked decodes one frame from the front of b and returns the entry
// and the number of bytes consumed. The payload aliases b.
func UnpackPacked(b []byte) (Entry, int, error) {
	if len(b) < PackedHeaderSize {
		return Entry{}, 0, ErrShortFrame
	}
	n := int(binary.LittleEndian.Uint16(b[2:4]))
	end := PackedHeaderSize + n
	if len(b) < end {
		return Entry{}, 0, errors.Wrapf(ErrShortFrame, "want %d bytes, have %d", end, len(b))
	}
	return Entry{
		Addr:    binary.LittleEndian.Uint16(b[0:2]),
		Payload: b[PackedHeaderSize:end:end],
	}, end, nil
}
