package canframe

import (
	"github.com/pkg/errors"
)

// Layout selects one of the frame formats understood by the vehicle
// firmware. The formats come from different firmware generations and are not
// interchangeable.
type Layout int

const (
	// FourByteControl: bytes 0-1 velocity (big-endian signed 16-bit, mm/s),
	// bytes 2-3 steering angle (big-endian signed 16-bit, 0.001 rad/count).
	FourByteControl Layout = iota
	// EightByteStatusControl: gear nibble, nibble-packed velocity magnitude
	// and signed steering angle (0.01 deg/count). Bytes 5-7 unused.
	EightByteStatusControl
	// SteeringOnlyWithChecksum: same packing as EightByteStatusControl plus
	// braking byte, rolling alive counter and a trailing XOR checksum.
	SteeringOnlyWithChecksum
)

func (l Layout) String() string {
	switch l {
	case FourByteControl:
		return "4byte-control"
	case EightByteStatusControl:
		return "8byte-status"
	case SteeringOnlyWithChecksum:
		return "8byte-steering-bcc"
	}
	return "invalid"
}

// ParseLayout maps a configuration name to a layout. The empty string
// selects the 4-byte control layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "4byte-control":
		return FourByteControl, nil
	case "8byte-status":
		return EightByteStatusControl, nil
	case "8byte-steering-bcc":
		return SteeringOnlyWithChecksum, nil
	}
	return 0, errors.Errorf("unknown frame layout %q", s)
}

// Size returns the layout's frame length in bytes.
func (l Layout) Size() int {
	if l == FourByteControl {
		return 4
	}
	return 8
}

// FrameID returns the bus identifier the firmware listens on for frames of
// this layout.
func (l Layout) FrameID() string {
	if l == FourByteControl {
		return "0x200"
	}
	return "0x18C4D2D0"
}
