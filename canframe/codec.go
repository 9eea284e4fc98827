package canframe

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrChecksumMismatch is returned when a frame's trailing BCC byte does
	// not match the recomputed XOR of the payload.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	// ErrShortFrame is returned when fewer bytes are supplied than the
	// layout requires.
	ErrShortFrame = errors.New("frame too short for layout")
	// ErrValueOutOfRange is returned by Encode when clamping an input to the
	// layout's representable range loses more than one quantization step.
	// The clamped frame is still returned so the caller may transmit it.
	ErrValueOutOfRange = errors.New("control value out of range for layout")
)

const (
	// Steering quantization per layout: the 4-byte layout carries
	// milliradians, the 8-byte layouts carry hundredths of a degree.
	fourByteAngleStep = 0.001
	packedAngleStep   = 0.01 * math.Pi / 180
)

// Encode packs a control vector into a frame of the given layout, addressed
// with the layout's default frame ID. alive is the rolling alive counter and
// is only written by SteeringOnlyWithChecksum. Out-of-range inputs are
// clamped; see ErrValueOutOfRange.
func Encode(layout Layout, cv ControlVector, alive uint8) (RawFrame, error) {
	frame := RawFrame{
		ID:     layout.FrameID(),
		Layout: layout,
	}

	var err error
	switch layout {
	case FourByteControl:
		frame.Data, err = encodeFourByte(cv)
	case EightByteStatusControl, SteeringOnlyWithChecksum:
		frame.Data, err = encodePacked(cv)
	default:
		return frame, errors.Errorf("unknown layout %d", layout)
	}

	if layout == SteeringOnlyWithChecksum {
		frame.Data[5] = 0 // braking, unused
		frame.Data[6] = alive
		frame.Data[7] = bcc(frame.Data[:7])
	}
	return frame, err
}

// Decode unpacks frame bytes under the given layout. Buffers longer than the
// layout are accepted and read from the front; recordings often pad the
// 4-byte layout to 8 bytes.
func Decode(layout Layout, data []byte) (ControlVector, error) {
	if len(data) < layout.Size() {
		return ControlVector{}, errors.Wrapf(ErrShortFrame, "%s needs %d bytes, got %d",
			layout, layout.Size(), len(data))
	}

	switch layout {
	case FourByteControl:
		return ControlVector{
			LinearVelocityMMS: int32(int16(binary.BigEndian.Uint16(data[0:2]))),
			SteeringAngle:     float64(int16(binary.BigEndian.Uint16(data[2:4]))) * fourByteAngleStep,
		}, nil
	case SteeringOnlyWithChecksum:
		if sum := bcc(data[:7]); sum != data[7] {
			return ControlVector{}, errors.Wrapf(ErrChecksumMismatch,
				"computed 0x%02X, frame carries 0x%02X", sum, data[7])
		}
		return decodePacked(data), nil
	case EightByteStatusControl:
		return decodePacked(data), nil
	}
	return ControlVector{}, errors.Errorf("unknown layout %d", layout)
}

// AliveCounter extracts the rolling alive counter from a
// SteeringOnlyWithChecksum frame.
func AliveCounter(data []byte) (uint8, error) {
	if len(data) < 8 {
		return 0, errors.Wrap(ErrShortFrame, "alive counter")
	}
	return data[6], nil
}

func encodeFourByte(cv ControlVector) ([]byte, error) {
	data := make([]byte, 4)

	speed, err := clampCounts(float64(cv.LinearVelocityMMS), math.MinInt16, math.MaxInt16, "velocity")
	binary.BigEndian.PutUint16(data[0:2], uint16(int16(speed)))

	angle, aerr := clampCounts(cv.SteeringAngle/fourByteAngleStep, math.MinInt16, math.MaxInt16, "steering angle")
	binary.BigEndian.PutUint16(data[2:4], uint16(int16(angle)))
	if err == nil {
		err = aerr
	}
	return data, err
}

// The 8-byte layouts interleave fields on nibble boundaries:
//
//	velocity<15..0> = data2<3..0> data1<7..0> data0<7..4>   (unsigned, mm/s)
//	gear<3..0>      = data0<3..0>
//	angle<15..0>    = data4<3..0> data3<7..0> data2<7..4>   (signed, 0.01 deg)
func encodePacked(cv ControlVector) ([]byte, error) {
	data := make([]byte, 8)

	speed, err := clampCounts(float64(cv.LinearVelocityMMS), 0, math.MaxUint16, "velocity magnitude")
	raw := uint32(speed)<<4 | uint32(cv.Gear&0x0F)
	data[0] = byte(raw)
	data[1] = byte(raw >> 8)
	data[2] = byte(raw >> 16)

	deg := cv.SteeringAngle * 180 / math.Pi
	angle, aerr := clampCounts(deg*100, math.MinInt16, math.MaxInt16, "steering angle")
	hi := byte(uint16(int16(angle)) >> 8)
	lo := byte(uint16(int16(angle)))
	data[4] = hi >> 4
	data[3] = (hi&0x0F)<<4 | lo>>4
	data[2] |= (lo & 0x0F) << 4
	if err == nil {
		err = aerr
	}
	return data, err
}

func decodePacked(data []byte) ControlVector {
	speed := uint32(data[2]&0x0F)<<12 | uint32(data[1])<<4 | uint32(data[0]>>4)

	hi := (data[4]&0x0F)<<4 | data[3]>>4
	lo := (data[3]&0x0F)<<4 | data[2]>>4
	counts := int16(uint16(hi)<<8 | uint16(lo))

	return ControlVector{
		LinearVelocityMMS: int32(speed),
		SteeringAngle:     float64(counts) * packedAngleStep,
		Gear:              Gear(data[0] & 0x0F),
	}
}

// clampCounts rounds v to the nearest count and clamps it to [min, max].
// Losing more than one count to the clamp signals ErrValueOutOfRange.
func clampCounts(v float64, min, max int32, field string) (int32, error) {
	c := int32(math.Round(v))
	if c < min {
		c = min
	} else if c > max {
		c = max
	}
	if math.Abs(v-float64(c)) > 1 {
		return c, errors.Wrapf(ErrValueOutOfRange, "%s %v clamped to %d counts", field, v, c)
	}
	return c, nil
}

// bcc folds the payload with XOR, the firmware's block check character.
func bcc(p []byte) byte {
	var sum byte
	for _, b := range p {
		sum ^= b
	}
	return sum
}
