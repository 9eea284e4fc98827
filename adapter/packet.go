// Package adapter speaks the wire protocol of the USB serial-to-CAN adapter
// that bridges the host to the vehicle bus: a fixed 20-byte packet format
// and a variable-length format, both framed with an 0xAA 0x55 header, plus
// the adapter's configuration command.
package adapter

import (
	"github.com/frmini/drivelink/canframe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// FixedPacketSize is the length of every packet in the fixed protocol,
	// both directions.
	FixedPacketSize = 20

	maxFrameData = 8

	maxStandardID = 0x7FF
	maxExtendedID = 0x1FFFFFFF

	// frame ID the firmware defaults to when none is given
	defaultFrameID = 0x18C4D2D0
)

// Mode selects the adapter's CAN controller mode.
type Mode byte

const (
	ModeNormal Mode = iota
	ModeSilent
	ModeLoopback
	ModeLoopbackSilent
)

// Config is the adapter's one-time setup command payload.
type Config struct {
	CANBaudRate int
	Extended    bool
	Mode        Mode
	// Variable selects the variable-length wire protocol instead of the
	// fixed 20-byte one.
	Variable bool
}

var baudCodes = map[int]byte{
	5000:    0x0C,
	10000:   0x0B,
	20000:   0x0A,
	50000:   0x09,
	100000:  0x08,
	125000:  0x07,
	200000:  0x06,
	250000:  0x05,
	400000:  0x04,
	500000:  0x03,
	800000:  0x02,
	1000000: 0x01,
}

// ConfigPacket builds the adapter configuration command. Unknown baud rates
// fall back to 500 kbps, matching the adapter's own default.
func ConfigPacket(cfg Config) []byte {
	baud, ok := baudCodes[cfg.CANBaudRate]
	if !ok {
		log.WithField("baud", cfg.CANBaudRate).Warn("unknown CAN baud rate, using 500k")
		baud = baudCodes[500000]
	}

	command := byte(0x02)
	if cfg.Variable {
		command = 0x12
	}
	frameType := byte(0x01)
	if cfg.Extended {
		frameType = 0x02
	}

	packet := []byte{0xAA, 0x55, command, baud, frameType}
	packet = append(packet, 0, 0, 0, 0) // filter ID
	packet = append(packet, 0, 0, 0, 0) // mask ID
	packet = append(packet, byte(cfg.Mode))
	packet = append(packet, 0)          // automatic resend
	packet = append(packet, 0, 0, 0, 0) // spare
	return append(packet, checksum(packet))
}

// FixedPacket wraps a frame in the fixed 20-byte send format. Frame data is
// zero-padded to 8 bytes.
func FixedPacket(frameID string, data []byte, extended bool) ([]byte, error) {
	id, err := resolveID(frameID, extended)
	if err != nil {
		return nil, err
	}
	if len(data) > maxFrameData {
		return nil, errors.Errorf("frame data length %d exceeds %d bytes", len(data), maxFrameData)
	}

	frameType := byte(0x01)
	if extended {
		frameType = 0x02
	}
	packet := make([]byte, 0, FixedPacketSize)
	packet = append(packet, 0xAA, 0x55, 0x01, frameType, 0x01)
	packet = append(packet, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	packet = append(packet, maxFrameData)
	packet = append(packet, data...)
	for i := len(data); i < maxFrameData; i++ {
		packet = append(packet, 0)
	}
	packet = append(packet, 0) // reserved
	return append(packet, checksum(packet)), nil
}

// VariablePacket wraps a frame in the variable-length send format:
// 0xAA, control byte (frame type bit and data length nibble), little-endian
// ID (2 bytes standard, 4 extended), data, 0x55.
func VariablePacket(frameID string, data []byte, extended bool) ([]byte, error) {
	id, err := resolveID(frameID, extended)
	if err != nil {
		return nil, err
	}
	if len(data) > maxFrameData {
		return nil, errors.Errorf("frame data length %d exceeds %d bytes", len(data), maxFrameData)
	}

	control := byte(0xC0 | len(data))
	if extended {
		control = byte(0xE0 | len(data))
	}
	packet := []byte{0xAA, control}
	if extended {
		packet = append(packet, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	} else {
		packet = append(packet, byte(id), byte(id>>8))
	}
	packet = append(packet, data...)
	return append(packet, 0x55), nil
}

// Message is one received frame unwrapped from the adapter protocol.
type Message struct {
	ID       string
	Data     []byte
	Extended bool
}

// ParseFixed unwraps a received fixed-protocol packet. The checksum must
// already hold (the stream parser guarantees it); structural errors are
// still rejected here.
func ParseFixed(packet []byte) (Message, error) {
	if len(packet) < FixedPacketSize {
		return Message{}, errors.Errorf("packet too short: %d bytes", len(packet))
	}
	if packet[0] != 0xAA || packet[1] != 0x55 {
		return Message{}, errors.Errorf("bad packet header % X", packet[0:2])
	}

	dataLen := int(packet[9])
	if dataLen > maxFrameData {
		return Message{}, errors.Errorf("invalid frame data length %d", dataLen)
	}

	id := uint32(packet[5]) | uint32(packet[6])<<8 | uint32(packet[7])<<16 | uint32(packet[8])<<24
	data := make([]byte, dataLen)
	copy(data, packet[10:10+dataLen])

	return Message{
		ID:       canframe.FormatFrameID(id),
		Data:     data,
		Extended: packet[3] == 0x02,
	}, nil
}

func resolveID(frameID string, extended bool) (uint32, error) {
	if frameID == "" || frameID == "0x" || frameID == "0X" {
		return defaultFrameID, nil
	}
	id, err := canframe.ParseFrameID(frameID)
	if err != nil {
		return 0, err
	}
	if !extended && id > maxStandardID {
		return 0, errors.Errorf("standard frame ID 0x%X exceeds 11 bits", id)
	}
	if extended && id > maxExtendedID {
		return 0, errors.Errorf("extended frame ID 0x%X exceeds 29 bits", id)
	}
	return id, nil
}

// checksum is the additive check over everything after the two header
// bytes. The caller appends the result, so the trailing byte is not yet
// part of p.
func checksum(p []byte) byte {
	var sum byte
	for _, b := range p[2:] {
		sum += b
	}
	return sum
}
