package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigPacket(t *testing.T) {
	packet := ConfigPacket(Config{CANBaudRate: 500000})
	assert.Equal(t, FixedPacketSize, len(packet))
	assert.Equal(t, byte(0xAA), packet[0])
	assert.Equal(t, byte(0x55), packet[1])
	assert.Equal(t, byte(0x02), packet[2], "fixed protocol command")
	assert.Equal(t, byte(0x03), packet[3], "500k baud code")
	assert.Equal(t, byte(0x01), packet[4], "standard frame type")
	assert.Equal(t, checksum(packet[:19]), packet[19])
}

func TestConfigPacketVariableExtended(t *testing.T) {
	packet := ConfigPacket(Config{
		CANBaudRate: 125000,
		Extended:    true,
		Mode:        ModeLoopback,
		Variable:    true,
	})
	assert.Equal(t, byte(0x12), packet[2], "variable protocol command")
	assert.Equal(t, byte(0x07), packet[3], "125k baud code")
	assert.Equal(t, byte(0x02), packet[4], "extended frame type")
	assert.Equal(t, byte(ModeLoopback), packet[13])
}

func TestConfigPacketUnknownBaudFallsBack(t *testing.T) {
	packet := ConfigPacket(Config{CANBaudRate: 12345})
	assert.Equal(t, byte(0x03), packet[3], "defaults to 500k")
}

func TestFixedPacket(t *testing.T) {
	packet, err := FixedPacket("0x123", []byte{0x11, 0x22}, false)
	assert.NoError(t, err)
	assert.Equal(t, FixedPacketSize, len(packet))
	assert.Equal(t, []byte{0xAA, 0x55, 0x01, 0x01, 0x01}, packet[0:5])
	assert.Equal(t, []byte{0x23, 0x01, 0x00, 0x00}, packet[5:9], "little-endian ID")
	assert.Equal(t, byte(0x08), packet[9])
	assert.Equal(t, []byte{0x11, 0x22, 0, 0, 0, 0, 0, 0}, packet[10:18], "zero padded data")
	assert.Equal(t, checksum(packet[:19]), packet[19])
}

func TestFixedPacketExtended(t *testing.T) {
	packet, err := FixedPacket("0x18C4D2D0", []byte{0x01}, true)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x02), packet[3])
	assert.Equal(t, []byte{0xD0, 0xD2, 0xC4, 0x18}, packet[5:9])
}

func TestFixedPacketIDValidation(t *testing.T) {
	_, err := FixedPacket("0x800", nil, false)
	assert.Error(t, err, "standard ID over 11 bits")
	_, err = FixedPacket("0x7FF", nil, false)
	assert.NoError(t, err)

	_, err = FixedPacket("0x20000000", nil, true)
	assert.Error(t, err, "extended ID over 29 bits")
	_, err = FixedPacket("0x1FFFFFFF", nil, true)
	assert.NoError(t, err)

	_, err = FixedPacket("not-hex", nil, false)
	assert.Error(t, err)
}

func TestFixedPacketDefaultsEmptyID(t *testing.T) {
	packet, err := FixedPacket("", []byte{0x01}, true)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xD0, 0xD2, 0xC4, 0x18}, packet[5:9])
}

func TestFixedPacketRejectsLongData(t *testing.T) {
	_, err := FixedPacket("0x123", make([]byte, 9), false)
	assert.Error(t, err)
}

func TestVariablePacketStandard(t *testing.T) {
	packet, err := VariablePacket("0x123", []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}, false)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xC8, 0x23, 0x01, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x55}, packet)

	packet, err = VariablePacket("0x103", []byte{0x11, 0x22}, false)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xC2, 0x03, 0x01, 0x11, 0x22, 0x55}, packet)
}

func TestVariablePacketExtended(t *testing.T) {
	packet, err := VariablePacket("0x1234567", []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}, true)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xE8, 0x67, 0x45, 0x23, 0x01, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x55}, packet)

	packet, err = VariablePacket("0x1033021", []byte{0x11, 0x22}, true)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xE2, 0x21, 0x30, 0x03, 0x01, 0x11, 0x22, 0x55}, packet)
}

func validReceivePacket() []byte {
	packet := []byte{
		0xAA, 0x55, 0x01, 0x01, 0x01,
		0xD0, 0xD2, 0xC4, 0x18,
		0x08,
		0x01, 0x83, 0x02, 0x02, 0xF2, 0x00, 0x00, 0x00,
		0x00,
	}
	return append(packet, checksum(packet))
}

func TestParseFixed(t *testing.T) {
	msg, err := ParseFixed(validReceivePacket())
	assert.NoError(t, err)
	assert.Equal(t, "0x18C4D2D0", msg.ID)
	assert.Equal(t, []byte{0x01, 0x83, 0x02, 0x02, 0xF2, 0x00, 0x00, 0x00}, msg.Data)
	assert.False(t, msg.Extended)
}

func TestParseFixedExtended(t *testing.T) {
	packet := validReceivePacket()
	packet[3] = 0x02
	packet[19] = checksum(packet[:19])
	msg, err := ParseFixed(packet)
	assert.NoError(t, err)
	assert.True(t, msg.Extended)
}

func TestParseFixedRejectsStructuralErrors(t *testing.T) {
	_, err := ParseFixed([]byte{0xAA, 0x55, 0x01})
	assert.Error(t, err, "too short")

	packet := validReceivePacket()
	packet[0] = 0xBB
	_, err = ParseFixed(packet)
	assert.Error(t, err, "bad header")

	packet = validReceivePacket()
	packet[9] = 0x09
	_, err = ParseFixed(packet)
	assert.Error(t, err, "data length over 8")
}
