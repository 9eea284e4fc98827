package canframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHex(t *testing.T) {
	want := []byte{0x04, 0x4B, 0x00, 0x9C, 0x0F, 0x00, 0xA0, 0x7C}

	got, err := ParseHex("04 4B 00 9C 0F 00 A0 7C")
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseHex("044B009C0F00A07C")
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseHex("0x0B 0xB8")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x0B, 0xB8}, got)
}

func TestParseHexRejectsGarbage(t *testing.T) {
	_, err := ParseHex("1122334")
	assert.Error(t, err)
	_, err = ParseHex("GG HH")
	assert.Error(t, err)
}

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "0B B8 FF 07", FormatHex([]byte{0x0B, 0xB8, 0xFF, 0x07}))
	assert.Equal(t, "", FormatHex(nil))
}

func TestParseFrameID(t *testing.T) {
	id, err := ParseFrameID("0x18C4D2D0")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x18C4D2D0), id)

	id, err = ParseFrameID("200")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x200), id)

	_, err = ParseFrameID("")
	assert.Error(t, err)
	_, err = ParseFrameID("0xZZ")
	assert.Error(t, err)
}
