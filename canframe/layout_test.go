package canframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLayout(t *testing.T) {
	for _, layout := range []Layout{FourByteControl, EightByteStatusControl, SteeringOnlyWithChecksum} {
		parsed, err := ParseLayout(layout.String())
		assert.NoError(t, err)
		assert.Equal(t, layout, parsed)
	}

	parsed, err := ParseLayout("")
	assert.NoError(t, err)
	assert.Equal(t, FourByteControl, parsed)

	_, err = ParseLayout("12byte")
	assert.Error(t, err)
}

func TestLayoutProperties(t *testing.T) {
	assert.Equal(t, 4, FourByteControl.Size())
	assert.Equal(t, 8, EightByteStatusControl.Size())
	assert.Equal(t, 8, SteeringOnlyWithChecksum.Size())

	assert.Equal(t, "0x200", FourByteControl.FrameID())
	assert.Equal(t, "0x18C4D2D0", EightByteStatusControl.FrameID())
	assert.Equal(t, "invalid", Layout(99).String())
}
