package trajectory

import (
	"strings"
	"testing"

	"github.com/frmini/drivelink/canframe"
	"github.com/stretchr/testify/assert"
)

const recording = `timestamp,id,data,direction
10:00:00.000,0x200,0B B8 FF 07 00 00 00 00,sent
10:00:00.020,0x200,0BB8000000000000,sent
10:00:00.040,0x200,not hex at all,sent
10:00:00.060,0x200,FE 0C FE A2 00 00 00 00,sent
`

func TestLoad(t *testing.T) {
	records, stats, err := Load(strings.NewReader(recording), Options{
		IDColumn:   1,
		DataColumn: 2,
		StartRow:   1,
		Layout:     canframe.FourByteControl,
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, stats.Loaded)
	assert.Equal(t, 1, stats.Malformed)

	// row numbering is preserved, not restarted after the header
	assert.Equal(t, uint32(1), records[0].Index)
	assert.Equal(t, uint32(4), records[3].Index)
	assert.Equal(t, "0x200", records[0].FrameID)

	assert.NotNil(t, records[0].Control)
	assert.Equal(t, int32(3000), records[0].Control.LinearVelocityMMS)
	assert.InDelta(t, -0.249, records[0].Control.SteeringAngle, 1e-9)

	// the malformed row is kept, with no raw bytes and no control vector
	assert.Nil(t, records[2].Control)
	assert.Nil(t, records[2].Data)

	assert.NotNil(t, records[3].Control)
	assert.Equal(t, int32(-500), records[3].Control.LinearVelocityMMS)
}

func TestLoadTooShortRowKept(t *testing.T) {
	records, stats, err := Load(strings.NewReader("0x200,0B B8\n0x200,0BB8FF07\n"), Options{
		IDColumn:   0,
		DataColumn: 1,
		Layout:     canframe.FourByteControl,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 1, stats.Malformed)
	assert.Nil(t, records[0].Control)
	assert.Equal(t, []byte{0x0B, 0xB8}, records[0].Data)
	assert.NotNil(t, records[1].Control)
}

func TestLoadStopsAtEmptyCell(t *testing.T) {
	records, stats, err := Load(strings.NewReader("0x200,0BB8FF07\n0x200,\n0x200,0BB8FF07\n"), Options{
		IDColumn:   0,
		DataColumn: 1,
		Layout:     canframe.FourByteControl,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, stats.Malformed)
}

func TestLoadStartRowOutOfRange(t *testing.T) {
	_, _, err := Load(strings.NewReader("0x200,0BB8FF07\n"), Options{
		IDColumn:   0,
		DataColumn: 1,
		StartRow:   5,
		Layout:     canframe.FourByteControl,
	})
	assert.Error(t, err)
}

func TestLoadEmptyRecording(t *testing.T) {
	_, _, err := Load(strings.NewReader(""), Options{})
	assert.Error(t, err)
}

func TestLoadMissingColumn(t *testing.T) {
	_, _, err := Load(strings.NewReader("0x200\n"), Options{
		IDColumn:   0,
		DataColumn: 2,
	})
	assert.Error(t, err)
}

func TestLoadChecksumLayout(t *testing.T) {
	good, err := canframe.Encode(canframe.SteeringOnlyWithChecksum, canframe.ControlVector{
		LinearVelocityMMS: 1200,
		SteeringAngle:     0.05,
		Gear:              canframe.GearDrive,
	}, 0x30)
	assert.NoError(t, err)

	bad := make([]byte, len(good.Data))
	copy(bad, good.Data)
	bad[3] ^= 0x01 // corrupt the angle field, checksum now disagrees

	content := "0x18C4D2D0," + canframe.FormatHex(good.Data) + "\n" +
		"0x18C4D2D0," + canframe.FormatHex(bad) + "\n"
	records, stats, err := Load(strings.NewReader(content), Options{
		IDColumn:   0,
		DataColumn: 1,
		Layout:     canframe.SteeringOnlyWithChecksum,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Malformed)
	assert.NotNil(t, records[0].Control)
	assert.Nil(t, records[1].Control)
	// corrupted bytes stay available for raw retransmission
	assert.Equal(t, bad, records[1].Data)
}
