package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/frmini/drivelink/canframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfigFromReader(bytes.NewBufferString(`
[playback]
file = "trajectory.csv"
`))
	require.NoError(t, err)

	assert.Equal(t, modePlayback, cfg.Mode)
	assert.Equal(t, transportSerial, cfg.Transport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 2000000, cfg.Serial.BaudRate)
	assert.Equal(t, 500000, cfg.Serial.CANBaudRate)
	assert.Equal(t, 20*time.Millisecond, cfg.playbackInterval())
	assert.Equal(t, 2.5, cfg.WheelbaseM)

	opts := cfg.loadOptions()
	assert.Equal(t, 0, opts.IDColumn)
	assert.Equal(t, 1, opts.DataColumn)
	assert.Equal(t, 1, opts.StartRow)
	assert.Equal(t, canframe.FourByteControl, opts.Layout)
}

func TestLoadConfigFull(t *testing.T) {
	cfg, err := loadConfigFromReader(bytes.NewBufferString(`
mode = "drive"
transport = "canbus"
wheelbasem = 1.8

[canbus]
interface = "can1"

[drive]
intervalms = 10
frameid = "0x300"

[status]
frameid = "0x00000123"
layout = "8byte-status"

[forwarder]
enabled = true
server = "10.0.0.1"
port = 9000
`))
	require.NoError(t, err)

	assert.Equal(t, modeDrive, cfg.Mode)
	assert.Equal(t, transportCANBus, cfg.Transport)
	assert.Equal(t, "can1", cfg.CANBus.Interface)
	assert.Equal(t, 10*time.Millisecond, cfg.driveInterval())
	assert.Equal(t, 1.8, cfg.WheelbaseM)
	assert.True(t, cfg.Forwarder.Enabled)
	assert.Equal(t, "10.0.0.1", cfg.Forwarder.Server)
	assert.Equal(t, 9000, cfg.Forwarder.Port)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"missing trajectory file": ``,
		"unknown mode":            `mode = "teleport"`,
		"unknown transport": `
transport = "pigeon"
[playback]
file = "t.csv"
`,
		"bad layout": `
[playback]
file = "t.csv"
layout = "12byte"
`,
		"zero interval": `
[playback]
file = "t.csv"
intervalms = 0
`,
		"negative wheelbase": `
wheelbasem = -1.0
[playback]
file = "t.csv"
`,
	}
	for name, config := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfigFromReader(bytes.NewBufferString(config))
			assert.Error(t, err)
		})
	}
}
