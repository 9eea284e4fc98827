package main

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/frmini/drivelink/adapter"
	"github.com/frmini/drivelink/canframe"
	"github.com/frmini/drivelink/trajectory"
	"github.com/pkg/errors"
)

const (
	modePlayback = "playback"
	modeDrive    = "drive"

	transportSerial = "serial"
	transportCANBus = "canbus"
)

type serialConfig struct {
	Port        string
	BaudRate    int
	CANBaudRate int
	Extended    bool
	Variable    bool
}

type canBusConfig struct {
	Interface string
}

type playbackConfig struct {
	File       string
	IntervalMS int
	Layout     string
	FrameID    string
	IDColumn   int
	DataColumn int
	StartRow   int
}

type driveConfig struct {
	IntervalMS int
	FrameID    string
}

type statusConfig struct {
	FrameID string
	Layout  string
}

type forwarderConfig struct {
	Enabled bool
	Server  string
	Port    int
}

type config struct {
	Mode      string
	Transport string

	Serial    serialConfig
	CANBus    canBusConfig
	Playback  playbackConfig
	Drive     driveConfig
	Status    statusConfig
	Forwarder forwarderConfig

	WheelbaseM float64
}

func defaultConfig() config {
	return config{
		Mode:      modePlayback,
		Transport: transportSerial,
		Serial: serialConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    2000000,
			CANBaudRate: 500000,
		},
		CANBus: canBusConfig{
			Interface: "can0",
		},
		Playback: playbackConfig{
			IntervalMS: 20,
			IDColumn:   0,
			DataColumn: 1,
			StartRow:   1,
		},
		Drive: driveConfig{
			IntervalMS: 20,
		},
		Status: statusConfig{
			Layout: "8byte-status",
		},
		WheelbaseM: 2.5,
	}
}

func loadConfig(fileName string) (config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return config{}, errors.Wrapf(err, "unable to open config file %s", fileName)
	}
	defer file.Close()
	return loadConfigFromReader(file)
}

func loadConfigFromReader(configReader io.Reader) (config, error) {
	configData, err := io.ReadAll(configReader)
	if err != nil {
		return config{}, errors.Wrap(err, "unable to read config reader")
	}
	cfg := defaultConfig()
	if _, err := toml.Decode(string(configData), &cfg); err != nil {
		return config{}, errors.Wrap(err, "unable to load configuration")
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.Mode {
	case modePlayback:
		if c.Playback.File == "" {
			return errors.New("playback mode requires a trajectory file")
		}
		if c.Playback.IntervalMS < 1 {
			return errors.New("playback interval must be at least 1ms")
		}
	case modeDrive:
		if c.Drive.IntervalMS < 1 {
			return errors.New("drive interval must be at least 1ms")
		}
	default:
		return errors.Errorf("unknown mode %q", c.Mode)
	}

	switch c.Transport {
	case transportSerial, transportCANBus:
	default:
		return errors.Errorf("unknown transport %q", c.Transport)
	}

	if _, err := canframe.ParseLayout(c.Playback.Layout); err != nil {
		return err
	}
	if _, err := canframe.ParseLayout(c.Status.Layout); err != nil {
		return err
	}
	if c.WheelbaseM <= 0 {
		return errors.New("wheelbase must be positive")
	}
	return nil
}

func (c config) adapterConfig() adapter.Config {
	return adapter.Config{
		CANBaudRate: c.Serial.CANBaudRate,
		Extended:    c.Serial.Extended,
		Variable:    c.Serial.Variable,
	}
}

func (c config) loadOptions() trajectory.Options {
	layout, _ := canframe.ParseLayout(c.Playback.Layout)
	return trajectory.Options{
		IDColumn:   c.Playback.IDColumn,
		DataColumn: c.Playback.DataColumn,
		StartRow:   c.Playback.StartRow,
		Layout:     layout,
	}
}

func (c config) playbackInterval() time.Duration {
	return time.Duration(c.Playback.IntervalMS) * time.Millisecond
}

func (c config) driveInterval() time.Duration {
	return time.Duration(c.Drive.IntervalMS) * time.Millisecond
}
