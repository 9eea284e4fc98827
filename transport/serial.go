package transport

import (
	"context"
	"io"
	"sync"

	"github.com/frmini/drivelink/adapter"
	"github.com/frmini/drivelink/canframe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialConfig describes the adapter link and how status frames are
// recognized on it.
type SerialConfig struct {
	Port     string
	BaudRate int
	CAN      adapter.Config

	// StatusFrameID / StatusLayout select which inbound frames are decoded
	// into control vectors. Defaults to the firmware's status ID and the
	// 8-byte status layout.
	StatusFrameID string
	StatusLayout  canframe.Layout
}

// Serial owns the serial port to the CAN adapter. Writes are serialized;
// the receive loop runs on the caller's goroutine via Start.
type Serial struct {
	cfg  SerialConfig
	port io.ReadWriteCloser

	writeMu sync.Mutex
}

// to allow testing
var openPort = func(portName string, baudRate int) (io.ReadWriteCloser, error) {
	return serial.Open(portName, &serial.Mode{BaudRate: baudRate})
}

// ConnectSerial opens the port and pushes the adapter configuration
// command.
func ConnectSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.StatusFrameID == "" {
		cfg.StatusFrameID = DefaultStatusFrameID
		cfg.StatusLayout = canframe.EightByteStatusControl
	}

	port, err := openPort(cfg.Port, cfg.BaudRate)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open serial port %s", cfg.Port)
	}

	s := &Serial{
		cfg:  cfg,
		port: port,
	}
	if _, err := port.Write(adapter.ConfigPacket(cfg.CAN)); err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "unable to send adapter configuration")
	}
	log.WithField("port", cfg.Port).Info("serial adapter configured")
	return s, nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return errors.New("serial port not connected")
	}
	return s.port.Close()
}

// Send wraps the frame in the configured adapter protocol and writes it.
// Satisfies playback.Sink.
func (s *Serial) Send(frameID string, data []byte) error {
	var packet []byte
	var err error
	if s.cfg.CAN.Variable {
		packet, err = adapter.VariablePacket(frameID, data, s.cfg.CAN.Extended)
	} else {
		packet, err = adapter.FixedPacket(frameID, data, s.cfg.CAN.Extended)
	}
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.port.Write(packet); err != nil {
		return errors.Wrapf(err, "unable to write frame %s", frameID)
	}
	return nil
}

// Start runs the receive loop until the context is cancelled or the port
// fails. Closing the port is what unblocks a pending read.
func (s *Serial) Start(ctx context.Context, cb Callbacks) error {
	go func() {
		<-ctx.Done()
		if err := s.Close(); err != nil {
			log.WithField("err", err).Warn("unable to close serial port after context")
		}
	}()

	parser := &adapter.StreamParser{}
	buf := make([]byte, 1024)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "serial read")
		}
		for _, msg := range parser.Push(buf[:n]) {
			s.dispatch(msg, cb)
		}
	}
}

func (s *Serial) dispatch(msg adapter.Message, cb Callbacks) {
	log.WithField("frameID", msg.ID).
		WithField("data", canframe.FormatHex(msg.Data)).
		Debug("received frame")

	if cb.Frame != nil {
		cb.Frame(msg.ID, msg.Data)
	}
	if cb.Status == nil || msg.ID != s.cfg.StatusFrameID {
		return
	}
	cv, err := canframe.Decode(s.cfg.StatusLayout, msg.Data)
	if err != nil {
		log.WithField("frameID", msg.ID).WithField("err", err).Warn("undecodable status frame")
		return
	}
	cb.Status(cv)
}
