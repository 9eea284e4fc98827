package transport

import (
	"context"

	"github.com/brutella/can"
	"github.com/frmini/drivelink/canframe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CANBus is the subset of the SocketCAN bus used here.
type CANBus interface {
	SubscribeFunc(can.HandlerFunc)
	ConnectAndPublish() error
	Disconnect() error
	Publish(can.Frame) error
}

// Bus talks to the vehicle directly over a SocketCAN interface, bypassing
// the serial adapter.
type Bus struct {
	bus      CANBus
	cb       Callbacks
	statusID uint32
	layout   canframe.Layout
}

// to allow testing
var newBus = func(iface string) (CANBus, error) {
	return can.NewBusForInterfaceWithName(iface)
}

// ConnectBus attaches to a SocketCAN interface such as "can0".
func ConnectBus(iface string, statusFrameID string, layout canframe.Layout) (*Bus, error) {
	if statusFrameID == "" {
		statusFrameID = DefaultStatusFrameID
		layout = canframe.EightByteStatusControl
	}
	statusID, err := canframe.ParseFrameID(statusFrameID)
	if err != nil {
		return nil, err
	}

	bus, err := newBus(iface)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open CAN interface %s", iface)
	}
	return &Bus{
		bus:      bus,
		statusID: statusID,
		layout:   layout,
	}, nil
}

func (b *Bus) Close() error {
	if b.bus == nil {
		return errors.New("can bus not connected")
	}
	return b.bus.Disconnect()
}

// Send publishes a frame. Satisfies playback.Sink.
func (b *Bus) Send(frameID string, data []byte) error {
	if b.bus == nil {
		return errors.New("can bus not connected")
	}
	if len(data) > 8 {
		return errors.Errorf("frame data length %d exceeds 8 bytes", len(data))
	}
	id, err := canframe.ParseFrameID(frameID)
	if err != nil {
		return err
	}

	frame := can.Frame{
		ID:     id,
		Length: uint8(len(data)),
	}
	copy(frame.Data[:], data)
	return b.bus.Publish(frame)
}

// Start subscribes and blocks publishing/receiving until the context is
// cancelled or the bus fails.
func (b *Bus) Start(ctx context.Context, cb Callbacks) error {
	b.cb = cb
	b.bus.SubscribeFunc(b.handleFrame)
	log.Info("CAN bus opened and subscribed")

	go func() {
		<-ctx.Done()
		if err := b.bus.Disconnect(); err != nil {
			log.WithField("err", err).Warn("unable to disconnect canbus after context")
		}
	}()

	return b.bus.ConnectAndPublish()
}

func (b *Bus) handleFrame(frame can.Frame) {
	data := frame.Data[:frame.Length]
	id := canframe.FormatFrameID(frame.ID)

	log.WithField("canID", frame.ID).
		WithField("length", frame.Length).
		Debug("received canbus frame")

	if b.cb.Frame != nil {
		b.cb.Frame(id, data)
	}
	if b.cb.Status == nil || frame.ID != b.statusID {
		return
	}
	cv, err := canframe.Decode(b.layout, data)
	if err != nil {
		log.WithField("canID", frame.ID).WithField("err", err).Warn("undecodable status frame")
		return
	}
	b.cb.Status(cv)
}
