package main

import (
	"context"
	"sync"

	"github.com/frmini/drivelink/canframe"
	"github.com/frmini/drivelink/transport"
	"github.com/pkg/errors"
)

// link is the daemon's view of a transport: a frame sink for the playback
// side and a Retryable receive loop for the status side.
type link interface {
	transport.Retryable
	Send(frameID string, data []byte) error
}

// to allow testing
var connectSerial = transport.ConnectSerial
var connectBus = transport.ConnectBus

type serialLink struct {
	cfg transport.SerialConfig
	cb  transport.Callbacks

	mu sync.Mutex
	s  *transport.Serial
}

func (l *serialLink) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.s != nil {
		return nil
	}
	s, err := connectSerial(l.cfg)
	if err != nil {
		return err
	}
	l.s = s
	return nil
}

func (l *serialLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.s == nil {
		return nil
	}
	err := l.s.Close()
	l.s = nil
	return err
}

func (l *serialLink) Start(ctx context.Context) error {
	l.mu.Lock()
	s := l.s
	l.mu.Unlock()
	if s == nil {
		return errors.New("serial adapter not connected")
	}
	return s.Start(ctx, l.cb)
}

func (l *serialLink) Name() string {
	return "serial"
}

func (l *serialLink) Send(frameID string, data []byte) error {
	l.mu.Lock()
	s := l.s
	l.mu.Unlock()
	if s == nil {
		return errors.New("serial adapter not connected")
	}
	return s.Send(frameID, data)
}

type busLink struct {
	iface        string
	statusID     string
	statusLayout canframe.Layout
	cb           transport.Callbacks

	mu sync.Mutex
	b  *transport.Bus
}

func (l *busLink) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.b != nil {
		return nil
	}
	b, err := connectBus(l.iface, l.statusID, l.statusLayout)
	if err != nil {
		return err
	}
	l.b = b
	return nil
}

func (l *busLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.b == nil {
		return nil
	}
	err := l.b.Close()
	l.b = nil
	return err
}

func (l *busLink) Start(ctx context.Context) error {
	l.mu.Lock()
	b := l.b
	l.mu.Unlock()
	if b == nil {
		return errors.New("can bus not connected")
	}
	return b.Start(ctx, l.cb)
}

func (l *busLink) Name() string {
	return "canbus"
}

func (l *busLink) Send(frameID string, data []byte) error {
	l.mu.Lock()
	b := l.b
	l.mu.Unlock()
	if b == nil {
		return errors.New("can bus not connected")
	}
	return b.Send(frameID, data)
}
