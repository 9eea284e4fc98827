// Package playback replays a loaded recording at a fixed cadence, emitting
// each frame to a transport sink and forwarding decoded control vectors to a
// progress callback.
package playback

import (
	"time"

	"github.com/frmini/drivelink/canframe"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyRunning  = errors.New("a playback session is already running")
	ErrInvalidInterval = errors.New("playback interval must be at least one millisecond")
)

// Sink accepts a frame for transmission. The engine never opens the
// underlying device; the sink owns it.
type Sink interface {
	Send(frameID string, data []byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(frameID string, data []byte) error

func (f SinkFunc) Send(frameID string, data []byte) error {
	return f(frameID, data)
}

// Options configures one playback session. Sink is required; the callbacks
// are optional. OnProgress is skipped for records whose bytes did not decode
// (their raw bytes are still transmitted). OnError receives transport
// failures; playback continues past them.
type Options struct {
	Interval   time.Duration
	Sink       Sink
	OnProgress func(canframe.ControlVector)
	OnComplete func()
	OnError    func(error)
}
