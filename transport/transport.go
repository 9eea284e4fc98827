// Package transport moves frames between the playback engine and the
// physical bus, either through a USB serial-to-CAN adapter or a SocketCAN
// interface. Both transports implement playback.Sink for the transmit
// direction and a callback-driven receive loop for the status direction.
package transport

import (
	"github.com/frmini/drivelink/canframe"
)

// Callbacks receive inbound traffic. Frame sees every frame; Status only
// fires for frames on the status ID that decode cleanly.
type Callbacks struct {
	Frame  func(id string, data []byte)
	Status func(canframe.ControlVector)
}

// DefaultStatusFrameID is the bus ID the vehicle firmware reports its
// status frames on.
const DefaultStatusFrameID = "0x00000123"
