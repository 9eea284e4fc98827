// Package canframe encodes and decodes the fixed-layout control and status
// frames exchanged with the vehicle firmware. The layouts are not
// self-describing; a frame must be decoded with the layout it was encoded
// with.
package canframe

import "fmt"

// Gear is the target gear nibble carried by the 8-byte layouts.
type Gear uint8

const (
	GearDisabled Gear = iota
	GearPark
	GearReverse
	GearNeutral
	GearDrive
	GearSport
)

func (g Gear) String() string {
	switch g {
	case GearDisabled:
		return "disable"
	case GearPark:
		return "P"
	case GearReverse:
		return "R"
	case GearNeutral:
		return "N"
	case GearDrive:
		return "D"
	case GearSport:
		return "S"
	}
	return fmt.Sprintf("unknown(%d)", uint8(g))
}

// ControlVector is the unit-normalized vehicle intent: body speed in mm/s
// (positive forward) and steering angle in radians. Gear is only carried by
// the 8-byte layouts; the 4-byte layout ignores it.
type ControlVector struct {
	LinearVelocityMMS int32
	SteeringAngle     float64
	Gear              Gear
}

// RawFrame is an encoded frame addressed by a hex identifier. Immutable once
// constructed.
type RawFrame struct {
	ID     string
	Data   []byte
	Layout Layout
}
