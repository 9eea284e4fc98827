package forwarder

// Header precedes every datagram so the receiver can tell record progress
// apart from session events.
type Header struct {
	Type uint8
}

const (
	TypeProgress   = 1
	TypeCompletion = 2
)

// Progress is the vehicle state snapshot sent after each played-back
// record: the decoded command plus the integrated body yaw.
type Progress struct {
	RecordIndex       uint32
	LinearVelocityMMS int32
	SteeringAngle     float64
	Gear              uint8
	BodyYaw           float64
}
