// Package kinematics models vehicle heading with a single-track (bicycle)
// kinematic model. The caller supplies elapsed time each tick; there is no
// internal clock.
package kinematics

import (
	"math"

	"github.com/frmini/drivelink/canframe"
)

// Below this body speed the vehicle is treated as stationary and yaw is
// held, which keeps tan() artifacts at large steering angles out of the
// pose.
const minSpeedMS = 0.01

// Pose is the vehicle body orientation. Position is held at the origin;
// only yaw is modeled.
type Pose struct {
	BodyYaw float64
}

// Integrate advances the pose by one explicit Euler step. The negative sign
// on the yaw rate matches the visualization's coordinate frame.
func Integrate(pose Pose, control canframe.ControlVector, dtSeconds, wheelbaseM float64) Pose {
	speedMS := float64(control.LinearVelocityMMS) / 1000
	if math.Abs(speedMS) <= minSpeedMS {
		return pose
	}
	yawRate := -(speedMS / wheelbaseM) * math.Tan(control.SteeringAngle)
	pose.BodyYaw += yawRate * dtSeconds
	return pose
}

// Reset returns the identity pose used at trajectory or manual-control
// start.
func Reset() Pose {
	return Pose{}
}
