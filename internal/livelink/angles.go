package livelink

import "math"

// Names of the three synthesized parameters appended after all
// sender-supplied parameters, in order.
const (
	PropHeadRoll  = "headRoll"
	PropHeadPitch = "headPitch"
	PropHeadYaw   = "headYaw"
)

// HeadAngles derives the three Euler-like head angles from a rotation
// quaternion. The formulas are fixed by the wire contract with the sender;
// consumers depend on these exact sign conventions.
func HeadAngles(q Quat) (roll, pitch, yaw float64) {
	roll = -math.Atan2(2*(q.X*q.Y+q.W*q.Z), q.W*q.W+q.X*q.X-q.Y*q.Y-q.Z*q.Z)
	pitch = math.Atan2(2*(q.Y*q.Z+q.W*q.X), q.W*q.W-q.X*q.X-q.Y*q.Y+q.Z*q.Z)
	yaw = -math.Asin(-2 * (q.X*q.Z - q.W*q.Y))
	return roll, pitch, yaw
}
