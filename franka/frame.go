package franka

// Frame names a reference frame along the kinematic chain that a dynamics
// model can be queried for.
type Frame int

// The frames of a 7-DOF arm, base to tip. The stiffness frame hangs off the
// end effector via EE_T_K.
const (
	FrameJoint1 Frame = iota
	FrameJoint2
	FrameJoint3
	FrameJoint4
	FrameJoint5
	FrameJoint6
	FrameJoint7
	FrameFlange
	FrameEndEffector
	FrameStiffness
)

func (f Frame) String() string {
	switch f {
	case FrameJoint1:
		return "joint1"
	case FrameJoint2:
		return "joint2"
	case FrameJoint3:
		return "joint3"
	case FrameJoint4:
		return "joint4"
	case FrameJoint5:
		return "joint5"
	case FrameJoint6:
		return "joint6"
	case FrameJoint7:
		return "joint7"
	case FrameFlange:
		return "flange"
	case FrameEndEffector:
		return "end_effector"
	case FrameStiffness:
		return "stiffness"
	default:
		return "unknown"
	}
}
