// Package franka contains the controller-native data types a torque-level
// control stack consumes: the full robot state telemetry structure, robot
// time, and the reference frames of the arm.
package franka

// RobotState is the full telemetry structure published once per control
// cycle. There is a single instance per arm; every per-cycle field is
// overwritten in place each cycle, it is not a history.
//
// All 4x4 transforms are homogeneous matrices flattened in column-major
// order, and all inertia tensors are 3x3 matrices flattened the same way,
// matching the conventions of a real controller's client library. Joint
// arrays are base-to-tip, index i belonging to joint i+1.
type RobotState struct {
	// Measured joint state.
	Q     [7]float64 // position [rad]
	Dq    [7]float64 // velocity [rad/s]
	TauJ  [7]float64 // measured link-side torque [Nm]
	DtauJ [7]float64 // derivative of the measured torque [Nm/s]

	// Desired joint state. The simulation has no motion generator, so these
	// mirror the measured values except for TauJD which echoes the last
	// commanded torque.
	QD    [7]float64
	DqD   [7]float64
	DdqD  [7]float64
	TauJD [7]float64

	// Motor-side state. Flexible joints are not modeled, so theta is
	// identical to q.
	Theta  [7]float64
	Dtheta [7]float64

	// TauExtHatFiltered is the estimated external torque. Despite the name
	// it is published unfiltered here: consumers depend on the raw
	// effort-minus-command estimate, so no low-pass is applied.
	TauExtHatFiltered [7]float64

	// Contact and collision levels per joint, 0.0 or 1.0.
	JointContact   [7]float64
	JointCollision [7]float64

	// End-effector and load calibration.
	MEE     float64    // mass of the end effector [kg]
	IEE     [9]float64 // rotational inertia of the end effector, in end-effector frame
	MLoad   float64    // mass of the external load [kg]
	ILoad   [9]float64 // rotational inertia of the external load, in load frame
	FxCload [3]float64 // center of mass of the load relative to the flange [m]
	MTotal  float64    // MEE + MLoad
	ITotal  [9]float64 // combined inertia, IEE shifted by the parallel-axis theorem

	// Frame calibration.
	FTNE  [16]float64 // flange to nominal end effector
	NETEE [16]float64 // nominal end effector to end effector
	EETK  [16]float64 // end effector to stiffness frame
	FTEE  [16]float64 // flange to end effector, FTNE * NETEE
	OTEE  [16]float64 // measured end-effector pose in base frame

	// ControlCommandSuccessRate is fixed at 1.0: the simulation never loses
	// a command packet.
	ControlCommandSuccessRate float64

	// Time is the robot time of the cycle this state was synthesized in.
	Time Duration
}
