// Package gazebo is the boundary to the physics simulator: per-joint handles
// for reading kinematic ground truth and writing actuation forces, and a
// small deterministic fixed-step backend implementing them for tests and
// standalone runs.
package gazebo

// Joint is the handle to one simulated joint. Each joint carries a single
// degree of freedom; reads reflect the last completed physics step.
type Joint interface {
	// Position returns the joint position in rad (or m for prismatic joints).
	Position() float64
	// Velocity returns the joint velocity in rad/s.
	Velocity() float64
	// Force returns the force/torque transmitted through the joint during
	// the last physics step.
	Force() float64
	// SetForce applies a scalar force/torque to the given degree of freedom
	// for the next physics step.
	SetForce(dof int, effort float64)
}

// simJoint is a free single-DOF joint integrated by Model.
type simJoint struct {
	inertia float64
	damping float64

	position float64
	velocity float64
	applied  float64 // actuation set for the next step
	external float64 // injected disturbance, e.g. a simulated contact
	measured float64 // force transmitted during the last step
}

func (j *simJoint) Position() float64 {
	return j.position
}

func (j *simJoint) Velocity() float64 {
	return j.velocity
}

func (j *simJoint) Force() float64 {
	return j.measured
}

// SetForce stores the actuation for the next step. Joints are single-DOF, so
// the dof index is accepted for interface parity and ignored.
func (j *simJoint) SetForce(_ int, effort float64) {
	j.applied = effort
}
