// Package hwsim bridges a simulated arm and a torque-level control stack: it
// synthesizes the controller-native robot state from simulator ground truth
// once per cycle and writes gravity-compensated joint commands back.
package hwsim

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/robobridge/frankahwsim/gazebo"
)

// Joint is the per-cycle bookkeeping for one simulated joint: the ground
// truth pulled from its simulator handle, the derived higher-order state, and
// the effort the controller last commanded. The set of Joints is fixed at
// initialization.
type Joint struct {
	Name string
	Type string
	Axis r3.Vector

	// Handle is the simulator side of this joint.
	Handle gazebo.Joint

	// Kinematic state, refreshed once per cycle by Update. Acceleration and
	// jerk are first-order differences across cycles.
	Position     float64
	Velocity     float64
	Effort       float64
	Acceleration float64
	Jerk         float64

	// Command is the effort the controller asked for this cycle.
	Command float64

	// Torque thresholds for the contact/collision predicates.
	ContactThreshold   float64
	CollisionThreshold float64

	lastVelocity     float64
	lastAcceleration float64
}

// Update pulls the current simulator readings into the record and advances
// the finite-difference estimates over the elapsed period. It touches only
// this record, so per-joint updates are order independent.
func (j *Joint) Update(period time.Duration) {
	j.Position = j.Handle.Position()
	j.Velocity = j.Handle.Velocity()
	j.Effort = j.Handle.Force()

	dt := period.Seconds()
	if dt <= 0 {
		return
	}
	acceleration := (j.Velocity - j.lastVelocity) / dt
	j.Jerk = (acceleration - j.lastAcceleration) / dt
	j.Acceleration = acceleration
	j.lastVelocity = j.Velocity
	j.lastAcceleration = acceleration
}

// InContact reports whether the torque unexplained by the current command
// exceeds the contact threshold. Computed on demand, never cached.
func (j *Joint) InContact() bool {
	return math.Abs(j.Effort-j.Command) > j.ContactThreshold
}

// InCollision reports whether the unexplained torque exceeds the collision
// threshold.
func (j *Joint) InCollision() bool {
	return math.Abs(j.Effort-j.Command) > j.CollisionThreshold
}
