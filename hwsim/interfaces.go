package hwsim

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/robobridge/frankahwsim/franka"
	"github.com/robobridge/frankahwsim/model"
)

// JointState is one joint's view through the joint-state read interface.
type JointState struct {
	Position float64
	Velocity float64
	Effort   float64
}

// JointState reads the last refreshed state of a named joint.
func (s *HWSim) JointState(name string) (JointState, error) {
	joint, ok := s.joints[name]
	if !ok {
		return JointState{}, errors.Errorf("no joint named %q", name)
	}
	return JointState{Position: joint.Position, Velocity: joint.Velocity, Effort: joint.Effort}, nil
}

// SetJointEffort records the controller's desired effort for a joint. Only
// joints whose transmission declared an effort command interface accept
// commands; the value takes effect at the next WriteSim.
func (s *HWSim) SetJointEffort(name string, effort float64) error {
	joint, ok := s.joints[name]
	if !ok {
		return errors.Errorf("no joint named %q", name)
	}
	if !s.commandable[name] {
		return errors.Errorf("joint %q has no effort command interface", name)
	}
	joint.Command = effort
	return nil
}

// RobotState returns a copy of the state synthesized by the last ReadSim.
// The bridge retains exclusive ownership of the live structure.
func (s *HWSim) RobotState() franka.RobotState {
	return s.state
}

// Model exposes the dynamics model for read-only queries.
func (s *HWSim) Model() model.Model {
	return s.model
}

// ArmID returns the joint-name prefix of the arm.
func (s *HWSim) ArmID() string {
	return s.armID
}

// JointNames returns every simulated joint name, sorted.
func (s *HWSim) JointNames() []string {
	names := make([]string, 0, len(s.joints))
	for name := range s.joints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
