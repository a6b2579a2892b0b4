package hwsim

import (
	"fmt"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/robobridge/frankahwsim/franka"
	"github.com/robobridge/frankahwsim/gazebo"
	"github.com/robobridge/frankahwsim/model"
	"github.com/robobridge/frankahwsim/urdf"
)

// Transmission and hardware interface types understood by the bridge.
const (
	simpleTransmission   = "transmission_interface/SimpleTransmission"
	frankaStateInterface = "franka_hw/FrankaStateInterface"
	frankaModelInterface = "franka_hw/FrankaModelInterface"
	effortJointInterface = "hardware_interface/EffortJointInterface"
)

// armJoints is the exact joint count of the arm's state interface.
const armJoints = 7

// JointProvider resolves named joints to their simulator handles.
// *gazebo.Model implements it.
type JointProvider interface {
	Joint(name string) (gazebo.Joint, bool)
}

// HWSim is the hardware bridge for one simulated arm. The host simulation
// loop drives it synchronously: ReadSim after every physics step, then the
// controller reads the robot state and writes efforts, then WriteSim. No
// internal concurrency; a cycle either completes all three steps or the
// host aborts.
type HWSim struct {
	armID  string
	logger golog.Logger

	// joints holds every record, including ones outside the arm pattern
	// (e.g. gripper fingers). arm and armIndex give constant-time access
	// to the seven state-interface joints by index; both are fixed after
	// initialization.
	joints   map[string]*Joint
	arm      [armJoints]*Joint
	armIndex map[string]int

	// commandable marks joints with a registered effort command interface.
	commandable map[string]bool

	model model.Model
	state franka.RobotState
}

// New builds the bridge from a robot description. The description's
// transmissions declare which joints are simulated, which accept effort
// commands, and which links bound the dynamics-model chain; every validation
// failure here is fatal and names the offending entry.
func New(
	robotNamespace string,
	desc *urdf.Model,
	provider JointProvider,
	attributes map[string]interface{},
	logger golog.Logger,
) (*HWSim, error) {
	if desc == nil {
		return nil, errors.New("no robot description; was one loaded?")
	}

	params, err := ParseParams(attributes)
	if err != nil {
		return nil, err
	}
	armID := params.ArmID
	if armID == "" {
		armID = robotNamespace
	}
	if armID != robotNamespace {
		logger.Warnf("caution: robot names differ! read arm_id %q but the description is for namespace %q; will use %q",
			armID, robotNamespace, armID)
	}
	warnUnsupportedParams(attributes, logger)

	s := &HWSim{
		armID:       armID,
		logger:      logger,
		joints:      map[string]*Joint{},
		armIndex:    map[string]int{},
		commandable: map[string]bool{},
	}

	// First pass: one joint record per simple transmission.
	for _, tr := range desc.Transmissions {
		if tr.Type != simpleTransmission {
			continue
		}
		if len(tr.Joints) == 0 {
			logger.Warnw("transmission has no associated joints, skipping", "transmission", tr.Name)
			continue
		}
		if len(tr.Joints) > 1 {
			logger.Warnw("transmission has more than one joint; only single-joint transmissions are supported, skipping",
				"transmission", tr.Name)
			continue
		}
		name := tr.Joints[0].Name
		if _, ok := s.joints[name]; ok {
			continue
		}

		urdfJoint, ok := desc.Joint(name)
		if !ok {
			return nil, errors.Errorf("transmission %q names joint %q, which the kinematic description does not contain",
				tr.Name, name)
		}
		axis, err := urdfJoint.Axis.Parse()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q has a malformed axis", name)
		}
		handle, ok := provider.Joint(name)
		if !ok {
			return nil, errors.Errorf("this robot has a joint named %q which is not in the simulation", name)
		}
		s.joints[name] = &Joint{Name: name, Type: urdfJoint.Type, Axis: axis, Handle: handle}
	}

	// Second pass: bind the declared hardware interfaces now that the
	// records exist.
	for _, tr := range desc.Transmissions {
		switch tr.Type {
		case simpleTransmission:
			if len(tr.Joints) != 1 {
				continue // already warned above
			}
			joint, ok := s.joints[tr.Joints[0].Name]
			if !ok {
				continue
			}
			for _, ifc := range tr.Joints[0].HardwareInterfaces {
				if ifc == effortJointInterface {
					s.commandable[joint.Name] = true
					logger.Debugw("found effort command interface", "joint", joint.Name)
					continue
				}
				logger.Warnw("unsupported hardware interface of joint, skipping", "joint", joint.Name, "interface", ifc)
			}
		case frankaStateInterface:
			if err := s.initStateInterface(desc, tr); err != nil {
				return nil, err
			}
		case frankaModelInterface:
			if err := s.initModelInterface(desc, tr); err != nil {
				return nil, err
			}
		default:
			logger.Warnw("unsupported transmission type, skipping", "transmission", tr.Name, "type", tr.Type)
		}
	}

	if s.arm[0] == nil {
		return nil, errors.Errorf("robot %q declares no %s transmission", armID, frankaStateInterface)
	}
	if s.model == nil {
		return nil, errors.Errorf("robot %q declares no %s transmission", armID, frankaModelInterface)
	}

	if err := s.loadParameters(params); err != nil {
		return nil, err
	}
	return s, nil
}

func warnUnsupportedParams(attributes map[string]interface{}, logger golog.Logger) {
	unsupported := []string{
		"lower_force_thresholds_nominal",
		"upper_force_thresholds_nominal",
		"lower_torque_thresholds_acceleration",
		"upper_torque_thresholds_acceleration",
	}
	for _, name := range unsupported {
		if _, ok := attributes[name]; ok {
			logger.Warnw("only nominal torque collision thresholds are supported, ignoring parameter", "parameter", name)
		}
	}
}

// initStateInterface validates the seven-joint state transmission and builds
// the index-ordered view of the arm, so per-cycle synthesis never constructs
// or parses joint names.
func (s *HWSim) initStateInterface(desc *urdf.Model, tr urdf.Transmission) error {
	if len(tr.Joints) != armJoints {
		return errors.Errorf(
			"cannot create %s for robot %s_robot: found %d joints beneath transmission %q, but %d are required",
			frankaStateInterface, s.armID, len(tr.Joints), tr.Name, armJoints)
	}
	for _, tj := range tr.Joints {
		if _, ok := desc.Joint(tj.Name); !ok {
			return errors.Errorf(
				"cannot create %s for robot %s_robot: joint %q cannot be found in the kinematic description",
				frankaStateInterface, s.armID, tj.Name)
		}
	}
	for i := range s.arm {
		name := fmt.Sprintf("%s_joint%d", s.armID, i+1)
		joint, ok := s.joints[name]
		if !ok {
			return errors.Errorf(
				"cannot create %s for robot %s_robot: no simple transmission declares joint %q",
				frankaStateInterface, s.armID, name)
		}
		s.arm[i] = joint
		s.armIndex[name] = i
	}
	return nil
}

// initModelInterface resolves the root/tip roles of the model transmission
// and constructs the dynamics model over the chain between them.
func (s *HWSim) initModelInterface(desc *urdf.Model, tr urdf.Transmission) error {
	if len(tr.Joints) != 2 {
		return errors.Errorf(
			"cannot create %s for robot %s_model: found %d joints beneath transmission %q, but 2 are required",
			frankaModelInterface, s.armID, len(tr.Joints), tr.Name)
	}

	var root, tip *urdf.TransmissionJoint
	for i := range tr.Joints {
		tj := &tr.Joints[i]
		if _, ok := desc.Joint(tj.Name); !ok {
			return errors.Errorf(
				"cannot create %s for robot %s_model: joint %q cannot be found in the kinematic description",
				frankaModelInterface, s.armID, tj.Name)
		}
		switch tj.Role {
		case "root":
			root = tj
		case "tip":
			tip = tj
		}
	}
	if root == nil {
		return errors.Errorf("cannot create %s for robot %s_model: no joint with role %q in transmission %q",
			frankaModelInterface, s.armID, "root", tr.Name)
	}
	if tip == nil {
		return errors.Errorf("cannot create %s for robot %s_model: no joint with role %q in transmission %q",
			frankaModelInterface, s.armID, "tip", tr.Name)
	}

	rootJoint, _ := desc.Joint(root.Name)
	tipJoint, _ := desc.Joint(tip.Name)
	m, err := model.New(desc, rootJoint.Parent.Link, tipJoint.Child.Link)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s for robot %s_model", frankaModelInterface, s.armID)
	}
	s.model = m
	return nil
}

// ReadSim refreshes every joint record from the simulator, then synthesizes
// the robot state for this cycle. It must run after the simulator advanced
// and before the controller computes new commands.
func (s *HWSim) ReadSim(now, period time.Duration) {
	for _, joint := range s.joints {
		joint.Update(period)
	}
	s.updateRobotState(now)
}

func (s *HWSim) updateRobotState(now time.Duration) {
	for i, joint := range s.arm {
		// the state interface is validated to exactly seven joints at
		// construction, so a hole here is a programming error
		if joint == nil {
			panic(fmt.Sprintf("arm joint %d missing from a validated state interface", i+1))
		}
		s.state.Q[i] = joint.Position
		s.state.Dq[i] = joint.Velocity
		s.state.TauJ[i] = joint.Effort
		s.state.DtauJ[i] = joint.Jerk

		s.state.QD[i] = joint.Position
		s.state.DqD[i] = joint.Velocity
		s.state.DdqD[i] = joint.Acceleration
		s.state.TauJD[i] = joint.Command

		// no flexible-joint model: theta is q
		s.state.Theta[i] = joint.Position
		s.state.Dtheta[i] = joint.Velocity

		s.state.TauExtHatFiltered[i] = joint.Effort - joint.Command

		s.state.JointContact[i] = boolToFloat(joint.InContact())
		s.state.JointCollision[i] = boolToFloat(joint.InCollision())
	}

	s.state.ControlCommandSuccessRate = 1.0
	s.state.Time = franka.NewDuration(now)
	s.state.OTEE = s.model.Pose(franka.FrameEndEffector, &s.state)
}

// WriteSim pushes the commanded efforts into the simulator, adding the
// model's gravity torque for every joint that belongs to the arm; joints
// outside the arm pattern get their raw command. A NaN effective command is
// dropped for this cycle instead of being sent, and the remaining joints are
// written normally.
func (s *HWSim) WriteSim(_, _ time.Duration) {
	gravity := s.model.Gravity(&s.state)

	for name, joint := range s.joints {
		command := joint.Command
		if i, ok := s.armIndex[name]; ok {
			command += gravity[i]
		}
		if math.IsNaN(command) {
			s.logger.Warnw("commanded effort is NaN, not sending to the simulator", "joint", name)
			continue
		}
		joint.Handle.SetForce(0, command)
	}
}

// EStopActive mirrors the emergency-stop hook of the plugin interface; the
// simulation has no emergency stop.
func (s *HWSim) EStopActive(bool) {}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
