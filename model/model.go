// Package model provides the dynamics side of the bridge: given the current
// robot state it answers gravity-torque and frame-pose queries over the
// kinematic chain between a root and a tip link.
package model

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/robobridge/frankahwsim/franka"
	"github.com/robobridge/frankahwsim/urdf"
)

// standard gravity, m/s^2, acting along -z of the base frame
const gravityAccel = 9.81

// differentiation step for the gravity-torque gradient
const gradientEps = 1e-6

// Model answers dynamics queries against a robot state. Queries are pure:
// the state is read, never written, and repeated queries with the same state
// give the same answer.
type Model interface {
	// Gravity returns the joint torques that exactly counteract gravity in
	// the state's configuration, base-to-tip order.
	Gravity(state *franka.RobotState) [7]float64
	// Pose returns the pose of the given frame in the base frame as a
	// column-major homogeneous transform.
	Pose(frame franka.Frame, state *franka.RobotState) [16]float64
}

// segment is one joint of the chain together with the inertial properties of
// the link it moves.
type segment struct {
	origin    *mat.Dense // parent link frame to joint frame
	axis      r3.Vector
	movable   bool
	prismatic bool
	mass      float64   // mass of the child link
	com       r3.Vector // center of mass of the child link, in its own frame
}

// Chain is the kinematic chain between a root and a tip link together with
// the link inertials hanging off it. It carries no controller conventions;
// simulation backends query it directly, Model wraps it for the seven-joint
// state layout.
type Chain struct {
	segments []segment
	names    []string // movable joint names, base to tip
}

// NewChain walks the description from tipLink back to rootLink and collects
// the joints in between in base-to-tip order. The chain must exist and
// contain only supported joint types.
func NewChain(desc *urdf.Model, rootLink, tipLink string) (*Chain, error) {
	if desc == nil {
		return nil, errors.New("no robot description to build a dynamics model from")
	}

	byChild := map[string]*urdf.Joint{}
	for i := range desc.Joints {
		byChild[desc.Joints[i].Child.Link] = &desc.Joints[i]
	}

	// walk tip to root, then reverse into base-to-tip order
	var reversed []*urdf.Joint
	link := tipLink
	for link != rootLink {
		j, ok := byChild[link]
		if !ok {
			return nil, errors.Errorf(
				"no joint chain from tip link %q back to root link %q (no joint has child link %q)",
				tipLink, rootLink, link)
		}
		reversed = append(reversed, j)
		link = j.Parent.Link
	}
	if len(reversed) == 0 {
		return nil, errors.Errorf("root link %q and tip link %q describe an empty chain", rootLink, tipLink)
	}

	c := &Chain{}
	for i := len(reversed) - 1; i >= 0; i-- {
		j := reversed[i]
		seg := segment{}

		var err error
		seg.origin, err = originTransform(j.Origin)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q has a malformed origin", j.Name)
		}

		switch j.Type {
		case urdf.RevoluteJoint, urdf.ContinuousJoint:
			seg.movable = true
		case urdf.PrismaticJoint:
			seg.movable = true
			seg.prismatic = true
		case urdf.FixedJoint:
		default:
			return nil, errors.Errorf("joint %q has unsupported type %q", j.Name, j.Type)
		}
		if seg.movable {
			seg.axis, err = j.Axis.Parse()
			if err != nil {
				return nil, errors.Wrapf(err, "joint %q has a malformed axis", j.Name)
			}
			c.names = append(c.names, j.Name)
		}

		if child, ok := desc.Link(j.Child.Link); ok && child.Inertial != nil {
			seg.mass = child.Inertial.Mass.Value
			seg.com, err = child.Inertial.Origin.ParseXYZ()
			if err != nil {
				return nil, errors.Wrapf(err, "link %q has a malformed inertial origin", child.Name)
			}
		}

		c.segments = append(c.segments, seg)
	}
	return c, nil
}

// DoF returns the number of movable joints in the chain.
func (c *Chain) DoF() int {
	return len(c.names)
}

// MovableJoints returns the movable joint names in base-to-tip order.
func (c *Chain) MovableJoints() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// GravityTorques returns the torques that exactly counteract gravity in the
// given configuration, one per movable joint in base-to-tip order. q must
// have DoF() elements.
func (c *Chain) GravityTorques(q []float64) []float64 {
	tau := make([]float64, len(c.names))
	for i := range tau {
		qp := append([]float64(nil), q...)
		qm := append([]float64(nil), q...)
		qp[i] += gradientEps
		qm[i] -= gradientEps
		tau[i] = (c.potential(qp) - c.potential(qm)) / (2 * gradientEps)
	}
	return tau
}

// potential is the total gravitational potential energy of the chain in the
// given configuration. The holding torque of joint i is its partial
// derivative with respect to q[i].
func (c *Chain) potential(q []float64) float64 {
	t := identity4()
	energy := 0.0
	idx := 0
	for i := range c.segments {
		seg := &c.segments[i]
		t.Mul(t, seg.origin)
		if seg.movable {
			if seg.prismatic {
				t.Mul(t, prismaticTransform(seg.axis, q[idx]))
			} else {
				t.Mul(t, revoluteTransform(seg.axis, q[idx]))
			}
			idx++
		}
		if seg.mass > 0 {
			energy += seg.mass * gravityAccel * transformPoint(t, seg.com).Z
		}
	}
	return energy
}

// New builds a dynamics model over the kinematic chain from rootLink up to
// tipLink of the given description, which must carry at most seven degrees
// of freedom.
func New(desc *urdf.Model, rootLink, tipLink string) (Model, error) {
	c, err := NewChain(desc, rootLink, tipLink)
	if err != nil {
		return nil, err
	}
	if c.DoF() > 7 {
		return nil, errors.Errorf("chain from %q to %q has %d degrees of freedom, at most 7 are supported",
			rootLink, tipLink, c.DoF())
	}
	return &chainModel{chain: c}, nil
}

type chainModel struct {
	chain *Chain
}

// DoF returns the number of movable joints in the chain.
func (m *chainModel) DoF() int {
	return m.chain.DoF()
}

func (m *chainModel) Gravity(state *franka.RobotState) [7]float64 {
	var tau [7]float64
	copy(tau[:], m.chain.GravityTorques(state.Q[:m.chain.DoF()]))
	return tau
}

func (m *chainModel) Pose(frame franka.Frame, state *franka.RobotState) [16]float64 {
	// joint frames stop the chain right after their own motion; every other
	// frame needs the full flange pose first
	jointFrame := frame >= franka.FrameJoint1 && frame <= franka.FrameJoint7
	upTo := m.chain.DoF()
	if jointFrame {
		upTo = int(frame-franka.FrameJoint1) + 1
	}

	t := identity4()
	idx := 0
	for i := range m.chain.segments {
		if jointFrame && idx == upTo {
			break
		}
		seg := &m.chain.segments[i]
		t.Mul(t, seg.origin)
		if seg.movable {
			if seg.prismatic {
				t.Mul(t, prismaticTransform(seg.axis, state.Q[idx]))
			} else {
				t.Mul(t, revoluteTransform(seg.axis, state.Q[idx]))
			}
			idx++
		}
	}

	switch frame {
	case franka.FrameEndEffector:
		t.Mul(t, franka.Mat4(state.FTEE))
	case franka.FrameStiffness:
		t.Mul(t, franka.Mat4(state.FTEE))
		t.Mul(t, franka.Mat4(state.EETK))
	}
	return franka.FlattenMat4(t)
}
