package model

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/robobridge/frankahwsim/franka"
	"github.com/robobridge/frankahwsim/urdf"
)

// A single horizontal pendulum: one revolute joint about y at height 0.5,
// moving a 2kg link whose center of mass sits 0.25m out along x, with a
// fixed tool joint 0.5m out along x.
const pendulumDescription = `
<robot name="pendulum">
  <link name="base"/>
  <link name="arm">
    <inertial>
      <origin xyz="0.25 0 0" rpy="0 0 0"/>
      <mass value="2"/>
    </inertial>
  </link>
  <link name="tool"/>
  <joint name="hinge" type="revolute">
    <parent link="base"/>
    <child link="arm"/>
    <origin xyz="0 0 0.5" rpy="0 0 0"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="mount" type="fixed">
    <parent link="arm"/>
    <child link="tool"/>
    <origin xyz="0.5 0 0" rpy="0 0 0"/>
  </joint>
</robot>
`

func pendulumModel(t *testing.T) Model {
	t.Helper()
	desc, err := urdf.Parse([]byte(pendulumDescription))
	test.That(t, err, test.ShouldBeNil)
	m, err := New(desc, "base", "tool")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func zeroState() *franka.RobotState {
	return &franka.RobotState{
		FTEE: franka.Identity4(),
		EETK: franka.Identity4(),
	}
}

func TestChainConstruction(t *testing.T) {
	m := pendulumModel(t)
	test.That(t, m.(*chainModel).DoF(), test.ShouldEqual, 1)
}

func TestChainConstructionErrors(t *testing.T) {
	desc, err := urdf.Parse([]byte(pendulumDescription))
	test.That(t, err, test.ShouldBeNil)

	_, err = New(nil, "base", "tool")
	test.That(t, err, test.ShouldNotBeNil)

	// tip unreachable from root
	_, err = New(desc, "elsewhere", "tool")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "elsewhere")

	// root == tip means no chain at all
	_, err = New(desc, "tool", "tool")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "empty chain")

	// unsupported joint type
	bad := strings.Replace(pendulumDescription, `type="revolute"`, `type="floating"`, 1)
	desc, err = urdf.Parse([]byte(bad))
	test.That(t, err, test.ShouldBeNil)
	_, err = New(desc, "base", "tool")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "floating")
}

func TestChainTooManyDoF(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<robot name="long"><link name="link0"/>`)
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, `<link name="link%d"/>`, i)
		fmt.Fprintf(&b,
			`<joint name="joint%d" type="revolute"><parent link="link%d"/><child link="link%d"/><axis xyz="0 0 1"/></joint>`,
			i, i-1, i)
	}
	b.WriteString(`</robot>`)

	desc, err := urdf.Parse([]byte(b.String()))
	test.That(t, err, test.ShouldBeNil)
	_, err = New(desc, "link0", "link8")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at most 7")
}

func TestPose(t *testing.T) {
	m := pendulumModel(t)
	state := zeroState()

	// q = 0: tool sits 0.5 out along x at height 0.5
	pose := m.Pose(franka.FrameFlange, state)
	test.That(t, pose[12], test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, pose[13], test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, pose[14], test.ShouldAlmostEqual, 0.5, 1e-9)

	// the joint1 frame stops before the fixed tool offset
	pose = m.Pose(franka.FrameJoint1, state)
	test.That(t, pose[12], test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, pose[14], test.ShouldAlmostEqual, 0.5, 1e-9)

	// rotating the hinge by pi/2 swings the arm straight down
	state.Q[0] = math.Pi / 2
	pose = m.Pose(franka.FrameFlange, state)
	test.That(t, pose[12], test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, pose[14], test.ShouldAlmostEqual, 0.0, 1e-9)
}

func TestPoseEndEffectorFrames(t *testing.T) {
	m := pendulumModel(t)
	state := zeroState()
	state.FTEE[14] = 0.1 // 0.1 out along the flange z axis
	state.EETK[12] = 0.02

	flange := m.Pose(franka.FrameFlange, state)
	ee := m.Pose(franka.FrameEndEffector, state)
	test.That(t, ee[12], test.ShouldAlmostEqual, flange[12], 1e-9)
	test.That(t, ee[14], test.ShouldAlmostEqual, flange[14]+0.1, 1e-9)

	k := m.Pose(franka.FrameStiffness, state)
	test.That(t, k[12], test.ShouldAlmostEqual, ee[12]+0.02, 1e-9)
}

func TestGravity(t *testing.T) {
	m := pendulumModel(t)
	state := zeroState()

	// horizontal arm: holding torque is -m*g*l_com about the +y hinge axis
	g := m.Gravity(state)
	test.That(t, g[0], test.ShouldAlmostEqual, -2*9.81*0.25, 1e-5)
	for i := 1; i < 7; i++ {
		test.That(t, g[i], test.ShouldEqual, 0.0)
	}

	// hanging straight down: no moment arm left
	state.Q[0] = math.Pi / 2
	g = m.Gravity(state)
	test.That(t, g[0], test.ShouldAlmostEqual, 0.0, 1e-5)
}

func TestGravityPure(t *testing.T) {
	m := pendulumModel(t)
	state := zeroState()
	state.Q[0] = 0.3

	before := *state
	g1 := m.Gravity(state)
	g2 := m.Gravity(state)
	test.That(t, g1, test.ShouldResemble, g2)
	test.That(t, *state, test.ShouldResemble, before)
}
