package hwsim

import (
	_ "embed" // for the bundled arm description
	"fmt"

	"github.com/robobridge/frankahwsim/urdf"
)

//go:embed panda.urdf
var pandaURDF []byte

// PandaNamespace is the robot namespace of the bundled description.
const PandaNamespace = "panda"

// PandaDescription parses the bundled 7-DOF arm description, complete with
// the transmissions the bridge expects.
func PandaDescription() (*urdf.Model, error) {
	return urdf.Parse(pandaURDF)
}

// PandaJointName returns the canonical name of the arm's i-th joint
// (1-based), e.g. "panda_joint4".
func PandaJointName(i int) string {
	return fmt.Sprintf("%s_joint%d", PandaNamespace, i)
}
