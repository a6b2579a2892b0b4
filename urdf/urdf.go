// Package urdf parses the subset of the Unified Robot Description Format the
// hardware bridge needs: links with inertials, movable joints with origins
// and axes, and the transmission blocks that declare which hardware
// interfaces each joint exposes.
package urdf

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Joint types understood by the parser.
const (
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
	FixedJoint      = "fixed"
)

// Model is a parsed robot description.
type Model struct {
	XMLName       xml.Name       `xml:"robot"`
	Name          string         `xml:"name,attr"`
	Links         []Link         `xml:"link"`
	Joints        []Joint        `xml:"joint"`
	Transmissions []Transmission `xml:"transmission"`
}

// Link is a rigid body of the robot. Only the inertial properties matter to
// the bridge; visual and collision elements are ignored.
type Link struct {
	Name     string    `xml:"name,attr"`
	Inertial *Inertial `xml:"inertial,omitempty"`
}

// Inertial holds the mass and center of mass of a link.
type Inertial struct {
	Origin *Pose `xml:"origin,omitempty"`
	Mass   Mass  `xml:"mass"`
}

// Mass is the mass element of an inertial block.
type Mass struct {
	Value float64 `xml:"value,attr"`
}

// Joint connects a parent link to a child link.
type Joint struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	Parent Frame  `xml:"parent"`
	Child  Frame  `xml:"child"`
	Origin *Pose  `xml:"origin,omitempty"`
	Axis   *Axis  `xml:"axis,omitempty"`
	Limit  *Limit `xml:"limit,omitempty"`
}

// Frame refers to a link by name.
type Frame struct {
	Link string `xml:"link,attr"`
}

// Pose is a fixed transform given as space-delimited translation and
// roll/pitch/yaw strings.
type Pose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// Axis is the axis of motion of a joint, in the joint frame.
type Axis struct {
	XYZ string `xml:"xyz,attr"`
}

// Limit bounds the motion of a joint.
type Limit struct {
	Lower    float64 `xml:"lower,attr"`
	Upper    float64 `xml:"upper,attr"`
	Effort   float64 `xml:"effort,attr"`
	Velocity float64 `xml:"velocity,attr"`
}

// Transmission declares how a set of joints is actuated and which hardware
// interfaces they expose to the control side.
type Transmission struct {
	Name   string              `xml:"name,attr"`
	Type   string              `xml:"type"`
	Joints []TransmissionJoint `xml:"joint"`
}

// TransmissionJoint is one joint entry beneath a transmission. Role tags
// ("root"/"tip") are only meaningful to model-interface transmissions.
type TransmissionJoint struct {
	Name               string   `xml:"name,attr"`
	Role               string   `xml:"role"`
	HardwareInterfaces []string `xml:"hardwareInterface"`
}

// Parse reads a robot description from raw XML.
func Parse(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("empty robot description")
	}
	m := &Model{}
	if err := xml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "failed to parse robot description XML")
	}
	return m, nil
}

// ParseFile reads a robot description from a file on disk.
func ParseFile(path string) (*Model, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read robot description file")
	}
	return Parse(data)
}

// Joint looks up a joint by name.
func (m *Model) Joint(name string) (*Joint, bool) {
	for i := range m.Joints {
		if m.Joints[i].Name == name {
			return &m.Joints[i], true
		}
	}
	return nil, false
}

// Link looks up a link by name.
func (m *Model) Link(name string) (*Link, bool) {
	for i := range m.Links {
		if m.Links[i].Name == name {
			return &m.Links[i], true
		}
	}
	return nil, false
}

// Parse returns the axis as a unit-direction vector. A joint without an
// explicit axis moves about x, per the URDF default.
func (a *Axis) Parse() (r3.Vector, error) {
	if a == nil || a.XYZ == "" {
		return r3.Vector{X: 1}, nil
	}
	return parseVec3(a.XYZ)
}

// ParseXYZ returns the translation part of the pose in meters.
func (p *Pose) ParseXYZ() (r3.Vector, error) {
	if p == nil || p.XYZ == "" {
		return r3.Vector{}, nil
	}
	return parseVec3(p.XYZ)
}

// ParseRPY returns the fixed-axis roll/pitch/yaw part of the pose in radians.
func (p *Pose) ParseRPY() (r3.Vector, error) {
	if p == nil || p.RPY == "" {
		return r3.Vector{}, nil
	}
	return parseVec3(p.RPY)
}

func parseVec3(s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 space-delimited values, got %d in %q", len(fields), s)
	}
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vector{}, errors.Errorf("invalid number %q in %q", f, s)
		}
		out[i] = v
	}
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}, nil
}
