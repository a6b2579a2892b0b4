package hwsim

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/robobridge/frankahwsim/franka"
)

// Params are the calibration parameters of the bridge. Flattened matrices
// arrive as space-delimited strings in column-major order, exactly as a
// parameter server would hand them over; every string must parse to its
// exact element count.
type Params struct {
	// ArmID overrides the robot namespace as the joint-name prefix.
	ArmID string `json:"arm_id"`

	MEE     float64 `json:"m_ee"`
	IEE     string  `json:"I_ee"`
	MLoad   float64 `json:"m_load"`
	ILoad   string  `json:"I_load"`
	FxCload string  `json:"F_x_Cload"`
	FTNE    string  `json:"F_T_NE"`
	NETEE   string  `json:"NE_T_EE"`
	EETK    string  `json:"EE_T_K"`

	// Per-joint torque thresholds for the contact/collision predicates,
	// base to tip. Only the nominal collision case is supported.
	LowerTorqueThresholdsNominal []float64 `json:"lower_torque_thresholds_nominal"`
	UpperTorqueThresholdsNominal []float64 `json:"upper_torque_thresholds_nominal"`
}

const identityTransform = "1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1"

// DefaultParams returns the calibration of a bare arm: a 0.73kg default end
// effector mounted 103.4mm out of the flange with a 45 degree twist, no
// load, and the factory nominal torque thresholds.
func DefaultParams() Params {
	return Params{
		MEE:     0.73,
		IEE:     "0.001 0 0 0 0.0025 0 0 0 0.0017",
		MLoad:   0,
		ILoad:   "0 0 0 0 0 0 0 0 0",
		FxCload: "0 0 0",
		FTNE:    "0.7071 -0.7071 0 0 0.7071 0.7071 0 0 0 0 1 0 0 0 0.1034 1",
		NETEE:   identityTransform,
		EETK:    identityTransform,

		LowerTorqueThresholdsNominal: []float64{20, 20, 18, 18, 16, 14, 12},
		UpperTorqueThresholdsNominal: []float64{20, 20, 18, 18, 16, 14, 12},
	}
}

// ParseParams decodes an attribute map over the defaults. Unknown keys are
// ignored the way a parameter server ignores parameters nobody asked for.
// ZeroFields makes a supplied value replace its default outright; without it
// a short threshold slice would merge element-wise into the default and
// dodge the length validation.
func ParseParams(attributes map[string]interface{}) (Params, error) {
	p := DefaultParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           &p,
	})
	if err != nil {
		return Params{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Params{}, errors.Wrap(err, "malformed calibration parameters")
	}
	return p, nil
}

// readArray parses a space-delimited float array parameter, failing with the
// parameter's name unless exactly count values parse.
func readArray(value, name string, count int) ([]float64, error) {
	fields := strings.Fields(value)
	if len(fields) != count {
		return nil, errors.Errorf("parameter %s: expected %d values, got %d", name, count, len(fields))
	}
	out := make([]float64, count)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Errorf("parameter %s: invalid number %q", name, f)
		}
		out[i] = v
	}
	return out, nil
}

// loadParameters validates the calibration and populates the constant part
// of the robot state, including the derived composites: total mass, total
// inertia via the parallel-axis shift, and the flange-to-end-effector
// transform chain.
func (s *HWSim) loadParameters(p Params) error {
	s.state.MEE = p.MEE
	s.state.MLoad = p.MLoad

	var errs error
	read := func(dst []float64, value, name string) {
		vals, err := readArray(value, name, len(dst))
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		copy(dst, vals)
	}
	read(s.state.IEE[:], p.IEE, "I_ee")
	read(s.state.ILoad[:], p.ILoad, "I_load")
	read(s.state.FxCload[:], p.FxCload, "F_x_Cload")
	read(s.state.FTNE[:], p.FTNE, "F_T_NE")
	read(s.state.NETEE[:], p.NETEE, "NE_T_EE")
	read(s.state.EETK[:], p.EETK, "EE_T_K")

	if n := len(p.LowerTorqueThresholdsNominal); n != len(s.arm) {
		errs = multierr.Append(errs, errors.Errorf(
			"parameter lower_torque_thresholds_nominal: expected %d values, got %d", len(s.arm), n))
	}
	if n := len(p.UpperTorqueThresholdsNominal); n != len(s.arm) {
		errs = multierr.Append(errs, errors.Errorf(
			"parameter upper_torque_thresholds_nominal: expected %d values, got %d", len(s.arm), n))
	}
	if errs != nil {
		return errs
	}

	for i, joint := range s.arm {
		joint.ContactThreshold = p.LowerTorqueThresholdsNominal[i]
		joint.CollisionThreshold = p.UpperTorqueThresholdsNominal[i]
	}

	s.state.MTotal = s.state.MEE + s.state.MLoad

	var ftee mat.Dense
	ftee.Mul(franka.Mat4(s.state.FTNE), franka.Mat4(s.state.NETEE))
	s.state.FTEE = franka.FlattenMat4(&ftee)

	com := r3.Vector{X: s.state.FxCload[0], Y: s.state.FxCload[1], Z: s.state.FxCload[2]}
	s.state.ITotal = franka.FlattenMat3(shiftInertiaTensor(franka.Mat3(s.state.IEE), s.state.MEE, com))

	s.state.ControlCommandSuccessRate = 1.0
	return nil
}

// shiftInertiaTensor applies the parallel-axis theorem:
// I' = I + m*((p.p)E - p*p^T).
func shiftInertiaTensor(inertia *mat.Dense, m float64, p r3.Vector) *mat.Dense {
	d := mat.NewDense(3, 1, []float64{p.X, p.Y, p.Z})

	var outer mat.Dense
	outer.Mul(d, d.T())

	shift := mat.NewDense(3, 3, nil)
	dot := p.Dot(p)
	for i := 0; i < 3; i++ {
		shift.Set(i, i, dot)
	}
	shift.Sub(shift, &outer)
	shift.Scale(m, shift)

	var out mat.Dense
	out.Add(inertia, shift)
	return &out
}
