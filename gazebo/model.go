package gazebo

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/robobridge/frankahwsim/model"
	"github.com/robobridge/frankahwsim/urdf"
)

// Default joint dynamics for description joints without better information.
// They keep the toy integrator well behaved at millisecond steps.
const (
	defaultStepDT  = time.Millisecond
	defaultInertia = 1.0
	defaultDamping = 0.5
)

// Config tunes the simulation backend.
type Config struct {
	// StepDT is the fixed physics step. Defaults to 1ms.
	StepDT time.Duration
	// Inertia and Damping apply uniformly to every joint. Zero values fall
	// back to the defaults.
	Inertia float64
	Damping float64
	// Clock drives Run. Defaults to the real clock; tests inject a mock.
	Clock clock.Clock
}

// Model is a minimal physics world: the movable joints of one robot
// description, each integrated at a fixed step under actuation, damping, and
// the gravity load of the links they carry. It stands in for a full simulator
// during tests and standalone runs.
type Model struct {
	clk     clock.Clock
	stepDT  time.Duration
	joints  map[string]*simJoint
	order   []string
	elapsed time.Duration
	logger  golog.Logger

	// chain computes the gravity torque acting on each movable joint from
	// the description's link masses; chainIdx maps joint names to its
	// base-to-tip indices. Both are nil when the description is not one
	// serial chain, in which case gravity is not simulated.
	chain    *model.Chain
	chainIdx map[string]int
}

// NewModel builds a world containing every movable joint of the description.
func NewModel(desc *urdf.Model, cfg Config, logger golog.Logger) (*Model, error) {
	if desc == nil {
		return nil, errors.New("no robot description to simulate")
	}
	if cfg.StepDT == 0 {
		cfg.StepDT = defaultStepDT
	}
	if cfg.StepDT < 0 {
		return nil, errors.Errorf("step duration must be positive, got %v", cfg.StepDT)
	}
	if cfg.Inertia == 0 {
		cfg.Inertia = defaultInertia
	}
	if cfg.Damping == 0 {
		cfg.Damping = defaultDamping
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	m := &Model{
		clk:    cfg.Clock,
		stepDT: cfg.StepDT,
		joints: map[string]*simJoint{},
		logger: logger,
	}
	for i := range desc.Joints {
		j := &desc.Joints[i]
		if j.Type == urdf.FixedJoint {
			continue
		}
		m.joints[j.Name] = &simJoint{
			inertia: cfg.Inertia,
			damping: cfg.Damping,
		}
		m.order = append(m.order, j.Name)
	}

	if root, tip, ok := serialChain(desc); ok {
		chain, err := model.NewChain(desc, root, tip)
		if err != nil {
			return nil, errors.Wrap(err, "cannot build the gravity chain")
		}
		m.chain = chain
		m.chainIdx = map[string]int{}
		for i, name := range chain.MovableJoints() {
			m.chainIdx[name] = i
		}
	} else {
		logger.Warnw("robot description is not a single serial chain, simulating without gravity",
			"robot", desc.Name)
	}
	return m, nil
}

// serialChain returns the root and tip links if the description's joints form
// exactly one unbranched chain.
func serialChain(desc *urdf.Model) (string, string, bool) {
	if len(desc.Joints) == 0 {
		return "", "", false
	}
	isParent := map[string]bool{}
	isChild := map[string]bool{}
	for i := range desc.Joints {
		j := &desc.Joints[i]
		if isParent[j.Parent.Link] || isChild[j.Child.Link] {
			return "", "", false
		}
		isParent[j.Parent.Link] = true
		isChild[j.Child.Link] = true
	}
	var root, tip string
	for link := range isParent {
		if !isChild[link] {
			if root != "" {
				return "", "", false
			}
			root = link
		}
	}
	for link := range isChild {
		if !isParent[link] {
			if tip != "" {
				return "", "", false
			}
			tip = link
		}
	}
	return root, tip, root != "" && tip != ""
}

// Joint returns the handle for a named joint.
func (m *Model) Joint(name string) (Joint, bool) {
	j, ok := m.joints[name]
	if !ok {
		return nil, false
	}
	return j, true
}

// JointNames returns the simulated joints in description order.
func (m *Model) JointNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// SetExternalEffort injects a constant disturbance force at a joint, the way
// an object pressing against a link would. It stays applied until replaced.
func (m *Model) SetExternalEffort(name string, effort float64) error {
	j, ok := m.joints[name]
	if !ok {
		return errors.Errorf("no simulated joint named %q", name)
	}
	j.external = effort
	return nil
}

// Step advances the world by one fixed step using semi-implicit Euler. The
// chain's holding torques are subtracted, so gravity pulls an unactuated
// joint and an actuation equal to the holding torque keeps it still.
func (m *Model) Step() {
	dt := m.stepDT.Seconds()
	gravity := m.gravityTorques()
	for _, name := range m.order {
		j := m.joints[name]
		total := j.applied + j.external
		if i, ok := m.chainIdx[name]; ok {
			total -= gravity[i]
		}
		j.velocity += (total - j.damping*j.velocity) / j.inertia * dt
		j.position += j.velocity * dt
		j.measured = total
	}
	m.elapsed += m.stepDT
}

func (m *Model) gravityTorques() []float64 {
	if m.chain == nil {
		return nil
	}
	q := make([]float64, m.chain.DoF())
	for name, i := range m.chainIdx {
		q[i] = m.joints[name].position
	}
	return m.chain.GravityTorques(q)
}

// Time returns the simulation time elapsed since construction.
func (m *Model) Time() time.Duration {
	return m.elapsed
}

// StepDT returns the fixed physics step.
func (m *Model) StepDT() time.Duration {
	return m.stepDT
}

// Run steps the world at its fixed rate until the context is done, invoking
// onStep after every step with the new simulation time and the step size.
// The read/control/write sequence of a cycle belongs in onStep; Run never
// overlaps invocations.
func (m *Model) Run(ctx context.Context, onStep func(now, period time.Duration)) error {
	ticker := m.clk.Ticker(m.stepDT)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Step()
			if onStep != nil {
				onStep(m.elapsed, m.stepDT)
			}
		}
	}
}
