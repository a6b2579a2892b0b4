// Package main runs the hardware bridge against the built-in simulation
// backend: it steps a toy physics world at a fixed rate, runs the
// read/control/write cycle on every step, and logs the synthesized robot
// state until interrupted.
package main

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/robobridge/frankahwsim/gazebo"
	"github.com/robobridge/frankahwsim/hwsim"
	"github.com/robobridge/frankahwsim/urdf"
)

var logger = golog.NewDevelopmentLogger("frankahwsim")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Description string `flag:"urdf,usage=robot description file (defaults to the bundled arm)"`
	Namespace   string `flag:"namespace,default=panda,usage=robot namespace and joint-name prefix"`
	Step        int    `flag:"step-ms,default=1,usage=physics step in milliseconds"`
	LogEvery    int    `flag:"log-every,default=1000,usage=log the robot state every n cycles"`
	MLoad       string `flag:"m-load,usage=attached load mass in kg"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Step <= 0 {
		return errors.Errorf("step duration must be positive, got %dms", argsParsed.Step)
	}

	var desc *urdf.Model
	var err error
	if argsParsed.Description == "" {
		desc, err = hwsim.PandaDescription()
	} else {
		desc, err = urdf.ParseFile(argsParsed.Description)
	}
	if err != nil {
		return err
	}

	return runBridge(ctx, desc, argsParsed, logger)
}

func runBridge(ctx context.Context, desc *urdf.Model, args Arguments, logger golog.Logger) error {
	world, err := gazebo.NewModel(desc, gazebo.Config{
		StepDT: time.Duration(args.Step) * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}

	attributes := map[string]interface{}{}
	if args.MLoad != "" {
		attributes["m_load"] = args.MLoad
	}
	sim, err := hwsim.New(args.Namespace, desc, world, attributes, logger)
	if err != nil {
		return err
	}
	logger.Infow("bridge ready", "arm", sim.ArmID(), "joints", sim.JointNames(), "step", world.StepDT())

	utils.ContextMainReadyFunc(ctx)()

	var cycles int
	err = world.Run(ctx, func(now, period time.Duration) {
		sim.ReadSim(now, period)

		// zero-effort controller; gravity compensation alone holds the arm
		state := sim.RobotState()

		sim.WriteSim(now, period)

		cycles++
		if args.LogEvery > 0 && cycles%args.LogEvery == 0 {
			pose := state.OTEE
			logger.Infow("cycle",
				"time", state.Time.ToSec(),
				"q", state.Q,
				"ee_position", []float64{pose[12], pose[13], pose[14]},
				"contacts", state.JointContact,
			)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
