// windtunnel-run executes a single flow job from a mesh file and writes
// the resulting artifact as JSON, without going through HTTP
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"windtunnel/internal/core/surrogate"
	"windtunnel/internal/platform/config"
	"windtunnel/internal/platform/logger"
	"windtunnel/internal/services/simulate/domain"
	simrepo "windtunnel/internal/services/simulate/repo"
	simsvc "windtunnel/internal/services/simulate/service"
)

func main() {
	var (
		meshPath   = flag.String("mesh", "", "path to an stl/obj/glb mesh file")
		demo       = flag.String("demo", "", "built-in geometry instead of a file: sphere, cube, cylinder, airfoil")
		velocity   = flag.Float64("velocity", 1.0, "free-stream speed")
		dirX       = flag.Float64("dx", 1.0, "free-stream direction x")
		dirY       = flag.Float64("dy", 0.0, "free-stream direction y")
		dirZ       = flag.Float64("dz", 0.0, "free-stream direction z")
		viscosity  = flag.Float64("viscosity", domain.DefaultViscosity, "kinematic viscosity")
		resolution = flag.Int("resolution", 30, "lattice points per axis")
		outPath    = flag.String("out", "", "output file, stdout when empty")
	)
	flag.Parse()

	l := logger.Get()
	modelCfg := config.New().Prefix("WINDTUNNEL_MODEL_")

	model := surrogate.New(surrogate.Config{
		Seed: int64(modelCfg.MayInt("SEED", 42)),
	})
	svc := simsvc.New(*l, model, simrepo.NewMemory())

	ctx := context.Background()
	var (
		res *domain.SimulationResult
		err error
	)
	switch {
	case *demo != "":
		res, err = svc.Demo(ctx, domain.DemoInput{
			Shape:      *demo,
			Velocity:   *velocity,
			Resolution: *resolution,
		})
	case *meshPath != "":
		raw, rerr := os.ReadFile(*meshPath)
		if rerr != nil {
			l.Fatal().Err(rerr).Str("path", *meshPath).Msg("reading mesh file")
		}
		res, err = svc.Simulate(ctx, domain.SimulateInput{
			Geometry: domain.GeometryInput{
				Raw:    raw,
				Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(*meshPath)), "."),
			},
			Conditions: domain.FlowConditions{
				Velocity:  *velocity,
				Direction: [3]float64{*dirX, *dirY, *dirZ},
				Viscosity: *viscosity,
			},
			Resolution: *resolution,
		})
	default:
		l.Fatal().Msg("one of -mesh or -demo is required")
	}
	if err != nil {
		l.Fatal().Err(err).Msg("simulation failed")
	}

	out := os.Stdout
	if *outPath != "" {
		f, ferr := os.Create(*outPath)
		if ferr != nil {
			l.Fatal().Err(ferr).Str("path", *outPath).Msg("creating output file")
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	enc := json.NewEncoder(out)
	if err := enc.Encode(res); err != nil {
		l.Fatal().Err(err).Msg("encoding result")
	}
}
