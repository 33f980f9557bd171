package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Simulation executes Runs independent runs of one model, each from its own
// deep-copied initial state. If the model's params contain sweep axes, each
// run executes once per sweep point and the result holds Runs x Subsets
// trajectories, ordered run-major.
type Simulation struct {
	Model     *Model
	Timesteps int
	Runs      int

	// Workers bounds parallel run execution. Zero or negative means full
	// available parallelism.
	Workers int
}

// NewSimulation builds a simulation with a single run. Timesteps and Runs
// are validated lazily when Run is called.
func NewSimulation(model *Model, timesteps int) *Simulation {
	return &Simulation{Model: model, Timesteps: timesteps, Runs: 1}
}

// Run executes all runs and returns their trajectories in run index order,
// regardless of completion order. It returns either the full ordered
// result sequence or a single classified error: the first one observed by
// completion order. Once an error is observed, not-yet-started runs are
// not launched and in-flight results are discarded.
func (s *Simulation) Run(ctx context.Context) ([]Trajectory, error) {
	return s.run(ctx, 0)
}

func (s *Simulation) run(ctx context.Context, simulation int) ([]Trajectory, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	sweep := GenerateParameterSweep(s.Model.params)
	subsets := len(sweep)
	results := make([]Trajectory, s.Runs*subsets)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	for run := 0; run < s.Runs; run++ {
		for subset := 0; subset < subsets; subset++ {
			idx := run*subsets + subset
			spec := runSpec{
				simulation: simulation,
				run:        run,
				subset:     subset,
				timesteps:  s.Timesteps,
				params:     sweep[subset],
			}
			g.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				traj, err := s.Model.singleRun(ctx, spec)
				if err != nil {
					return err
				}
				results[idx] = traj
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Simulation) validate() error {
	if s.Model == nil {
		return &ContractError{Message: "simulation requires a model"}
	}
	if s.Timesteps <= 0 {
		return contractErrorf("timesteps must be positive, got %d", s.Timesteps)
	}
	if s.Runs <= 0 {
		return contractErrorf("runs must be positive, got %d", s.Runs)
	}
	return nil
}

func (s *Simulation) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}
