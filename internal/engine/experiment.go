package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Experiment composes an ordered sequence of simulations, e.g. one per
// model or per parameter-sweep point. Results are collated in simulation
// order, each trajectory tagged with its simulation index.
type Experiment struct {
	Simulations []*Simulation

	// Workers bounds how many simulations execute at once. Zero or
	// negative means all of them; per-run parallelism inside each
	// simulation is still bounded by that simulation's Workers.
	Workers int
}

// NewExperiment builds an experiment over the given simulations.
func NewExperiment(simulations ...*Simulation) *Experiment {
	return &Experiment{Simulations: simulations}
}

// Run executes every simulation with the same fail-fast aggregation as
// Simulation.Run: the first classified error cancels not-yet-started work
// and is the single error returned; otherwise the concatenated, ordered
// trajectories of all simulations are returned.
func (e *Experiment) Run(ctx context.Context) ([]Trajectory, error) {
	collated := make([][]Trajectory, len(e.Simulations))

	g, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}

	for i, sim := range e.Simulations {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results, err := sim.run(ctx, i)
			if err != nil {
				return err
			}
			collated[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, results := range collated {
		total += len(results)
	}
	flat := make([]Trajectory, 0, total)
	for _, results := range collated {
		flat = append(flat, results...)
	}
	return flat, nil
}
