package engine

import "context"

type runSpec struct {
	simulation int
	run        int
	subset     int
	timesteps  int
	params     Params
}

// singleRun drives one run: timesteps in order, each timestep iterating the
// block pipeline as an ordered sequence of substeps, threading state and
// history forward. The first classified error aborts the remaining
// substeps and timesteps immediately.
func (m *Model) singleRun(ctx context.Context, spec runSpec) (Trajectory, error) {
	traj := Trajectory{
		Simulation:   spec.simulation,
		Run:          spec.run,
		Subset:       spec.subset,
		InitialState: m.initialState.Clone(),
		Snapshots:    make([]Snapshot, 0, spec.timesteps*len(m.blocks)),
	}

	previous := m.initialState.Clone()
	for timestep := 0; timestep < spec.timesteps; timestep++ {
		select {
		case <-ctx.Done():
			return traj, ctx.Err()
		default:
		}

		for substep, block := range m.blocks {
			next, err := m.applyBlock(spec.params, substep, traj.Snapshots, previous, block)
			if err != nil {
				return traj, err
			}
			traj.Snapshots = append(traj.Snapshots, Snapshot{
				Simulation: spec.simulation,
				Run:        spec.run,
				Subset:     spec.subset,
				Timestep:   timestep,
				Substep:    substep,
				State:      next,
			})
			previous = next
		}
	}
	return traj, nil
}
