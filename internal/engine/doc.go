// Package engine implements a discrete-time state-pipeline simulation core.
//
// A [Model] bundles an initial state, an ordered pipeline of
// [StateUpdateBlock] values and a parameter set. Each timestep executes the
// pipeline in order; each block (one substep) first runs its policy
// functions, folds their outputs into a single signal vector, then runs its
// state update functions against that vector to produce the next state.
// Every completed substep appends a [Snapshot] to the run's trajectory.
//
//   - [Simulation]: N independent runs of one model, scheduled in parallel
//   - [Experiment]: an ordered sequence of simulations
//   - [Stepper]: single-timestep stepping for interactive use
//
// Failures inside user-supplied functions are classified into exactly two
// error kinds before they leave the engine: [ExecutionError] when the
// function itself failed (its message is the original failure text,
// verbatim) and [ContractError] when the function returned a value of the
// wrong shape.
//
// # Thread Safety
//
// Models are immutable after construction and safely shared across runs.
// Each run owns its own state and trajectory; the only synchronization is
// the ordered result slot each run writes on completion.
package engine
