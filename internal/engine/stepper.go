package engine

// Stepper advances one model a single timestep per call, for interactive
// use (live views, REPL-style exploration). Errors are classified exactly
// as in a batch run. Not safe for concurrent use.
type Stepper struct {
	model    *Model
	params   Params
	previous State
	history  []Snapshot
	timestep int
}

// NewStepper builds a stepper over the model's first sweep point.
func NewStepper(m *Model) *Stepper {
	return &Stepper{
		model:    m,
		params:   GenerateParameterSweep(m.params)[0],
		previous: m.initialState.Clone(),
	}
}

// Step executes one full timestep (all substeps in pipeline order) and
// returns the resulting state.
func (s *Stepper) Step() (State, error) {
	for substep, block := range s.model.blocks {
		next, err := s.model.applyBlock(s.params, substep, s.history, s.previous, block)
		if err != nil {
			return nil, err
		}
		s.history = append(s.history, Snapshot{
			Run:      0,
			Subset:   0,
			Timestep: s.timestep,
			Substep:  substep,
			State:    next,
		})
		s.previous = next
	}
	s.timestep++
	return s.previous, nil
}

// State returns the current state.
func (s *Stepper) State() State { return s.previous }

// Timestep returns the number of completed timesteps.
func (s *Stepper) Timestep() int { return s.timestep }

// History returns the snapshots recorded so far. Shared, treat as
// read-only.
func (s *Stepper) History() []Snapshot { return s.history }

// Reset restores the initial state and clears history.
func (s *Stepper) Reset() {
	s.previous = s.model.initialState.Clone()
	s.history = nil
	s.timestep = 0
}
