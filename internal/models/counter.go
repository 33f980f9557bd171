package models

import "stateflow/internal/engine"

// NewCounter is the minimal one-variable pipeline: a single block whose
// update adds params["step"] to "count" every substep.
func NewCounter(overrides engine.Params) *engine.Model {
	params := mergeParams(engine.Params{"step": 1.0}, overrides)

	block := engine.StateUpdateBlock{
		Variables: map[string]engine.UpdateFunc{
			"count": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				return engine.NewUpdate("count", number(previous["count"])+number(params["step"])), nil
			},
		},
	}

	return engine.NewModel(
		engine.State{"count": 0.0},
		[]engine.StateUpdateBlock{block},
		params,
	)
}
