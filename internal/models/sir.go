package models

import "stateflow/internal/engine"

// NewSIR is a two-block epidemic pipeline: transmission runs as the first
// substep of each timestep, recovery as the second, so recovery always
// sees the post-transmission state.
func NewSIR(overrides engine.Params) *engine.Model {
	params := mergeParams(engine.Params{
		"beta":       0.3,
		"gamma":      0.1,
		"population": 1000.0,
	}, overrides)

	transmission := engine.StateUpdateBlock{
		Policies: map[string]engine.PolicyFunc{
			"contact": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State) (any, error) {
				s := number(previous["susceptible"])
				i := number(previous["infected"])
				infections := number(params["beta"]) * s * i / number(params["population"])
				if infections > s {
					infections = s
				}
				return engine.Signals{"infections": infections}, nil
			},
		},
		Variables: map[string]engine.UpdateFunc{
			"susceptible": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				return engine.NewUpdate("susceptible", number(previous["susceptible"])-number(signals["infections"])), nil
			},
			"infected": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				return engine.NewUpdate("infected", number(previous["infected"])+number(signals["infections"])), nil
			},
		},
	}

	recovery := engine.StateUpdateBlock{
		Policies: map[string]engine.PolicyFunc{
			"recover": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State) (any, error) {
				return engine.Signals{"recoveries": number(params["gamma"]) * number(previous["infected"])}, nil
			},
		},
		Variables: map[string]engine.UpdateFunc{
			"infected": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				return engine.NewUpdate("infected", number(previous["infected"])-number(signals["recoveries"])), nil
			},
			"recovered": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				return engine.NewUpdate("recovered", number(previous["recovered"])+number(signals["recoveries"])), nil
			},
		},
	}

	return engine.NewModel(
		engine.State{"susceptible": 990.0, "infected": 10.0, "recovered": 0.0},
		[]engine.StateUpdateBlock{transmission, recovery},
		params,
	)
}
