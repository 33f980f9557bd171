package models

import "stateflow/internal/engine"

// NewPredatorPrey is a Lotka-Volterra style ecology in one block: three
// policies emit population deltas into shared signals (demonstrating
// signal aggregation across policies), two updates apply them.
func NewPredatorPrey(overrides engine.Params) *engine.Model {
	params := mergeParams(engine.Params{
		"prey_birth_rate":     0.3,
		"predation_rate":      0.002,
		"conversion_rate":     0.0004,
		"predator_death_rate": 0.25,
	}, overrides)

	block := engine.StateUpdateBlock{
		Policies: map[string]engine.PolicyFunc{
			"prey_growth": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State) (any, error) {
				prey := number(previous["prey"])
				return engine.Signals{"prey_delta": number(params["prey_birth_rate"]) * prey}, nil
			},
			"predation": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State) (any, error) {
				prey := number(previous["prey"])
				predators := number(previous["predators"])
				eaten := number(params["predation_rate"]) * prey * predators
				return engine.Signals{
					"prey_delta":     -eaten,
					"predator_delta": number(params["conversion_rate"]) * prey * predators,
				}, nil
			},
			"predator_death": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State) (any, error) {
				predators := number(previous["predators"])
				return engine.Signals{"predator_delta": -number(params["predator_death_rate"]) * predators}, nil
			},
		},
		Variables: map[string]engine.UpdateFunc{
			"prey": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				next := number(previous["prey"]) + number(signals["prey_delta"])
				if next < 0 {
					next = 0
				}
				return engine.NewUpdate("prey", next), nil
			},
			"predators": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
				next := number(previous["predators"]) + number(signals["predator_delta"])
				if next < 0 {
					next = 0
				}
				return engine.NewUpdate("predators", next), nil
			},
		},
	}

	return engine.NewModel(
		engine.State{"prey": 100.0, "predators": 15.0},
		[]engine.StateUpdateBlock{block},
		params,
	)
}
