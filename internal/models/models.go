// Package models is the builtin model library: small, self-contained
// state-update pipelines used by the CLI and as executable references for
// writing new models.
package models

import (
	"fmt"
	"sort"

	"stateflow/internal/engine"
)

// Builder constructs a model, applying parameter overrides on top of the
// model's defaults. Override values may be sweep axes (slices).
type Builder func(overrides engine.Params) *engine.Model

// Registry maps model names to builders.
type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.builders["counter"] = NewCounter
	r.builders["predator_prey"] = NewPredatorPrey
	r.builders["sir"] = NewSIR
	return r
}

func (r *Registry) Get(name string, overrides engine.Params) (*engine.Model, error) {
	build, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return build(overrides), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mergeParams(defaults, overrides engine.Params) engine.Params {
	merged := make(engine.Params, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// number coerces the numeric types YAML and user code produce.
func number(v engine.Value) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return 0
}
