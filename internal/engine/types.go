package engine

import "sort"

// Value is an open, dynamically typed state or signal value: numeric,
// boolean, string, or a composite built from maps and slices of Value.
type Value = any

// State maps variable names to values. The key set is fixed for the
// lifetime of a model: update functions replace values, never keys.
type State map[string]Value

// Params maps parameter names to values. A slice-typed value denotes a
// sweep axis (see GenerateParameterSweep).
type Params map[string]Value

// Signals is the aggregated output of all policies in one block during one
// substep. It lives for that substep only and is not recorded in history.
type Signals map[string]Value

// PolicyFunc computes a partial signal vector from the current run context.
// The returned value must be a Signals or map[string]Value (nil counts as
// empty); any other shape is a ContractError.
type PolicyFunc func(params Params, substep int, history []Snapshot, previous State) (any, error)

// UpdateFunc computes the next value of one state variable. The returned
// value must be an Update pair whose Key exists in the previous state; any
// other shape is a ContractError.
type UpdateFunc func(params Params, substep int, history []Snapshot, previous State, signals Signals) (any, error)

// Update is the (variable, value) pair returned by an UpdateFunc.
type Update struct {
	Key   string
	Value Value
}

// NewUpdate is a convenience constructor for UpdateFunc results.
func NewUpdate(key string, value Value) Update {
	return Update{Key: key, Value: value}
}

// StateUpdateBlock is the unit of substep execution: a set of named
// policies and a set of named state update functions. Policies carry no
// ordering dependency on each other; all of them complete before any
// update function runs.
type StateUpdateBlock struct {
	Policies  map[string]PolicyFunc
	Variables map[string]UpdateFunc
}

// SignalReducer combines two values emitted for the same signal name by
// different policies in one block.
type SignalReducer func(a, b Value) (Value, error)

// Model is the immutable triple of initial state, block pipeline and
// parameters. It is never mutated after construction and may be shared by
// any number of concurrently executing runs.
type Model struct {
	initialState State
	blocks       []StateUpdateBlock
	params       Params
	reducers     map[string]SignalReducer
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithSignalReducer overrides the default combination (numeric addition)
// for one signal name.
func WithSignalReducer(signal string, fn SignalReducer) ModelOption {
	return func(m *Model) { m.reducers[signal] = fn }
}

// NewModel builds a model. No semantic validation happens here; contract
// violations surface lazily during execution.
func NewModel(initialState State, blocks []StateUpdateBlock, params Params, opts ...ModelOption) *Model {
	m := &Model{
		initialState: initialState.Clone(),
		blocks:       blocks,
		params:       cloneParams(params),
		reducers:     make(map[string]SignalReducer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitialState returns a deep copy of the model's initial state.
func (m *Model) InitialState() State { return m.initialState.Clone() }

// Params returns the model's parameter set. Shared, treat as read-only.
func (m *Model) Params() Params { return m.params }

// SubstepCount is the number of blocks in the pipeline.
func (m *Model) SubstepCount() int { return len(m.blocks) }

// StateKeys returns the model's state variable names in sorted order.
func (m *Model) StateKeys() []string { return sortedKeys(m.initialState) }

// Snapshot is one completed substep, tagged with its position in the
// experiment/simulation/run/timestep/substep hierarchy.
type Snapshot struct {
	Simulation int   `json:"simulation"`
	Run        int   `json:"run"`
	Subset     int   `json:"subset"`
	Timestep   int   `json:"timestep"`
	Substep    int   `json:"substep"`
	State      State `json:"state"`
}

// Trajectory is the full state history of one run: one snapshot per
// completed substep, ordered by timestep then substep. On success
// len(Snapshots) == timesteps * substep count.
type Trajectory struct {
	Simulation   int        `json:"simulation"`
	Run          int        `json:"run"`
	Subset       int        `json:"subset"`
	InitialState State      `json:"initial_state"`
	Snapshots    []Snapshot `json:"snapshots"`
}

// FinalState returns the state after the last completed substep, or the
// initial state if no substep completed.
func (t Trajectory) FinalState() State {
	if len(t.Snapshots) == 0 {
		return t.InitialState
	}
	return t.Snapshots[len(t.Snapshots)-1].State
}

// Clone returns a deep copy of the state. Composite values (maps and
// slices) are copied recursively; scalars are copied by value.
func (s State) Clone() State {
	c := make(State, len(s))
	for k, v := range s {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v Value) Value {
	switch x := v.(type) {
	case State:
		return x.Clone()
	case map[string]Value:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []Value:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return out
	case []int:
		out := make([]int, len(x))
		copy(out, x)
		return out
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	default:
		return v
	}
}

func cloneParams(p Params) Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = cloneValue(v)
	}
	return c
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
