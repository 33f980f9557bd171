package engine

const (
	policyShapeMsg = "policy function must return a map of signal name to value"
	updateShapeMsg = "state update function must return an update pair of (existing state key, value)"
)

// reduceSignals runs every policy in the block and folds the per-policy
// maps into one signal vector. Policies carry no declared ordering, but
// they run in name order so that duplicate-signal combination is
// deterministic within a run.
func (m *Model) reduceSignals(params Params, substep int, history []Snapshot, previous State, block StateUpdateBlock) (Signals, error) {
	combined := make(Signals)
	for _, name := range sortedKeys(block.Policies) {
		fn := block.Policies[name]
		res, err := invoke(func() (any, error) {
			return fn(params, substep, history, previous)
		})
		if err != nil {
			return nil, err
		}
		partial, err := asSignals(res)
		if err != nil {
			return nil, err
		}
		for _, signal := range sortedKeys(partial) {
			value := partial[signal]
			existing, ok := combined[signal]
			if !ok {
				combined[signal] = value
				continue
			}
			merged, err := m.combineSignal(signal, existing, value)
			if err != nil {
				return nil, err
			}
			combined[signal] = merged
		}
	}
	return combined, nil
}

func asSignals(res any) (Signals, error) {
	switch v := res.(type) {
	case nil:
		return Signals{}, nil
	case Signals:
		return v, nil
	case map[string]Value:
		return Signals(v), nil
	default:
		return nil, &ContractError{Message: policyShapeMsg}
	}
}

func (m *Model) combineSignal(signal string, a, b Value) (Value, error) {
	if reduce, ok := m.reducers[signal]; ok {
		v, err := reduce(a, b)
		if err != nil {
			return nil, &ContractError{Message: err.Error()}
		}
		return v, nil
	}
	return addValues(signal, a, b)
}

// addValues is the default signal combination: numeric addition, with
// string and []Value concatenation for those types. Anything else is a
// contract violation.
func addValues(signal string, a, b Value) (Value, error) {
	switch x := a.(type) {
	case int:
		switch y := b.(type) {
		case int:
			return x + y, nil
		case int64:
			return int64(x) + y, nil
		case float64:
			return float64(x) + y, nil
		}
	case int64:
		switch y := b.(type) {
		case int:
			return x + int64(y), nil
		case int64:
			return x + y, nil
		case float64:
			return float64(x) + y, nil
		}
	case float64:
		switch y := b.(type) {
		case int:
			return x + float64(y), nil
		case int64:
			return x + float64(y), nil
		case float64:
			return x + y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return x + y, nil
		}
	case []Value:
		if y, ok := b.([]Value); ok {
			out := make([]Value, 0, len(x)+len(y))
			out = append(out, x...)
			return append(out, y...), nil
		}
	}
	return nil, contractErrorf("cannot combine values of signal %q: incompatible types %T and %T", signal, a, b)
}

// applyBlock executes one substep: policies, signal reduction, then every
// state update function against the reduced signal vector. The previous
// state is never mutated; user functions see a deep copy of it.
func (m *Model) applyBlock(params Params, substep int, history []Snapshot, previous State, block StateUpdateBlock) (State, error) {
	shielded := previous.Clone()
	signals, err := m.reduceSignals(params, substep, history, shielded, block)
	if err != nil {
		return nil, err
	}

	next := make(State, len(previous))
	for k, v := range previous {
		next[k] = v
	}
	for _, name := range sortedKeys(block.Variables) {
		if _, ok := previous[name]; !ok {
			return nil, contractErrorf("invalid state key %q in state update block", name)
		}
		fn := block.Variables[name]
		res, err := invoke(func() (any, error) {
			return fn(params, substep, history, shielded, signals)
		})
		if err != nil {
			return nil, err
		}
		update, err := asUpdate(res)
		if err != nil {
			return nil, err
		}
		if _, ok := previous[update.Key]; !ok {
			return nil, contractErrorf("invalid state key %q returned from state update function", update.Key)
		}
		if update.Key != name {
			return nil, contractErrorf("block state key %q doesn't match update function state key %q", name, update.Key)
		}
		next[update.Key] = update.Value
	}
	return next, nil
}

func asUpdate(res any) (Update, error) {
	switch v := res.(type) {
	case Update:
		return v, nil
	case *Update:
		if v != nil {
			return *v, nil
		}
	case [2]any:
		if key, ok := v[0].(string); ok {
			return Update{Key: key, Value: v[1]}, nil
		}
	}
	return Update{}, &ContractError{Message: updateShapeMsg}
}
