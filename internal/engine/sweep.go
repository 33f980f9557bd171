package engine

// GenerateParameterSweep expands a parameter set into one concrete set per
// sweep point. Slice-typed values are sweep axes; the sweep length is the
// longest axis, shorter axes are padded with their last element, scalar
// params are broadcast to every point. Params with no axes (or only empty
// ones) yield a single point.
func GenerateParameterSweep(params Params) []Params {
	maxLen := 0
	for _, v := range params {
		if axis := sweepAxis(v); len(axis) > maxLen {
			maxLen = len(axis)
		}
	}
	if maxLen == 0 {
		return []Params{cloneParams(params)}
	}

	sets := make([]Params, maxLen)
	for i := range sets {
		set := make(Params, len(params))
		for name, v := range params {
			axis := sweepAxis(v)
			switch {
			case len(axis) == 0:
				set[name] = cloneValue(v)
			case i < len(axis):
				set[name] = cloneValue(axis[i])
			default:
				set[name] = cloneValue(axis[len(axis)-1])
			}
		}
		sets[i] = set
	}
	return sets
}

func sweepAxis(v Value) []Value {
	switch axis := v.(type) {
	case []Value:
		return axis
	case []float64:
		out := make([]Value, len(axis))
		for i, e := range axis {
			out[i] = e
		}
		return out
	case []int:
		out := make([]Value, len(axis))
		for i, e := range axis {
			out[i] = e
		}
		return out
	case []string:
		out := make([]Value, len(axis))
		for i, e := range axis {
			out[i] = e
		}
		return out
	}
	return nil
}
