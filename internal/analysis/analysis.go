// Package analysis extracts numeric time series from trajectories and
// computes summary statistics and frequency spectra over them.
package analysis

import (
	"fmt"
	"math"

	"stateflow/internal/engine"
)

// Series extracts the values of one state variable across a trajectory's
// snapshots, in timestep/substep order. Non-numeric values are an error.
func Series(traj engine.Trajectory, variable string) ([]float64, error) {
	if len(traj.Snapshots) == 0 {
		return nil, fmt.Errorf("trajectory has no snapshots")
	}
	series := make([]float64, 0, len(traj.Snapshots))
	for _, snap := range traj.Snapshots {
		v, ok := snap.State[variable]
		if !ok {
			return nil, fmt.Errorf("unknown state variable %q", variable)
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("state variable %q is not numeric (%T)", variable, v)
		}
		series = append(series, f)
	}
	return series, nil
}

func asFloat(v engine.Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// Stats is a summary of one series.
type Stats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Final  float64
}

// Summarize computes summary statistics over a series.
func Summarize(series []float64) Stats {
	if len(series) == 0 {
		return Stats{}
	}

	s := Stats{Min: series[0], Max: series[0], Final: series[len(series)-1]}
	sum := 0.0
	for _, v := range series {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(series))

	variance := 0.0
	for _, v := range series {
		d := v - s.Mean
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / float64(len(series)))
	return s
}
