package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"stateflow/internal/engine"
)

// ExportData is the JSON export shape: run metadata plus every recorded
// snapshot of every trajectory.
type ExportData struct {
	Model        string              `json:"model"`
	Timesteps    int                 `json:"timesteps"`
	Runs         int                 `json:"runs"`
	Trajectories []engine.Trajectory `json:"trajectories"`
}

// ExportJSON writes the result set as indented JSON to path.
func ExportJSON(path, model string, timesteps, runs int, results []engine.Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, model, timesteps, runs, results)
}

// ExportJSONStdout writes the result set as indented JSON to stdout.
func ExportJSONStdout(model string, timesteps, runs int, results []engine.Trajectory) error {
	return writeJSON(os.Stdout, model, timesteps, runs, results)
}

func writeJSON(w io.Writer, model string, timesteps, runs int, results []engine.Trajectory) error {
	data := ExportData{
		Model:        model,
		Timesteps:    timesteps,
		Runs:         runs,
		Trajectories: results,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes one row per snapshot: position columns first, then the
// state variables in sorted key order.
func ExportCSV(path string, results []engine.Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeCSV(file, results)
}

// ExportCSVStdout writes the CSV rows to stdout.
func ExportCSVStdout(results []engine.Trajectory) error {
	return writeCSV(os.Stdout, results)
}

func writeCSV(out io.Writer, results []engine.Trajectory) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	keys := stateKeys(results)
	header := append([]string{"simulation", "run", "subset", "timestep", "substep"}, keys...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, traj := range results {
		for _, snap := range traj.Snapshots {
			row := []string{
				strconv.Itoa(snap.Simulation),
				strconv.Itoa(snap.Run),
				strconv.Itoa(snap.Subset),
				strconv.Itoa(snap.Timestep),
				strconv.Itoa(snap.Substep),
			}
			for _, k := range keys {
				row = append(row, formatValue(snap.State[k]))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func stateKeys(results []engine.Trajectory) []string {
	for _, traj := range results {
		if len(traj.Snapshots) > 0 {
			keys := make([]string, 0, len(traj.Snapshots[0].State))
			for k := range traj.Snapshots[0].State {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		}
	}
	return nil
}

func formatValue(v engine.Value) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
