package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"stateflow/internal/engine"
	"stateflow/internal/models"
)

func runCounter(t *testing.T, timesteps, runs int) []engine.Trajectory {
	t.Helper()
	sim := engine.NewSimulation(models.NewCounter(nil), timesteps)
	sim.Runs = runs
	results, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}
	return results
}

func TestStoreSaveLoad(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer st.Close()

	results := runCounter(t, 5, 2)

	runID, err := st.Save("counter", 5, 2, engine.Params{"step": 1.0}, results)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == 0 {
		t.Error("expected non-zero run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "counter" || meta.Timesteps != 5 || meta.Runs != 2 {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	loaded, err := st.LoadTrajectories(runID)
	if err != nil {
		t.Fatalf("load trajectories failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 trajectories, got %d", len(loaded))
	}
	for i, traj := range loaded {
		if traj.Run != i {
			t.Errorf("trajectory %d has run %d", i, traj.Run)
		}
		if len(traj.Snapshots) != 5 {
			t.Errorf("trajectory %d has %d snapshots, want 5", i, len(traj.Snapshots))
		}
		if got := traj.FinalState()["count"].(float64); got != 5 {
			t.Errorf("trajectory %d final count = %v, want 5", i, got)
		}
	}
}

func TestStoreLoad_Missing(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer st.Close()

	if _, err := st.Load(999); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestStoreList(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer st.Close()

	records, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}

	results := runCounter(t, 3, 1)
	first, err := st.Save("counter", 3, 1, nil, results)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save("counter", 3, 1, nil, results)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != second || records[1].ID != first {
		t.Errorf("expected newest first, got ids %d, %d", records[0].ID, records[1].ID)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	results := runCounter(t, 4, 1)

	if err := ExportJSON(path, "counter", 4, 1, results); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded ExportData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Model != "counter" || len(decoded.Trajectories) != 1 {
		t.Errorf("unexpected export: model=%s trajectories=%d",
			decoded.Model, len(decoded.Trajectories))
	}
	if len(decoded.Trajectories[0].Snapshots) != 4 {
		t.Errorf("expected 4 snapshots, got %d", len(decoded.Trajectories[0].Snapshots))
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	results := runCounter(t, 3, 2)

	if err := ExportCSV(path, results); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}

	// Header plus 3 timesteps x 1 substep x 2 runs.
	if len(records) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(records))
	}
	want := []string{"simulation", "run", "subset", "timestep", "substep", "count"}
	for i, col := range want {
		if records[0][i] != col {
			t.Errorf("header[%d] = %s, want %s", i, records[0][i], col)
		}
	}
	last := records[len(records)-1]
	if last[5] != "3" {
		t.Errorf("final count column = %s, want 3", last[5])
	}
}
