// Package store persists simulation results in a SQLite database and
// exports them to JSON and CSV.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stateflow/internal/engine"
)

// Store is a SQLite-backed archive of simulation runs. One row in the
// runs table per Save call, one row in the snapshots table per recorded
// substep. State maps are stored as JSON text.
type Store struct {
	db *sql.DB
}

// RunRecord is the metadata for one saved run.
type RunRecord struct {
	ID        int64     `json:"id"`
	Model     string    `json:"model"`
	Timesteps int       `json:"timesteps"`
	Runs      int       `json:"runs"`
	CreatedAt time.Time `json:"created_at"`
	Params    string    `json:"params"`
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			timesteps INTEGER NOT NULL,
			runs INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			params_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			simulation INTEGER NOT NULL,
			run INTEGER NOT NULL,
			subset INTEGER NOT NULL,
			timestep INTEGER NOT NULL,
			substep INTEGER NOT NULL,
			state_json TEXT NOT NULL,
			PRIMARY KEY (run_id, simulation, run, subset, timestep, substep)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, run, subset);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a full result set and returns the new run id.
func (s *Store) Save(model string, timesteps, runs int, params engine.Params, results []engine.Trajectory) (int64, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (model, timesteps, runs, created_at, params_json) VALUES (?, ?, ?, ?, ?)`,
		model, timesteps, runs, time.Now().UTC().Format(time.RFC3339), string(paramsJSON),
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshots (run_id, simulation, run, subset, timestep, substep, state_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, traj := range results {
		for _, snap := range traj.Snapshots {
			stateJSON, err := json.Marshal(snap.State)
			if err != nil {
				return 0, err
			}
			if _, err := stmt.Exec(runID, snap.Simulation, snap.Run, snap.Subset,
				snap.Timestep, snap.Substep, string(stateJSON)); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// List returns metadata for all saved runs, newest first.
func (s *Store) List() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, model, timesteps, runs, created_at, params_json FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var r RunRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Model, &r.Timesteps, &r.Runs, &created, &r.Params); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Load returns the metadata for one run.
func (s *Store) Load(runID int64) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, model, timesteps, runs, created_at, params_json FROM runs WHERE id = ?`, runID,
	)
	var r RunRecord
	var created string
	if err := row.Scan(&r.ID, &r.Model, &r.Timesteps, &r.Runs, &created, &r.Params); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d not found", runID)
		}
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

// LoadTrajectories reconstructs the trajectories of one saved run,
// grouped by (simulation, run, subset) in insertion order.
func (s *Store) LoadTrajectories(runID int64) ([]engine.Trajectory, error) {
	rows, err := s.db.Query(
		`SELECT simulation, run, subset, timestep, substep, state_json
		 FROM snapshots WHERE run_id = ?
		 ORDER BY simulation, run, subset, timestep, substep`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []engine.Trajectory
	var cur *engine.Trajectory
	for rows.Next() {
		var snap engine.Snapshot
		var stateJSON string
		if err := rows.Scan(&snap.Simulation, &snap.Run, &snap.Subset,
			&snap.Timestep, &snap.Substep, &stateJSON); err != nil {
			return nil, err
		}
		state := make(engine.State)
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
			return nil, fmt.Errorf("decode state for run %d: %w", runID, err)
		}
		snap.State = state

		if cur == nil || cur.Simulation != snap.Simulation || cur.Run != snap.Run || cur.Subset != snap.Subset {
			results = append(results, engine.Trajectory{
				Simulation: snap.Simulation,
				Run:        snap.Run,
				Subset:     snap.Subset,
			})
			cur = &results[len(results)-1]
		}
		cur.Snapshots = append(cur.Snapshots, snap)
	}
	return results, rows.Err()
}
