package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stateflow/internal/analysis"
	"stateflow/internal/config"
	"stateflow/internal/engine"
	"stateflow/internal/models"
	"stateflow/internal/store"
	"stateflow/internal/viz"
)

var (
	dataPath   string
	timesteps  int
	runs       int
	workers    int
	configFile string
	setParams  []string
	variable   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stateflow",
		Short: "discrete-time dynamical systems simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataPath, "data", ".stateflow/runs.db", "run database path")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&timesteps, "timesteps", config.DefaultTimesteps, "timesteps per run")
	runCmd.Flags().IntVar(&runs, "runs", config.DefaultRuns, "independent runs")
	runCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all cores)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringArrayVar(&setParams, "set", nil, "parameter override (name=value, repeatable)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&variable, "var", "", "state variable to plot (default: all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary statistics and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&variable, "var", "", "state variable to analyze (default: first)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run a model with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&variable, "var", "", "state variable to chart")
	liveCmd.Flags().StringArrayVar(&setParams, "set", nil, "parameter override (name=value, repeatable)")

	rootCmd.AddCommand(runCmd, modelsCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportCSVCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	modelName := cfg.Model
	if len(args) > 0 {
		modelName = args[0]
	}
	if cmd.Flags().Changed("timesteps") {
		cfg.Timesteps = timesteps
	}
	if cmd.Flags().Changed("runs") {
		cfg.Runs = runs
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}

	params := cfg.EngineParams()
	overrides, err := parseSetParams(setParams)
	if err != nil {
		return err
	}
	if params == nil && len(overrides) > 0 {
		params = make(engine.Params)
	}
	for k, v := range overrides {
		params[k] = v
	}

	model, err := models.NewRegistry().Get(modelName, params)
	if err != nil {
		return err
	}

	sim := engine.NewSimulation(model, cfg.Timesteps)
	sim.Runs = cfg.Runs
	sim.Workers = cfg.Workers

	fmt.Printf("running %s: %d timesteps x %d runs\n", modelName, cfg.Timesteps, cfg.Runs)
	start := time.Now()

	results, err := sim.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	st, err := store.Open(dataPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(modelName, cfg.Timesteps, cfg.Runs, params, results)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %d\n", runID)
	fmt.Printf("trajectories: %d\n", len(results))
	fmt.Println("\nfinal state (first trajectory):")
	final := results[0].FinalState()
	for _, key := range model.StateKeys() {
		fmt.Printf("  %s: %v\n", key, final[key])
	}

	return nil
}

func parseSetParams(pairs []string) (engine.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(engine.Params, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", pair)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			params[name] = f
		} else {
			params[name] = raw
		}
	}
	return params, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataPath)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIMESTEPS\tRUNS\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
			r.ID, r.Model, r.Timesteps, r.Runs,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func loadRun(runID string) (*store.RunRecord, []engine.Trajectory, error) {
	id, err := strconv.ParseInt(runID, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid run id %q", runID)
	}

	st, err := store.Open(dataPath)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	results, err := st.LoadTrajectories(id)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("run %d has no trajectories", id)
	}
	return meta, results, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(args[0])
	if err != nil {
		return err
	}

	traj := results[0]
	fmt.Printf("run: %d\nmodel: %s\nsnapshots: %d\n\n", meta.ID, meta.Model, len(traj.Snapshots))

	variables := trajectoryKeys(traj)
	if variable != "" {
		variables = []string{variable}
	}

	for _, name := range variables {
		series, err := analysis.Series(traj, name)
		if err != nil {
			return err
		}
		fmt.Println(viz.Plot(series, name))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(args[0])
	if err != nil {
		return err
	}

	traj := results[0]
	name := variable
	if name == "" {
		keys := trajectoryKeys(traj)
		if len(keys) == 0 {
			return fmt.Errorf("run %d has no state variables", meta.ID)
		}
		name = keys[0]
	}

	series, err := analysis.Series(traj, name)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: run %d, model %s, variable %s\n\n", meta.ID, meta.Model, name)

	stats := analysis.Summarize(series)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "mean\t%.6f\n", stats.Mean)
	fmt.Fprintf(w, "stddev\t%.6f\n", stats.StdDev)
	fmt.Fprintf(w, "min\t%.6f\n", stats.Min)
	fmt.Fprintf(w, "max\t%.6f\n", stats.Max)
	fmt.Fprintf(w, "final\t%.6f\n", stats.Final)
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(series)
	if len(ps) > 1 {
		fmt.Println()
		fmt.Println(viz.Plot(ps, "power spectrum"))
		fmt.Printf("\ndominant frequency: %.4f cycles/timestep\n", analysis.DominantFrequency(series))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return store.ExportJSONStdout(meta.Model, meta.Timesteps, meta.Runs, results)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, results, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return store.ExportCSVStdout(results)
}

func runLive(cmd *cobra.Command, args []string) error {
	modelName := config.DefaultModel
	if len(args) > 0 {
		modelName = args[0]
	}

	params, err := parseSetParams(setParams)
	if err != nil {
		return err
	}
	model, err := models.NewRegistry().Get(modelName, params)
	if err != nil {
		return err
	}
	return viz.Run(model, modelName, variable)
}

func trajectoryKeys(traj engine.Trajectory) []string {
	if len(traj.Snapshots) == 0 {
		return nil
	}
	keys := make([]string, 0, len(traj.Snapshots[0].State))
	for k := range traj.Snapshots[0].State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
