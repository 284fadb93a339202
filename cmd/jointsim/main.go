package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jointsim/internal/config"
	"github.com/san-kum/jointsim/internal/controllers"
	"github.com/san-kum/jointsim/internal/integrators"
	"github.com/san-kum/jointsim/internal/logging"
	"github.com/san-kum/jointsim/internal/metrics"
	"github.com/san-kum/jointsim/internal/storage"
	"github.com/san-kum/jointsim/internal/sweep"
	"github.com/san-kum/jointsim/internal/tui"
	"github.com/san-kum/jointsim/internal/world"
)

var (
	dataDir     string
	logLevel    string
	metricsAddr string
	preset      string
	duration    float64
	stepSize    float64
	integrator  string
	realTime    float64
	redisAddr   string
	showPreset  string
	sweepParams []string
	sweepMetric string
	workers     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "jointsim",
		Short:         "hinge joint simulator with rate-gated controllers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".jointsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	runCmd := &cobra.Command{
		Use:   "run [world.yaml]",
		Short: "run a world and save the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWorld,
	}
	addWorldFlags(runCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [world.yaml]",
		Short: "run a world with a live view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchWorld,
	}
	addWorldFlags(watchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot joint angles of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, or print one as yaml with --show",
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVar(&showPreset, "show", "", "print the named preset")

	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "list controller types and integrators",
		RunE:  listPlugins,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "save and restore joint state",
	}
	snapshotCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "keep snapshots in redis at this address instead of the data directory")

	snapSaveCmd := &cobra.Command{
		Use:   "save [world.yaml]",
		Short: "run a world and snapshot its joints",
		Args:  cobra.MaximumNArgs(1),
		RunE:  saveSnapshot,
	}
	addWorldFlags(snapSaveCmd)

	snapRestoreCmd := &cobra.Command{
		Use:   "restore [snapshot_id] [world.yaml]",
		Short: "restore a snapshot into a world and continue it",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  restoreSnapshot,
	}
	addWorldFlags(snapRestoreCmd)

	snapListCmd := &cobra.Command{
		Use:   "list",
		Short: "list snapshots",
		RunE:  listSnapshots,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [world.yaml]",
		Short: "run a world over a grid of settings and rank by a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addWorldFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "setting to sweep, e.g. hold.update_rate=5,10,50 (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "control_effort", "metric to rank by, lowest first")
	sweepCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "worlds to run at once")

	snapshotCmd.AddCommand(snapSaveCmd, snapRestoreCmd, snapListCmd)
	rootCmd.AddCommand(runCmd, watchCmd, sweepCmd, listCmd, plotCmd, presetsCmd, pluginsCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset world")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in sim seconds (default from world)")
	cmd.Flags().Float64Var(&stepSize, "dt", 0, "physics step size (default from world)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
	cmd.Flags().Float64Var(&realTime, "real-time", -1, "real time factor, 0 runs unpaced (default from world)")
}

func loadConfig(args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	case len(args) > 0:
		var err error
		cfg, err = config.Load(args[0])
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("need a world file or --preset")
	}

	if duration > 0 {
		cfg.Duration = duration
	}
	if stepSize > 0 {
		cfg.Physics.StepSize = stepSize
	}
	if integrator != "" {
		cfg.Physics.Integrator = integrator
	}
	if realTime >= 0 {
		cfg.Physics.RealTimeFactor = realTime
	}
	return cfg, cfg.Validate()
}

func newLogger() (*zap.Logger, error) {
	lvl, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New("jointsim", lvl)
}

// newWorld builds the world and, with --metrics-addr, starts serving its
// metrics.
func newWorld(cfg *config.Config, logger *zap.Logger) (*world.World, error) {
	collector := metrics.NewCollector()
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := collector.Register(reg); err != nil {
			return nil, err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
	}
	return world.New(cfg, world.WithLogger(logger), world.WithMetrics(collector))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runWorld(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	w, err := newWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Fini()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	rec, runErr := w.Run(ctx, cfg.Duration)
	elapsed := time.Since(start)

	names := make([]string, 0, len(cfg.Controllers))
	for _, c := range cfg.Controllers {
		names = append(names, c.Name)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		World:       cfg.Name,
		StepSize:    cfg.Physics.StepSize,
		Duration:    w.Time(),
		Integrator:  cfg.Physics.Integrator,
		Controllers: names,
		Restarts:    w.Restarts(),
		Metrics:     w.Metrics(),
	}, rec)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("world: %s  steps: %d  sim: %.3fs  wall: %s\n", cfg.Name, w.Clock().Steps(), w.Time(), elapsed.Round(time.Millisecond))
	for _, name := range w.JointNames() {
		h, _ := w.Joint(name)
		fmt.Printf("  %-16s q=%8.4f  u=%8.4f\n", name, h.Angle(0), h.Velocity(0))
	}
	m := w.Metrics()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, m[k])
	}
	if name, inside := w.LeastStableJoint(); name != "" {
		fmt.Printf("least stable: %s (%.1f%% inside limit)\n", name, 100*inside)
	}
	return runErr
}

func watchWorld(cmd *cobra.Command, args []string) error {
	if realTime < 0 {
		realTime = 1
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	lvl, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	// the live view owns the terminal
	logger, err := logging.New("jointsim", max(lvl, zap.ErrorLevel))
	if err != nil {
		return err
	}

	w, err := newWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Fini()

	ticks := make(chan world.Tick, 1)
	done := make(chan error, 1)
	frame := time.Second / 30
	var lastFrame time.Time
	w.AddObserver(world.ObserverFunc(func(t world.Tick) {
		if time.Since(lastFrame) < frame {
			return
		}
		lastFrame = time.Now()
		select {
		case ticks <- t:
		default:
		}
	}))

	ctx, cancel := signalContext()
	defer cancel()
	bg := w.RunBackground(ctx, cfg.Duration)
	go func() {
		_, err := bg.Wait()
		close(ticks)
		done <- err
	}()

	_, err = tea.NewProgram(tui.New(cfg.Name, ticks, done), tea.WithAltScreen()).Run()
	// the world must be idle before the deferred Fini tears it down
	_, _ = bg.Stop()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORLD\tTIME\tDURATION\tDT\tINTEG\tRESTARTS\tJOINTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%s\n",
			run.ID,
			run.World,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.StepSize,
			run.Integrator,
			run.Restarts,
			strings.Join(run.Joints, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rec, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if rec.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("world: %s\n", meta.World)
	fmt.Printf("samples: %d\n\n", rec.Len())

	for _, name := range rec.Joints {
		data, _ := rec.Series(name)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" angle (rad)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if showPreset != "" {
		cfg := config.GetPreset(showPreset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", showPreset)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("%-10s %d joints, %d controllers\n", name, len(cfg.JointNames()), len(cfg.Controllers))
	}
	return nil
}

func listPlugins(cmd *cobra.Command, args []string) error {
	fmt.Println("controllers:")
	for _, name := range controllers.NewRegistry().Names() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("integrators:")
	for _, name := range integrators.Names() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func snapshotStore() storage.SnapshotStore {
	if redisAddr != "" {
		return storage.NewRedisSnapshots(redisAddr)
	}
	return storage.NewFileSnapshots(dataDir + "/snapshots")
}

func saveSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	w, err := newWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Fini()

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := w.Run(ctx, cfg.Duration); err != nil {
		return err
	}

	id, err := snapshotStore().Put(ctx, w.Snapshot())
	if err != nil {
		return err
	}
	fmt.Printf("snapshot: %s (t=%.3fs)\n", id, w.Time())
	return nil
}

func restoreSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[1:])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := snapshotStore().Get(ctx, args[0])
	if err != nil {
		return err
	}

	w, err := newWorld(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Fini()

	if err := w.RestoreSnapshot(snap); err != nil {
		return err
	}
	if _, err := w.Run(ctx, cfg.Duration); err != nil {
		return err
	}

	fmt.Printf("restored %s from t=%.3fs, ran %.3fs\n", snap.ID, snap.Time, w.Time())
	for _, name := range w.JointNames() {
		h, _ := w.Joint(name)
		fmt.Printf("  %-16s q=%8.4f  u=%8.4f\n", name, h.Angle(0), h.Velocity(0))
	}
	return nil
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	store := snapshotStore()
	ids, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORLD\tSIM TIME\tCREATED\tJOINTS")
	for _, id := range ids {
		snap, err := store.Get(cmd.Context(), id)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.3fs\t%s\t%d\n", snap.ID, snap.World, snap.Time, snap.Created.Format("2006-01-02 15:04:05"), len(snap.Joints))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return errors.New("need at least one --param")
	}
	grid, err := sweep.ParseGrid(sweepParams)
	if err != nil {
		return err
	}
	// fail on a bad world before fanning out
	if _, err := loadConfig(args); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	points, runErr := sweep.NewRunner(workers, logger).Run(ctx, grid, func() (*config.Config, error) {
		return loadConfig(args)
	})
	if runErr != nil {
		logger.Warn("some points failed", zap.Error(runErr))
	}

	ranked := sweep.Rank(points, sweepMetric)
	if len(ranked) == 0 {
		return fmt.Errorf("no point produced %s", sweepMetric)
	}

	names := grid.Names()
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\tRESTARTS\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for i, p := range ranked {
		cols := make([]string, len(names))
		for j, n := range names {
			cols[j] = fmt.Sprintf("%g", p.Params[n])
		}
		fmt.Fprintf(w, "%d\t%s\t%.6f\t%d\n", i+1, strings.Join(cols, "\t"), p.Metrics[sweepMetric], p.Restarts)
	}
	return w.Flush()
}
