package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/verletsim/internal/analysis"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/gui"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/optim"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	logLevel    string
	logFormat   string
	configFile  string
	preset      string
	name        string
	frames      int
	dt          float64
	seed        uint64
	sampleEvery int
	column      string
	benchRuns   int
	benchJobs   int
	sweepParams []string
	sweepMetric string
	maximize    bool
)

var logger = slog.Default()

var columns = map[string]func(metrics.Sample) float64{
	"kinetic":    func(s metrics.Sample) float64 { return s.Kinetic },
	"overlap":    func(s metrics.Sample) float64 { return s.MaxOverlap },
	"strain":     func(s metrics.Sample) float64 { return s.MaxStrain },
	"escaped":    func(s metrics.Sample) float64 { return float64(s.Escaped) },
	"particles":  func(s metrics.Sample) float64 { return float64(s.Particles) },
	"collisions": func(s metrics.Sample) float64 { return float64(s.Collisions) },
	"migrations": func(s metrics.Sample) float64 { return float64(s.Migrations) },
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "verletsim",
		Short: "verlet particle sandbox",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel, logFormat)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verletsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene headless and save the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&name, "name", "", "run name (defaults to the preset or \"run\")")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "frames between samples")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scene in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return viz.Run(cfg)
		},
	}
	addSceneFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run a scene in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return gui.Run(cfg, logger)
		},
	}
	addSceneFlags(guiCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a sample column of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "kinetic", "column to plot ("+strings.Join(columnNames(), ", ")+")")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final frame of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportSVG(args[0], os.Stdout)
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFRAMES\tEVENTS")
			for _, p := range config.ListPresets() {
				cfg := config.GetPreset(p)
				fmt.Fprintf(w, "%s\t%d\t%d\n", p, cfg.Run.Frames, len(cfg.Events))
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time concurrent runs of a scene",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "number of runs")
	benchCmd.Flags().IntVar(&benchJobs, "jobs", 0, "concurrent runs (0 = unbounded)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a sample column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "kinetic", "column to analyze ("+strings.Join(columnNames(), ", ")+")")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over world parameters",
		Long: "Runs the scene once per combination of parameter values and reports the best.\n" +
			"Parameters are given as name=v1,v2,... with names from: " + strings.Join(optim.Params(), ", "),
		Args: cobra.NoArgs,
		RunE: sweepScene,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter values, e.g. sub_steps=1,2,4,8 (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "max_overlap", "summary metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer the largest metric value")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame time step")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
}

// loadConfig resolves the scene: a config file wins over a preset, and
// explicitly set flags win over both.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Lookup("sample-every") != nil && flags.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Frames:        cfg.Run.Frames,
		Dt:            cfg.Run.Dt,
		SampleEvery:   cfg.Run.SampleEvery,
		Seed:          cfg.Run.Seed,
		ValidateState: cfg.Run.Validate,
	}
}

func newSimulator(cfg *config.Config) (*sim.Simulator, *physics.Engine, error) {
	engine, err := physics.New(cfg.World.Engine())
	if err != nil {
		return nil, nil, err
	}
	script, err := cfg.Script()
	if err != nil {
		return nil, nil, err
	}
	s := sim.New(engine, script)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	s.SetLogger(logger)
	return s, engine, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if name == "" {
		name = preset
	}
	if name == "" {
		name = "run"
	}

	st := storage.New(dataDir)
	st.SetLogger(logger)
	if err := st.Init(); err != nil {
		return err
	}

	s, engine, err := newSimulator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %d frames...\n", name, cfg.Run.Frames)
	start := time.Now()

	result, err := s.Run(ctx, simConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, engine, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("particles: %d\n", engine.Len())
	fmt.Printf("samples: %d\n", len(result.Samples))
	fmt.Println("\nmetrics:")
	for _, k := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %v\n", e)
	}

	return nil
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFRAMES\tDT\tPARTICLES\tLINKS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			run.Particles,
			run.Links,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	field, ok := columns[column]
	if !ok {
		return fmt.Errorf("unknown column: %s (available: %v)", column, columnNames())
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(samples))

	graph := asciigraph.Plot(metrics.Column(samples, field),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(column+" vs frame"),
	)
	fmt.Println(graph)

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	field, ok := columns[column]
	if !ok {
		return fmt.Errorf("unknown column: %s (available: %v)", column, columnNames())
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	// the final frame is always sampled and may fall off the grid
	every := max(meta.SampleEvery, 1)
	regular := slices.DeleteFunc(slices.Clone(samples), func(s metrics.Sample) bool {
		return s.Frame%every != 0
	})
	if len(regular) < 4 {
		return fmt.Errorf("need at least 4 samples, got %d", len(regular))
	}

	bins := analysis.Spectrum(metrics.Column(regular, field), meta.Dt*float64(every))

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("name: %s\n\n", meta.Name)

	graph := asciigraph.Plot(analysis.Amplitudes(bins),
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude spectrum ("+column+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, amp := analysis.Dominant(bins)
	if freq == 0 {
		fmt.Println("no dominant frequency")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f hz (amplitude %.4g)\n", freq, amp)
	fmt.Printf("period: %.3f s\n", 1.0/freq)
	return nil
}

func parseParam(arg string) (string, []float64, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || list == "" {
		return "", nil, fmt.Errorf("invalid parameter %q, want name=v1,v2", arg)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, arg := range sweepParams {
		name, values, err := parseParam(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if maximize {
		g.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := func(c *config.Config) (*sim.Simulator, error) {
		s, _, err := newSimulator(c)
		return s, err
	}
	best, val, points, err := g.Search(ctx, cfg, build, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, p := range points {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(p.Params[n], 'g', -1, 64))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			row = append(row, strconv.FormatFloat(p.Value, 'g', 6, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best == nil {
		return fmt.Errorf("no parameter combination completed")
	}
	fmt.Printf("\nbest %s = %g at %v\n", sweepMetric, val, best)
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if benchRuns < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", benchRuns)
	}

	factory := func(run int) (*sim.Simulator, error) {
		s, _, err := newSimulator(cfg)
		return s, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := sim.NewEnsemble(factory, benchRuns, benchJobs).Run(ctx, simConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tFRAMES\tSPAWNED\tMEAN KE\tPEAK OVERLAP\tERRORS")
	total := 0
	for i, r := range results {
		total += r.Frames
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%.4f\t%d\n",
			i, r.Frames, r.Spawned, r.Summary.MeanKinetic, r.Summary.PeakOverlap, len(r.Errors))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d frames in %v (%.0f frames/sec)\n", total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func columnNames() []string {
	return sortedKeys(columns)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
