package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/ensemble"
	"github.com/san-kum/trackprop/internal/export"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/storage"
	"github.com/san-kum/trackprop/internal/track"
	"github.com/san-kum/trackprop/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	label      string

	bz        float64
	fieldName string
	tolerance float64
	planes    int
	spacing   float64
	momentum  float64
	charge    float64
	pathLimit float64

	outFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trackprop",
		Short: "charged particle track propagation through a magnetic field",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trackprop", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a single track through the detector",
		RunE:  runTrack,
	}
	addTrackFlags(runCmd)
	runCmd.Flags().StringVar(&label, "label", "single", "run label")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "propagate a direction grid of tracks",
		RunE:  runSweep,
	}
	addTrackFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&label, "label", "sweep", "run label")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a run to an image file",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&outFile, "out", "trajectory.png", "output image path")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a propagation step by step",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}
	addTrackFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the stepper across tolerances",
		RunE:  benchStepper,
	}
	addTrackFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, plotCmd, renderCmd, exportCmd, liveCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTrackFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&fieldName, "field", "", "field model (constant, solenoid, vacuum)")
	cmd.Flags().Float64Var(&bz, "bz", config.DefaultBz, "axial field strength")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "step error tolerance")
	cmd.Flags().IntVar(&planes, "planes", 0, "number of detector planes")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "plane spacing")
	cmd.Flags().Float64Var(&momentum, "momentum", config.DefaultMomentum, "track momentum")
	cmd.Flags().Float64Var(&charge, "charge", 1, "track charge")
	cmd.Flags().Float64Var(&pathLimit, "path-limit", 0, "abort after this path length")
}

// buildConfig layers preset, config file and command line flags, in that
// order of precedence (flags win).
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("field") {
		cfg.Field.Model = fieldName
	}
	if cmd.Flags().Changed("bz") {
		cfg.Field.Bz = bz
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Stepper.Tolerance = tolerance
	}
	if cmd.Flags().Changed("planes") {
		cfg.Detector.Planes = planes
	}
	if cmd.Flags().Changed("spacing") {
		cfg.Detector.Spacing = spacing
	}
	if cmd.Flags().Changed("momentum") {
		cfg.Track.Px = momentum
		cfg.Ensemble.Momentum = momentum
	}
	if cmd.Flags().Changed("charge") {
		cfg.Track.Charge = charge
		cfg.Ensemble.Charge = charge
	}
	if cmd.Flags().Changed("path-limit") {
		cfg.PathLimit = pathLimit
	}
	return cfg, nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	field, err := cfg.FieldProvider()
	if err != nil {
		return err
	}

	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	st := stepper.NewState(cfg.InitTrack())
	nav := propagator.NewSequenceNavigator(cfg.Surfaces()...)
	ps := propagator.NewState(st, nav)

	logger := &propagator.StepLogger{}
	actors := []propagator.Actor{
		propagator.ParameterTransporter{},
		propagator.ParameterResetter{},
		logger,
	}
	if cfg.PathLimit > 0 {
		actors = append(actors, propagator.PathLimitAborter{Limit: cfg.PathLimit})
	}

	prop := propagator.New(stepper.NewRK(field, cfg.StepperConfig()), actors...)

	fmt.Println("propagating...")
	start := time.Now()
	propErr := prop.Propagate(ps)
	elapsed := time.Since(start)

	id, err := store.SaveRun(storage.RunMetadata{
		Label:     label,
		Field:     cfg.Field.Model,
		Tolerance: cfg.Stepper.Tolerance,
		Planes:    cfg.Detector.Planes,
	}, logger.Records, nil)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s (%v)\n", ps.Status, elapsed)
	fmt.Printf("run id: %s\n", id)
	fmt.Printf("steps: %d  path: %.4f\n", ps.Steps, st.PathLength)
	if propErr != nil {
		fmt.Printf("aborted: %v\n", propErr)
		return nil
	}
	b := st.Bound
	fmt.Printf("final surface: %d\n", b.SurfaceID)
	fmt.Printf("  loc=(%.4f, %.4f)  phi=%.4f  theta=%.4f  q/p=%.4f  t=%.4f\n",
		b.Loc0(), b.Loc1(), b.Phi(), b.Theta(), b.QOverP(), b.Time())
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	field, err := cfg.FieldProvider()
	if err != nil {
		return err
	}

	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := track.Generator{
		ThetaSteps: cfg.Ensemble.ThetaSteps,
		PhiSteps:   cfg.Ensemble.PhiSteps,
		Origin:     r3.Vec{X: cfg.Track.X, Y: cfg.Track.Y, Z: cfg.Track.Z},
		P:          cfg.Ensemble.Momentum,
		Charge:     cfg.Ensemble.Charge,
	}
	tracks := gen.Tracks()

	ens := ensemble.New(field, cfg.StepperConfig(), cfg.Surfaces())
	ens.PathLimit = cfg.PathLimit

	fmt.Printf("propagating %d tracks...\n", len(tracks))
	start := time.Now()
	results, err := ens.Run(context.Background(), tracks)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	id, err := store.SaveRun(storage.RunMetadata{
		Label:     label,
		Field:     cfg.Field.Model,
		Tolerance: cfg.Stepper.Tolerance,
		Planes:    cfg.Detector.Planes,
	}, nil, results)
	if err != nil {
		return err
	}

	succeeded, steps := 0, 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
		steps += r.Steps
	}
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", id)
	fmt.Printf("tracks: %d  reached all planes: %d  total steps: %d\n",
		len(results), succeeded, steps)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tFIELD\tPLANES\tTRACKS\tOK")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID, run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Field, run.Planes, run.Tracks, run.Succeeded)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	steps, err := store.LoadSteps(args[0])
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("run has no step records")
	}

	fmt.Printf("run: %s (%s)\n", meta.ID, meta.Label)
	fmt.Printf("steps: %d\n\n", len(steps))

	y := make([]float64, len(steps))
	h := make([]float64, len(steps))
	for i, s := range steps {
		y[i] = s.Pos.Y
		h[i] = math.Abs(s.StepSize)
	}

	fmt.Println(asciigraph.Plot(y,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("y position vs step"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(h,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("accepted step size"),
	))
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	steps, err := store.LoadSteps(args[0])
	if err != nil {
		return err
	}
	if err := export.TrajectoryPlot(outFile, steps); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	steps, err := store.LoadSteps(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, steps)
}

func benchStepper(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	field, err := cfg.FieldProvider()
	if err != nil {
		return err
	}

	tolerances := []float64{1e-2, 1e-4, 1e-6}
	limits := []float64{10, 50, 100}

	fmt.Println("benchmarking stepper")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOLERANCE\tPATH\tSTEPS\tTIME\tSTEPS/SEC")

	for _, tol := range tolerances {
		for _, limit := range limits {
			sc := cfg.StepperConfig()
			sc.Tolerance = tol
			rk := stepper.NewRK(field, sc)
			st := stepper.NewState(cfg.InitTrack())
			st.Constraints.Set(stepper.ConstraintUser, 1)

			steps := 0
			start := time.Now()
			for st.PathLength < limit {
				st.StepSize = limit - st.PathLength
				if err := rk.Step(st); err != nil {
					return err
				}
				steps++
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.0e\t%.0f\t%d\t%v\t%.0f\n",
				tol, limit, steps, elapsed,
				float64(steps)/elapsed.Seconds())
		}
	}
	return w.Flush()
}
