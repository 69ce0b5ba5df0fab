package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gogpu/gg"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dragonzoom/internal/automation"
	"github.com/san-kum/dragonzoom/internal/camera"
	"github.com/san-kum/dragonzoom/internal/config"
	"github.com/san-kum/dragonzoom/internal/dragon"
	"github.com/san-kum/dragonzoom/internal/export"
	"github.com/san-kum/dragonzoom/internal/optim"
	"github.com/san-kum/dragonzoom/internal/render"
	"github.com/san-kum/dragonzoom/internal/storage"
	"github.com/san-kum/dragonzoom/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	// Screen and timing
	width    int
	height   int
	duration float64
	fps      int
	margin   float64
	minScale float64
	// Fitting
	samples      int
	fitScale     bool
	fitTranslate bool
	hops         int
	seed         uint64
	fromRun      string
	// Output
	outDir  string
	workers int
	outPath string
	format  string
	asJSON  bool
	// Preview
	cols  int
	rows  int
	speed float64
	theme string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dragonzoom",
		Short:         "render an endlessly growing dragon curve",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dragonzoom", "data directory for fit runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render the animation to numbered PNG frames",
		RunE:  renderFrames,
	}
	addCameraFlags(renderCmd)
	addFitFlags(renderCmd)
	renderCmd.Flags().StringVar(&outDir, "out", config.DefaultOutputDir, "output directory")
	renderCmd.Flags().IntVar(&workers, "workers", 0, "frames rendered concurrently (0 = one per CPU)")
	renderCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frames per second")

	stillCmd := &cobra.Command{
		Use:   "still [t]",
		Short: "render a single frame at animation time t",
		Args:  cobra.ExactArgs(1),
		RunE:  renderStill,
	}
	addCameraFlags(stillCmd)
	addFitFlags(stillCmd)
	stillCmd.Flags().StringVarP(&outPath, "out", "o", "still.png", "output file")
	stillCmd.Flags().StringVar(&format, "format", "", "png or svg (default: from file extension)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "render the stills scripted in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addCameraFlags(batchCmd)
	addFitFlags(batchCmd)

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit the camera functions and save the run",
		RunE:  runFit,
	}
	addCameraFlags(fitCmd)
	addFitFlags(fitCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list fit runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot raw against fitted camera functions of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "play the animation in the terminal",
		RunE:  runPreview,
	}
	addCameraFlags(previewCmd)
	addFitFlags(previewCmd)
	previewCmd.Flags().IntVar(&cols, "cols", 80, "canvas width in cells")
	previewCmd.Flags().IntVar(&rows, "rows", 24, "canvas height in cells")
	previewCmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	previewCmd.Flags().Float64Var(&speed, "speed", 1, "playback speed")
	previewCmd.Flags().StringVar(&theme, "theme", viz.ThemeVermilion.Name, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	boundsCmd := &cobra.Command{
		Use:   "bounds [tau]",
		Short: "print the bounding box of the curve up to parametric time tau",
		Args:  cobra.ExactArgs(1),
		RunE:  printBounds,
	}
	boundsCmd.Flags().BoolVar(&asJSON, "json", false, "print the polyline and bounds as JSON")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tDURATION\tFPS\tSAMPLES")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%dx%d\t%.0fs\t%d\t%d\n",
					name, cfg.Screen.Width, cfg.Screen.Height, cfg.Duration, cfg.FPS, cfg.Fit.Samples)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(renderCmd, stillCmd, batchCmd, fitCmd, listCmd, plotCmd, previewCmd, boundsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addCameraFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "frame width in pixels")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "frame height in pixels")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "animation duration in seconds")
	cmd.Flags().Float64Var(&margin, "margin", config.DefaultMargin, "screen margin fraction")
	cmd.Flags().Float64Var(&minScale, "min-scale", config.DefaultMinScale, "minimum zoom scale")
}

func addFitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "fit sample intervals")
	cmd.Flags().BoolVar(&fitScale, "fit-scale", true, "fit the scale function")
	cmd.Flags().BoolVar(&fitTranslate, "fit-translate", false, "fit the translate function")
	cmd.Flags().IntVar(&hops, "hops", config.DefaultHops, "basin hopping iterations for the translate fit")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "basin hopping seed")
	cmd.Flags().StringVar(&fromRun, "run", "", "reuse the coefficients of a saved fit run (\"latest\" for the newest)")
}

// loadConfig layers defaults, then the preset, then the config file, then
// explicitly set flags. Each layer only overrides what it sets.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Screen.Width = width
	}
	if flags.Changed("height") {
		cfg.Screen.Height = height
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("margin") {
		cfg.Margin = margin
	}
	if flags.Changed("min-scale") {
		cfg.MinScale = minScale
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("samples") {
		cfg.Fit.Samples = samples
	}
	if flags.Changed("fit-scale") {
		cfg.Fit.Scale = fitScale
	}
	if flags.Changed("fit-translate") {
		cfg.Fit.Translate = fitTranslate
	}
	if flags.Changed("hops") {
		cfg.Fit.Hops = hops
	}
	if flags.Changed("seed") {
		cfg.Fit.Seed = seed
	}
	if flags.Changed("out") && cmd.Name() == "render" {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("workers") {
		cfg.Output.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gg.SetLogger(logger)
	return logger, nil
}

type fits struct {
	scale     *camera.ScaleFit
	translate *camera.TranslateFit
}

// setupCamera builds the camera for cfg and installs fitted functions,
// either from a saved run or by fitting now.
func setupCamera(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*camera.Camera, fits, error) {
	bh := optim.DefaultBasinHopping()
	bh.Hops = cfg.Fit.Hops
	bh.StepSize = cfg.Fit.StepSize
	bh.Temperature = cfg.Fit.Temperature
	bh.Seed = cfg.Fit.Seed

	cam, err := camera.New(dragon.New(), cfg.Camera(), camera.WithLogger(logger), camera.WithBasinHopping(bh))
	if err != nil {
		return nil, fits{}, err
	}

	if fromRun != "" {
		st := storage.New(dataDir)
		var meta *storage.RunMetadata
		if fromRun == "latest" {
			meta, err = st.Latest()
		} else {
			meta, err = st.Load(fromRun)
		}
		if err != nil {
			return nil, fits{}, err
		}
		if meta.Settings.Camera() != cfg.Camera() {
			logger.Warn("run was fitted with different camera settings", "run", meta.ID,
				"run_settings", meta.Settings, "settings", cfg.Camera())
		}
		if err := meta.Install(cam); err != nil {
			return nil, fits{}, err
		}
		logger.Info("installed fit run", "run", meta.ID, "scale", cam.ScaleKind(), "translate", cam.TranslateKind())
		return cam, fits{}, nil
	}

	var f fits
	if cfg.Fit.Scale {
		if f.scale, err = cam.FitScale(ctx, cfg.Fit.Samples); err != nil {
			return nil, fits{}, fmt.Errorf("scale fit: %w", err)
		}
	}
	if cfg.Fit.Translate {
		if f.translate, err = cam.FitTranslate(ctx, cfg.Fit.Samples); err != nil {
			return nil, fits{}, fmt.Errorf("translate fit: %w", err)
		}
	}
	return cam, f, nil
}

func prepare(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, *slog.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	return ctx, cancel, cfg, logger, nil
}

func renderFrames(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	cam, _, err := setupCamera(ctx, cfg, logger)
	if err != nil {
		return err
	}

	p := &render.Pipeline{
		Camera:   cam,
		Style:    render.ParseStyle(cfg.Style.Background, cfg.Style.Stroke),
		Width:    cfg.Screen.Width,
		Height:   cfg.Screen.Height,
		FPS:      cfg.FPS,
		Duration: cfg.Duration,
		Workers:  cfg.Output.Workers,
		Dir:      cfg.Output.Dir,
		Logger:   logger,
	}

	fmt.Printf("rendering %d frames at %dx%d...\n", len(render.FrameTimes(cfg.FPS, cfg.Duration)), cfg.Screen.Width, cfg.Screen.Height)
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", summary.Elapsed)
	fmt.Printf("frames: %d\n", summary.Frames)
	fmt.Printf("output: %s\n", filepath.Join(summary.Dir, "frame_%06d.png"))
	return nil
}

func renderStill(cmd *cobra.Command, args []string) error {
	t, err := parseTime(args[0])
	if err != nil {
		return err
	}

	ctx, cancel, cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	cam, _, err := setupCamera(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tg := target(cam, cfg)
	if err := tg.Render(automation.Shot{T: t, Out: outPath, Format: format}); err != nil {
		return err
	}

	view := cam.Apply(t)
	fmt.Printf("t=%.3fs tau=%.3f scale=%.6g translate=(%.6g, %.6g)\n", t, camera.WarpTime(t), view.Scale, view.Translate.X, view.Translate.Y)
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func target(cam *camera.Camera, cfg *config.Config) automation.Target {
	return automation.Target{
		Camera:     cam,
		Width:      cfg.Screen.Width,
		Height:     cfg.Screen.Height,
		Background: cfg.Style.Background,
		Stroke:     cfg.Style.Stroke,
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel, cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	cam, _, err := setupCamera(ctx, cfg, logger)
	if err != nil {
		return err
	}

	done, err := automation.Run(ctx, scenario, target(cam, cfg), logger)
	fmt.Printf("scenario %q: %d shots written\n", scenario.Name, len(done))
	return err
}

func runFit(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	if !cfg.Fit.Scale && !cfg.Fit.Translate {
		return fmt.Errorf("nothing to fit: enable --fit-scale or --fit-translate")
	}
	if fromRun != "" {
		return fmt.Errorf("--run reuses a saved fit; fit always fits afresh")
	}

	cam, f, err := setupCamera(ctx, cfg, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	sampled := cam.Samples(cfg.Fit.Samples)
	runID, err := st.Save(storage.Run{
		Settings:  cam.Settings(),
		Scale:     f.scale,
		Translate: f.translate,
		Samples:   sampled,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	if f.scale != nil {
		fmt.Printf("\nscale: exp(%.6g + %.6g·t + %.6g·√t)  [%s]\n", f.scale.Coeffs[0], f.scale.Coeffs[1], f.scale.Coeffs[2], f.scale.Status)
		printMetrics(f.scale.Metrics)
	}
	if f.translate != nil {
		fmt.Printf("\ntranslate: %v  [%s, %d/%d hops accepted]\n", f.translate.Coeffs, f.translate.Status, f.translate.Accepted, f.translate.Hops)
		printMetrics(f.translate.Metrics)
	}
	fmt.Println()
	fmt.Println(scaleGraph(sampled))
	return nil
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, m[name])
	}
	w.Flush()
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
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tDURATION\tSAMPLES\tSCALE\tTRANSLATE\tMAX LOG RESIDUAL")

	for _, run := range runs {
		maxLog := "-"
		if v, ok := run.Metrics["scale_log_residual_max"]; ok {
			maxLog = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%.0fx%.0f\t%.1fs\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Settings.ScreenWidth,
			run.Settings.ScreenHeight,
			run.Settings.Duration,
			run.Samples,
			fitStatus(run.Scale),
			fitStatus(run.Translate),
			maxLog,
		)
	}

	return w.Flush()
}

func fitStatus(r *storage.FitRecord) string {
	if r == nil {
		return "raw"
	}
	return r.Status
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	var meta *storage.RunMetadata
	var err error
	if len(args) == 0 {
		meta, err = st.Latest()
	} else {
		meta, err = st.Load(args[0])
	}
	if err != nil {
		return err
	}

	sampled, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}
	if len(sampled) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(sampled))

	fmt.Println(scaleGraph(sampled))
	fmt.Println()

	rawX := make([]float64, len(sampled))
	fitX := make([]float64, len(sampled))
	rawY := make([]float64, len(sampled))
	fitY := make([]float64, len(sampled))
	for i, s := range sampled {
		rawX[i], fitX[i] = s.RawTranslate.X, s.Translate.X
		rawY[i], fitY[i] = s.RawTranslate.Y, s.Translate.Y
	}
	fmt.Println(asciigraph.PlotMany([][]float64{rawX, fitX},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("translate x: raw (red) vs active (blue)"),
	))
	fmt.Println()
	fmt.Println(asciigraph.PlotMany([][]float64{rawY, fitY},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("translate y: raw (red) vs active (blue)"),
	))
	return nil
}

func scaleGraph(sampled []camera.Sample) string {
	raw := make([]float64, len(sampled))
	fitted := make([]float64, len(sampled))
	for i, s := range sampled {
		raw[i] = math.Log10(s.RawScale)
		fitted[i] = math.Log10(s.Scale)
	}
	return asciigraph.PlotMany([][]float64{raw, fitted},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption("log10 scale: raw (red) vs active (blue)"),
	)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	cam, _, err := setupCamera(ctx, cfg, logger)
	if err != nil {
		return err
	}

	m := viz.NewPreviewModel(cam, viz.PreviewOptions{
		Cols:  cols,
		Rows:  rows,
		FPS:   fps,
		Speed: speed,
		Theme: theme,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func printBounds(cmd *cobra.Command, args []string) error {
	tau, err := parseTime(args[0])
	if err != nil {
		return err
	}

	store := dragon.New()
	if asJSON {
		return export.CurveJSON(os.Stdout, store, tau)
	}

	b := store.Bounds(tau)
	end := store.PointAt(tau)
	fmt.Printf("tau: %g\n", tau)
	fmt.Printf("generation: %d (%d vertices buffered)\n", store.Generation(), store.Len())
	fmt.Printf("endpoint: (%g, %g)\n", end.X, end.Y)
	fmt.Printf("bounds: x [%g, %g]  y [%g, %g]\n", b.MinX, b.MaxX, b.MinY, b.MaxY)
	fmt.Printf("size: %g x %g\n", b.Width(), b.Height())
	return nil
}

func parseTime(s string) (float64, error) {
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("time must be a finite non-negative number, got %s", s)
	}
	return t, nil
}
