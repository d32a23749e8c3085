package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gogpu/gg"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/partvid/internal/analysis"
	"github.com/san-kum/partvid/internal/config"
	"github.com/san-kum/partvid/internal/dynamo"
	"github.com/san-kum/partvid/internal/pipeline"
	"github.com/san-kum/partvid/internal/render"
	"github.com/san-kum/partvid/internal/steplog"
	"github.com/san-kum/partvid/internal/storage"
	"github.com/san-kum/partvid/internal/tui"
)

var (
	dataDir string
	verbose bool

	boardSizes  []float64
	rectHeights []float64
	videoFPS    int
	width       int
	height      int
	margin      float64
	theme       string
	labels      string
	counterStep int
	noInterp    bool
	outDir      string
	ffmpegPath  string
	crf         int
	jobs        int
	progress    bool
	// Config file
	configFile string
	// Preset name
	preset string
	// Resolved config output
	saveConfig string

	boardSize float64
	csvFile   string
	snapshot  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "partvid",
		Short:        "render particle event logs to video",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "render record directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	renderCmd := &cobra.Command{
		Use:   "render [inputs...]",
		Short: "render event logs to mp4",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().Float64SliceVarP(&boardSizes, "board-size", "S", nil, "side of the square board, one value or one per input")
	renderCmd.Flags().Float64SliceVarP(&rectHeights, "rect-height", "L", nil, "antechamber height, one value or one per input")
	renderCmd.Flags().IntVar(&videoFPS, "video-fps", config.DefaultFPS, "output frame rate")
	renderCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "frame width in pixels")
	renderCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "frame height in pixels")
	renderCmd.Flags().Float64Var(&margin, "margin", config.DefaultMargin, "canvas margin in pixels")
	renderCmd.Flags().StringVar(&theme, "theme", config.ThemeLight, "color theme (light, dark)")
	renderCmd.Flags().StringVar(&labels, "labels", config.LabelsOff, "particle labels (off, index)")
	renderCmd.Flags().IntVar(&counterStep, "counter-step", config.DefaultCounterStep, "counter increment per event")
	renderCmd.Flags().BoolVar(&noInterp, "no-interpolate", false, "emit event frames only")
	renderCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for videos")
	renderCmd.Flags().StringVar(&ffmpegPath, "ffmpeg", config.DefaultEncoder, "encoder binary")
	renderCmd.Flags().IntVar(&crf, "crf", config.DefaultCRF, "x264 constant rate factor")
	renderCmd.Flags().IntVar(&jobs, "jobs", 1, "files rendered concurrently")
	renderCmd.Flags().BoolVar(&progress, "progress", false, "show progress view")
	renderCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	renderCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	renderCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved configuration to a yaml file")

	inspectCmd := &cobra.Command{
		Use:   "inspect [input]",
		Short: "summarize an event log",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().Float64VarP(&boardSize, "board-size", "S", 0, "side of the square board")
	inspectCmd.Flags().IntVar(&videoFPS, "video-fps", config.DefaultFPS, "frame rate for the frame estimate")
	inspectCmd.Flags().BoolVar(&noInterp, "no-interpolate", false, "estimate event frames only")
	inspectCmd.Flags().StringVar(&csvFile, "csv", "", "write per-timestep samples to CSV")
	inspectCmd.Flags().BoolVar(&snapshot, "snapshot", false, "draw the last timestep")
	inspectCmd.MarkFlagRequired("board-size")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTHEME\tLABELS\tSTEP\tINTERP\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\n", name, p.Theme, p.Labels, p.CounterStep, p.Interpolate, p.Description)
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list render records",
		Args:  cobra.NoArgs,
		RunE:  listRecords,
	}

	rootCmd.AddCommand(renderCmd, inspectCmd, presetsCmd, listCmd)
	return rootCmd
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveConfig layers defaults, the preset, the config file and the flags
// the user set explicitly, in that order.
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(&cfg.Render)
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, err
		}
	}

	r := &cfg.Render
	set := map[string]func(){
		"video-fps":      func() { r.FPS = videoFPS },
		"width":          func() { r.Width = width },
		"height":         func() { r.Height = height },
		"margin":         func() { r.Margin = margin },
		"theme":          func() { r.Theme = theme },
		"labels":         func() { r.Labels = labels },
		"counter-step":   func() { r.CounterStep = counterStep },
		"no-interpolate": func() { r.Interpolate = !noInterp },
		"out-dir":        func() { cfg.OutDir = outDir },
		"ffmpeg":         func() { cfg.Encoder.Binary = ffmpegPath },
		"crf":            func() { cfg.Encoder.CRF = crf },
		"jobs":           func() { cfg.Jobs = jobs },
		"data":           func() { cfg.DataDir = dataDir },
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply()
		}
	})

	return cfg, nil
}

// planJobs validates the whole configuration before any file is touched.
func planJobs(cfg *config.Config, inputs []string) ([]pipeline.Job, error) {
	boards, err := config.PerInput("board-size", boardSizes, len(inputs))
	if err != nil {
		return nil, err
	}
	rects, err := config.PerInput("rect-height", rectHeights, len(inputs))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs := pipeline.NewJobs(inputs, boards, rects, cfg.Render, cfg.OutDir)
	owner := make(map[string]string, len(jobs))
	for _, job := range jobs {
		if err := job.Render.Validate(); err != nil {
			return nil, err
		}
		if prev, ok := owner[job.Output]; ok {
			return nil, dynamo.Invalid("inputs", "%s and %s both render to %s", prev, job.Input, job.Output)
		}
		owner[job.Output] = job.Input
	}
	return jobs, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	gg.SetLogger(logger)

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	jobList, err := planJobs(cfg, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
		logger.Debug("config saved", "path", saveConfig)
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return err
	}

	rz, err := render.NewGG()
	if err != nil {
		return err
	}
	defer rz.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context, obs pipeline.Observer) ([]pipeline.Result, error) {
		runner := &pipeline.Runner{
			Rasterizer: rz,
			Encoder:    cfg.Encoder,
			Jobs:       cfg.Jobs,
			Logger:     logger,
			Observer:   obs,
		}
		return runner.RunAll(ctx, jobList)
	}

	var results []pipeline.Result
	if progress {
		results, err = tui.Run(ctx, jobList, run)
	} else {
		results, err = run(ctx, nil)
	}

	st := storage.New(cfg.DataDir)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Video saved as %s\n", res.Job.Output)
		if _, serr := st.Save(recordFor(res)); serr != nil {
			logger.Warn("save render record", "input", res.Job.Input, "err", serr)
		}
	}

	return err
}

func recordFor(res pipeline.Result) storage.Record {
	return storage.Record{
		Input:     res.Job.Input,
		Output:    res.Job.Output,
		Frames:    res.Frames,
		Events:    res.Events,
		Timesteps: res.Timesteps,
		SimStart:  res.Start,
		SimEnd:    res.End,
		Elapsed:   res.Elapsed.Seconds(),
		Render:    res.Job.Render,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	if !(boardSize > 0) {
		return fmt.Errorf("board-size: must be positive, got %g", boardSize)
	}

	parser, f, err := steplog.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sum, err := analysis.Inspect(parser, boardSize)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Title.Render(filepath.Base(args[0])))
	fmt.Fprintf(out, "timesteps: %d\n", sum.Timesteps)
	if sum.MinParticles == sum.MaxParticles {
		fmt.Fprintf(out, "particles: %d\n", sum.MaxParticles)
	} else {
		fmt.Fprintf(out, "particles: %d..%d\n", sum.MinParticles, sum.MaxParticles)
	}
	fmt.Fprintf(out, "time: %g .. %g (span %g)\n", sum.Start, sum.End, sum.Span())
	fmt.Fprintf(out, "mean event interval: %g\n", sum.MeanInterval())
	fmt.Fprintf(out, "frames at %d fps: %d\n\n", videoFPS, sum.ExpectedFrames(videoFPS, !noInterp))

	if shares := sum.Shares(); len(shares) > 1 {
		graph := asciigraph.Plot(shares,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("share of particles in the square"),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	if snapshot {
		fmt.Fprintf(out, "t = %g\n", sum.Last.Time)
		fmt.Fprint(out, analysis.Snapshot(sum.Last, boardSize, 80, 20))
	}

	if csvFile != "" {
		file, err := os.Create(csvFile)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := analysis.WriteCSV(file, sum.Samples); err != nil {
			return err
		}
		fmt.Fprintf(out, "samples written to %s\n", csvFile)
		return file.Close()
	}

	return nil
}

func listRecords(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	recs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "no renders found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tOUTPUT\tTIME\tFRAMES\tEVENTS\tSPAN\tFPS\tWALL")

	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.3f\t%d\t%s\n",
			rec.ID,
			rec.Input,
			rec.Output,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Frames,
			rec.Events,
			rec.Span(),
			rec.Render.FPS,
			(time.Duration(rec.Elapsed * float64(time.Second))).Round(time.Millisecond),
		)
	}

	return w.Flush()
}
