package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/partvid/internal/config"
	"github.com/san-kum/partvid/internal/dynamo"
	"github.com/san-kum/partvid/internal/encoder"
	"github.com/san-kum/partvid/internal/geom"
	"github.com/san-kum/partvid/internal/interp"
	"github.com/san-kum/partvid/internal/render"
	"github.com/san-kum/partvid/internal/steplog"
)

// FrameSink is the encoder side of the pipeline.
type FrameSink interface {
	Write(ctx context.Context, frame []byte) error
	Close() error
	Abort() error
}

type SinkFactory func(ctx context.Context, o encoder.Options) (FrameSink, error)

// StartEncoder is the default SinkFactory.
func StartEncoder(ctx context.Context, o encoder.Options) (FrameSink, error) {
	return encoder.Start(ctx, o)
}

type Runner struct {
	Rasterizer render.Rasterizer
	Encoder    config.EncoderConfig
	Jobs       int
	Logger     *slog.Logger
	Observer   Observer
	OpenSink   SinkFactory
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Runner) observer() Observer {
	if r.Observer == nil {
		return nopObserver{}
	}
	return r.Observer
}

// RunAll renders every job, at most r.Jobs at a time. A failing job does not
// stop the others; all failures are joined into the returned error.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(max(r.Jobs, 1))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err}
				return nil
			}
			results[i] = r.Run(ctx, job)
			return nil
		})
	}
	g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}

// Run renders one job. Parse and encoder errors abort this job only; the
// partial video is removed.
func (r *Runner) Run(ctx context.Context, job Job) Result {
	start := time.Now()
	obs := r.observer()
	obs.OnStart(job)

	res, err := r.run(ctx, job)
	res.Job = job
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Input, err)
	}
	obs.OnDone(res)
	return res
}

func (r *Runner) run(ctx context.Context, job Job) (Result, error) {
	var res Result
	log := r.logger().With("input", job.Input)

	cfg := job.Render
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	tr := geom.NewTransform(cfg.BoardSize, cfg.RectHeight, cfg.Width, cfg.Height, cfg.Margin)
	if err := tr.Validate(); err != nil {
		return res, err
	}
	if !tr.Fits() {
		log.Warn("scene exceeds the canvas", "width", cfg.Width, "height", cfg.Height, "scale", tr.Scale)
	}

	resampler, err := interp.NewResampler(interp.Options{
		FPS:         cfg.FPS,
		CounterStep: cfg.CounterStep,
		Interpolate: cfg.Interpolate,
	})
	if err != nil {
		return res, err
	}

	parser, f, err := steplog.Open(job.Input)
	if err != nil {
		return res, err
	}
	defer f.Close()

	pool := render.NewFramePool(cfg.Width, cfg.Height)
	renderer := render.NewRenderer(cfg, tr, r.Rasterizer, pool)

	open := r.OpenSink
	if open == nil {
		open = StartEncoder
	}

	var sink FrameSink
	obs := r.observer()
	emit := func(fr interp.Frame) error {
		if sink == nil {
			s, err := open(ctx, encoder.Options{
				Binary:  r.Encoder.Binary,
				Output:  job.Output,
				Width:   cfg.Width,
				Height:  cfg.Height,
				FPS:     cfg.FPS,
				CRF:     r.Encoder.CRF,
				Preset:  r.Encoder.Preset,
				Depth:   r.Encoder.Depth,
				Logger:  log,
				Release: pool.Put,
			})
			if err != nil {
				return err
			}
			sink = s
			log.Debug("encoder started", "output", job.Output)
		}

		buf := renderer.Render(fr)
		if err := sink.Write(ctx, buf); err != nil {
			renderer.Release(buf)
			return err
		}
		obs.OnFrame(job, resampler.Frames()+1, fr.Time)
		return nil
	}

	abort := func(cause error) (Result, error) {
		res.Frames, res.Events = resampler.Frames(), resampler.Events()
		if sink != nil {
			if err := sink.Abort(); err != nil {
				log.Warn("abort encoder", "err", err)
			}
		}
		return res, cause
	}

	for {
		ts, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return abort(err)
		}
		if res.Timesteps == 0 {
			res.Start = ts.Time
		}
		res.Timesteps++
		res.End = ts.Time

		if err := resampler.Push(ts, emit); err != nil {
			return abort(err)
		}
	}

	res.Frames, res.Events = resampler.Frames(), resampler.Events()
	log.Debug("log parsed", "lines", parser.Line(), "timesteps", res.Timesteps)
	if sink == nil {
		return res, dynamo.ErrEmptyLog
	}
	if err := sink.Close(); err != nil {
		if rmErr := os.Remove(job.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn("remove failed output", "err", rmErr)
		}
		return res, err
	}

	log.Info("video saved", "output", job.Output, "frames", res.Frames, "events", res.Events)
	return res, nil
}
