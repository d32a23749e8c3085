// Package interp resamples sparse simulation events onto a constant frame rate.
package interp

import (
	"fmt"
	"iter"

	"github.com/san-kum/partvid/internal/dynamo"
)

// Frame is one picture in presentation order. Event frames carry the
// particles of an actual timestep; the others are extrapolated.
type Frame struct {
	Time       float64
	Particles  []dynamo.Particle
	Event      bool
	Counter    int
	HasCounter bool
}

// Synthetic yields t0+k*dt for k >= 1 while the value stays strictly below t1.
// Times are computed by multiplication so that rounding never accumulates.
func Synthetic(t0, t1, dt float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if dt <= 0 || t1 <= t0 {
			return
		}
		for k := 1; ; k++ {
			t := t0 + float64(k)*dt
			if t >= t1 || !yield(t) {
				return
			}
		}
	}
}

// Extrapolate moves every particle forward by e along its pre-event velocity.
// The input slice is left untouched.
func Extrapolate(ps []dynamo.Particle, e float64) []dynamo.Particle {
	out := make([]dynamo.Particle, len(ps))
	for i, p := range ps {
		out[i] = p.Advance(e)
	}
	return out
}

type Options struct {
	FPS         int
	CounterStep int
	Interpolate bool
}

func (o Options) Validate() error {
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", o.FPS)
	}
	if o.CounterStep <= 0 {
		return fmt.Errorf("counter step must be positive, got %d", o.CounterStep)
	}
	return nil
}

// Resampler turns consecutive actual timesteps into frames. It keeps only the
// previous timestep and the event counter between calls.
type Resampler struct {
	opts    Options
	dt      float64
	prev    dynamo.Timestep
	started bool
	counter int
	counted bool
	frames  int
	events  int
}

func NewResampler(opts Options) (*Resampler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Resampler{opts: opts, dt: 1 / float64(opts.FPS)}, nil
}

// Push emits the frames owed for ts: synthetic frames since the previous
// timestep (when interpolation is on) followed by one event frame. The first
// timestep yields a single frame without a counter. Emission stops at the
// first error returned by emit.
func (r *Resampler) Push(ts dynamo.Timestep, emit func(Frame) error) error {
	if !r.started {
		r.started = true
		r.prev = ts
		return r.emit(emit, Frame{Time: ts.Time, Particles: ts.Particles, Event: true})
	}

	if ts.Time <= r.prev.Time {
		return fmt.Errorf("%w: %g after %g", dynamo.ErrTimeOrder, ts.Time, r.prev.Time)
	}

	if r.opts.Interpolate {
		for t := range Synthetic(r.prev.Time, ts.Time, r.dt) {
			f := Frame{
				Time:       t,
				Particles:  Extrapolate(r.prev.Particles, t-r.prev.Time),
				Counter:    r.counter,
				HasCounter: r.counted,
			}
			if err := r.emit(emit, f); err != nil {
				return err
			}
		}
	}

	r.counter += r.opts.CounterStep
	r.counted = true
	r.events++
	r.prev = ts
	return r.emit(emit, Frame{
		Time:       ts.Time,
		Particles:  ts.Particles,
		Event:      true,
		Counter:    r.counter,
		HasCounter: true,
	})
}

func (r *Resampler) emit(emit func(Frame) error, f Frame) error {
	if err := emit(f); err != nil {
		return err
	}
	r.frames++
	return nil
}

// Frames reports how many frames have been emitted successfully.
func (r *Resampler) Frames() int { return r.frames }

// Events reports how many event frames after the first timestep were emitted.
func (r *Resampler) Events() int { return r.events }
