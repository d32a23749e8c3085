package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/san-kum/partvid/internal/dynamo"
	"github.com/san-kum/partvid/internal/encoder"
	"github.com/san-kum/partvid/internal/pipeline"
	"github.com/san-kum/partvid/internal/render"
)

// stubRasterizer writes a digest of the drawing calls into the first bytes of
// each frame.
type stubRasterizer struct{}

func (stubRasterizer) NewSurface(w, h int) render.Surface { return &stubSurface{w: w, h: h} }

type stubSurface struct {
	w, h int
	log  bytes.Buffer
}

func (s *stubSurface) Clear(c string) { fmt.Fprintf(&s.log, "C%s;", c) }
func (s *stubSurface) Line(x1, y1, x2, y2, w float64, c string) {
	fmt.Fprintf(&s.log, "L%.2f,%.2f,%.2f,%.2f;", x1, y1, x2, y2)
}
func (s *stubSurface) FillCircle(x, y, r float64, c string) {
	fmt.Fprintf(&s.log, "O%.3f,%.3f,%.3f;", x, y, r)
}
func (s *stubSurface) Text(str string, x, y, size, ax, ay float64, c string) {
	fmt.Fprintf(&s.log, "T%s;", str)
}
func (s *stubSurface) Pixels(dst []byte) []byte {
	n := s.w * s.h * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	clear(dst)
	copy(dst, s.log.Bytes())
	return dst
}
func (s *stubSurface) Close() error { return nil }

type memSink struct {
	opts     encoder.Options
	frames   [][]byte
	failAt   int
	closeErr error
	closed   bool
	aborted  bool
}

func (s *memSink) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failAt > 0 && len(s.frames)+1 == s.failAt {
		return &dynamo.SubprocessError{Op: "write", ExitCode: -1, Wrapped: errors.New("broken pipe")}
	}
	s.frames = append(s.frames, bytes.Clone(frame))
	s.opts.Release(frame)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	if s.closeErr == nil {
		return os.WriteFile(s.opts.Output, []byte("video"), 0644)
	}
	os.WriteFile(s.opts.Output, []byte("partial"), 0644)
	return s.closeErr
}

func (s *memSink) Abort() error {
	s.aborted = true
	return nil
}

// frameText returns the drawing digest stored in a stub frame.
func frameText(frame []byte) string {
	if i := bytes.IndexByte(frame, 0); i >= 0 {
		return string(frame[:i])
	}
	return string(frame)
}

type sinks struct {
	mu       sync.Mutex
	byOutput map[string]*memSink
	failAt   int
	closeErr error
}

func newSinks() *sinks { return &sinks{byOutput: map[string]*memSink{}} }

func (s *sinks) open(ctx context.Context, o encoder.Options) (pipeline.FrameSink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := &memSink{opts: o, failAt: s.failAt, closeErr: s.closeErr}
	s.byOutput[o.Output] = ms
	return ms, nil
}

func (s *sinks) get(output string) *memSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutput[output]
}

func (s *sinks) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byOutput)
}

type countingObserver struct {
	mu     sync.Mutex
	starts int
	frames int
	done   []pipeline.Result
}

func (o *countingObserver) OnStart(pipeline.Job) {
	o.mu.Lock()
	o.starts++
	o.mu.Unlock()
}

func (o *countingObserver) OnFrame(pipeline.Job, int, float64) {
	o.mu.Lock()
	o.frames++
	o.mu.Unlock()
}

func (o *countingObserver) OnDone(res pipeline.Result) {
	o.mu.Lock()
	o.done = append(o.done, res)
	o.mu.Unlock()
}
