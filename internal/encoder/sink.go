// Package encoder streams raw RGBA frames into an ffmpeg subprocess.
package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/partvid/internal/dynamo"
)

const stderrTail = 8

type Options struct {
	Binary string
	// Args replaces the generated ffmpeg arguments when non-nil.
	Args   []string
	Output string
	Width  int
	Height int
	FPS    int
	CRF    int
	Preset string
	// Depth is the number of frames that may wait for the writer.
	Depth  int
	Logger *slog.Logger
	// Release receives every buffer once it has been written or discarded.
	Release func([]byte)
}

// Args returns the ffmpeg command line for a raw RGBA stream on stdin.
func Args(o Options) []string {
	crf := o.CRF
	if crf == 0 {
		crf = 20
	}
	preset := o.Preset
	if preset == "" {
		preset = "fast"
	}
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-r", strconv.Itoa(o.FPS),
		"-i", "-",
		"-c:v", "libx264",
		"-crf", strconv.Itoa(crf),
		"-preset", preset,
		"-pix_fmt", "yuv420p",
		o.Output,
	}
}

// Sink owns one encoder process. Write and Close must be called from a single
// goroutine; Abort may be called instead of Close at any time.
type Sink struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	output  string
	logger  *slog.Logger
	release func([]byte)

	frames    chan []byte
	failed    chan struct{}
	done      chan struct{}
	stderr    chan []string
	writeErr  error
	written   int
	closeOnce sync.Once
	finished  bool
}

// Start launches the encoder. The process is not tied to ctx; cancel by
// calling Abort.
func Start(ctx context.Context, o Options) (*Sink, error) {
	binary := o.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	args := o.Args
	if args == nil {
		args = Args(o)
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cmd := exec.Command(binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &dynamo.SubprocessError{Op: "start", ExitCode: -1, Wrapped: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &dynamo.SubprocessError{Op: "start", ExitCode: -1, Wrapped: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &dynamo.SubprocessError{Op: "start", ExitCode: -1, Wrapped: err}
	}
	logger.DebugContext(ctx, "encoder started", "pid", cmd.Process.Pid, "output", o.Output)

	s := newSink(stdin, o.Depth, o.Release, logger)
	s.cmd = cmd
	s.output = o.Output
	go s.readStderr(stderr)
	return s, nil
}

func newSink(w io.WriteCloser, depth int, release func([]byte), logger *slog.Logger) *Sink {
	if depth <= 0 {
		depth = 1
	}
	if release == nil {
		release = func([]byte) {}
	}
	s := &Sink{
		stdin:   w,
		logger:  logger,
		release: release,
		frames:  make(chan []byte, depth),
		failed:  make(chan struct{}),
		done:    make(chan struct{}),
		stderr:  make(chan []string, 1),
	}
	go s.writeLoop()
	return s
}

func (s *Sink) writeLoop() {
	defer close(s.done)
	for buf := range s.frames {
		if s.writeErr == nil {
			if _, err := s.stdin.Write(buf); err != nil {
				s.writeErr = err
				close(s.failed)
			} else {
				s.written++
			}
		}
		s.release(buf)
	}
}

func (s *Sink) readStderr(r io.Reader) {
	var tail []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		s.logger.Debug("ffmpeg", "line", line)
		tail = append(tail, line)
		if len(tail) > stderrTail {
			tail = tail[1:]
		}
	}
	s.stderr <- tail
}

// Write queues frame for the encoder. It blocks while the queue is full and
// the encoder has not drained it. On error the caller keeps ownership of frame.
func (s *Sink) Write(ctx context.Context, frame []byte) error {
	select {
	case <-s.failed:
		return s.failure()
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case s.frames <- frame:
		return nil
	case <-s.failed:
		return s.failure()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) failure() error {
	return &dynamo.SubprocessError{Op: "write", ExitCode: -1, Wrapped: s.writeErr}
}

func (s *Sink) drain() {
	s.closeOnce.Do(func() { close(s.frames) })
	<-s.done
}

// Close signals end of input and waits for the encoder to exit.
func (s *Sink) Close() error {
	if s.finished {
		return nil
	}
	s.finished = true

	s.drain()
	closeErr := s.stdin.Close()
	if s.cmd == nil {
		if s.writeErr != nil {
			return s.failure()
		}
		return closeErr
	}

	tail := <-s.stderr
	if err := s.cmd.Wait(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if len(tail) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.Join(tail, " | "))
		}
		return &dynamo.SubprocessError{Op: "exit", ExitCode: code, Wrapped: err}
	}
	if s.writeErr != nil {
		return s.failure()
	}
	s.logger.Debug("encoder finished", "output", s.output, "frames", s.written)
	return nil
}

// Abort kills the encoder, waits for it and removes the partial output file.
func (s *Sink) Abort() error {
	if s.finished {
		return nil
	}
	s.finished = true

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.stdin.Close()
	s.drain()
	if s.cmd != nil {
		<-s.stderr
		_ = s.cmd.Wait()
	}

	if s.output != "" {
		if err := os.Remove(s.output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		s.logger.Debug("removed partial output", "output", s.output)
	}
	return nil
}
