package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/partvid/internal/pipeline"
)

type status int

const (
	pending status = iota
	running
	done
	failed
)

type StartMsg struct{ Input string }

type FrameMsg struct {
	Input  string
	Frames int
	Time   float64
}

type DoneMsg struct{ Result pipeline.Result }

type finishedMsg struct{}

type tickMsg time.Time

type fileState struct {
	input   string
	status  status
	frames  int
	time    float64
	elapsed time.Duration
	err     error
}

// Model shows one line per input file while a batch renders.
type Model struct {
	files     []fileState
	index     map[string]int
	spin      int
	finished  bool
	cancelled bool
	cancel    func()
}

func NewModel(jobs []pipeline.Job, cancel func()) Model {
	m := Model{
		files:  make([]fileState, len(jobs)),
		index:  make(map[string]int, len(jobs)),
		cancel: cancel,
	}
	for i, job := range jobs {
		m.files[i] = fileState{input: job.Input}
		m.index[job.Input] = i
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.cancelled && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
		}
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.spin++
		return m, tick()
	case StartMsg:
		if f := m.file(msg.Input); f != nil {
			f.status = running
		}
	case FrameMsg:
		if f := m.file(msg.Input); f != nil {
			f.frames, f.time = msg.Frames, msg.Time
		}
	case DoneMsg:
		if f := m.file(msg.Result.Job.Input); f != nil {
			f.frames = msg.Result.Frames
			f.elapsed = msg.Result.Elapsed
			f.err = msg.Result.Err
			f.status = done
			if f.err != nil {
				f.status = failed
			}
		}
	case finishedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) file(input string) *fileState {
	i, ok := m.index[input]
	if !ok {
		return nil
	}
	return &m.files[i]
}

// Counts reports how many files succeeded and failed so far.
func (m Model) Counts() (ok, bad int) {
	for _, f := range m.files {
		switch f.status {
		case done:
			ok++
		case failed:
			bad++
		}
	}
	return ok, bad
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(Title.Render("partvid"))
	b.WriteString("\n")
	b.WriteString(Separator(48))
	b.WriteString("\n")

	for _, f := range m.files {
		b.WriteString(m.line(f))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	ok, bad := m.Counts()
	switch {
	case m.finished:
		b.WriteString(fmt.Sprintf("%s  %s\n", Metric("saved", fmt.Sprint(ok)), Metric("failed", fmt.Sprint(bad))))
	case m.cancelled:
		b.WriteString(StatusFailed.Render("cancelling...") + "\n")
	default:
		b.WriteString(KeyHint.Render("q: cancel") + "\n")
	}
	return b.String()
}

func (m Model) line(f fileState) string {
	name := filepath.Base(f.input)
	switch f.status {
	case running:
		return fmt.Sprintf("%s %-24s %s  %s", StatusRunning.Render(Spinner(m.spin)), name,
			Metric("frames", fmt.Sprint(f.frames)), Metric("t", fmt.Sprintf("%.3f", f.time)))
	case done:
		return fmt.Sprintf("%s %-24s %s  %s", StatusDone.Render("✓"), name,
			Metric("frames", fmt.Sprint(f.frames)), Metric("in", f.elapsed.Round(time.Millisecond).String()))
	case failed:
		return fmt.Sprintf("%s %-24s %s", StatusFailed.Render("✗"), name, Subtle.Render(f.err.Error()))
	default:
		return fmt.Sprintf("%s %-24s", Subtle.Render("·"), name)
	}
}

// Reporter forwards pipeline callbacks to a bubbletea program. Frame updates
// are throttled per file.
type Reporter struct {
	send     func(tea.Msg)
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewReporter(send func(tea.Msg), interval time.Duration) *Reporter {
	return &Reporter{send: send, interval: interval, last: make(map[string]time.Time)}
}

func (r *Reporter) OnStart(job pipeline.Job) { r.send(StartMsg{Input: job.Input}) }

func (r *Reporter) OnFrame(job pipeline.Job, frames int, t float64) {
	now := time.Now()
	r.mu.Lock()
	if now.Sub(r.last[job.Input]) < r.interval {
		r.mu.Unlock()
		return
	}
	r.last[job.Input] = now
	r.mu.Unlock()

	r.send(FrameMsg{Input: job.Input, Frames: frames, Time: t})
}

func (r *Reporter) OnDone(res pipeline.Result) { r.send(DoneMsg{Result: res}) }

// RunFunc renders a batch, reporting progress to obs.
type RunFunc func(ctx context.Context, obs pipeline.Observer) ([]pipeline.Result, error)

// Run shows the progress view while run executes. Quitting the view cancels
// the batch; Run returns once the batch has stopped, even if the view failed.
func Run(ctx context.Context, jobs []pipeline.Job, run RunFunc) ([]pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(jobs, cancel))

	var (
		results []pipeline.Result
		runErr  error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		results, runErr = run(ctx, NewReporter(p.Send, 50*time.Millisecond))
		p.Send(finishedMsg{})
	}()

	_, viewErr := p.Run()
	<-finished
	if viewErr != nil {
		return results, errors.Join(runErr, fmt.Errorf("progress view: %w", viewErr))
	}
	return results, runErr
}
