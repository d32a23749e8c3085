package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/partvid/internal/dynamo"
	"github.com/san-kum/partvid/internal/geom"
	"github.com/san-kum/partvid/internal/interp"
)

// Sample is the state of one timestep as seen by the occupancy observable.
type Sample struct {
	Time      float64
	Inside    int
	Total     int
	Share     float64
	MeanSpeed float64
}

type Summary struct {
	Board        geom.Transform
	Timesteps    int
	MinParticles int
	MaxParticles int
	Start        float64
	End          float64
	Samples      []Sample
	Last         dynamo.Timestep
}

// Inspect drains s and computes per-timestep samples. A parse error stops
// the scan and is returned together with the summary gathered so far.
func Inspect(s dynamo.Stream, boardSize float64) (*Summary, error) {
	sum := &Summary{Board: geom.Transform{BoardSize: boardSize}}
	for {
		ts, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}
		sum.add(ts)
	}
	if sum.Timesteps == 0 {
		return sum, dynamo.ErrEmptyLog
	}
	return sum, nil
}

func (s *Summary) add(ts dynamo.Timestep) {
	n := ts.Len()
	if s.Timesteps == 0 {
		s.Start = ts.Time
		s.MinParticles, s.MaxParticles = n, n
	}
	s.Timesteps++
	s.End = ts.Time
	s.MinParticles = min(s.MinParticles, n)
	s.MaxParticles = max(s.MaxParticles, n)
	s.Last = ts

	smp := Sample{Time: ts.Time, Total: n}
	var speed float64
	for _, p := range ts.Particles {
		if s.Board.InBoard(p.X) {
			smp.Inside++
		}
		speed += math.Hypot(p.VX, p.VY)
	}
	if n > 0 {
		smp.Share = float64(smp.Inside) / float64(n)
		smp.MeanSpeed = speed / float64(n)
	}
	s.Samples = append(s.Samples, smp)
}

// Span is the simulated time between the first and last timestep.
func (s *Summary) Span() float64 { return s.End - s.Start }

// MeanInterval is the average time between consecutive events, or zero for
// a single timestep.
func (s *Summary) MeanInterval() float64 {
	if s.Timesteps < 2 {
		return 0
	}
	return s.Span() / float64(s.Timesteps-1)
}

// ExpectedFrames counts the frames a render at fps would produce.
func (s *Summary) ExpectedFrames(fps int, interpolate bool) int {
	if len(s.Samples) == 0 {
		return 0
	}
	frames := len(s.Samples)
	if !interpolate || fps <= 0 {
		return frames
	}
	dt := 1 / float64(fps)
	for i := 1; i < len(s.Samples); i++ {
		for range interp.Synthetic(s.Samples[i-1].Time, s.Samples[i].Time, dt) {
			frames++
		}
	}
	return frames
}

func (s *Summary) Shares() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Share
	}
	return out
}

// WriteCSV writes one row per sample with a header.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "inside", "total", "share", "mean_speed"}); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.Time, 'f', -1, 64),
			strconv.Itoa(smp.Inside),
			strconv.Itoa(smp.Total),
			strconv.FormatFloat(smp.Share, 'f', 6, 64),
			strconv.FormatFloat(smp.MeanSpeed, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write sample at %g: %w", smp.Time, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
