// Package steplog reads event-driven simulation logs.
//
// A log is a sequence of blocks. Each block starts with a line holding a
// single non-negative number (the event time) followed by zero or more
// particle lines of the form x,y,vx,vy,r. Blank lines are ignored.
package steplog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/partvid/internal/dynamo"
)

const maxLineSize = 1 << 20

// Parser pulls timesteps from a log one group at a time.
// It is single-pass; reopen the source to read it again.
type Parser struct {
	sc      *bufio.Scanner
	line    int
	open    bool
	current dynamo.Timestep
	last    float64
	seen    bool
	err     error
}

var _ dynamo.Stream = (*Parser)(nil)

func NewParser(r io.Reader) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Parser{sc: sc}
}

// Open returns a parser over the file at path. The caller closes the file.
func Open(path string) (*Parser, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return NewParser(f), f, nil
}

// Next returns the next non-empty timestep, io.EOF at the end of the log, or
// a *dynamo.ParseError. Once an error is returned every later call returns it too.
func (p *Parser) Next() (dynamo.Timestep, error) {
	if p.err != nil {
		return dynamo.Timestep{}, p.err
	}

	for p.sc.Scan() {
		p.line++
		text := strings.TrimSpace(p.sc.Text())
		if text == "" {
			continue
		}

		if !strings.Contains(text, ",") {
			t, err := parseTime(text)
			if err != nil {
				return p.fail(text, err)
			}
			if p.seen && t <= p.last {
				return p.fail(text, fmt.Errorf("%w: %g after %g", dynamo.ErrTimeOrder, t, p.last))
			}
			p.seen, p.last = true, t

			done, ok := p.close()
			p.open = true
			p.current = dynamo.Timestep{Time: t}
			if ok {
				return done, nil
			}
			continue
		}

		if !p.open {
			return p.fail(text, dynamo.ErrOrphanParticle)
		}
		particle, err := parseParticle(text)
		if err != nil {
			return p.fail(text, err)
		}
		p.current.Particles = append(p.current.Particles, particle)
	}

	if err := p.sc.Err(); err != nil {
		p.err = fmt.Errorf("read line %d: %w", p.line+1, err)
		return dynamo.Timestep{}, p.err
	}

	done, ok := p.close()
	p.open = false
	if ok {
		return done, nil
	}
	p.err = io.EOF
	return dynamo.Timestep{}, io.EOF
}

// Line reports the number of lines consumed so far.
func (p *Parser) Line() int { return p.line }

// close ends the open group and reports whether it holds any particles.
func (p *Parser) close() (dynamo.Timestep, bool) {
	if !p.open || len(p.current.Particles) == 0 {
		return dynamo.Timestep{}, false
	}
	done := p.current
	p.current = dynamo.Timestep{}
	return done, true
}

func (p *Parser) fail(text string, err error) (dynamo.Timestep, error) {
	p.err = &dynamo.ParseError{Line: p.line, Text: text, Wrapped: err}
	return dynamo.Timestep{}, p.err
}

func parseTime(s string) (float64, error) {
	t, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, fmt.Errorf("%w: negative time %g", dynamo.ErrMalformedLine, t)
	}
	return t, nil
}

func parseParticle(s string) (dynamo.Particle, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 5 {
		return dynamo.Particle{}, fmt.Errorf("%w, got %d", dynamo.ErrFieldCount, len(fields))
	}

	var vals [5]float64
	for i, f := range fields {
		v, err := parseFloat(strings.TrimSpace(f))
		if err != nil {
			return dynamo.Particle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	p := dynamo.Particle{X: vals[0], Y: vals[1], VX: vals[2], VY: vals[3], R: vals[4]}
	if !p.IsValid() {
		return dynamo.Particle{}, fmt.Errorf("%w: negative radius %g", dynamo.ErrMalformedLine, p.R)
	}
	return p, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q out of range", dynamo.ErrNonFinite, s)
		}
		return 0, fmt.Errorf("%w: %q is not a number", dynamo.ErrMalformedLine, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrNonFinite, s)
	}
	return v, nil
}
