package steplog

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/san-kum/partvid/internal/dynamo"
)

func collect(p *Parser) ([]dynamo.Timestep, error) {
	var out []dynamo.Timestep
	for {
		ts, err := p.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ts)
	}
}

func TestParserGroups(t *testing.T) {
	input := "0\n1,1,0,0,0.1\n2,2,0.5,-0.5,0.2\n\n1.0\n1,1.5,0,0,0.1\n"

	steps, err := collect(NewParser(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	if len(steps) != 2 {
		t.Fatalf("expected 2 timesteps, got %d", len(steps))
	}
	if steps[0].Time != 0 || steps[0].Len() != 2 {
		t.Errorf("unexpected first step: %+v", steps[0])
	}
	want := dynamo.Particle{X: 2, Y: 2, VX: 0.5, VY: -0.5, R: 0.2}
	if steps[0].Particles[1] != want {
		t.Errorf("expected %+v, got %+v", want, steps[0].Particles[1])
	}
	if steps[1].Time != 1.0 || steps[1].Particles[0].Y != 1.5 {
		t.Errorf("unexpected second step: %+v", steps[1])
	}
}

func TestParserIncreasingTimes(t *testing.T) {
	input := "0\n1,1,0,0,1\n0.25\n1,1,0,0,1\n3\n1,1,0,0,1\n1e1\n1,1,0,0,1\n"

	steps, err := collect(NewParser(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 timesteps, got %d", len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Time <= steps[i-1].Time {
			t.Errorf("time %d (%g) not after %g", i, steps[i].Time, steps[i-1].Time)
		}
	}
}

func TestParserTrailingEmptyMarker(t *testing.T) {
	input := "0\n1,1,0,0,1\n5\n\n"

	p := NewParser(strings.NewReader(input))
	ts, err := p.Next()
	if err != nil {
		t.Fatalf("first step: %v", err)
	}
	if ts.Time != 0 {
		t.Errorf("expected time 0, got %g", ts.Time)
	}

	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on repeated call, got %v", err)
	}
}

func TestParserDropsEmptyGroup(t *testing.T) {
	input := "0\n1,1,0,0,0.1\n0.5\n1.0\n1,1.5,0,0,0.1\n"

	steps, err := collect(NewParser(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 timesteps, got %d", len(steps))
	}
	for _, ts := range steps {
		if ts.Len() == 0 {
			t.Errorf("empty timestep at %g", ts.Time)
		}
	}
	if steps[1].Time != 1.0 {
		t.Errorf("expected second step at 1.0, got %g", steps[1].Time)
	}
}

func TestParserEmptyInput(t *testing.T) {
	steps, err := collect(NewParser(strings.NewReader("\n\n  \n")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("expected no timesteps, got %d", len(steps))
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		want  error
	}{
		{"wrong field count", "0\n1,2,3\n", 2, dynamo.ErrFieldCount},
		{"six fields", "0\n1,2,3,4,5,6\n", 2, dynamo.ErrFieldCount},
		{"non numeric field", "0\n1,x,0,0,1\n", 2, dynamo.ErrMalformedLine},
		{"empty field", "0\n1,,0,0,1\n", 2, dynamo.ErrMalformedLine},
		{"nan field", "0\n1,NaN,0,0,1\n", 2, dynamo.ErrNonFinite},
		{"negative radius", "0\n1,1,0,0,-0.1\n", 2, dynamo.ErrMalformedLine},
		{"garbage marker", "0\n1,1,0,0,1\nabc\n", 3, dynamo.ErrMalformedLine},
		{"negative marker", "-1\n", 1, dynamo.ErrMalformedLine},
		{"orphan particle", "\n1,1,0,0,1\n", 2, dynamo.ErrOrphanParticle},
		{"repeated time", "1\n1,1,0,0,1\n1\n1,1,0,0,1\n", 3, dynamo.ErrTimeOrder},
		{"decreasing time", "2\n1,1,0,0,1\n1\n", 3, dynamo.ErrTimeOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect(NewParser(strings.NewReader(tt.input)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var perr *dynamo.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *dynamo.ParseError, got %T: %v", err, err)
			}
			if perr.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, perr.Line)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParserStopsAfterError(t *testing.T) {
	p := NewParser(strings.NewReader("0\n1,2,3\n1\n1,1,0,0,1\n"))

	_, first := p.Next()
	if first == nil {
		t.Fatal("expected error")
	}
	_, second := p.Next()
	if second != first {
		t.Errorf("expected the same error again, got %v", second)
	}
}

func TestParserKeepsGroupBeforeError(t *testing.T) {
	p := NewParser(strings.NewReader("0\n1,1,0,0,1\n1\n1,2\n"))

	ts, err := p.Next()
	if err != nil {
		t.Fatalf("first step: %v", err)
	}
	if ts.Len() != 1 {
		t.Errorf("expected 1 particle, got %d", ts.Len())
	}

	if _, err := p.Next(); !errors.Is(err, dynamo.ErrFieldCount) {
		t.Errorf("expected field count error, got %v", err)
	}
}
