package dynamo

import "math"

// Particle is the state of a single particle at one instant, in simulation units.
type Particle struct {
	X, Y   float64
	VX, VY float64
	R      float64
}

// Advance returns a copy of p moved along its velocity for elapsed time e.
func (p Particle) Advance(e float64) Particle {
	p.X += p.VX * e
	p.Y += p.VY * e
	return p
}

// IsValid reports whether every field is finite and the radius is not negative.
func (p Particle) IsValid() bool {
	for _, v := range [...]float64{p.X, p.Y, p.VX, p.VY, p.R} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.R >= 0
}

type Timestep struct {
	Time      float64
	Particles []Particle
}

func (t Timestep) Len() int { return len(t.Particles) }

// Stream is a finite, single-pass sequence of timesteps.
// Next returns io.EOF once the sequence is exhausted.
type Stream interface {
	Next() (Timestep, error)
}
