// Package geom maps simulation coordinates onto the video canvas.
package geom

import (
	"math"

	"github.com/san-kum/partvid/internal/dynamo"
)

// Transform is the affine map from simulation units to pixels for one render.
// It is computed once per input file and never mutated afterwards.
type Transform struct {
	BoardSize  float64
	RectHeight float64
	Scale      float64
	OffsetX    float64
	OffsetY    float64
	Width      int
	Height     int
}

func NewTransform(boardSize, rectHeight float64, width, height int, margin float64) Transform {
	available := float64(min(width, height)) - 2*margin
	scale := available / boardSize
	return Transform{
		BoardSize:  boardSize,
		RectHeight: rectHeight,
		Scale:      scale,
		OffsetX:    float64(width)/2 - boardSize*scale,
		OffsetY:    (float64(height) - boardSize*scale) / 2,
		Width:      width,
		Height:     height,
	}
}

func (t Transform) Validate() error {
	if !(t.BoardSize > 0) {
		return dynamo.Invalid("board-size", "must be positive, got %g", t.BoardSize)
	}
	if !(t.RectHeight > 0) {
		return dynamo.Invalid("rect-height", "must be positive, got %g", t.RectHeight)
	}
	if !(t.Scale > 0) || math.IsInf(t.Scale, 0) {
		return dynamo.Invalid("margin", "leaves no room on a %dx%d canvas", t.Width, t.Height)
	}
	return nil
}

func (t Transform) X(x float64) float64 { return t.OffsetX + x*t.Scale }

// Y flips the vertical axis: simulation up is a smaller pixel row.
func (t Transform) Y(y float64) float64 { return t.OffsetY + (t.BoardSize-y)*t.Scale }

func (t Transform) R(r float64) float64 { return r * t.Scale }

func (t Transform) Length(h float64) float64 { return h * t.Scale }

// Point maps a particle centre.
func (t Transform) Point(p dynamo.Particle) (float64, float64) {
	return t.X(p.X), t.Y(p.Y)
}
