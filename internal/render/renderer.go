package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/partvid/internal/config"
	"github.com/san-kum/partvid/internal/geom"
	"github.com/san-kum/partvid/internal/interp"
)

const (
	boundaryWidth = 2.0
	counterSize   = 20.0
	counterX      = 10.0
	counterY      = 10.0
	minLabelSize  = 8.0
	maxLabelSize  = 24.0
)

type Renderer struct {
	cfg   config.Render
	tr    geom.Transform
	theme Theme
	segs  []geom.Segment
	rz    Rasterizer
	pool  *FramePool
}

// NewRenderer prepares a renderer for one input file. pool may be nil.
func NewRenderer(cfg config.Render, tr geom.Transform, rz Rasterizer, pool *FramePool) *Renderer {
	return &Renderer{
		cfg:   cfg,
		tr:    tr,
		theme: GetTheme(cfg.Theme),
		segs:  tr.Chamber(),
		rz:    rz,
		pool:  pool,
	}
}

// Render draws f and returns a width*height*4 RGBA buffer. When the renderer
// has a pool the buffer comes from it and may be handed back with Release.
func (r *Renderer) Render(f interp.Frame) []byte {
	s := r.rz.NewSurface(r.cfg.Width, r.cfg.Height)
	defer s.Close()

	s.Clear(r.theme.Background)

	for _, seg := range r.segs {
		s.Line(seg.X1, seg.Y1, seg.X2, seg.Y2, boundaryWidth, r.theme.Boundary)
	}

	for i, p := range f.Particles {
		cx, cy := r.tr.Point(p)
		radius := r.tr.R(p.R)
		s.FillCircle(cx, cy, radius, r.theme.Particle)
		if r.cfg.Labels == config.LabelsIndex {
			s.Text(strconv.Itoa(i+1), cx, cy, labelSize(radius), 0.5, 0.5, r.theme.Label)
		}
	}

	if f.HasCounter {
		s.Text(fmt.Sprintf("#Events: %d", f.Counter), counterX, counterY, counterSize, 0, 0, r.theme.Text)
	}

	var dst []byte
	if r.pool != nil {
		dst = r.pool.Get()
	}
	return s.Pixels(dst)
}

// Release hands a buffer returned by Render back to the pool.
func (r *Renderer) Release(buf []byte) {
	if r.pool != nil {
		r.pool.Put(buf)
	}
}

func labelSize(radius float64) float64 {
	return math.Max(minLabelSize, math.Min(maxLabelSize, radius*1.2))
}
