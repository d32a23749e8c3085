package render

import (
	"fmt"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// GG rasterizes with gogpu/gg software contexts and the Go Regular font.
type GG struct {
	font *text.FontSource
}

func NewGG() (*GG, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &GG{font: src}, nil
}

func (g *GG) NewSurface(width, height int) Surface {
	pm := gg.NewPixmap(width, height)
	return &ggSurface{
		font: g.font,
		pm:   pm,
		dc:   gg.NewContext(width, height, gg.WithPixmap(pm)),
	}
}

func (g *GG) Close() error {
	return g.font.Close()
}

type ggSurface struct {
	font *text.FontSource
	pm   *gg.Pixmap
	dc   *gg.Context
}

func (s *ggSurface) Clear(color string) {
	s.dc.ClearWithColor(gg.Hex(color))
}

func (s *ggSurface) Line(x1, y1, x2, y2, width float64, color string) {
	s.dc.SetHexColor(color)
	s.dc.SetLineWidth(width)
	s.dc.DrawLine(x1, y1, x2, y2)
	_ = s.dc.Stroke()
}

func (s *ggSurface) FillCircle(x, y, r float64, color string) {
	if r <= 0 {
		return
	}
	s.dc.SetHexColor(color)
	s.dc.DrawCircle(x, y, r)
	_ = s.dc.Fill()
}

func (s *ggSurface) Text(str string, x, y, size, ax, ay float64, color string) {
	face := s.font.Face(size)
	s.dc.SetFont(face)
	s.dc.SetHexColor(color)

	w, h := s.dc.MeasureString(str)
	top := y - h*ay
	s.dc.DrawString(str, x-w*ax, top+face.Metrics().Ascent)
}

func (s *ggSurface) Pixels(dst []byte) []byte {
	_ = s.dc.FlushGPU()
	data := s.pm.Data()
	if cap(dst) < len(data) {
		dst = make([]byte, len(data))
	}
	dst = dst[:len(data)]
	copy(dst, data)
	return dst
}

func (s *ggSurface) Close() error {
	return s.dc.Close()
}
