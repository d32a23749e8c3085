package analysis

import (
	"strings"

	"github.com/san-kum/partvid/internal/dynamo"
)

// Snapshot draws the particle centers of ts as ASCII art. The column of the
// board edge x = boardSize is marked when it falls inside the bounds.
func Snapshot(ts dynamo.Timestep, boardSize float64, width, height int) string {
	if len(ts.Particles) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := 0.0, boardSize
	minY, maxY := 0.0, boardSize
	for _, p := range ts.Particles {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	edge := col(boardSize)
	for r := range height {
		canvas[r][edge] = '│'
	}

	for _, p := range ts.Particles {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
