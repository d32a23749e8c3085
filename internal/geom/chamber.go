package geom

type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Square is the main board in pixels.
func (t Transform) Square() Rect {
	size := t.Length(t.BoardSize)
	return Rect{X: t.OffsetX, Y: t.OffsetY, W: size, H: size}
}

// Antechamber is the secondary region, as wide as the board, centred
// vertically on the board's right edge.
func (t Transform) Antechamber() Rect {
	sq := t.Square()
	return Rect{
		X: sq.X + sq.W,
		Y: t.OffsetY + (t.BoardSize-t.RectHeight)*t.Scale/2,
		W: sq.W,
		H: t.Length(t.RectHeight),
	}
}

// Chamber returns the boundary of the scene: the board without its right
// side, the antechamber without its left side, and the two connectors on the
// shared vertical line.
func (t Transform) Chamber() []Segment {
	sq := t.Square()
	rc := t.Antechamber()
	sqRight := sq.X + sq.W
	sqBottom := sq.Y + sq.H
	rcRight := rc.X + rc.W
	rcBottom := rc.Y + rc.H

	return []Segment{
		{sq.X, sq.Y, sqRight, sq.Y},
		{sq.X, sq.Y, sq.X, sqBottom},
		{sq.X, sqBottom, sqRight, sqBottom},

		{rcRight, rc.Y, rc.X, rc.Y},
		{rcRight, rc.Y, rcRight, rcBottom},
		{rcRight, rcBottom, rc.X, rcBottom},

		{rc.X, sq.Y, rc.X, rc.Y},
		{rc.X, rcBottom, rc.X, sqBottom},
	}
}

// InBoard reports whether a simulation x coordinate lies in the main board.
func (t Transform) InBoard(x float64) bool { return x <= t.BoardSize }

// Fits reports whether the board and antechamber lie inside the canvas.
func (t Transform) Fits() bool {
	sq := t.Square()
	rc := t.Antechamber()
	left, right := sq.X, rc.X+rc.W
	top, bottom := min(sq.Y, rc.Y), max(sq.Y+sq.H, rc.Y+rc.H)
	return left >= 0 && top >= 0 && right <= float64(t.Width) && bottom <= float64(t.Height)
}
