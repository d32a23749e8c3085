package render

// Rasterizer creates drawing surfaces. Implementations must be safe for
// concurrent use; surfaces need not be.
type Rasterizer interface {
	NewSurface(width, height int) Surface
}

// Surface is a single-use drawing target. Colours are hex strings such as "#ffffff".
type Surface interface {
	Clear(color string)
	Line(x1, y1, x2, y2, width float64, color string)
	FillCircle(x, y, r float64, color string)
	// Text draws s so that the point (ax, ay) of its bounding box, given as
	// fractions with (0,0) top-left and (1,1) bottom-right, lands on (x, y).
	Text(s string, x, y, size, ax, ay float64, color string)
	// Pixels copies the surface into dst as RGBA rows, growing dst if needed.
	Pixels(dst []byte) []byte
	Close() error
}
