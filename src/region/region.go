package region

import "fmt"

// MinSize is the exclusive lower bound for both sides of an emitted selection.
// Drags at or below it are treated as accidental clicks.
const MinSize = 20

// Rect represents a selection in viewport pixel coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

type Point struct {
	X int
	Y int
}

// Size is a viewport or image size in pixels.
type Size struct {
	Width  int
	Height int
}

// Span returns the normalized rectangle between two points, regardless of drag direction.
func Span(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(b.X - a.X),
		Height: abs(b.Y - a.Y),
	}
}

// Valid reports whether the rectangle is large enough to be emitted.
func (r Rect) Valid() bool {
	return r.Width > MinSize && r.Height > MinSize
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
