package flush

import (
	"fmt"
	"image"
)

// Area is a dirty region with inclusive bounds, as toolkits report them.
type Area struct {
	X1, Y1, X2, Y2 int
}

// AreaFromRect converts a half-open rectangle to an Area.
func AreaFromRect(r image.Rectangle) Area {
	return Area{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X - 1, Y2: r.Max.Y - 1}
}

// Width returns the number of columns in a.
func (a Area) Width() int {
	return a.X2 - a.X1 + 1
}

// Height returns the number of rows in a.
func (a Area) Height() int {
	return a.Y2 - a.Y1 + 1
}

// Empty reports whether a contains no pixels.
func (a Area) Empty() bool {
	return a.X2 < a.X1 || a.Y2 < a.Y1
}

// Rect returns a as a half-open image.Rectangle.
func (a Area) Rect() image.Rectangle {
	return image.Rect(a.X1, a.Y1, a.X2+1, a.Y2+1)
}

func (a Area) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.X1, a.Y1, a.X2, a.Y2)
}
