package windowing

// Rectangular represents a rectangular (boxcar) window function
type Rectangular struct {
	*cosineWindow
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	return &Rectangular{newCosineWindow(TypeRectangular, size, true, 1.0)}
}
