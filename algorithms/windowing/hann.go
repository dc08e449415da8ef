package windowing

// Hann represents a Hann window function
type Hann struct {
	*cosineWindow
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	return &Hann{newCosineWindow(TypeHann, size, symmetric, 0.5, 0.5)}
}
