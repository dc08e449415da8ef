package windowing

// Hamming represents a Hamming window function (0.54 - 0.46 cos)
type Hamming struct {
	*cosineWindow
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	return &Hamming{newCosineWindow(TypeHamming, size, symmetric, 0.54, 0.46)}
}
