package windowing

// Blackman represents a Blackman window function
type Blackman struct {
	*cosineWindow
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, symmetric bool) *Blackman {
	return &Blackman{newCosineWindow(TypeBlackman, size, symmetric, 0.42, 0.5, 0.08)}
}
