package media

// Region is one detected face region in pixel coordinates of the decoded
// image, with the detector's confidence for it.
type Region struct {
	X1         int
	Y1         int
	X2         int
	Y2         int
	Confidence float32
}

// Width returns the region width in pixels.
func (r Region) Width() int { return r.X2 - r.X1 }

// Height returns the region height in pixels.
func (r Region) Height() int { return r.Y2 - r.Y1 }

// Area returns the region area in pixels, zero for degenerate boxes.
func (r Region) Area() int {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
