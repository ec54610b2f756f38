package types

// Bias is the steering correction derived from the line sensors. Left wins
// when both sides report the line.
type Bias struct {
	Left  bool
	Right bool
}

func (b Bias) String() string {
	switch {
	case b.Left:
		return "left"
	case b.Right:
		return "right"
	default:
		return "centered"
	}
}
