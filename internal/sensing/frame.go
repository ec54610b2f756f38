package sensing

import "line-follower/internal/types"

// NoObstacleMM is reported in place of a distance the sensor could not deliver.
const NoObstacleMM = 255

// Line sensor positions, left to right.
const (
	LeftOuter = iota
	LeftInner
	Middle
	RightInner
	RightOuter

	LineSensorCount
)

// Frame is one tick's worth of sensor input. It is not retained across ticks.
type Frame struct {
	LeftOuter  bool
	LeftInner  bool
	Middle     bool
	RightInner bool
	RightOuter bool
	DistanceMM int
	Fault      bool
}

// FaultFrame reads as "line lost, no obstacle".
func FaultFrame() Frame {
	return Frame{DistanceMM: NoObstacleMM, Fault: true}
}

func frameFromLines(lines [LineSensorCount]bool, distanceMM int) Frame {
	return Frame{
		LeftOuter:  lines[LeftOuter],
		LeftInner:  lines[LeftInner],
		Middle:     lines[Middle],
		RightInner: lines[RightInner],
		RightOuter: lines[RightOuter],
		DistanceMM: distanceMM,
	}
}

func (f Frame) OuterActive() bool {
	return f.LeftOuter || f.RightOuter
}

// Bias picks the steering correction. Before the intersection window re-arms
// the outer sensors help steer; once armed they are reserved for intersection
// detection and only the inner pair steers.
func (f Frame) Bias(armed bool) types.Bias {
	if armed {
		return types.Bias{Left: f.LeftInner, Right: f.RightInner}
	}
	return types.Bias{
		Left:  f.LeftOuter || f.LeftInner,
		Right: f.RightOuter || f.RightInner,
	}
}
