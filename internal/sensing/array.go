package sensing

import (
	"line-follower/internal/logger"
)

// LineReader samples the five line sensors, left to right.
type LineReader interface {
	ReadLineSensors() ([LineSensorCount]bool, error)
}

// RangeReader returns the latest distance reading in millimetres.
type RangeReader interface {
	ReadDistance() (int, error)
}

type Array struct {
	lines  LineReader
	rng    RangeReader
	logger *logger.Logger
}

func NewArray(lines LineReader, rng RangeReader, l *logger.Logger) *Array {
	return &Array{
		lines:  lines,
		rng:    rng,
		logger: l,
	}
}

// Read samples every sensor once. A failed read produces a fault frame rather
// than an error so the loop keeps its last steering bias instead of stopping.
func (a *Array) Read() Frame {
	lines, err := a.lines.ReadLineSensors()
	if err != nil {
		a.logger.Warnf("Line sensor read failed: %v", err)
		return FaultFrame()
	}

	distance, err := a.rng.ReadDistance()
	if err != nil {
		a.logger.Warnf("Distance read failed: %v", err)
		return FaultFrame()
	}

	return frameFromLines(lines, distance)
}
