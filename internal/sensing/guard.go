package sensing

import (
	"line-follower/internal/logger"
)

// DefaultObstacleThresholdMM matches the units the rangefinder reports.
const DefaultObstacleThresholdMM = 70

// Indicator drives the status LED.
type Indicator interface {
	SetIndicator(on bool) error
}

// Guard turns the instantaneous distance into a blocked/clear signal. There is
// no hysteresis: every call re-evaluates the threshold.
type Guard struct {
	thresholdMM int
	led         Indicator
	logger      *logger.Logger

	ledKnown bool
	ledOn    bool
}

func NewGuard(thresholdMM int, led Indicator, l *logger.Logger) *Guard {
	if thresholdMM <= 0 {
		thresholdMM = DefaultObstacleThresholdMM
	}
	return &Guard{
		thresholdMM: thresholdMM,
		led:         led,
		logger:      l,
	}
}

// IsBlocked reports whether distanceMM is at or inside the threshold and
// mirrors the result on the status LED.
func (g *Guard) IsBlocked(distanceMM int) bool {
	blocked := distanceMM <= g.thresholdMM
	g.setIndicator(blocked)
	return blocked
}

func (g *Guard) setIndicator(on bool) {
	if g.ledKnown && g.ledOn == on {
		return
	}
	if err := g.led.SetIndicator(on); err != nil {
		g.logger.Warnf("Failed to set obstacle indicator=%v: %v", on, err)
		return
	}
	g.ledKnown = true
	g.ledOn = on
}
