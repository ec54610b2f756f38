// Package motion turns tracking bias and maneuvers into motor duty cycles.
//
// Maneuvers are open loop: a fixed duty configuration held for a fixed time.
// Execute blocks until the maneuver is over and cannot be interrupted, not even
// by an obstacle, because abandoning a turn half way leaves the vehicle
// straddling the line.
package motion

import (
	"fmt"
	"time"

	"line-follower/internal/clock"
	"line-follower/internal/logger"
	"line-follower/internal/types"
)

// MaxDuty is full scale for a PWM channel.
const MaxDuty = 1023

// DefaultSettlePause holds the vehicle still at an intersection before the
// maneuver starts.
const DefaultSettlePause = time.Second

// Duty is one duty value per motor driver input.
type Duty struct {
	RearA  int
	RearB  int
	FrontA int
	FrontB int
}

var (
	StopDuty      = Duty{}
	LeftBiasDuty  = Duty{RearA: 250, RearB: 650, FrontA: 650, FrontB: 250}
	RightBiasDuty = Duty{RearA: 650, RearB: 250, FrontA: 250, FrontB: 650}
	CenteredDuty  = Duty{RearA: 430, RearB: 400, FrontA: 400, FrontB: 430}
)

// Actuator applies duty values to the motor drivers.
type Actuator interface {
	SetDuty(d Duty) error
}

// Action is what the controller does for one maneuver kind.
type Action struct {
	Duty     Duty
	Duration time.Duration
	// Track uses the tracking duty for the current bias instead of Duty.
	Track bool
	// Terminal actions do not actuate at all.
	Terminal bool
}

// DefaultActions is indexed by maneuver so a new maneuver kind cannot be added
// without an entry.
var DefaultActions = [types.ManeuverCount]Action{
	types.Straight:  {Track: true},
	types.Left:      {Duty: Duty{RearA: 0, RearB: 1000, FrontA: 1000, FrontB: 0}, Duration: 650 * time.Millisecond},
	types.Right:     {Duty: Duty{RearA: 1000, RearB: 300, FrontA: 200, FrontB: 1000}, Duration: 800 * time.Millisecond},
	types.TinyLeft:  {Duty: Duty{RearA: 400, RearB: 900, FrontA: 900, FrontB: 400}, Duration: 300 * time.Millisecond},
	types.TinyRight: {Duty: Duty{RearA: 1000, RearB: 300, FrontA: 200, FrontB: 1000}, Duration: 400 * time.Millisecond},
	types.End:       {Terminal: true},
}

type Option func(*Controller)

// WithSettlePause overrides the stop before each maneuver.
func WithSettlePause(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithDuration overrides how long a maneuver holds its duty. Zero or negative
// values keep the default.
func WithDuration(m types.Maneuver, d time.Duration) Option {
	return func(c *Controller) {
		if m.Valid() && d > 0 {
			c.actions[m].Duration = d
		}
	}
}

type Controller struct {
	act     Actuator
	clock   clock.Clock
	logger  *logger.Logger
	actions [types.ManeuverCount]Action
	settle  time.Duration
}

func NewController(act Actuator, clk clock.Clock, l *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		act:     act,
		clock:   clk,
		logger:  l,
		actions: DefaultActions,
		settle:  DefaultSettlePause,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Action returns the configured action for m.
func (c *Controller) Action(m types.Maneuver) Action {
	return c.actions[m]
}

// TrackingDuty is the steering duty for a bias.
func TrackingDuty(bias types.Bias) Duty {
	switch {
	case bias.Left:
		return LeftBiasDuty
	case bias.Right:
		return RightBiasDuty
	default:
		return CenteredDuty
	}
}

// Track applies line-following duty between intersections.
func (c *Controller) Track(bias types.Bias) error {
	if err := c.act.SetDuty(TrackingDuty(bias)); err != nil {
		return fmt.Errorf("failed to apply tracking duty (%s): %w", bias, err)
	}
	return nil
}

// Stop zeroes every channel.
func (c *Controller) Stop() error {
	if err := c.act.SetDuty(StopDuty); err != nil {
		return fmt.Errorf("failed to stop motors: %w", err)
	}
	return nil
}

// Execute runs m to completion and leaves the motors stopped. End returns
// immediately without touching the outputs.
func (c *Controller) Execute(m types.Maneuver, bias types.Bias) error {
	if !m.Valid() {
		return fmt.Errorf("cannot execute %s", m)
	}
	action := c.actions[m]
	if action.Terminal {
		c.logger.Debugf("Maneuver %s: no actuation", m)
		return nil
	}

	if err := c.Stop(); err != nil {
		return err
	}
	c.clock.Sleep(c.settle)

	duty := action.Duty
	if action.Track {
		duty = TrackingDuty(bias)
	}
	c.logger.Debugf("Maneuver %s: duty=%+v for %v", m, duty, action.Duration)

	if err := c.act.SetDuty(duty); err != nil {
		// Never leave a half-applied maneuver running.
		if stopErr := c.Stop(); stopErr != nil {
			c.logger.Errorf("%v", stopErr)
		}
		return fmt.Errorf("failed to apply %s duty: %w", m, err)
	}
	if action.Duration > 0 {
		c.clock.Sleep(action.Duration)
	}

	return c.Stop()
}
