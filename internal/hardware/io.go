package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"line-follower/internal/logger"
	"line-follower/internal/motion"
)

// Options maps logical signals onto GPIO lines and PWM channels.
type Options struct {
	LineSensors    [5]LineAddr
	DirectionLines []LineAddr
	Led            LineAddr
	PwmRoot        string
	PwmChip        int
	PwmChannels    [4]int // rear-A, rear-B, front-A, front-B
	PwmPeriodNs    int
}

type LinuxHardwareIO struct {
	logger  *logger.Logger
	opts    Options
	chips   map[int]*gpiocdev.Chip
	sensors [5]*gpiocdev.Line
	lines   map[string]*gpiocdev.Line
	pwm     [4]*PwmChannel
	mu      sync.RWMutex
}

func NewLinuxHardwareIO(opts Options, l *logger.Logger) *LinuxHardwareIO {
	if opts.PwmRoot == "" {
		opts.PwmRoot = PwmSysfsRoot
	}
	return &LinuxHardwareIO{
		logger: l,
		opts:   opts,
		chips:  make(map[int]*gpiocdev.Chip),
		lines:  make(map[string]*gpiocdev.Line),
	}
}

func (io *LinuxHardwareIO) chip(n int) (*gpiocdev.Chip, error) {
	if c, ok := io.chips[n]; ok {
		return c, nil
	}
	c, err := gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", n))
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %d: %w", n, err)
	}
	io.chips[n] = c
	return c, nil
}

func (io *LinuxHardwareIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO")

	io.mu.Lock()
	defer io.mu.Unlock()

	for i, addr := range io.opts.LineSensors {
		chip, err := io.chip(addr.Chip)
		if err != nil {
			return err
		}
		line, err := chip.RequestLine(addr.Line,
			gpiocdev.AsInput,
			gpiocdev.WithConsumer(GpioConsumer))
		if err != nil {
			return fmt.Errorf("failed to request line sensor %d (chip=%d line=%d): %w", i, addr.Chip, addr.Line, err)
		}
		io.sensors[i] = line
		io.logger.Debugf("Configured line sensor %d: chip=%d, line=%d", i, addr.Chip, addr.Line)
	}

	outputs := map[string]LineAddr{"led": io.opts.Led}
	for i, addr := range io.opts.DirectionLines {
		outputs[fmt.Sprintf("direction%d", i)] = addr
	}
	for name, addr := range outputs {
		chip, err := io.chip(addr.Chip)
		if err != nil {
			return err
		}
		line, err := chip.RequestLine(addr.Line,
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer(GpioConsumer))
		if err != nil {
			return fmt.Errorf("failed to request output %s (chip=%d line=%d): %w", name, addr.Chip, addr.Line, err)
		}
		io.lines[name] = line
		io.logger.Debugf("Configured DO %s: chip=%d, line=%d", name, addr.Chip, addr.Line)
	}

	for i, ch := range io.opts.PwmChannels {
		p, err := OpenPwmChannel(io.opts.PwmRoot, io.opts.PwmChip, ch, io.opts.PwmPeriodNs)
		if err != nil {
			return fmt.Errorf("failed to initialize PWM channel %d: %w", ch, err)
		}
		io.pwm[i] = p
	}

	io.logger.Infof("Hardware IO ready")
	return nil
}

// ReadLineSensors samples the five line sensors, left to right.
func (io *LinuxHardwareIO) ReadLineSensors() ([5]bool, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()

	var values [5]bool
	for i, line := range io.sensors {
		if line == nil {
			return values, fmt.Errorf("line sensor %d not initialized", i)
		}
		v, err := line.Value()
		if err != nil {
			return values, fmt.Errorf("failed to read line sensor %d: %w", i, err)
		}
		values[i] = v == 1
	}
	return values, nil
}

func (io *LinuxHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[channel]
	io.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown digital output channel: %s", channel)
	}

	val := 0
	if value {
		val = 1
	}

	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set DO %s=%v: %w", channel, value, err)
	}

	io.logger.Debugf("Set DO %s=%v", channel, value)
	return nil
}

// SetIndicator drives the obstacle LED.
func (io *LinuxHardwareIO) SetIndicator(on bool) error {
	return io.WriteDigitalOutput("led", on)
}

// SetDuty writes all four motor channels. Every channel is attempted even if
// an earlier one fails so a stop request zeroes as much as it can.
func (io *LinuxHardwareIO) SetDuty(d motion.Duty) error {
	io.mu.RLock()
	defer io.mu.RUnlock()

	var firstErr error
	for i, duty := range [4]int{d.RearA, d.RearB, d.FrontA, d.FrontB} {
		if io.pwm[i] == nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("PWM channel %d not initialized", i)
			}
			continue
		}
		if err := io.pwm[i].SetDuty(duty); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")

	for i, p := range io.pwm {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			io.logger.Warnf("Failed to close PWM channel %d: %v", i, err)
		}
		io.pwm[i] = nil
	}

	for i, line := range io.sensors {
		if line != nil {
			line.Close()
			io.sensors[i] = nil
		}
	}

	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}

	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}

	io.logger.Infof("Hardware cleanup complete")
}
