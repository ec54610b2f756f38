package hardware

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"line-follower/internal/clock"
	"line-follower/internal/logger"
)

// ErrStaleReading is returned when the rangefinder has not reported recently.
var ErrStaleReading = errors.New("stale distance reading")

// maxRangeMM bounds plausible readings; anything outside is line noise.
const maxRangeMM = 8190

// SerialRangefinder follows a time-of-flight module that prints one distance
// in millimetres per line. A background reader keeps the latest value so
// ReadDistance never blocks the control loop.
type SerialRangefinder struct {
	port   io.ReadCloser
	maxAge time.Duration
	clock  clock.Clock
	logger *logger.Logger

	mu     sync.Mutex
	lastMM int
	lastAt time.Time
	seen   bool
	done   chan struct{}
}

func OpenSerialRangefinder(device string, baud int, maxAge time.Duration, l *logger.Logger) (*SerialRangefinder, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open rangefinder %s: %w", device, err)
	}
	l.Infof("Opened rangefinder on %s at %d baud", device, baud)
	return NewSerialRangefinder(port, maxAge, clock.Real{}, l), nil
}

// NewSerialRangefinder starts reading from port immediately.
func NewSerialRangefinder(port io.ReadCloser, maxAge time.Duration, clk clock.Clock, l *logger.Logger) *SerialRangefinder {
	r := &SerialRangefinder{
		port:   port,
		maxAge: maxAge,
		clock:  clk,
		logger: l,
		done:   make(chan struct{}),
	}
	go r.monitor()
	return r
}

func (r *SerialRangefinder) monitor() {
	defer close(r.done)

	scanner := bufio.NewScanner(r.port)
	for scanner.Scan() {
		mm, err := parseDistanceLine(scanner.Text())
		if err != nil {
			r.logger.Debugf("Ignoring rangefinder line %q: %v", scanner.Text(), err)
			continue
		}
		r.mu.Lock()
		r.lastMM = mm
		r.lastAt = r.clock.Now()
		r.seen = true
		r.mu.Unlock()
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warnf("Rangefinder read stopped: %v", err)
	}
}

// parseDistanceLine accepts "123", "123mm" and "d=123".
func parseDistanceLine(line string) (int, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "d=")
	var mm int
	if _, err := fmt.Sscanf(line, "%d", &mm); err != nil {
		return 0, err
	}
	if !InRange(mm, 0, maxRangeMM) {
		return 0, fmt.Errorf("out of range: %d", mm)
	}
	return mm, nil
}

func (r *SerialRangefinder) ReadDistance() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seen {
		return 0, ErrStaleReading
	}
	if age := r.clock.Now().Sub(r.lastAt); r.maxAge > 0 && age > r.maxAge {
		return 0, fmt.Errorf("%w: %v old", ErrStaleReading, age)
	}
	return r.lastMM, nil
}

func (r *SerialRangefinder) Close() error {
	err := r.port.Close()
	<-r.done
	return err
}

// AdcRangefinder reads an analog distance sensor through the IIO sysfs
// interface and scales raw counts to millimetres.
type AdcRangefinder struct {
	device  string
	channel int
	scale   float64
}

func NewAdcRangefinder(device string, channel int, mmPerCount float64) *AdcRangefinder {
	return &AdcRangefinder{
		device:  device,
		channel: channel,
		scale:   mmPerCount,
	}
}

func (a *AdcRangefinder) ReadDistance() (int, error) {
	raw, err := ReadAdcValue(a.device, a.channel)
	if err != nil {
		return 0, err
	}
	return int(float64(raw) * a.scale), nil
}

func (a *AdcRangefinder) Close() error { return nil }
