package sensing

import (
	"time"

	"line-follower/internal/types"
)

// DefaultBaseInterval is the re-arm window after an intersection action when
// no offset applies.
const DefaultBaseInterval = 800 * time.Millisecond

// Timer tracks when the last intersection action finished and how much the
// completed maneuver shortens the next re-arm window.
type Timer struct {
	Last   time.Time
	Offset time.Duration
}

func NewTimer(now time.Time) Timer {
	return Timer{Last: now}
}

// Rearm restarts the window after a maneuver completes.
func (t *Timer) Rearm(now time.Time, completed types.Maneuver) {
	t.Last = now
	t.Offset = OffsetFor(completed)
}

// OffsetFor is the hysteresis offset a completed maneuver leaves behind.
// Straight passes let the next intersection come sooner; a tiny left is used
// on tightly spaced features and re-arms immediately.
func OffsetFor(m types.Maneuver) time.Duration {
	switch m {
	case types.Straight:
		return 300 * time.Millisecond
	case types.TinyLeft:
		return 800 * time.Millisecond
	default:
		return 0
	}
}

type Debouncer struct {
	base time.Duration
}

func NewDebouncer(base time.Duration) Debouncer {
	if base <= 0 {
		base = DefaultBaseInterval
	}
	return Debouncer{base: base}
}

// Window is the minimum time after t.Last before a new trigger is accepted.
func (d Debouncer) Window(t Timer) time.Duration {
	w := d.base - t.Offset
	if w < 0 {
		return 0
	}
	return w
}

func (d Debouncer) Armed(t Timer, now time.Time) bool {
	return now.Sub(t.Last) > d.Window(t)
}

// ShouldTrigger fires when an outer sensor sees the line and the window has
// elapsed. Outer activation alone repeats while the vehicle straddles a wide
// intersection; the window suppresses those repeats.
func (d Debouncer) ShouldTrigger(f Frame, t Timer, now time.Time) bool {
	return f.OuterActive() && d.Armed(t, now)
}
