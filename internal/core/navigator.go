// File: internal/core/navigator.go
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/librescoot/librefsm"

	"line-follower/internal/clock"
	"line-follower/internal/fsm"
	"line-follower/internal/logger"
	"line-follower/internal/motion"
	"line-follower/internal/path"
	"line-follower/internal/protocol"
	"line-follower/internal/sensing"
	"line-follower/internal/types"
)

const DefaultTickInterval = 50 * time.Millisecond

type Options struct {
	TickInterval        time.Duration
	BaseInterval        time.Duration
	ObstacleThresholdMM int
	DefaultPathID       int
	Motion              []motion.Option
}

// stateMachine is the subset of the librefsm machine the loop drives.
type stateMachine interface {
	SendSync(event librefsm.Event) error
	CurrentState() librefsm.StateID
}

// Navigator runs the sense/decide/act loop. Everything except the path queue
// is owned by the goroutine calling Run or Tick.
type Navigator struct {
	logger *logger.Logger
	io     HardwareIO
	redis  MessagingClient
	clock  clock.Clock

	sensors   *sensing.Array
	guard     *sensing.Guard
	debouncer sensing.Debouncer
	timer     sensing.Timer
	queue     *path.Queue
	motion    *motion.Controller
	machine   stateMachine
	fsmCancel context.CancelFunc

	tickInterval  time.Duration
	defaultPathID int
	runID         string
	lastBias      types.Bias
}

func NewNavigator(io HardwareIO, rng sensing.RangeReader, redis MessagingClient, clk clock.Clock, opts Options, l *logger.Logger) *Navigator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Navigator{
		logger:        l,
		io:            io,
		redis:         redis,
		clock:         clk,
		sensors:       sensing.NewArray(io, rng, l.WithTag("sensors")),
		guard:         sensing.NewGuard(opts.ObstacleThresholdMM, io, l.WithTag("guard")),
		debouncer:     sensing.NewDebouncer(opts.BaseInterval),
		timer:         sensing.NewTimer(clk.Now()),
		queue:         path.NewQueue(path.DefaultSequence(), opts.DefaultPathID),
		motion:        motion.NewController(io, clk, l.WithTag("motion"), opts.Motion...),
		tickInterval:  opts.TickInterval,
		defaultPathID: opts.DefaultPathID,
		runID:         uuid.NewString(),
	}
}

func (n *Navigator) Start(ctx context.Context) error {
	n.logger.Infof("Starting navigator (run %s)", n.runID)

	n.redis.SetCallbacks(n.callbacks())
	if err := n.redis.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := n.io.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}
	if err := n.motion.Stop(); err != nil {
		n.logger.Warnf("Initial stop failed: %v", err)
	}

	if err := n.initFSM(ctx); err != nil {
		return fmt.Errorf("failed to start state machine: %w", err)
	}
	if err := n.redis.PublishNavigationState(n.State()); err != nil {
		n.logger.Warnf("Failed to publish initial state: %v", err)
	}

	// Start Redis listeners now that everything is initialized
	if err := n.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start Redis listeners: %w", err)
	}

	n.logger.Infof("Navigator started")
	return nil
}

// Run ticks until the loop halts or ctx is cancelled. Motors are stopped on
// return either way.
func (n *Navigator) Run(ctx context.Context) error {
	n.logger.Infof("Navigation loop running every %v", n.tickInterval)
	for {
		if err := n.Tick(); err != nil {
			n.logger.Warnf("Tick: %v", err)
		}
		if n.State() == types.StateHalted {
			n.logger.Infof("Navigation halted")
			return nil
		}

		select {
		case <-ctx.Done():
			if err := n.motion.Stop(); err != nil {
				n.logger.Errorf("%v", err)
			}
			return ctx.Err()
		default:
		}
		n.clock.Sleep(n.tickInterval)
	}
}

// Tick performs one sense/decide/act step. The obstacle check runs before any
// other decision and zeroes the outputs in the same tick.
func (n *Navigator) Tick() error {
	state := n.machine.CurrentState()
	if state == fsm.StateHalted {
		return n.motion.Stop()
	}

	frame := n.sensors.Read()
	now := n.clock.Now()

	if n.guard.IsBlocked(frame.DistanceMM) {
		if state != fsm.StateBlocked {
			n.logger.Infof("Obstacle at %dmm", frame.DistanceMM)
			if err := n.sendEvent(fsm.EvObstacle); err != nil {
				n.logger.Errorf("Failed to enter blocked: %v", err)
			}
		}
		return n.motion.Stop()
	}

	if state == fsm.StateBlocked {
		if err := n.sendEvent(fsm.EvObstacleCleared); err != nil {
			return fmt.Errorf("failed to leave blocked: %w", err)
		}
	}

	if n.debouncer.ShouldTrigger(frame, n.timer, now) {
		return n.handleIntersection(frame)
	}

	return n.motion.Track(n.steeringBias(frame, now))
}

// steeringBias falls back to the last valid bias while the sensors fault.
func (n *Navigator) steeringBias(frame sensing.Frame, now time.Time) types.Bias {
	if frame.Fault {
		return n.lastBias
	}
	n.lastBias = frame.Bias(n.debouncer.Armed(n.timer, now))
	return n.lastBias
}

// handleIntersection pulls the next maneuver and runs it to completion. The
// queue is only consulted here, so a replacement never affects a maneuver
// already in progress.
func (n *Navigator) handleIntersection(frame sensing.Frame) error {
	if err := n.sendEvent(fsm.EvIntersection); err != nil {
		return err
	}

	step, ok := n.queue.Next()
	if !ok {
		n.logger.Infof("Path %d exhausted without end", n.queue.CurrentPathID())
		return n.sendEvent(fsm.EvPathExhausted)
	}

	// First maneuver of a sequence received over the wire
	if step.Index == 0 && step.Generation > 0 && step.Maneuver != types.End {
		n.publishAck(protocol.TypeAckTask, step.PathID)
	}

	if err := n.sendEvent(fsm.EvManeuverStart); err != nil {
		return err
	}
	n.logger.Infof("Intersection: %s for %v (path %d, step %d)",
		step.Maneuver, n.motion.Action(step.Maneuver).Duration, step.PathID, step.Index)
	if err := n.redis.PublishProgress(step.PathID, step.Index, step.Maneuver); err != nil {
		n.logger.Warnf("Failed to publish progress: %v", err)
	}

	// Straight steers on the inner pair of the trigger frame
	bias := n.lastBias
	if !frame.Fault {
		bias = frame.Bias(true)
	}
	execErr := n.motion.Execute(step.Maneuver, bias)
	n.timer.Rearm(n.clock.Now(), step.Maneuver)
	if execErr != nil {
		n.logger.Errorf("Maneuver %s failed: %v", step.Maneuver, execErr)
	}

	if step.Maneuver == types.End {
		return n.sendEvent(fsm.EvEndReached)
	}
	return n.sendEvent(fsm.EvManeuverDone)
}

// State returns the current navigation state.
func (n *Navigator) State() types.NavigationState {
	if n.machine == nil {
		return types.StateTracking
	}
	return stateIDToNavigationState(n.machine.CurrentState())
}

func (n *Navigator) Shutdown() {
	n.logger.Infof("Shutting down navigator")
	if err := n.motion.Stop(); err != nil {
		n.logger.Errorf("%v", err)
	}
	if err := n.io.SetIndicator(false); err != nil {
		n.logger.Warnf("Failed to clear indicator: %v", err)
	}
	n.io.Cleanup()
	if n.fsmCancel != nil {
		n.fsmCancel()
	}
	if err := n.redis.Close(); err != nil {
		n.logger.Warnf("Failed to close Redis client: %v", err)
	}
}
