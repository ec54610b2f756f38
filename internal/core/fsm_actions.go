package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"line-follower/internal/fsm"
	"line-follower/internal/protocol"
	"line-follower/internal/types"
)

// Ensure Navigator implements fsm.Actions
var _ fsm.Actions = (*Navigator)(nil)

// stateIDToNavigationState converts librefsm StateID to types.NavigationState
func stateIDToNavigationState(id librefsm.StateID) types.NavigationState {
	switch id {
	case fsm.StateTracking:
		return types.StateTracking
	case fsm.StateAtIntersection:
		return types.StateAtIntersection
	case fsm.StateExecutingManeuver:
		return types.StateExecutingManeuver
	case fsm.StateBlocked:
		return types.StateBlocked
	case fsm.StateHalted:
		return types.StateHalted
	default:
		return types.NavigationState(string(id))
	}
}

// initFSM initializes and starts the librefsm machine. The machine outlives
// ctx so events sent while the loop winds down are still processed; Shutdown
// stops it.
func (n *Navigator) initFSM(ctx context.Context) error {
	def := fsm.NewDefinition(n)
	machine, err := def.Build()
	if err != nil {
		return err
	}

	machine.OnStateChange(func(from, to librefsm.StateID) {
		newState := stateIDToNavigationState(to)
		n.logger.Infof("State transition: %s -> %s", stateIDToNavigationState(from), newState)

		if err := n.redis.PublishNavigationState(newState); err != nil {
			n.logger.Errorf("Failed to publish state: %v", err)
		}
	})

	fsmCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := machine.Start(fsmCtx); err != nil {
		cancel()
		return err
	}
	n.machine = machine
	n.fsmCancel = cancel

	n.logger.Infof("librefsm state machine started")
	return nil
}

// sendEvent sends an event to the FSM. Only the loop goroutine sends events.
func (n *Navigator) sendEvent(event librefsm.EventID) error {
	return n.machine.SendSync(librefsm.Event{ID: event})
}

func (n *Navigator) publishAck(kind string, pathID int) {
	ack := protocol.NewAck(kind, pathID, n.runID, n.clock.Now())
	if err := n.redis.PublishAck(ack); err != nil {
		n.logger.Warnf("Failed to publish %s: %v", kind, err)
	}
}

// === State Entry Actions ===

func (n *Navigator) EnterAtIntersection(c *librefsm.Context) error {
	n.logger.Debugf("Intersection reached from %s", stateIDToNavigationState(c.FromState))
	return nil
}

func (n *Navigator) EnterBlocked(c *librefsm.Context) error {
	n.logger.Infof("Blocked, stopping motors")
	return n.motion.Stop()
}

// EnterHalted zeroes the outputs and sends the single ack_stop for this run.
// Halted has no outgoing transitions, so this runs at most once.
func (n *Navigator) EnterHalted(c *librefsm.Context) error {
	n.logger.Infof("Halted (from %s)", stateIDToNavigationState(c.FromState))
	if err := n.motion.Stop(); err != nil {
		n.logger.Errorf("%v", err)
	}
	n.publishAck(protocol.TypeAckStop, n.queue.CurrentPathID())
	return nil
}

// === State Exit Actions ===

func (n *Navigator) ExitBlocked(c *librefsm.Context) error {
	n.logger.Infof("Obstacle cleared")
	return nil
}
