package fsm

import (
	"github.com/librescoot/librefsm"
)

// NewDefinition creates the navigation FSM definition.
// The actions parameter provides the implementation for state entry/exit.
func NewDefinition(actions Actions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateTracking).
		State(StateAtIntersection,
			librefsm.WithOnEnter(actions.EnterAtIntersection),
		).
		State(StateExecutingManeuver).
		State(StateBlocked,
			librefsm.WithOnEnter(actions.EnterBlocked),
			librefsm.WithOnExit(actions.ExitBlocked),
		).
		// Terminal: no transitions leave Halted.
		State(StateHalted,
			librefsm.WithOnEnter(actions.EnterHalted),
		).

		// === Transitions ===

		// Obstacle guard overrides tracking and a pending intersection.
		// ExecutingManeuver has no obstacle transition: a running maneuver is
		// never interrupted.
		Transition(StateTracking, EvObstacle, StateBlocked).
		Transition(StateAtIntersection, EvObstacle, StateBlocked).
		Transition(StateBlocked, EvObstacleCleared, StateTracking).

		// Intersection handling
		Transition(StateTracking, EvIntersection, StateAtIntersection).
		Transition(StateAtIntersection, EvManeuverStart, StateExecutingManeuver).
		Transition(StateAtIntersection, EvPathExhausted, StateHalted).
		Transition(StateExecutingManeuver, EvManeuverDone, StateTracking).
		Transition(StateExecutingManeuver, EvEndReached, StateHalted).

		// Initial state
		Initial(StateTracking)
}
