package fsm

import "github.com/librescoot/librefsm"

// Navigation states
const (
	StateTracking          librefsm.StateID = "tracking"
	StateAtIntersection    librefsm.StateID = "at-intersection"
	StateExecutingManeuver librefsm.StateID = "executing-maneuver"
	StateBlocked           librefsm.StateID = "blocked"
	StateHalted            librefsm.StateID = "halted"
)

// Navigation events
const (
	// Obstacle guard
	EvObstacle        librefsm.EventID = "obstacle"
	EvObstacleCleared librefsm.EventID = "obstacle-cleared"

	// Intersection handling
	EvIntersection  librefsm.EventID = "intersection"
	EvManeuverStart librefsm.EventID = "maneuver-start"
	EvPathExhausted librefsm.EventID = "path-exhausted"
	EvManeuverDone  librefsm.EventID = "maneuver-done"
	EvEndReached    librefsm.EventID = "end-reached"
)
