package types

type NavigationState string

const (
	StateTracking          NavigationState = "tracking"
	StateAtIntersection    NavigationState = "at-intersection"
	StateExecutingManeuver NavigationState = "executing-maneuver"
	StateBlocked           NavigationState = "blocked"
	StateHalted            NavigationState = "halted"
)
