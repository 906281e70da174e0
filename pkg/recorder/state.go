package recorder

type State int

const (
	StateIdle State = iota
	StateRouteSelected
	StateInProgress
	StateAwaitingDestination
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRouteSelected:
		return "RouteSelected"
	case StateInProgress:
		return "InProgress"
	case StateAwaitingDestination:
		return "AwaitingDestination"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Driving reports whether the clock of a drive is running in this state.
func (s State) Driving() bool {
	return s == StateInProgress || s == StateAwaitingDestination
}
