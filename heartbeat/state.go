package heartbeat

// State is the lifecycle state of a Service.
type State int32

const (
	// StateNotStarted is the initial state; ticks are ignored.
	StateNotStarted State = iota
	// StateRunning is entered by OnStart and never left.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}
