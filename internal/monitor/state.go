// Package monitor owns the tri-state monitoring lifecycle. One authority (the
// control surface) writes the value; every consuming context holds a cached
// copy refreshed by store change notifications, trading a small propagation
// lag for never blocking an interaction on a store read.
package monitor

// State is the monitoring lifecycle value.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Parse maps a stored value to a State, defaulting to running when the value
// is absent or unrecognized. A fresh install monitors until told otherwise.
func Parse(raw string) State {
	switch State(raw) {
	case StatePaused:
		return StatePaused
	case StateStopped:
		return StateStopped
	default:
		return StateRunning
	}
}

// Valid reports whether raw names one of the three lifecycle states exactly.
func Valid(raw string) bool {
	switch State(raw) {
	case StateRunning, StatePaused, StateStopped:
		return true
	}
	return false
}
