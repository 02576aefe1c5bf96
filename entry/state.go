package entry

import "errors"

// ErrInvalidTransition is returned for a status change the lifecycle does
// not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusError},
	StatusInProgress: {StatusReady, StatusError},
	StatusReady:      {StatusComplete},
}

// CanTransition reports whether from -> to is a defined transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
