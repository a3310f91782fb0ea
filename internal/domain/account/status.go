package account

// Status is the lifecycle state of an account
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusFrozen  Status = "FROZEN"
	StatusDormant Status = "DORMANT"
	StatusClosed  Status = "CLOSED"
)

var transitions = map[Status][]Status{
	StatusActive:  {StatusFrozen, StatusDormant, StatusClosed},
	StatusFrozen:  {StatusActive, StatusDormant, StatusClosed},
	StatusDormant: {StatusActive, StatusClosed},
	StatusClosed:  nil, // terminal
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
