package experiment

// statusTransitions encodes the authoring lifecycle:
// draft -> running -> {paused <-> running} -> completed | archived.
// completed and archived are terminal.
var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusRunning, StatusArchived},
	StatusRunning:   {StatusPaused, StatusCompleted, StatusArchived},
	StatusPaused:    {StatusRunning, StatusCompleted, StatusArchived},
	StatusCompleted: {},
	StatusArchived:  {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Assignable reports whether the status permits new assignments.
// Only running experiments assign.
func (s Status) Assignable() bool {
	return s == StatusRunning
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusArchived
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
