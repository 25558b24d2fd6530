package download

// Status tracks download job state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
)

// validTransitions defines allowed state transitions.
// Key is the "from" status, value is list of valid "to" statuses.
// Same-state re-application is handled separately as an idempotent
// refresh and is not listed here.
var validTransitions = map[Status][]Status{
	StatusQueued:      {StatusDownloading, StatusFailed, StatusCanceled},
	StatusDownloading: {StatusCompleted, StatusFailed, StatusCanceled},
	StatusCompleted:   {}, // terminal
	StatusFailed:      {}, // terminal
	StatusCanceled:    {}, // terminal
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	valid, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this status has no valid outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// IsActive returns true for statuses the sync loop reconciles.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusDownloading
}
