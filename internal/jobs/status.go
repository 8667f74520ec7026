package jobs

// Status represents the lifecycle state of a download job.
// Jobs advance strictly forward through these states; the only
// transition that skips ahead is into StatusError, which is reachable
// from any non-terminal state.
//
// Centralizing these here avoids scattering string literals like
// "queued" or "completed" across packages.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"

	// StatusWaiting is never stored; it is the placeholder a progress
	// stream emits while the job id is not yet visible in the store.
	StatusWaiting Status = "waiting"
)

// Terminal reports whether a job in this state will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// rank orders the canonical state machine. StatusError ranks above
// everything so the forward-only guard in Store.Update admits it from
// any non-terminal state.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusStarting:
		return 1
	case StatusDownloading:
		return 2
	case StatusProcessing:
		return 3
	case StatusCompleted:
		return 4
	case StatusError:
		return 5
	}
	return -1
}

// ErrorKind classifies terminal failures stored on a job.
type ErrorKind string

const (
	// ErrorKindFetchUnavailable marks sources that rejected or
	// restricted access.
	ErrorKindFetchUnavailable ErrorKind = "fetch_unavailable"

	// ErrorKindInternal covers every other fetch or post-processing
	// failure.
	ErrorKindInternal ErrorKind = "internal"
)
