package jobq

// JobStatus is the lifecycle position of a job as observed from the store.
// Use the exported constants instead of raw strings to avoid typos.
type JobStatus string

const (
	// StatusNotFound means no job, claim, or result exists for the id.
	StatusNotFound JobStatus = "not_found"
	// StatusQueued means the job record exists and is waiting (or deferred).
	StatusQueued JobStatus = "queued"
	// StatusInProgress means a worker holds the in-progress claim.
	StatusInProgress JobStatus = "in_progress"
	// StatusComplete means a result record exists.
	StatusComplete JobStatus = "complete"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []JobStatus{StatusNotFound, StatusQueued, StatusInProgress, StatusComplete}

// String returns the raw string value of the status.
func (s JobStatus) String() string { return string(s) }

// ParseStatus converts a string into a JobStatus, returning an error for unknown values.
func ParseStatus(s string) (JobStatus, error) {
	switch s {
	case string(StatusNotFound):
		return StatusNotFound, nil
	case string(StatusQueued):
		return StatusQueued, nil
	case string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusComplete):
		return StatusComplete, nil
	default:
		return "", ErrUnknownStatus
	}
}
