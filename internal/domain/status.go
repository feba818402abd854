package domain

// StatusSnapshot is what a status query returns. Fields are only set for the
// states they belong to: queue fields for queued, Outputs for completed and
// Error for failed.
type StatusSnapshot struct {
	JobID         string
	State         JobState
	QueuePosition int
	QueueLength   int
	Outputs       []Output
	Error         string
}
