package assistant

// JobState tracks one submission attempt's lifecycle. Transitions only move
// forward; a retry starts a fresh Job.
type JobState string

const (
	JobCreated   JobState = "created"
	JobSubmitted JobState = "submitted"
	JobPolling   JobState = "polling"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobTimedOut  JobState = "timed_out"
)

var jobOrder = map[JobState]int{
	JobCreated:   0,
	JobSubmitted: 1,
	JobPolling:   2,
	JobCompleted: 3,
	JobFailed:    3,
	JobTimedOut:  3,
}

// Job is one submission attempt against the assistant service.
type Job struct {
	ThreadID string
	RunID    string
	State    JobState
}

// advance moves the job forward; backward transitions are dropped and a
// terminal state is final.
func (j *Job) advance(next JobState) {
	if j.Done() || jobOrder[next] < jobOrder[j.State] {
		return
	}
	j.State = next
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.State == JobCompleted || j.State == JobFailed || j.State == JobTimedOut
}
