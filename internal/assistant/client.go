package assistant

import "context"

// RunStatus is the service-side status of one assistant run.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "in_progress"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
	StatusCancelled  RunStatus = "cancelled"
	StatusExpired    RunStatus = "expired"
)

// Terminal reports whether the service will never change this status again.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Segment is one content block of an assistant message; only text segments
// carry a usable payload.
type Segment struct {
	Type string
	Text string
}

// Message is one entry in a thread's message list, newest first.
type Message struct {
	Role     string
	Segments []Segment
}

// Client is the five-operation surface the orchestrator needs from the
// assistant service.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (string, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (RunStatus, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
