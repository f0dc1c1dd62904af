package durable

import "time"

// WorkflowCheckpoint is a point-in-time snapshot of a workflow's durable
// state, taken periodically so replay doesn't have to start from sequence
// zero. A new checkpoint supersedes whichever one came before it for the
// same workflow; only the latest is kept.
type WorkflowCheckpoint struct {
	WorkflowID string
	Sequence   int64 // last event sequence folded into this snapshot
	State      map[string]any
	Timestamp  time.Time
}

// ActiveWorkflowInfo summarizes a workflow the store still considers
// running, returned by ListActiveWorkflows for recovery on process start.
type ActiveWorkflowInfo struct {
	WorkflowID   string
	WorkflowType string
	StartedAt    time.Time
}
