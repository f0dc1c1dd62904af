package durable

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the reference WorkflowStore implementation: everything
// lives in process memory, lost on restart. It exists to make the engine
// runnable and testable without a real database; production deployments
// implement WorkflowStore against durable storage.
type MemoryStore struct {
	mu          sync.Mutex
	events      map[string][]WorkflowEvent
	checkpoints map[string]WorkflowCheckpoint
	active      map[string]ActiveWorkflowInfo
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string][]WorkflowEvent),
		checkpoints: make(map[string]WorkflowCheckpoint),
		active:      make(map[string]ActiveWorkflowInfo),
	}
}

// AppendEvent assigns the next gap-free sequence number for event's
// workflow and stores it.
func (s *MemoryStore) AppendEvent(ctx context.Context, event WorkflowEvent) (WorkflowEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[event.WorkflowID]
	event.Sequence = int64(len(existing)) + 1
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events[event.WorkflowID] = append(existing, event)

	if event.Type == EventWorkflowStarted {
		workflowType, _ := event.Payload["workflow_type"].(string)
		s.active[event.WorkflowID] = ActiveWorkflowInfo{
			WorkflowID:   event.WorkflowID,
			WorkflowType: workflowType,
			StartedAt:    event.Timestamp,
		}
	}
	return event, nil
}

// GetEvents returns every event recorded after afterSequence, in sequence
// order, for replay.
func (s *MemoryStore) GetEvents(ctx context.Context, workflowID string, afterSequence int64) ([]WorkflowEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[workflowID]
	out := make([]WorkflowEvent, 0, len(all))
	for _, e := range all {
		if e.Sequence > afterSequence {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// SaveCheckpoint stores checkpoint, replacing whichever checkpoint
// previously existed for the same workflow.
func (s *MemoryStore) SaveCheckpoint(ctx context.Context, checkpoint WorkflowCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if checkpoint.Timestamp.IsZero() {
		checkpoint.Timestamp = time.Now()
	}
	s.checkpoints[checkpoint.WorkflowID] = checkpoint
	return nil
}

// GetLatestCheckpoint returns the most recent checkpoint for workflowID, if
// any has been saved.
func (s *MemoryStore) GetLatestCheckpoint(ctx context.Context, workflowID string) (*WorkflowCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[workflowID]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

// ListActiveWorkflows returns every workflow that has started but not yet
// been marked completed, for recovery on process restart.
func (s *MemoryStore) ListActiveWorkflows(ctx context.Context) ([]ActiveWorkflowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ActiveWorkflowInfo, 0, len(s.active))
	for _, info := range s.active {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkflowID < out[j].WorkflowID })
	return out, nil
}

// MarkCompleted removes workflowID from the active set.
func (s *MemoryStore) MarkCompleted(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, workflowID)
	return nil
}
