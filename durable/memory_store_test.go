package durable_test

import (
	"context"
	"testing"

	"github.com/lucianlature/cero/durable"
)

func TestMemoryStore_AppendEventAssignsGapFreeSequence(t *testing.T) {
	store := durable.NewMemoryStore()
	ctx := context.Background()

	first, err := store.AppendEvent(ctx, durable.WorkflowEvent{WorkflowID: "wf-1", Type: durable.EventWorkflowStarted})
	if err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}
	second, err := store.AppendEvent(ctx, durable.WorkflowEvent{WorkflowID: "wf-1", Type: durable.EventSleepScheduled})
	if err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("sequences = %d, %d; want 1, 2", first.Sequence, second.Sequence)
	}
}

func TestMemoryStore_GetEventsAfterSequence(t *testing.T) {
	store := durable.NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.AppendEvent(ctx, durable.WorkflowEvent{WorkflowID: "wf-1", Type: durable.EventSleepScheduled})
	}

	events, err := store.GetEvents(ctx, "wf-1", 1)
	if err != nil {
		t.Fatalf("GetEvents returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after sequence 1, got %d", len(events))
	}
	if events[0].Sequence != 2 || events[1].Sequence != 3 {
		t.Errorf("unexpected sequences: %+v", events)
	}
}

func TestMemoryStore_CheckpointSupersedes(t *testing.T) {
	store := durable.NewMemoryStore()
	ctx := context.Background()

	store.SaveCheckpoint(ctx, durable.WorkflowCheckpoint{WorkflowID: "wf-1", Sequence: 1, State: map[string]any{"step": 1}})
	store.SaveCheckpoint(ctx, durable.WorkflowCheckpoint{WorkflowID: "wf-1", Sequence: 2, State: map[string]any{"step": 2}})

	cp, err := store.GetLatestCheckpoint(ctx, "wf-1")
	if err != nil {
		t.Fatalf("GetLatestCheckpoint returned error: %v", err)
	}
	if cp.Sequence != 2 || cp.State["step"] != 2 {
		t.Errorf("unexpected checkpoint: %+v", cp)
	}
}

func TestMemoryStore_ActiveWorkflowLifecycle(t *testing.T) {
	store := durable.NewMemoryStore()
	ctx := context.Background()

	store.AppendEvent(ctx, durable.WorkflowEvent{
		WorkflowID: "wf-1",
		Type:       durable.EventWorkflowStarted,
		Payload:    map[string]any{"workflow_type": "order"},
	})

	active, err := store.ListActiveWorkflows(ctx)
	if err != nil || len(active) != 1 || active[0].WorkflowType != "order" {
		t.Fatalf("unexpected active workflows: %+v, %v", active, err)
	}

	if err := store.MarkCompleted(ctx, "wf-1"); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	active, _ = store.ListActiveWorkflows(ctx)
	if len(active) != 0 {
		t.Errorf("expected no active workflows after MarkCompleted, got %+v", active)
	}
}

func TestNewStore_Memory(t *testing.T) {
	store, err := durable.NewStore("memory")
	if err != nil || store == nil {
		t.Fatalf("NewStore(memory) = %v, %v", store, err)
	}
}

func TestNewStore_Unknown(t *testing.T) {
	if _, err := durable.NewStore("nonexistent"); err == nil {
		t.Error("expected an error for an unregistered store name")
	}
}
