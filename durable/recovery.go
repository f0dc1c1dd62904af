package durable

import "context"

// WorkflowRecovery resumes whatever workflows a WorkflowStore still
// considers active after a restart, pairing it with the WorkflowRegistry
// needed to look up each one's WorkflowFunc by type name.
type WorkflowRecovery struct {
	store    WorkflowStore
	registry *WorkflowRegistry
}

// NewWorkflowRecovery returns a WorkflowRecovery bound to store and
// registry.
func NewWorkflowRecovery(store WorkflowStore, registry *WorkflowRegistry) *WorkflowRecovery {
	return &WorkflowRecovery{store: store, registry: registry}
}

// ListRecoverable returns every workflow the store still considers active,
// in the order the store reports them.
func (rec *WorkflowRecovery) ListRecoverable(ctx context.Context) ([]ActiveWorkflowInfo, error) {
	return rec.store.ListActiveWorkflows(ctx)
}

// RecoverAll resumes every recoverable workflow and returns the resulting
// Handles keyed by workflow ID. A workflow whose type isn't registered is
// skipped rather than aborting the whole recovery pass — one unrecoverable
// workflow out of hundreds shouldn't block the rest from coming back up.
// Its lookup/resume error is discarded: the returned map has no entry for
// it and the returned error stays nil.
func (rec *WorkflowRecovery) RecoverAll(ctx context.Context, opts ...Option) (map[string]*Handle, error) {
	infos, err := rec.ListRecoverable(ctx)
	if err != nil {
		return nil, err
	}

	handles := make(map[string]*Handle, len(infos))
	for _, info := range infos {
		h, err := ResumeWorkflow(ctx, rec.store, rec.registry, info.WorkflowType, info.WorkflowID, opts...)
		if err != nil {
			continue
		}
		handles[info.WorkflowID] = h
	}
	return handles, nil
}
