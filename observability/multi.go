package observability

import "context"

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// FilteredObserver drops events below a minimum level before forwarding to
// next. task.Execute emits a LevelVerbose event for every attribute bind,
// pre-work step, and process-wide callback dispatch; wrapping a chatty
// backend in a FilteredObserver set to LevelInfo silences that volume
// without needing a bespoke Observer per deployment. durable.Handle emits
// its workflow events at LevelInfo, so they pass such a filter.
type FilteredObserver struct {
	min  Level
	next Observer
}

// NewFilteredObserver returns a FilteredObserver that forwards to next only
// events at or above min.
func NewFilteredObserver(min Level, next Observer) *FilteredObserver {
	return &FilteredObserver{min: min, next: next}
}

func (f *FilteredObserver) OnEvent(ctx context.Context, event Event) {
	if event.Level < f.min {
		return
	}
	f.next.OnEvent(ctx, event)
}
