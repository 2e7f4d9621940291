package fight

import (
	"github.com/google/uuid"

	"aggrolog/engine/event"
	"aggrolog/engine/ruleset"
)

type installedInterceptor struct {
	id          string
	fn          ruleset.Interceptor
	installedAt int64
}

// InterceptorOutcome pairs one interceptor's id with the result it
// returned for an event.
type InterceptorOutcome struct {
	ID string
	ruleset.InterceptorResult
}

// InterceptorTracker is the ordered registry of installed deferred-effect
// closures. Closures request their own removal through the result's
// Uninstall flag; the tracker performs the removal after the run, so the
// installed list never mutates while it is being iterated.
type InterceptorTracker struct {
	installed []installedInterceptor
}

func NewInterceptorTracker() *InterceptorTracker {
	return &InterceptorTracker{}
}

// Install registers a closure and returns its generated id.
func (t *InterceptorTracker) Install(fn ruleset.Interceptor, timestamp int64) string {
	if fn == nil {
		return ""
	}
	id := uuid.NewString()
	t.installed = append(t.installed, installedInterceptor{
		id:          id,
		fn:          fn,
		installedAt: timestamp,
	})
	return id
}

// Run invokes every installed closure in install order and then drops the
// ones that asked to uninstall.
func (t *InterceptorTracker) Run(ctx ruleset.InterceptorContext, ev *event.Event, timestamp int64) []InterceptorOutcome {
	if len(t.installed) == 0 {
		return nil
	}
	outcomes := make([]InterceptorOutcome, 0, len(t.installed))
	for _, inst := range t.installed {
		outcomes = append(outcomes, InterceptorOutcome{
			ID:                inst.id,
			InterceptorResult: inst.fn(ctx, ev, timestamp),
		})
	}

	kept := t.installed[:0]
	for i, inst := range t.installed {
		if outcomes[i].Uninstall {
			continue
		}
		kept = append(kept, inst)
	}
	t.installed = kept
	return outcomes
}

// Len reports how many interceptors are currently installed.
func (t *InterceptorTracker) Len() int {
	return len(t.installed)
}

// ActiveIDs lists installed interceptor ids in install order.
func (t *InterceptorTracker) ActiveIDs() []string {
	ids := make([]string, 0, len(t.installed))
	for _, inst := range t.installed {
		ids = append(ids, inst.id)
	}
	return ids
}
