package fight

import "aggrolog/engine/entity"

type targetPair struct {
	current *entity.Ref
	last    *entity.Ref
}

// targetTracker keeps the current and previous target per actor instance.
// Re-targeting the same entity leaves the previous-target slot untouched.
type targetTracker struct {
	targets map[entity.Ref]*targetPair
}

func newTargetTracker() targetTracker {
	return targetTracker{targets: make(map[entity.Ref]*targetPair)}
}

func (t *targetTracker) set(actor, target entity.Ref) {
	pair := t.targets[actor]
	if pair == nil {
		pair = &targetPair{}
		t.targets[actor] = pair
	}
	if pair.current != nil && *pair.current == target {
		return
	}
	pair.last = pair.current
	next := target
	pair.current = &next
}

func (t *targetTracker) current(actor entity.Ref) (entity.Ref, bool) {
	pair := t.targets[actor]
	if pair == nil || pair.current == nil {
		return entity.Ref{}, false
	}
	return *pair.current, true
}

func (t *targetTracker) last(actor entity.Ref) (entity.Ref, bool) {
	pair := t.targets[actor]
	if pair == nil || pair.last == nil {
		return entity.Ref{}, false
	}
	return *pair.last, true
}
