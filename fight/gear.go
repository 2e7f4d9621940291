package fight

import (
	"aggrolog/engine/entity"
	"aggrolog/engine/event"
)

// gearTracker keeps the most recent combatant-info gear snapshot per actor
// instance. Snapshots replace wholesale; they are never merged.
type gearTracker struct {
	snapshots map[entity.Ref][]event.Item
}

func newGearTracker() gearTracker {
	return gearTracker{snapshots: make(map[entity.Ref][]event.Item)}
}

func (t *gearTracker) replace(actor entity.Ref, gear []event.Item) {
	if len(gear) == 0 {
		delete(t.snapshots, actor)
		return
	}
	t.snapshots[actor] = append([]event.Item(nil), gear...)
}

func (t *gearTracker) get(actor entity.Ref) []event.Item {
	snapshot := t.snapshots[actor]
	if len(snapshot) == 0 {
		return nil
	}
	return append([]event.Item(nil), snapshot...)
}
