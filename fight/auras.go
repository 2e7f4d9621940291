package fight

import (
	"sort"

	"aggrolog/engine/entity"
	"aggrolog/engine/ruleset"
)

// auraTracker owns the active aura set for every actor instance. Adding a
// member of an exclusive group evicts every other member of the same group
// from that actor.
type auraTracker struct {
	cfg    *ruleset.Compiled
	active map[entity.Ref]map[int64]struct{}
}

func newAuraTracker(cfg *ruleset.Compiled) auraTracker {
	return auraTracker{
		cfg:    cfg,
		active: make(map[entity.Ref]map[int64]struct{}),
	}
}

func (t *auraTracker) set(actor entity.Ref, spell int64) {
	set := t.active[actor]
	if set == nil {
		set = make(map[int64]struct{})
		t.active[actor] = set
	}
	for _, member := range t.cfg.ExclusiveGroup(spell) {
		if member != spell {
			delete(set, member)
		}
	}
	set[spell] = struct{}{}
}

func (t *auraTracker) remove(actor entity.Ref, spell int64) {
	set := t.active[actor]
	if set == nil {
		return
	}
	delete(set, spell)
	if len(set) == 0 {
		delete(t.active, actor)
	}
}

func (t *auraTracker) has(actor entity.Ref, spell int64) bool {
	_, ok := t.active[actor][spell]
	return ok
}

// sorted returns the actor's active spell ids in ascending order so every
// downstream gather (modifier matching, diagnostics) is deterministic.
func (t *auraTracker) sorted(actor entity.Ref) []int64 {
	set := t.active[actor]
	if len(set) == 0 {
		return nil
	}
	spells := make([]int64, 0, len(set))
	for spell := range set {
		spells = append(spells, spell)
	}
	sort.Slice(spells, func(i, j int) bool { return spells[i] < spells[j] })
	return spells
}
