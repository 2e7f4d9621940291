package fight

import (
	"sort"

	"aggrolog/engine/entity"
	"aggrolog/engine/ruleset"
)

type pairKey struct {
	ActorID int64
	Enemy   entity.Ref
}

// ClearedThreat records one entry removed by a death wipe, so the caller
// can emit the matching "set to 0" change records.
type ClearedThreat struct {
	Enemy    entity.Ref
	Previous float64
}

// ThreatTable is the accumulated threat every friendly actor holds against
// every enemy instance. Entries live in one flat map keyed by the
// (actor id, enemy ref) pair; a parallel slice preserves insertion order
// for tie-breaks and wipe reporting.
type ThreatTable struct {
	entries map[pairKey]float64
	order   []pairKey
}

func NewThreatTable() *ThreatTable {
	return &ThreatTable{entries: make(map[pairKey]float64)}
}

func (t *ThreatTable) touch(key pairKey) {
	if _, ok := t.entries[key]; !ok {
		t.order = append(t.order, key)
	}
}

// Add accumulates delta onto the entry, creating it lazily. The additive
// path does not clamp; only Set re-clamps at zero.
func (t *ThreatTable) Add(actorID int64, enemy entity.Ref, delta float64) float64 {
	key := pairKey{ActorID: actorID, Enemy: enemy}
	t.touch(key)
	t.entries[key] += delta
	return t.entries[key]
}

// Set writes an absolute value, clamped at zero.
func (t *ThreatTable) Set(actorID int64, enemy entity.Ref, value float64) float64 {
	if value < 0 {
		value = 0
	}
	key := pairKey{ActorID: actorID, Enemy: enemy}
	t.touch(key)
	t.entries[key] = value
	return value
}

// Get returns the accumulated threat, zero for unknown pairs.
func (t *ThreatTable) Get(actorID int64, enemy entity.Ref) float64 {
	return t.entries[pairKey{ActorID: actorID, Enemy: enemy}]
}

// TopActors returns up to n actors with strictly positive threat against
// the enemy, descending by threat. Ties keep table insertion order.
func (t *ThreatTable) TopActors(enemy entity.Ref, n int) []ruleset.ThreatRank {
	if n <= 0 {
		return nil
	}
	var ranks []ruleset.ThreatRank
	for _, key := range t.order {
		if key.Enemy != enemy {
			continue
		}
		threat := t.entries[key]
		if threat <= 0 {
			continue
		}
		ranks = append(ranks, ruleset.ThreatRank{ActorID: key.ActorID, Threat: threat})
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Threat > ranks[j].Threat })
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// ClearActor removes every entry for the actor and returns the pre-clear
// snapshot in insertion order.
func (t *ThreatTable) ClearActor(actorID int64) []ClearedThreat {
	var cleared []ClearedThreat
	kept := t.order[:0]
	for _, key := range t.order {
		if key.ActorID != actorID {
			kept = append(kept, key)
			continue
		}
		cleared = append(cleared, ClearedThreat{Enemy: key.Enemy, Previous: t.entries[key]})
		delete(t.entries, key)
	}
	t.order = kept
	return cleared
}

// EnemiesOf lists the enemies the actor currently has entries against, in
// insertion order.
func (t *ThreatTable) EnemiesOf(actorID int64) []entity.Ref {
	var enemies []entity.Ref
	for _, key := range t.order {
		if key.ActorID == actorID {
			enemies = append(enemies, key.Enemy)
		}
	}
	return enemies
}

// ActorsAgainst lists the actors holding entries against the enemy, in
// insertion order.
func (t *ThreatTable) ActorsAgainst(enemy entity.Ref) []int64 {
	var actors []int64
	for _, key := range t.order {
		if key.Enemy == enemy {
			actors = append(actors, key.ActorID)
		}
	}
	return actors
}

// Len reports the number of live entries.
func (t *ThreatTable) Len() int {
	return len(t.entries)
}
