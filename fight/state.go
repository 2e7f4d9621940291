package fight

import (
	"errors"

	"aggrolog/engine/entity"
	"aggrolog/engine/event"
	"aggrolog/engine/ruleset"
)

var errNilRuleset = errors.New("fight: nil compiled ruleset")

// Actor is one entry of the fight's friendly directory.
type Actor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
}

// Enemy is one entry of the fight's hostile roster.
type Enemy struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Instance int64  `json:"instance,omitempty"`
}

// Ref returns the instance-qualified ref for this roster entry.
func (e Enemy) Ref() entity.Ref {
	return entity.NewRef(e.ID, e.Instance)
}

// State is the single source of truth for one fight's derived state: aura
// sets, gear snapshots, positions, targets, death marks, and the threat
// table. One State instance serves exactly one fight; nothing in it is
// shared or safe for concurrent use.
type State struct {
	cfg       *ruleset.Compiled
	actors    map[int64]Actor
	enemies   []Enemy
	auras     auraTracker
	gear      gearTracker
	positions positionTracker
	targets   targetTracker
	threat    *ThreatTable
	dead      map[entity.Ref]struct{}
}

// NewState builds the fight container. A nil compiled ruleset is a
// programmer error; unknown actor and enemy ids seen later are not.
func NewState(cfg *ruleset.Compiled, actors []Actor, enemies []Enemy) (*State, error) {
	if cfg == nil {
		return nil, errNilRuleset
	}
	directory := make(map[int64]Actor, len(actors))
	for _, actor := range actors {
		directory[actor.ID] = actor
	}
	return &State{
		cfg:       cfg,
		actors:    directory,
		enemies:   append([]Enemy(nil), enemies...),
		auras:     newAuraTracker(cfg),
		gear:      newGearTracker(),
		positions: newPositionTracker(),
		targets:   newTargetTracker(),
		threat:    NewThreatTable(),
		dead:      make(map[entity.Ref]struct{}),
	}, nil
}

// ProcessEvent routes one raw event into the trackers. It runs for every
// event, including ones that never produce threat, and tolerates unknown
// ids silently: per-entity state is created lazily on first sight.
func (s *State) ProcessEvent(ev *event.Event) {
	if ev.X != nil && ev.Y != nil {
		s.positions.update(ev.Source(), *ev.X, *ev.Y)
	}

	switch {
	case ev.Type == event.TypeCombatantInfo:
		s.seedCombatant(ev)
	case ev.IsAuraTransition():
		s.applyAuraTransition(ev)
	case ev.Type == event.TypeDeath:
		s.dead[ev.Target()] = struct{}{}
	case ev.Type == event.TypeDamage || ev.Type == event.TypeCast:
		if ev.TargetID != 0 && !ev.Target().IsEnvironment() {
			s.targets.set(ev.Source(), ev.Target())
		}
	}
}

func (s *State) seedCombatant(ev *event.Event) {
	actor := ev.Source()
	for _, aura := range ev.Auras {
		s.auras.set(actor, aura.Spell)
	}
	s.gear.replace(actor, ev.Gear)
	directoryEntry, known := s.actors[actor.ID]
	if !known || directoryEntry.Class == "" {
		return
	}
	implied, ok := s.cfg.GearImplication(directoryEntry.Class)
	if !ok {
		return
	}
	for _, spell := range implied(s.gear.get(actor)) {
		s.auras.set(actor, spell)
	}
}

func (s *State) applyAuraTransition(ev *event.Event) {
	target := ev.Target()
	spell := ev.Ability.GUID
	switch {
	case ev.IsAuraEnd():
		s.auras.remove(target, spell)
	case ev.IsAuraGain():
		s.auras.set(target, spell)
	}
}

// Ruleset exposes the compiled configuration driving this fight.
func (s *State) Ruleset() *ruleset.Compiled {
	return s.cfg
}

// AddThreat accumulates delta for the pair and returns the new total.
func (s *State) AddThreat(actorID int64, enemy entity.Ref, delta float64) float64 {
	return s.threat.Add(actorID, enemy, delta)
}

// SetThreat writes an absolute, zero-clamped value and returns it.
func (s *State) SetThreat(actorID int64, enemy entity.Ref, value float64) float64 {
	return s.threat.Set(actorID, enemy, value)
}

// ClearAllThreatForActor wipes the actor's entire row, returning the
// cleared entries so the caller can emit explicit zero-valued changes.
func (s *State) ClearAllThreatForActor(actorID int64) []ClearedThreat {
	return s.threat.ClearActor(actorID)
}

// ThreatEnemiesOf lists the enemies the actor holds threat entries against.
func (s *State) ThreatEnemiesOf(actorID int64) []entity.Ref {
	return s.threat.EnemiesOf(actorID)
}

// ThreatActorsAgainst lists the actors with entries against one enemy.
func (s *State) ThreatActorsAgainst(enemy entity.Ref) []int64 {
	return s.threat.ActorsAgainst(enemy)
}

// ActorName resolves a directory name, falling back to the numeric id.
func (s *State) ActorName(actorID int64) string {
	if actor, ok := s.actors[actorID]; ok && actor.Name != "" {
		return actor.Name
	}
	return entity.NewRef(actorID, 0).String()
}

// IsFriendly reports whether the id belongs to the friendly directory.
func (s *State) IsFriendly(actorID int64) bool {
	_, ok := s.actors[actorID]
	return ok
}

// Enemies returns the fight's hostile roster.
func (s *State) Enemies() []Enemy {
	return append([]Enemy(nil), s.enemies...)
}

// SetAura applies an aura through the exclusive-group-aware path. Exposed
// for interceptors that synthesize auras the log never shows.
func (s *State) SetAura(actor entity.Ref, spell int64) {
	s.auras.set(actor, spell)
}

// RemoveAura drops an aura from the actor's set.
func (s *State) RemoveAura(actor entity.Ref, spell int64) {
	s.auras.remove(actor, spell)
}

// The methods below satisfy ruleset.ActorContext.

func (s *State) Auras(actor entity.Ref) []int64 {
	return s.auras.sorted(actor)
}

func (s *State) HasAura(actor entity.Ref, spell int64) bool {
	return s.auras.has(actor, spell)
}

func (s *State) Gear(actor entity.Ref) []event.Item {
	return s.gear.get(actor)
}

func (s *State) Position(actor entity.Ref) (float64, float64, bool) {
	return s.positions.get(actor)
}

func (s *State) Distance(a, b entity.Ref) (float64, bool) {
	return s.positions.distance(a, b)
}

func (s *State) ActorsInRange(origin entity.Ref, radius float64) []entity.Ref {
	return s.positions.inRange(origin, radius)
}

func (s *State) Threat(actorID int64, enemy entity.Ref) float64 {
	return s.threat.Get(actorID, enemy)
}

func (s *State) TopThreat(enemy entity.Ref, n int) []ruleset.ThreatRank {
	return s.threat.TopActors(enemy, n)
}

func (s *State) CurrentTarget(actor entity.Ref) (entity.Ref, bool) {
	return s.targets.current(actor)
}

func (s *State) LastTarget(actor entity.Ref) (entity.Ref, bool) {
	return s.targets.last(actor)
}

// IsAlive reports death-tracker state. Entities never seen dying are alive,
// including ones the fight has not observed at all.
func (s *State) IsAlive(ref entity.Ref) bool {
	_, dead := s.dead[ref]
	return !dead
}

// AliveEnemies returns the roster entries still alive, excluding the
// environment sentinel. Used as the split-threat denominator.
func (s *State) AliveEnemies() []entity.Ref {
	var alive []entity.Ref
	for _, enemy := range s.enemies {
		ref := enemy.Ref()
		if ref.IsEnvironment() {
			continue
		}
		if s.IsAlive(ref) {
			alive = append(alive, ref)
		}
	}
	return alive
}

func (s *State) ActorClass(actorID int64) (string, bool) {
	actor, ok := s.actors[actorID]
	if !ok || actor.Class == "" {
		return "", false
	}
	return actor.Class, true
}

var _ ruleset.InterceptorContext = (*State)(nil)
