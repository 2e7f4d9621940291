// Package ruleset declares the per-game-version threat configuration the
// engine consumes: base formulas by event type, ability tables, aura
// modifiers, exclusive-aura groups, special aura-state sets, and the hook
// functions (gear implications, encounter preprocessors, interceptors). The
// engine only ever calls these as pure functions of context; the content
// itself is owned elsewhere.
package ruleset

import (
	"aggrolog/engine/entity"
	"aggrolog/engine/event"
)

// ThreatRank pairs an actor with its accumulated threat against one enemy.
type ThreatRank struct {
	ActorID int64
	Threat  float64
}

// ActorContext is the read-only capability view formulas, modifiers,
// encounter scripts, and interceptors receive. Every accessor returns an
// empty/zero default for unknown entities rather than failing.
type ActorContext interface {
	// Auras returns the actor's active spell ids in ascending order.
	Auras(actor entity.Ref) []int64
	HasAura(actor entity.Ref, spell int64) bool
	Gear(actor entity.Ref) []event.Item
	Position(actor entity.Ref) (x, y float64, ok bool)
	Distance(a, b entity.Ref) (float64, bool)
	ActorsInRange(origin entity.Ref, radius float64) []entity.Ref
	Threat(actorID int64, enemy entity.Ref) float64
	TopThreat(enemy entity.Ref, n int) []ThreatRank
	CurrentTarget(actor entity.Ref) (entity.Ref, bool)
	LastTarget(actor entity.Ref) (entity.Ref, bool)
	IsAlive(ref entity.Ref) bool
	AliveEnemies() []entity.Ref
	// ActorClass resolves the directory class for a friendly actor id.
	ActorClass(actorID int64) (string, bool)
}

// InterceptorContext is handed to running interceptors. Aura mutations
// route through the fight state's exclusive-group-aware path.
type InterceptorContext interface {
	ActorContext
	SetAura(actor entity.Ref, spell int64)
	RemoveAura(actor entity.Ref, spell int64)
}

// InterceptorResult is the structured outcome of one interceptor run. The
// tracker, not the interceptor, performs the uninstall after the event has
// been processed, so closures never mutate the registry mid-iteration.
type InterceptorResult struct {
	// Skip suppresses the event's entire threat calculation.
	Skip bool
	// RecipientOverride redirects the event's own threat to another actor.
	RecipientOverride *entity.Ref
	// Effects are folded into the event's calculation.
	Effects []Effect
	// Uninstall removes this interceptor once the event completes.
	Uninstall bool
}

// Interceptor inspects one future event. Installed by an InstallInterceptor
// effect, it runs against every threat-eligible event until it uninstalls.
type Interceptor func(ctx InterceptorContext, ev *event.Event, timestamp int64) InterceptorResult

// Evaluation is what a formula produces for one event: a label for the UI,
// the base threat before aura modifiers, whether the threat splits across
// all alive enemies, and any extra effects the ability triggers.
type Evaluation struct {
	Formula string
	Base    float64
	Split   bool
	Effects []Effect
}

// FormulaFunc evaluates one event's threat. Formulas must be pure and
// total; the engine does not recover a panicking formula.
type FormulaFunc func(ev *event.Event, ctx ActorContext) Evaluation

// Modifier is a multiplicative threat modifier granted by an active aura.
// A zero School places no school restriction on the events it affects.
type Modifier struct {
	Name   string
	Value  float64
	School event.SchoolMask
}

// StateKind classifies auras whose transitions the UI tracks as timeline
// states rather than threat.
type StateKind string

const (
	StateFixate          StateKind = "fixate"
	StateAggroLoss       StateKind = "aggroLoss"
	StateInvulnerability StateKind = "invulnerability"
)

// GearImplication synthesizes aura spell ids from a gear snapshot, covering
// passives the log never reports directly (set bonuses, enchants).
type GearImplication func(gear []event.Item) []int64

// EncounterScript runs against every threat-eligible event of one fight.
type EncounterScript func(ev *event.Event, ctx ActorContext) []Effect

// EncounterFunc builds a fresh script closure once per fight.
type EncounterFunc func() EncounterScript

// Class is one class's contribution to the ruleset.
type Class struct {
	Name        string
	Abilities   map[int64]FormulaFunc
	Modifiers   map[int64]Modifier
	Exclusive   [][]int64
	Fixates     []int64
	AggroDrops  []int64
	Invulns     []int64
	GearImplied GearImplication
}

// Ruleset is the full declared configuration for one game version. Compile
// flattens it into the lookups the engine uses per event.
type Ruleset struct {
	Version    string
	Base       map[event.Type]FormulaFunc
	Abilities  map[int64]FormulaFunc
	Modifiers  map[int64]Modifier
	Exclusive  [][]int64
	Fixates    []int64
	AggroDrops []int64
	Invulns    []int64
	Classes    map[string]Class
	Encounters map[int64]EncounterFunc
}
