package ruleset

import "aggrolog/engine/entity"

// Effect is implemented by every concrete effect a formula, encounter
// script, or interceptor can emit. Implementations are a closed set; the
// marker method keeps arbitrary types out of effect lists.
type Effect interface {
	effectMarker()
}

// ModifyScope selects which threat-table entries a ModifyThreat touches.
type ModifyScope string

const (
	// ScopePair modifies the single (actor, enemy) entry.
	ScopePair ModifyScope = "pair"
	// ScopeActorRow modifies the actor's threat against every enemy,
	// e.g. a self threat-drop.
	ScopeActorRow ModifyScope = "actorRow"
	// ScopeEnemyColumn modifies every actor's threat against one enemy,
	// e.g. a boss-mechanic threat wipe.
	ScopeEnemyColumn ModifyScope = "enemyColumn"
)

// CustomThreat writes an explicit threat change to a named pair,
// independent of the triggering event's own source and target.
type CustomThreat struct {
	ActorID int64
	Enemy   entity.Ref
	Amount  float64
	// Absolute sets the entry to Amount instead of adding to it.
	Absolute bool
	Label    string
}

func (CustomThreat) effectMarker() {}

// ModifyThreat multiplies existing threat by Factor over the selected
// scope. Results are re-clamped at zero.
type ModifyThreat struct {
	ActorID int64
	Enemy   entity.Ref
	Factor  float64
	Scope   ModifyScope
	Label   string
}

func (ModifyThreat) effectMarker() {}

// InstallInterceptor registers a deferred-effect closure that will run
// against subsequent threat-eligible events.
type InstallInterceptor struct {
	Fn    Interceptor
	Label string
}

func (InstallInterceptor) effectMarker() {}

// StatePhase marks whether an aura-state effect opens or closes a span.
type StatePhase string

const (
	StateStart StatePhase = "start"
	StateEnd   StatePhase = "end"
)

// AuraState is the derived effect emitted when an aura transition touches a
// fixate/aggro-loss/invulnerability spell. It carries no threat arithmetic;
// consumers use it to draw timeline spans.
type AuraState struct {
	Kind  StateKind
	Phase StatePhase
	Spell int64
	Actor entity.Ref
}

func (AuraState) effectMarker() {}
