package sim

import (
	"context"
	"strconv"

	"aggrolog/engine/entity"
	"aggrolog/engine/event"
	"aggrolog/engine/fight"
	"aggrolog/engine/logging"
	logthreat "aggrolog/engine/logging/threat"
	"aggrolog/engine/ruleset"
)

// Options tune one transducer instance.
type Options struct {
	// EncounterID selects the encounter preprocessor, if the ruleset
	// declares one for this fight.
	EncounterID int64
	// Publisher receives diagnostic events. Nil disables diagnostics.
	Publisher logging.Publisher
}

// Transducer replays one fight's raw event stream and re-derives the
// threat every friendly actor holds against every enemy. One instance
// serves exactly one fight and is not safe for concurrent use; callers
// wanting parallelism run independent instances per fight.
type Transducer struct {
	cfg          *ruleset.Compiled
	state        *fight.State
	interceptors *fight.InterceptorTracker
	encounter    ruleset.EncounterScript
	pub          logging.Publisher
	counts       map[event.Type]int
	tick         uint64
}

// NewTransducer builds the engine for one fight. The error mirrors fight
// state construction: only a malformed configuration fails.
func NewTransducer(cfg *ruleset.Compiled, actors []fight.Actor, enemies []fight.Enemy, opts Options) (*Transducer, error) {
	state, err := fight.NewState(cfg, actors, enemies)
	if err != nil {
		return nil, err
	}
	t := &Transducer{
		cfg:          cfg,
		state:        state,
		interceptors: fight.NewInterceptorTracker(),
		pub:          opts.Publisher,
		counts:       make(map[event.Type]int),
	}
	if builder, ok := cfg.Encounter(opts.EncounterID); ok {
		t.encounter = builder()
	}
	return t, nil
}

// State exposes the fight state, primarily for tests and diagnostics.
func (t *Transducer) State() *fight.State {
	return t.state
}

// Run transduces the whole event list in input order and returns the
// augmented stream plus per-event-type counts. The returned counts are a
// snapshot; later runs on the same transducer never mutate an earlier
// Result. Formulas are trusted to be pure and total; a panicking formula
// aborts the batch.
func (t *Transducer) Run(ctx context.Context, events []event.Event) *Result {
	result := &Result{}
	for i := range events {
		if augmented := t.processEvent(ctx, &events[i]); augmented != nil {
			result.Events = append(result.Events, *augmented)
		}
		t.tick++
	}

	result.Counts = make(map[event.Type]int, len(t.counts))
	counts := make(map[string]int, len(t.counts))
	for evType, n := range t.counts {
		result.Counts[evType] = n
		counts[string(evType)] = n
	}
	logthreat.FightCompleted(ctx, t.pub, t.tick, logthreat.CompletedPayload{
		Events:    len(events),
		Augmented: len(result.Events),
		Counts:    counts,
	})
	return result
}

func (t *Transducer) processEvent(ctx context.Context, ev *event.Event) *AugmentedEvent {
	t.state.ProcessEvent(ev)
	t.counts[ev.Type]++

	if !t.eligible(ev) {
		return nil
	}

	outcomes := t.interceptors.Run(t.state, ev, ev.Timestamp)
	t.logInterceptorRemovals(ctx, outcomes)
	if id, skipped := skipVote(outcomes); skipped {
		logthreat.Suppressed(ctx, t.pub, t.tick, t.friendlyRef(ev.SourceID), logthreat.SuppressedPayload{InterceptorID: id})
		return &AugmentedEvent{
			Event: *ev,
			Threat: ThreatResult{
				Calculation: Calculation{
					Formula:    FormulaSuppressed,
					Amount:     ev.EffectiveAmount(),
					Suppressed: true,
				},
			},
		}
	}
	override, intercepted := augmentVotes(outcomes)

	class, _ := t.state.ActorClass(ev.SourceID)
	eval := t.cfg.ResolveFormula(class, ev)(ev, t.state)

	calc := Calculation{
		Formula:  eval.Formula,
		Amount:   ev.EffectiveAmount(),
		Base:     eval.Base,
		Modified: eval.Base,
		Split:    eval.Split,
	}
	// Energize events take ability formulas but never aura modifiers.
	if ev.Type != event.TypeEnergize {
		auras := t.state.Auras(ev.Source())
		for _, matched := range t.cfg.ActiveModifiers(auras, ev.Ability.School) {
			calc.Modifiers = append(calc.Modifiers, AppliedModifier{
				Spell: matched.Spell,
				Name:  matched.Name,
				Value: matched.Value,
			})
			calc.Modified *= matched.Value
		}
	}

	effects := append([]ruleset.Effect(nil), eval.Effects...)
	if t.encounter != nil {
		effects = append(effects, t.encounter(ev, t.state)...)
	}
	effects = append(effects, intercepted...)
	if state, ok := t.deriveAuraState(ev); ok {
		effects = append(effects, state)
	}

	changes := t.applyEffects(ctx, ev, effects, &calc)
	changes = append(changes, t.applyCalculation(ctx, ev, &calc, override)...)

	for _, change := range changes {
		logthreat.Applied(ctx, t.pub, t.tick, t.friendlyRef(change.ActorID), t.enemyRef(change.Enemy), logthreat.AppliedPayload{
			Formula:  calc.Formula,
			Amount:   change.Amount,
			Absolute: change.Absolute,
			Total:    change.Total,
			Split:    calc.Split,
		})
	}

	return &AugmentedEvent{Event: *ev, Threat: ThreatResult{Calculation: calc, Changes: changes}}
}

// eligible implements the fixed threat-eligibility rules: deaths always
// qualify (for table clearing), damage against friendlies never does,
// environment targets never do, and otherwise membership in the processed
// event-type set decides.
func (t *Transducer) eligible(ev *event.Event) bool {
	if ev.Type == event.TypeDeath {
		return true
	}
	if ev.Type == event.TypeDamage && t.targetIsFriendly(ev) {
		return false
	}
	if ev.Target().IsEnvironment() {
		return false
	}
	switch ev.Type {
	case event.TypeDamage, event.TypeHeal, event.TypeEnergize, event.TypeCast:
		return true
	}
	return ev.IsAuraTransition()
}

func (t *Transducer) targetIsFriendly(ev *event.Event) bool {
	return ev.TargetIsFriendly || t.state.IsFriendly(ev.TargetID)
}

// deriveAuraState turns transitions of fixate/aggro-loss/invulnerability
// auras into timeline state effects.
func (t *Transducer) deriveAuraState(ev *event.Event) (ruleset.AuraState, bool) {
	if !ev.IsAuraTransition() {
		return ruleset.AuraState{}, false
	}
	kind, ok := t.cfg.StateKindOf(ev.Ability.GUID)
	if !ok {
		return ruleset.AuraState{}, false
	}
	var phase ruleset.StatePhase
	switch {
	case ev.IsAuraGain():
		phase = ruleset.StateStart
	case ev.IsAuraEnd():
		phase = ruleset.StateEnd
	default:
		// A stack decrement with stacks remaining keeps the aura active:
		// no span boundary.
		return ruleset.AuraState{}, false
	}
	return ruleset.AuraState{
		Kind:  kind,
		Phase: phase,
		Spell: ev.Ability.GUID,
		Actor: ev.Target(),
	}, true
}

func skipVote(outcomes []fight.InterceptorOutcome) (string, bool) {
	for _, outcome := range outcomes {
		if outcome.Skip {
			return outcome.ID, true
		}
	}
	return "", false
}

// augmentVotes flattens every interceptor's extra effects in run order and
// keeps the last recipient override.
func augmentVotes(outcomes []fight.InterceptorOutcome) (*entity.Ref, []ruleset.Effect) {
	var override *entity.Ref
	var effects []ruleset.Effect
	for _, outcome := range outcomes {
		if outcome.RecipientOverride != nil {
			override = outcome.RecipientOverride
		}
		effects = append(effects, outcome.Effects...)
	}
	return override, effects
}

func (t *Transducer) logInterceptorRemovals(ctx context.Context, outcomes []fight.InterceptorOutcome) {
	for _, outcome := range outcomes {
		if outcome.Uninstall {
			logthreat.InterceptorUninstalled(ctx, t.pub, t.tick, logthreat.InterceptorPayload{InterceptorID: outcome.ID})
		}
	}
}

func (t *Transducer) friendlyRef(actorID int64) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatInt(actorID, 10), Kind: logging.EntityKindFriendly}
}

func (t *Transducer) enemyRef(enemy entity.Ref) logging.EntityRef {
	return logging.EntityRef{ID: enemy.Key(), Kind: logging.EntityKindEnemy}
}
