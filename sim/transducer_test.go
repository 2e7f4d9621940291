package sim

import (
	"context"
	"math"
	"testing"

	"aggrolog/engine/entity"
	"aggrolog/engine/event"
	"aggrolog/engine/fight"
	"aggrolog/engine/ruleset"
)

const (
	auraClassFactor = 1001
	auraStance      = 71
	auraFireOnly    = 1002
	auraImmobilize  = 1003
	spellManaSpring = 2002
	spellSuppress   = 3003
)

func scenarioRuleset() *ruleset.Compiled {
	rs := ruleset.Ruleset{
		Version: "scenario",
		Base: map[event.Type]ruleset.FormulaFunc{
			event.TypeDamage: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				return ruleset.Evaluation{Formula: "amount", Base: ev.EffectiveAmount()}
			},
			event.TypeHeal: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				return ruleset.Evaluation{Formula: "amount * 0.5", Base: ev.EffectiveAmount() * 0.5, Split: true}
			},
			event.TypeEnergize: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				return ruleset.Evaluation{Formula: "amount * 0.5", Base: ev.EffectiveAmount() * 0.5, Split: true}
			},
		},
		Modifiers: map[int64]ruleset.Modifier{
			auraClassFactor: {Name: "class factor", Value: 1.3},
			auraStance:      {Name: "Defensive Stance", Value: 1.3},
			auraFireOnly:    {Name: "fire talent", Value: 0.7, School: event.SchoolFire},
		},
		Fixates: []int64{auraImmobilize},
		Abilities: map[int64]ruleset.FormulaFunc{
			spellSuppress: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				if ev.Type != event.TypeCast {
					return ruleset.Evaluation{Formula: "0"}
				}
				return ruleset.Evaluation{
					Formula: "suppress next",
					Effects: []ruleset.Effect{ruleset.InstallInterceptor{
						Label: "suppress next damage",
						Fn: func(_ ruleset.InterceptorContext, next *event.Event, _ int64) ruleset.InterceptorResult {
							if next.Type != event.TypeDamage {
								return ruleset.InterceptorResult{}
							}
							return ruleset.InterceptorResult{Skip: true, Uninstall: true}
						},
					}},
				}
			},
		},
	}
	return ruleset.MustCompile(rs)
}

func scenarioActors() []fight.Actor {
	return []fight.Actor{
		{ID: 1, Name: "Smashy", Class: "warrior"},
		{ID: 2, Name: "Mendy", Class: "priest"},
		{ID: 3, Name: "Lego", Class: "hunter"},
	}
}

func scenarioEnemies() []fight.Enemy {
	return []fight.Enemy{
		{ID: 7, Name: "Boss"},
		{ID: 7, Name: "Boss", Instance: 1},
	}
}

func newScenarioTransducer() *Transducer {
	t, err := NewTransducer(scenarioRuleset(), scenarioActors(), scenarioEnemies(), Options{})
	if err != nil {
		panic(err)
	}
	return t
}

func buffOn(actorID, spell int64) event.Event {
	return event.Event{Type: event.TypeApplyBuff, TargetID: actorID, TargetIsFriendly: true, Ability: event.Ability{GUID: spell}}
}

func damage(sourceID, targetID int64, amount float64) event.Event {
	return event.Event{Type: event.TypeDamage, SourceID: sourceID, SourceIsFriendly: true, TargetID: targetID, Amount: amount}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWarriorDamageWithStanceScenario(t *testing.T) {
	tr := newScenarioTransducer()
	boss := entity.NewRef(7, 0)

	result := tr.Run(context.Background(), []event.Event{
		buffOn(1, auraClassFactor),
		buffOn(1, auraStance),
		damage(1, 7, 1000),
	})

	last := result.Events[len(result.Events)-1]
	calc := last.Threat.Calculation
	if calc.Formula != "amount" || calc.Base != 1000 {
		t.Fatalf("unexpected calculation: %+v", calc)
	}
	if len(calc.Modifiers) != 2 {
		t.Fatalf("expected 2 modifiers, got %+v", calc.Modifiers)
	}
	if !approx(calc.Modified, 1690) {
		t.Fatalf("expected modified 1690, got %.4f", calc.Modified)
	}
	changes := last.Threat.Changes
	if len(changes) != 1 || changes[0].Enemy != boss {
		t.Fatalf("expected one change to the boss, got %+v", changes)
	}
	if !approx(changes[0].Amount, 1690) || !approx(changes[0].Total, 1690) {
		t.Fatalf("unexpected change: %+v", changes[0])
	}
	if got := tr.State().Threat(1, boss); !approx(got, 1690) {
		t.Fatalf("expected cumulative 1690, got %.4f", got)
	}
}

func TestHealSplitsAcrossAliveEnemies(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		{Type: event.TypeHeal, SourceID: 2, SourceIsFriendly: true, TargetID: 1, TargetIsFriendly: true, Amount: 4000, Overheal: 500},
	})

	if len(result.Events) != 1 {
		t.Fatalf("expected one augmented event, got %d", len(result.Events))
	}
	calc := result.Events[0].Threat.Calculation
	if !approx(calc.Amount, 3500) || !approx(calc.Base, 1750) || !calc.Split {
		t.Fatalf("unexpected calculation: %+v", calc)
	}
	changes := result.Events[0].Threat.Changes
	if len(changes) != 2 {
		t.Fatalf("expected one change per enemy, got %+v", changes)
	}
	sum := 0.0
	for _, change := range changes {
		if !approx(change.Amount, 875) {
			t.Fatalf("expected even 875 share, got %+v", change)
		}
		sum += change.Amount
	}
	if !approx(sum, 1750) {
		t.Fatalf("split does not conserve threat: %.4f", sum)
	}
}

func TestThreatAccumulatesInTableOrder(t *testing.T) {
	tr := newScenarioTransducer()
	boss := entity.NewRef(7, 0)

	result := tr.Run(context.Background(), []event.Event{
		damage(1, 7, 100),
		damage(1, 7, 150),
	})

	if got := result.Events[0].Threat.Changes[0].Total; !approx(got, 100) {
		t.Fatalf("expected first total 100, got %.2f", got)
	}
	if got := result.Events[1].Threat.Changes[0].Total; !approx(got, 250) {
		t.Fatalf("expected second total 250, got %.2f", got)
	}
	if got := tr.State().Threat(1, boss); !approx(got, 250) {
		t.Fatalf("expected cumulative 250, got %.2f", got)
	}
}

func TestStructurallyExcludedEventsAreCountedNotEmitted(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		// Damage against a friendly target.
		{Type: event.TypeDamage, SourceID: 7, TargetID: 1, TargetIsFriendly: true, Amount: 500},
		// Damage from the environment sentinel.
		{Type: event.TypeDamage, SourceID: 1, SourceIsFriendly: true, TargetID: entity.EnvironmentID, Amount: 50},
		// Combatant info never qualifies.
		{Type: event.TypeCombatantInfo, SourceID: 1},
	})

	if len(result.Events) != 0 {
		t.Fatalf("expected no augmented events, got %d", len(result.Events))
	}
	if result.Counts[event.TypeDamage] != 2 || result.Counts[event.TypeCombatantInfo] != 1 {
		t.Fatalf("unexpected counts: %v", result.Counts)
	}
}

func TestUnmatchedEligibleEventEmitsZeroFormula(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		{Type: event.TypeCast, SourceID: 1, SourceIsFriendly: true, TargetID: 7, Ability: event.Ability{GUID: 9999}},
	})

	if len(result.Events) != 1 {
		t.Fatalf("expected augmented event for eligible cast, got %d", len(result.Events))
	}
	threat := result.Events[0].Threat
	if threat.Calculation.Formula != "0" || len(threat.Changes) != 0 {
		t.Fatalf("expected zero-threat calculation, got %+v", threat)
	}
}

func TestEnergizeSkipsAuraModifiers(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		buffOn(2, auraClassFactor),
		{Type: event.TypeEnergize, SourceID: 2, SourceIsFriendly: true, TargetID: 2, TargetIsFriendly: true,
			Ability: event.Ability{GUID: spellManaSpring}, ResourceChange: 400, Waste: 100},
	})

	calc := result.Events[len(result.Events)-1].Threat.Calculation
	if len(calc.Modifiers) != 0 {
		t.Fatalf("energize must skip modifiers, got %+v", calc.Modifiers)
	}
	if !approx(calc.Amount, 300) || !approx(calc.Modified, 150) {
		t.Fatalf("unexpected energize calculation: %+v", calc)
	}
}

func TestSchoolRestrictedModifierFilters(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		buffOn(1, auraFireOnly),
		{Type: event.TypeDamage, SourceID: 1, SourceIsFriendly: true, TargetID: 7, Amount: 100,
			Ability: event.Ability{GUID: 8001, School: event.SchoolShadow}},
		{Type: event.TypeDamage, SourceID: 1, SourceIsFriendly: true, TargetID: 7, Amount: 100,
			Ability: event.Ability{GUID: 8002, School: event.SchoolFire}},
	})

	shadow := result.Events[1].Threat.Calculation
	if len(shadow.Modifiers) != 0 || !approx(shadow.Modified, 100) {
		t.Fatalf("shadow damage must not match fire modifier: %+v", shadow)
	}
	fire := result.Events[2].Threat.Calculation
	if len(fire.Modifiers) != 1 || !approx(fire.Modified, 70) {
		t.Fatalf("fire damage must match fire modifier: %+v", fire)
	}
}

func TestFriendlyDeathWipesThreatRow(t *testing.T) {
	tr := newScenarioTransducer()
	boss := entity.NewRef(7, 0)
	add := entity.NewRef(7, 1)
	inst := int64(1)

	result := tr.Run(context.Background(), []event.Event{
		damage(1, 7, 300),
		{Type: event.TypeDamage, SourceID: 1, SourceIsFriendly: true, TargetID: 7, TargetInstance: &inst, Amount: 200},
		damage(2, 7, 100),
		{Type: event.TypeDeath, TargetID: 1, TargetIsFriendly: true},
	})

	deathEvent := result.Events[len(result.Events)-1]
	if deathEvent.Type != event.TypeDeath {
		t.Fatalf("death event must always be emitted")
	}
	changes := deathEvent.Threat.Changes
	if len(changes) != 2 {
		t.Fatalf("expected a cleared entry per enemy, got %+v", changes)
	}
	for _, change := range changes {
		if !change.Absolute || change.Amount != 0 || change.Total != 0 {
			t.Fatalf("death changes must be explicit set-to-zero: %+v", change)
		}
	}
	for _, enemy := range []entity.Ref{boss, add} {
		for _, rank := range tr.State().TopThreat(enemy, 10) {
			if rank.ActorID == 1 {
				t.Fatalf("dead actor still ranked against %v", enemy)
			}
		}
	}
	if got := tr.State().Threat(2, boss); !approx(got, 100) {
		t.Fatalf("other actors' threat must survive the wipe, got %.2f", got)
	}
}

func TestHostileDeathIsStateTrackingOnly(t *testing.T) {
	tr := newScenarioTransducer()
	boss := entity.NewRef(7, 0)

	result := tr.Run(context.Background(), []event.Event{
		damage(1, 7, 300),
		{Type: event.TypeDeath, SourceID: 1, TargetID: 7},
	})

	deathEvent := result.Events[len(result.Events)-1]
	if len(deathEvent.Threat.Changes) != 0 {
		t.Fatalf("hostile death must not change the table: %+v", deathEvent.Threat.Changes)
	}
	if tr.State().IsAlive(boss) {
		t.Fatalf("boss should be tracked as dead")
	}
	if got := tr.State().Threat(1, boss); !approx(got, 300) {
		t.Fatalf("threat against a dead enemy is retained, got %.2f", got)
	}
}

func TestResultCountsAreSnapshot(t *testing.T) {
	tr := newScenarioTransducer()

	first := tr.Run(context.Background(), []event.Event{damage(1, 7, 100)})
	if first.Counts[event.TypeDamage] != 1 {
		t.Fatalf("expected one damage counted, got %v", first.Counts)
	}

	second := tr.Run(context.Background(), []event.Event{damage(1, 7, 100)})
	if first.Counts[event.TypeDamage] != 1 {
		t.Fatalf("earlier result mutated by later run: %v", first.Counts)
	}
	if second.Counts[event.TypeDamage] != 2 {
		t.Fatalf("counts must accumulate across runs, got %v", second.Counts)
	}
}

func TestPartialStackDecrementEmitsNoStateRecord(t *testing.T) {
	tr := newScenarioTransducer()

	result := tr.Run(context.Background(), []event.Event{
		{Type: event.TypeApplyDebuff, TargetID: 7, Ability: event.Ability{GUID: auraImmobilize}},
		{Type: event.TypeRemoveDebuffStack, TargetID: 7, Ability: event.Ability{GUID: auraImmobilize}, Stacks: 2},
		{Type: event.TypeRemoveDebuffStack, TargetID: 7, Ability: event.Ability{GUID: auraImmobilize}, Stacks: 0},
	})

	if len(result.Events) != 3 {
		t.Fatalf("expected all transitions emitted, got %d", len(result.Events))
	}
	apply := result.Events[0].Threat.Calculation.States
	if len(apply) != 1 || apply[0].Phase != ruleset.StateStart || apply[0].Kind != ruleset.StateFixate {
		t.Fatalf("unexpected apply states: %+v", apply)
	}
	if partial := result.Events[1].Threat.Calculation.States; len(partial) != 0 {
		t.Fatalf("partial stack decrement must not open or close a span: %+v", partial)
	}
	final := result.Events[2].Threat.Calculation.States
	if len(final) != 1 || final[0].Phase != ruleset.StateEnd {
		t.Fatalf("unexpected final states: %+v", final)
	}
}

func TestInterceptorSkipSuppressesCalculation(t *testing.T) {
	tr := newScenarioTransducer()
	boss := entity.NewRef(7, 0)

	result := tr.Run(context.Background(), []event.Event{
		{Type: event.TypeCast, SourceID: 1, SourceIsFriendly: true, TargetID: 7, Ability: event.Ability{GUID: spellSuppress}},
		damage(1, 7, 500),
		damage(1, 7, 200),
	})

	suppressed := result.Events[1]
	calc := suppressed.Threat.Calculation
	if !calc.Suppressed || calc.Formula != FormulaSuppressed {
		t.Fatalf("expected suppressed calculation, got %+v", calc)
	}
	if calc.Modified != 0 || len(suppressed.Threat.Changes) != 0 {
		t.Fatalf("suppressed event must not touch the table: %+v", suppressed.Threat)
	}

	// The interceptor uninstalled itself, so the next damage lands.
	if got := tr.State().Threat(1, boss); !approx(got, 200) {
		t.Fatalf("expected only the second damage to count, got %.2f", got)
	}
}
