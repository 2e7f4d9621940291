package sim

import (
	"context"

	"aggrolog/engine/entity"
	"aggrolog/engine/event"
	logthreat "aggrolog/engine/logging/threat"
	"aggrolog/engine/ruleset"
)

// applyEffects walks the collected effects in listed order and turns them
// into concrete threat-table mutations and calculation records.
func (t *Transducer) applyEffects(ctx context.Context, ev *event.Event, effects []ruleset.Effect, calc *Calculation) []ThreatChange {
	var changes []ThreatChange
	for _, effect := range effects {
		switch e := effect.(type) {
		case ruleset.CustomThreat:
			changes = append(changes, t.applyCustomThreat(e))
		case ruleset.ModifyThreat:
			changes = append(changes, t.applyModifyThreat(e)...)
		case ruleset.InstallInterceptor:
			id := t.interceptors.Install(e.Fn, ev.Timestamp)
			logthreat.InterceptorInstalled(ctx, t.pub, t.tick, logthreat.InterceptorPayload{
				InterceptorID: id,
				Label:         e.Label,
			})
		case ruleset.AuraState:
			calc.States = append(calc.States, StateRecord{
				Kind:  e.Kind,
				Phase: e.Phase,
				Spell: e.Spell,
				Actor: e.Actor,
			})
		}
	}
	return changes
}

func (t *Transducer) applyCustomThreat(e ruleset.CustomThreat) ThreatChange {
	var total float64
	if e.Absolute {
		total = t.state.SetThreat(e.ActorID, e.Enemy, e.Amount)
	} else {
		total = t.state.AddThreat(e.ActorID, e.Enemy, e.Amount)
	}
	return ThreatChange{
		ActorID:  e.ActorID,
		Enemy:    e.Enemy,
		Amount:   e.Amount,
		Absolute: e.Absolute,
		Total:    total,
		Label:    e.Label,
	}
}

// applyModifyThreat multiplies existing entries by the configured factor
// over the effect's scope. Every result passes through the set path and is
// therefore re-clamped at zero.
func (t *Transducer) applyModifyThreat(e ruleset.ModifyThreat) []ThreatChange {
	scale := func(actorID int64, enemy entity.Ref) ThreatChange {
		value := t.state.SetThreat(actorID, enemy, t.state.Threat(actorID, enemy)*e.Factor)
		return ThreatChange{
			ActorID:  actorID,
			Enemy:    enemy,
			Amount:   value,
			Absolute: true,
			Total:    value,
			Label:    e.Label,
		}
	}

	switch e.Scope {
	case ruleset.ScopeActorRow:
		var changes []ThreatChange
		for _, enemy := range t.state.ThreatEnemiesOf(e.ActorID) {
			changes = append(changes, scale(e.ActorID, enemy))
		}
		return changes
	case ruleset.ScopeEnemyColumn:
		var changes []ThreatChange
		for _, actorID := range t.state.ThreatActorsAgainst(e.Enemy) {
			changes = append(changes, scale(actorID, e.Enemy))
		}
		return changes
	default:
		return []ThreatChange{scale(e.ActorID, e.Enemy)}
	}
}

// applyCalculation applies the event's own threat: a friendly death wipes
// the actor's whole row, a split formula divides evenly across every alive
// non-environment enemy, and everything else lands on the resolved
// recipient against the event's natural target.
func (t *Transducer) applyCalculation(ctx context.Context, ev *event.Event, calc *Calculation, override *entity.Ref) []ThreatChange {
	if ev.Type == event.TypeDeath {
		return t.applyDeath(ctx, ev)
	}
	if calc.Modified == 0 {
		return nil
	}

	if calc.Split {
		alive := t.state.AliveEnemies()
		if len(alive) == 0 {
			return nil
		}
		share := calc.Modified / float64(len(alive))
		changes := make([]ThreatChange, 0, len(alive))
		for _, enemy := range alive {
			total := t.state.AddThreat(ev.SourceID, enemy, share)
			changes = append(changes, ThreatChange{
				ActorID: ev.SourceID,
				Enemy:   enemy,
				Amount:  share,
				Total:   total,
			})
		}
		return changes
	}

	recipient := ev.SourceID
	if override != nil {
		recipient = override.ID
	}
	enemy := ev.Target()
	total := t.state.AddThreat(recipient, enemy, calc.Modified)
	return []ThreatChange{{
		ActorID: recipient,
		Enemy:   enemy,
		Amount:  calc.Modified,
		Total:   total,
	}}
}

// applyDeath clears a dying friendly actor's entire threat row, reporting
// each cleared entry as an explicit set-to-zero change. Hostile deaths are
// state tracking only.
func (t *Transducer) applyDeath(ctx context.Context, ev *event.Event) []ThreatChange {
	if !t.targetIsFriendly(ev) {
		return nil
	}
	cleared := t.state.ClearAllThreatForActor(ev.TargetID)
	if len(cleared) == 0 {
		return nil
	}
	changes := make([]ThreatChange, 0, len(cleared))
	for _, entry := range cleared {
		changes = append(changes, ThreatChange{
			ActorID:  ev.TargetID,
			Enemy:    entry.Enemy,
			Amount:   0,
			Absolute: true,
			Total:    0,
			Label:    "death",
		})
	}
	logthreat.Wiped(ctx, t.pub, t.tick, t.friendlyRef(ev.TargetID), logthreat.WipedPayload{Entries: len(changes)})
	return changes
}
