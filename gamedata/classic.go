package gamedata

import (
	"fmt"

	"aggrolog/engine/event"
	"aggrolog/engine/ruleset"
)

// Spell ids referenced by the classic tables.
const (
	SpellDefensiveStance = 71
	SpellBattleStance    = 2457
	SpellBerserkerStance = 2458
	SpellSunderArmor     = 11597
	SpellBattleShout     = 11551
	SpellTaunt           = 355

	SpellBlessingOfMight     = 25782
	SpellBlessingOfKings     = 25898
	SpellBlessingOfSalvation = 25895
	SpellRighteousFury       = 25780
	SpellDivineShield        = 642

	SpellFeignDeath = 5384
	SpellMisdirect  = 34477
	SpellFade       = 10942

	// Synthetic aura implied by the gloves threat enchant; the log never
	// reports it directly.
	auraThreatEnchant   = 2613
	enchantGlovesThreat = 2613
)

const (
	sunderArmorThreat = 261
	battleShoutThreat = 60
	misdirectCharges  = 3
)

func classicRuleset() ruleset.Ruleset {
	return ruleset.Ruleset{
		Version: VersionClassic,
		Base: map[event.Type]ruleset.FormulaFunc{
			event.TypeDamage:   baseDamage,
			event.TypeHeal:     baseHeal,
			event.TypeEnergize: baseEnergize,
		},
		Modifiers: map[int64]ruleset.Modifier{
			SpellBlessingOfSalvation: {Name: "Blessing of Salvation", Value: 0.7},
			auraThreatEnchant:        {Name: "Gloves threat enchant", Value: 1.02},
		},
		Exclusive: [][]int64{
			{SpellBlessingOfMight, SpellBlessingOfKings, SpellBlessingOfSalvation},
		},
		Classes: map[string]ruleset.Class{
			"warrior": warriorClass(),
			"paladin": paladinClass(),
			"hunter":  hunterClass(),
			"priest":  priestClass(),
		},
		Encounters: map[int64]ruleset.EncounterFunc{
			// Onyxia: entering phase two (deep breath cast 17086) halves
			// every actor's threat against her.
			EncounterOnyxia: onyxiaScript,
		},
	}
}

// EncounterOnyxia is the encounter id carrying a threat-halving phase push.
const EncounterOnyxia = 1084

const onyxiaDeepBreath = 17086

func onyxiaScript() ruleset.EncounterScript {
	triggered := false
	return func(ev *event.Event, _ ruleset.ActorContext) []ruleset.Effect {
		if triggered || ev.Type != event.TypeCast || ev.Ability.GUID != onyxiaDeepBreath {
			return nil
		}
		triggered = true
		return []ruleset.Effect{ruleset.ModifyThreat{
			Enemy:  ev.Source(),
			Factor: 0.5,
			Scope:  ruleset.ScopeEnemyColumn,
			Label:  "phase push",
		}}
	}
}

func baseDamage(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
	return ruleset.Evaluation{Formula: "amount", Base: ev.EffectiveAmount()}
}

func baseHeal(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
	return ruleset.Evaluation{Formula: "amount * 0.5", Base: ev.EffectiveAmount() * 0.5, Split: true}
}

func baseEnergize(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
	return ruleset.Evaluation{Formula: "amount * 0.5", Base: ev.EffectiveAmount() * 0.5, Split: true}
}

func warriorClass() ruleset.Class {
	return ruleset.Class{
		Name: "warrior",
		Abilities: map[int64]ruleset.FormulaFunc{
			SpellSunderArmor: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				if ev.Type != event.TypeCast {
					return ruleset.Evaluation{Formula: "0"}
				}
				return ruleset.Evaluation{Formula: fmt.Sprintf("%d", sunderArmorThreat), Base: sunderArmorThreat}
			},
			SpellBattleShout: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				if ev.Type != event.TypeCast {
					return ruleset.Evaluation{Formula: "0"}
				}
				return ruleset.Evaluation{Formula: fmt.Sprintf("%d (split)", battleShoutThreat), Base: battleShoutThreat, Split: true}
			},
			SpellTaunt: tauntFormula,
		},
		Modifiers: map[int64]ruleset.Modifier{
			SpellDefensiveStance: {Name: "Defensive Stance", Value: 1.3},
			SpellBattleStance:    {Name: "Battle Stance", Value: 0.8},
			SpellBerserkerStance: {Name: "Berserker Stance", Value: 0.8},
		},
		Exclusive: [][]int64{
			{SpellDefensiveStance, SpellBattleStance, SpellBerserkerStance},
		},
		Fixates:     []int64{SpellTaunt},
		GearImplied: impliedThreatEnchant,
	}
}

// tauntFormula raises the caster to the top of the target's table: an
// absolute write matching the current highest threat against that enemy.
func tauntFormula(ev *event.Event, ctx ruleset.ActorContext) ruleset.Evaluation {
	if ev.Type != event.TypeCast {
		return ruleset.Evaluation{Formula: "0"}
	}
	target := ev.Target()
	top := ctx.TopThreat(target, 1)
	highest := ctx.Threat(ev.SourceID, target)
	if len(top) > 0 && top[0].Threat > highest {
		highest = top[0].Threat
	}
	return ruleset.Evaluation{
		Formula: "taunt",
		Effects: []ruleset.Effect{ruleset.CustomThreat{
			ActorID:  ev.SourceID,
			Enemy:    target,
			Amount:   highest,
			Absolute: true,
			Label:    "taunt",
		}},
	}
}

// impliedThreatEnchant synthesizes the threat-enchant aura for actors whose
// gear snapshot carries the gloves enchant.
func impliedThreatEnchant(gear []event.Item) []int64 {
	for _, item := range gear {
		if item.Enchant == enchantGlovesThreat {
			return []int64{auraThreatEnchant}
		}
	}
	return nil
}

func paladinClass() ruleset.Class {
	return ruleset.Class{
		Name: "paladin",
		Modifiers: map[int64]ruleset.Modifier{
			SpellRighteousFury: {Name: "Righteous Fury", Value: 1.6, School: event.SchoolHoly},
		},
		Exclusive: [][]int64{
			{SpellBlessingOfMight, SpellBlessingOfKings, SpellBlessingOfSalvation},
		},
		Invulns:     []int64{SpellDivineShield},
		GearImplied: impliedThreatEnchant,
	}
}

func hunterClass() ruleset.Class {
	return ruleset.Class{
		Name: "hunter",
		Abilities: map[int64]ruleset.FormulaFunc{
			SpellFeignDeath: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				if ev.Type != event.TypeCast {
					return ruleset.Evaluation{Formula: "0"}
				}
				return ruleset.Evaluation{
					Formula: "feign death",
					Effects: []ruleset.Effect{ruleset.ModifyThreat{
						ActorID: ev.SourceID,
						Factor:  0,
						Scope:   ruleset.ScopeActorRow,
						Label:   "feign death",
					}},
				}
			},
			SpellMisdirect: misdirectFormula,
		},
		AggroDrops: []int64{SpellFeignDeath},
	}
}

// misdirectFormula installs an interceptor that redirects the threat of
// the caster's next few damage events onto the actor they target at cast
// time, then removes itself.
func misdirectFormula(ev *event.Event, ctx ruleset.ActorContext) ruleset.Evaluation {
	if ev.Type != event.TypeCast {
		return ruleset.Evaluation{Formula: "0"}
	}
	caster := ev.Source()
	beneficiary := ev.Target()
	charges := misdirectCharges
	fn := func(_ ruleset.InterceptorContext, next *event.Event, _ int64) ruleset.InterceptorResult {
		if next.Type != event.TypeDamage || next.Source() != caster {
			return ruleset.InterceptorResult{}
		}
		charges--
		redirect := beneficiary
		return ruleset.InterceptorResult{
			RecipientOverride: &redirect,
			Uninstall:         charges <= 0,
		}
	}
	return ruleset.Evaluation{
		Formula: "misdirect",
		Effects: []ruleset.Effect{ruleset.InstallInterceptor{Fn: fn, Label: "misdirect"}},
	}
}

func priestClass() ruleset.Class {
	return ruleset.Class{
		Name: "priest",
		Abilities: map[int64]ruleset.FormulaFunc{
			SpellFade: func(ev *event.Event, _ ruleset.ActorContext) ruleset.Evaluation {
				if ev.Type != event.TypeCast {
					return ruleset.Evaluation{Formula: "0"}
				}
				return ruleset.Evaluation{
					Formula: "fade",
					Effects: []ruleset.Effect{ruleset.ModifyThreat{
						ActorID: ev.SourceID,
						Factor:  0.1,
						Scope:   ruleset.ScopeActorRow,
						Label:   "fade",
					}},
				}
			},
		},
		AggroDrops: []int64{SpellFade},
	}
}
