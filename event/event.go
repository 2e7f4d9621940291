package event

import "aggrolog/engine/entity"

// Type tags a combat-log event record.
type Type string

const (
	TypeDamage   Type = "damage"
	TypeHeal     Type = "heal"
	TypeEnergize Type = "energize"
	TypeCast     Type = "cast"

	TypeApplyBuff         Type = "applybuff"
	TypeRefreshBuff       Type = "refreshbuff"
	TypeApplyBuffStack    Type = "applybuffstack"
	TypeRemoveBuffStack   Type = "removebuffstack"
	TypeRemoveBuff        Type = "removebuff"
	TypeApplyDebuff       Type = "applydebuff"
	TypeRefreshDebuff     Type = "refreshdebuff"
	TypeApplyDebuffStack  Type = "applydebuffstack"
	TypeRemoveDebuffStack Type = "removedebuffstack"
	TypeRemoveDebuff      Type = "removedebuff"

	TypeCombatantInfo Type = "combatantinfo"
	TypeDeath         Type = "death"
)

// SchoolMask is the spell-school bitmask carried by ability descriptors.
// Bit layout follows the upstream log format.
type SchoolMask uint8

const (
	SchoolPhysical SchoolMask = 1 << iota
	SchoolHoly
	SchoolFire
	SchoolNature
	SchoolFrost
	SchoolShadow
	SchoolArcane
)

// Intersects reports whether two masks share at least one school. A zero
// mask on either side means "unrestricted" and intersects everything.
func (m SchoolMask) Intersects(other SchoolMask) bool {
	if m == 0 || other == 0 {
		return true
	}
	return m&other != 0
}

// Ability describes the spell behind an event.
type Ability struct {
	GUID   int64      `json:"guid"`
	Name   string     `json:"name,omitempty"`
	School SchoolMask `json:"school,omitempty"`
}

// Item is one gear slot entry from a combatant-info snapshot.
type Item struct {
	ID        int64 `json:"id"`
	ItemLevel int64 `json:"itemLevel,omitempty"`
	Enchant   int64 `json:"permanentEnchant,omitempty"`
}

// AuraSnapshot is one active aura reported by a combatant-info event.
type AuraSnapshot struct {
	Source int64 `json:"source"`
	Spell  int64 `json:"ability"`
	Stacks int64 `json:"stacks,omitempty"`
}

// Event is one raw combat-log record. Field presence depends on Type;
// absent numeric fields are zero and absent instances default to 0 through
// entity.RefOf at decode time.
type Event struct {
	Timestamp int64 `json:"timestamp"`
	Type      Type  `json:"type"`

	SourceID         int64  `json:"sourceID"`
	SourceInstance   *int64 `json:"sourceInstance,omitempty"`
	SourceIsFriendly bool   `json:"sourceIsFriendly"`
	TargetID         int64  `json:"targetID"`
	TargetInstance   *int64 `json:"targetInstance,omitempty"`
	TargetIsFriendly bool   `json:"targetIsFriendly"`

	Ability Ability `json:"ability,omitzero"`

	Amount   float64 `json:"amount,omitempty"`
	Overheal float64 `json:"overheal,omitempty"`
	// Resource fields are set on energize events.
	ResourceChange float64 `json:"resourceChange,omitempty"`
	Waste          float64 `json:"waste,omitempty"`
	Stacks         int64   `json:"stack,omitempty"`

	Auras []AuraSnapshot `json:"auras,omitempty"`
	Gear  []Item         `json:"gear,omitempty"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Source returns the instance-qualified source ref.
func (e *Event) Source() entity.Ref {
	return entity.RefOf(e.SourceID, e.SourceInstance)
}

// Target returns the instance-qualified target ref.
func (e *Event) Target() entity.Ref {
	return entity.RefOf(e.TargetID, e.TargetInstance)
}

// EffectiveAmount is the number fed into threat formulas: heals count only
// the portion that landed, energizes only the resource actually gained.
func (e *Event) EffectiveAmount() float64 {
	switch e.Type {
	case TypeHeal:
		return e.Amount - e.Overheal
	case TypeEnergize:
		return e.ResourceChange - e.Waste
	default:
		return e.Amount
	}
}

// IsAuraTransition reports whether the event mutates an aura set.
func (e *Event) IsAuraTransition() bool {
	switch e.Type {
	case TypeApplyBuff, TypeRefreshBuff, TypeApplyBuffStack, TypeRemoveBuffStack,
		TypeRemoveBuff, TypeApplyDebuff, TypeRefreshDebuff, TypeApplyDebuffStack,
		TypeRemoveDebuffStack, TypeRemoveDebuff:
		return true
	}
	return false
}

// IsAuraGain reports whether an aura transition adds or refreshes the aura.
// Stack-removal events only count as an end once the stack count hits zero.
func (e *Event) IsAuraGain() bool {
	switch e.Type {
	case TypeApplyBuff, TypeRefreshBuff, TypeApplyBuffStack,
		TypeApplyDebuff, TypeRefreshDebuff, TypeApplyDebuffStack:
		return true
	case TypeRemoveBuffStack, TypeRemoveDebuffStack:
		return e.Stacks > 0
	}
	return false
}

// IsAuraEnd reports whether an aura transition fully removes the aura.
func (e *Event) IsAuraEnd() bool {
	switch e.Type {
	case TypeRemoveBuff, TypeRemoveDebuff:
		return true
	case TypeRemoveBuffStack, TypeRemoveDebuffStack:
		return e.Stacks <= 0
	}
	return false
}
