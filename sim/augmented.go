package sim

import (
	"aggrolog/engine/entity"
	"aggrolog/engine/event"
	"aggrolog/engine/ruleset"
)

// FormulaSuppressed is the calculation label used when an interceptor
// voted to skip the event.
const FormulaSuppressed = "suppressed"

// AppliedModifier is one multiplicative modifier that matched the event.
type AppliedModifier struct {
	Spell int64   `json:"spell"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"`
}

// ThreatChange is one concrete threat-table delta that was applied.
// Absolute changes record the value written; additive ones the delta.
// Total is the pair's cumulative threat after the change.
type ThreatChange struct {
	ActorID  int64      `json:"actorId"`
	Enemy    entity.Ref `json:"enemy"`
	Amount   float64    `json:"amount"`
	Absolute bool       `json:"absolute,omitempty"`
	Total    float64    `json:"total"`
	Label    string     `json:"label,omitempty"`
}

// StateRecord marks a fixate/aggro-loss/invulnerability span boundary.
type StateRecord struct {
	Kind  ruleset.StateKind  `json:"kind"`
	Phase ruleset.StatePhase `json:"phase"`
	Spell int64              `json:"spell"`
	Actor entity.Ref         `json:"actor"`
}

// Calculation is the per-event threat breakdown attached to the output.
type Calculation struct {
	Formula    string            `json:"formula"`
	Amount     float64           `json:"amount"`
	Base       float64           `json:"base"`
	Modifiers  []AppliedModifier `json:"modifiers,omitempty"`
	Modified   float64           `json:"modified"`
	Split      bool              `json:"split,omitempty"`
	Suppressed bool              `json:"suppressed,omitempty"`
	States     []StateRecord     `json:"states,omitempty"`
}

// ThreatResult carries the calculation plus the changes actually applied.
type ThreatResult struct {
	Calculation Calculation    `json:"calculation"`
	Changes     []ThreatChange `json:"changes,omitempty"`
}

// AugmentedEvent is the immutable output unit: the original event fields
// plus its threat result.
type AugmentedEvent struct {
	event.Event
	Threat ThreatResult `json:"threat"`
}

// Result is the output of transducing one fight's event list.
type Result struct {
	Events []AugmentedEvent   `json:"events"`
	Counts map[event.Type]int `json:"counts"`
}
