package sim

import (
	"encoding/json"
	"fmt"
	"io"

	"aggrolog/engine/event"
	"aggrolog/engine/fight"
)

// FightDocument is the on-disk input format: one fight's directory plus
// its raw event list, as exported from a log-parsing frontend.
type FightDocument struct {
	// Version selects the game-version ruleset, e.g. "classic". Empty
	// defers to the caller's default.
	Version string `json:"version,omitempty"`
	// EncounterID selects the encounter preprocessor, 0 for none.
	EncounterID int64 `json:"encounterID,omitempty"`

	Actors  []fight.Actor `json:"actors"`
	Enemies []fight.Enemy `json:"enemies"`
	Events  []event.Event `json:"events"`
}

// DecodeFight reads and validates a fight document. Unknown fields are
// rejected so a malformed export fails loudly instead of silently dropping
// data.
func DecodeFight(r io.Reader) (*FightDocument, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var doc FightDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fight: %w", err)
	}
	if len(doc.Actors) == 0 {
		return nil, fmt.Errorf("decode fight: no actors")
	}
	if len(doc.Enemies) == 0 {
		return nil, fmt.Errorf("decode fight: no enemies")
	}
	return &doc, nil
}
