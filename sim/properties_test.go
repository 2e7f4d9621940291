package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"pgregory.net/rapid"

	"aggrolog/engine/entity"
	"aggrolog/engine/event"
)

func drawEvents(t *rapid.T) []event.Event {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	events := make([]event.Event, 0, n)
	for i := 0; i < n; i++ {
		actor := rapid.SampledFrom([]int64{1, 2, 3}).Draw(t, "actor")
		switch rapid.IntRange(0, 4).Draw(t, "kind") {
		case 0:
			events = append(events, event.Event{
				Type: event.TypeDamage, SourceID: actor, SourceIsFriendly: true,
				TargetID: 7, Amount: float64(rapid.IntRange(1, 5000).Draw(t, "amount")),
			})
		case 1:
			amount := float64(rapid.IntRange(1, 5000).Draw(t, "heal"))
			events = append(events, event.Event{
				Type: event.TypeHeal, SourceID: actor, SourceIsFriendly: true,
				TargetID: 1, TargetIsFriendly: true,
				Amount: amount, Overheal: amount * rapid.Float64Range(0, 1).Draw(t, "overfrac"),
			})
		case 2:
			events = append(events, buffOn(actor, rapid.SampledFrom([]int64{auraClassFactor, auraStance}).Draw(t, "aura")))
		case 3:
			events = append(events, event.Event{
				Type: event.TypeRemoveBuff, TargetID: actor, TargetIsFriendly: true,
				Ability: event.Ability{GUID: auraClassFactor},
			})
		case 4:
			events = append(events, event.Event{
				Type: event.TypeCast, SourceID: actor, SourceIsFriendly: true,
				TargetID: 7, Ability: event.Ability{GUID: spellSuppress},
			})
		}
	}
	return events
}

// Replaying the same event list must produce a byte-identical augmented
// stream: no map-iteration order may leak into the output.
func TestReplayDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := drawEvents(t)

		first, err := json.Marshal(newScenarioTransducer().Run(context.Background(), events))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		second, err := json.Marshal(newScenarioTransducer().Run(context.Background(), events))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("replays diverged:\n%s\n%s", first, second)
		}
	})
}

// Split threat is conserved: the per-enemy shares of a split calculation
// sum to the modified threat, regardless of how many enemies are alive.
func TestSplitConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := float64(rapid.IntRange(1, 100000).Draw(t, "amount"))
		overheal := rapid.Float64Range(0, amount-0.5).Draw(t, "overheal")
		killAdd := rapid.Bool().Draw(t, "killAdd")

		tr := newScenarioTransducer()
		var events []event.Event
		if killAdd {
			inst := int64(1)
			events = append(events, event.Event{Type: event.TypeDeath, TargetID: 7, TargetInstance: &inst})
		}
		events = append(events, event.Event{
			Type: event.TypeHeal, SourceID: 2, SourceIsFriendly: true,
			TargetID: 1, TargetIsFriendly: true, Amount: amount, Overheal: overheal,
		})

		result := tr.Run(context.Background(), events)
		heal := result.Events[len(result.Events)-1]
		if !heal.Threat.Calculation.Split {
			t.Fatalf("heal must split: %+v", heal.Threat.Calculation)
		}
		want := 2
		if killAdd {
			want = 1
		}
		if len(heal.Threat.Changes) != want {
			t.Fatalf("expected %d shares, got %+v", want, heal.Threat.Changes)
		}
		sum := 0.0
		for _, change := range heal.Threat.Changes {
			sum += change.Amount
		}
		if math.Abs(sum-heal.Threat.Calculation.Modified) > 1e-6 {
			t.Fatalf("shares %.6f do not sum to modified %.6f", sum, heal.Threat.Calculation.Modified)
		}
	})
}

// No sequence of damage, aggro drops, and deaths may drive a table entry
// below zero.
func TestThreatNonNegativityProperty(t *testing.T) {
	enemies := []entity.Ref{entity.NewRef(7, 0), entity.NewRef(7, 1)}

	rapid.Check(t, func(t *rapid.T) {
		tr := newScenarioTransducer()
		n := rapid.IntRange(1, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			actor := rapid.SampledFrom([]int64{1, 2, 3}).Draw(t, "actor")
			switch rapid.IntRange(0, 2).Draw(t, "kind") {
			case 0:
				tr.Run(context.Background(), []event.Event{damage(actor, 7, float64(rapid.IntRange(1, 1000).Draw(t, "amount")))})
			case 1:
				// Direct absolute scaling through the clamped set path.
				tr.State().SetThreat(actor, enemies[0], tr.State().Threat(actor, enemies[0])*rapid.Float64Range(-2, 2).Draw(t, "factor"))
			case 2:
				tr.Run(context.Background(), []event.Event{{Type: event.TypeDeath, TargetID: actor, TargetIsFriendly: true}})
			}
		}
		for _, actor := range []int64{1, 2, 3} {
			for _, enemy := range enemies {
				if got := tr.State().Threat(actor, enemy); got < 0 {
					t.Fatalf("negative threat %f for actor %d vs %v", got, actor, enemy)
				}
			}
		}
	})
}
