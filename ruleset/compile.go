package ruleset

import (
	"errors"
	"fmt"
	"sort"

	"aggrolog/engine/event"
)

var (
	errNoBaseFormulas    = errors.New("ruleset: no base formulas declared")
	errOverlappingGroups = errors.New("ruleset: spell belongs to more than one exclusive group")
	errConflictingState  = errors.New("ruleset: spell declared under conflicting state kinds")
	errNilFormula        = errors.New("ruleset: nil formula func")
)

// MatchedModifier is a modifier together with the aura spell id that
// granted it, as recorded in calculation breakdowns.
type MatchedModifier struct {
	Spell int64
	Modifier
}

// Compiled is the flattened, merge-resolved form of a Ruleset. The merge
// runs exactly once, at compile time; every per-event lookup afterwards is
// a plain map access.
//
// Merge order is: global tables first, then classes in ascending name
// order. A modifier registered under the same spell id by two classes keeps
// the last merge's value. That last-writer-wins behaviour matches the
// upstream tables and is deliberate; see DESIGN.md before changing it.
type Compiled struct {
	version        string
	base           map[event.Type]FormulaFunc
	abilities      map[int64]FormulaFunc
	classAbilities map[string]map[int64]FormulaFunc
	modifiers      map[int64]Modifier
	exclusive      map[int64][]int64
	states         map[int64]StateKind
	gearImplied    map[string]GearImplication
	encounters     map[int64]EncounterFunc
}

// Compile validates the ruleset and materialises the merged lookups.
// Validation failures are programmer errors in the configuration, never
// runtime conditions.
func Compile(rs Ruleset) (*Compiled, error) {
	if len(rs.Base) == 0 {
		return nil, errNoBaseFormulas
	}

	c := &Compiled{
		version:        rs.Version,
		base:           make(map[event.Type]FormulaFunc, len(rs.Base)),
		abilities:      make(map[int64]FormulaFunc, len(rs.Abilities)),
		classAbilities: make(map[string]map[int64]FormulaFunc, len(rs.Classes)),
		modifiers:      make(map[int64]Modifier),
		exclusive:      make(map[int64][]int64),
		states:         make(map[int64]StateKind),
		gearImplied:    make(map[string]GearImplication),
		encounters:     make(map[int64]EncounterFunc, len(rs.Encounters)),
	}

	for evType, fn := range rs.Base {
		if fn == nil {
			return nil, fmt.Errorf("%w (base %s)", errNilFormula, evType)
		}
		c.base[evType] = fn
	}
	for spell, fn := range rs.Abilities {
		if fn == nil {
			return nil, fmt.Errorf("%w (ability %d)", errNilFormula, spell)
		}
		c.abilities[spell] = fn
	}
	for spell, mod := range rs.Modifiers {
		c.modifiers[spell] = mod
	}

	groups := append([][]int64(nil), rs.Exclusive...)
	states := map[StateKind][]int64{
		StateFixate:          rs.Fixates,
		StateAggroLoss:       rs.AggroDrops,
		StateInvulnerability: rs.Invulns,
	}

	for _, name := range sortedClassNames(rs.Classes) {
		class := rs.Classes[name]
		if len(class.Abilities) > 0 {
			table := make(map[int64]FormulaFunc, len(class.Abilities))
			for spell, fn := range class.Abilities {
				if fn == nil {
					return nil, fmt.Errorf("%w (class %s ability %d)", errNilFormula, name, spell)
				}
				table[spell] = fn
			}
			c.classAbilities[name] = table
		}
		for spell, mod := range class.Modifiers {
			c.modifiers[spell] = mod
		}
		groups = append(groups, class.Exclusive...)
		states[StateFixate] = append(states[StateFixate], class.Fixates...)
		states[StateAggroLoss] = append(states[StateAggroLoss], class.AggroDrops...)
		states[StateInvulnerability] = append(states[StateInvulnerability], class.Invulns...)
		if class.GearImplied != nil {
			c.gearImplied[name] = class.GearImplied
		}
	}

	if err := c.indexExclusive(groups); err != nil {
		return nil, err
	}
	if err := c.indexStates(states); err != nil {
		return nil, err
	}

	for id, fn := range rs.Encounters {
		if fn != nil {
			c.encounters[id] = fn
		}
	}
	return c, nil
}

// MustCompile compiles the ruleset and panics on validation failure.
// Useful for static gamedata tables and tests.
func MustCompile(rs Ruleset) *Compiled {
	c, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return c
}

// indexExclusive folds every declared group into one spell → group-members
// lookup. Identical groups declared by several classes collapse into one;
// a spell reachable from two distinct groups is a configuration error.
func (c *Compiled) indexExclusive(groups [][]int64) error {
	seen := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		normalized := normalizeGroup(group)
		if len(normalized) < 2 {
			continue
		}
		sig := groupSignature(normalized)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		for _, spell := range normalized {
			if _, taken := c.exclusive[spell]; taken {
				return fmt.Errorf("%w (spell %d)", errOverlappingGroups, spell)
			}
			c.exclusive[spell] = normalized
		}
	}
	return nil
}

func (c *Compiled) indexStates(states map[StateKind][]int64) error {
	for _, kind := range []StateKind{StateFixate, StateAggroLoss, StateInvulnerability} {
		for _, spell := range states[kind] {
			if existing, ok := c.states[spell]; ok && existing != kind {
				return fmt.Errorf("%w (spell %d: %s vs %s)", errConflictingState, spell, existing, kind)
			}
			c.states[spell] = kind
		}
	}
	return nil
}

// Version reports the game version this configuration targets.
func (c *Compiled) Version() string {
	return c.version
}

// ResolveFormula picks the applicable formula for one event: the source
// class's ability table first, then the global ability table, then the base
// formula for the event type. Events nothing matches contribute zero threat
// under the literal "0" label.
func (c *Compiled) ResolveFormula(class string, ev *event.Event) FormulaFunc {
	if spell := ev.Ability.GUID; spell != 0 {
		if table, ok := c.classAbilities[class]; ok {
			if fn, ok := table[spell]; ok {
				return fn
			}
		}
		if fn, ok := c.abilities[spell]; ok {
			return fn
		}
	}
	if fn, ok := c.base[ev.Type]; ok {
		return fn
	}
	return zeroFormula
}

func zeroFormula(*event.Event, ActorContext) Evaluation {
	return Evaluation{Formula: "0"}
}

// ActiveModifiers filters the merged modifier table down to the auras the
// source actor currently carries, honouring school restrictions. Callers
// pass auras in ascending id order so the gathered list is deterministic.
func (c *Compiled) ActiveModifiers(auras []int64, school event.SchoolMask) []MatchedModifier {
	var matched []MatchedModifier
	for _, spell := range auras {
		mod, ok := c.modifiers[spell]
		if !ok {
			continue
		}
		if !mod.School.Intersects(school) {
			continue
		}
		matched = append(matched, MatchedModifier{Spell: spell, Modifier: mod})
	}
	return matched
}

// ExclusiveGroup returns the members of the spell's exclusive group, or nil
// when the spell is unconstrained.
func (c *Compiled) ExclusiveGroup(spell int64) []int64 {
	return c.exclusive[spell]
}

// StateKindOf resolves the timeline state kind an aura belongs to, if any.
func (c *Compiled) StateKindOf(spell int64) (StateKind, bool) {
	kind, ok := c.states[spell]
	return kind, ok
}

// GearImplication returns the class's gear hook, if the class declares one.
func (c *Compiled) GearImplication(class string) (GearImplication, bool) {
	fn, ok := c.gearImplied[class]
	return fn, ok
}

// Encounter returns the preprocessor constructor for an encounter id.
func (c *Compiled) Encounter(id int64) (EncounterFunc, bool) {
	fn, ok := c.encounters[id]
	return fn, ok
}

func sortedClassNames(classes map[string]Class) []string {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeGroup(group []int64) []int64 {
	set := make(map[int64]struct{}, len(group))
	for _, spell := range group {
		set[spell] = struct{}{}
	}
	normalized := make([]int64, 0, len(set))
	for spell := range set {
		normalized = append(normalized, spell)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return normalized
}

func groupSignature(group []int64) string {
	sig := ""
	for _, spell := range group {
		sig += fmt.Sprintf("%d,", spell)
	}
	return sig
}
