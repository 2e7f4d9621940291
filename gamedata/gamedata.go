// Package gamedata holds the per-game-version threat configuration tables.
// The engine never depends on this package; it consumes the compiled
// ruleset interface only. Content here feeds the CLI harness and tests.
package gamedata

import (
	"fmt"
	"sort"

	"aggrolog/engine/ruleset"
)

// VersionClassic selects the classic-era threat tables.
const VersionClassic = "classic"

var builders = map[string]func() ruleset.Ruleset{
	VersionClassic: classicRuleset,
}

// Versions lists the known game versions in ascending order.
func Versions() []string {
	versions := make([]string, 0, len(builders))
	for version := range builders {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}

// Lookup compiles the ruleset for a game version.
func Lookup(version string) (*ruleset.Compiled, error) {
	builder, ok := builders[version]
	if !ok {
		return nil, fmt.Errorf("gamedata: unknown version %q (known: %v)", version, Versions())
	}
	return ruleset.Compile(builder())
}
