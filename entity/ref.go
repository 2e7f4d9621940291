package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvironmentID is the sentinel id upstream logs use for damage taken from
// the world itself (falling, lava). Nothing holds or gains threat against it.
const EnvironmentID = -1

// Ref identifies one on-field copy of an actor or enemy. Multiple
// simultaneous copies of the same numeric id are distinguished by Instance,
// so every piece of per-entity state is keyed by the pair, never by bare id.
type Ref struct {
	ID       int64 `json:"id"`
	Instance int64 `json:"instance,omitempty"`
}

// NewRef builds a Ref with an explicit instance index.
func NewRef(id, instance int64) Ref {
	return Ref{ID: id, Instance: instance}
}

// RefOf coerces an optional instance pointer into a Ref. Upstream events
// omit the instance for singleton entities; the default is always 0 and the
// coercion lives here so every key derivation agrees.
func RefOf(id int64, instance *int64) Ref {
	r := Ref{ID: id}
	if instance != nil {
		r.Instance = *instance
	}
	return r
}

// IsEnvironment reports whether the ref points at the environment sentinel.
func (r Ref) IsEnvironment() bool {
	return r.ID == EnvironmentID
}

// Key derives the stable map key for this ref. The format is reversible via
// ParseKey so diagnostics can recover the pair from a bare key.
func (r Ref) Key() string {
	return strconv.FormatInt(r.ID, 10) + ":" + strconv.FormatInt(r.Instance, 10)
}

func (r Ref) String() string {
	if r.Instance == 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Key()
}

// ParseKey recovers a Ref from a key produced by Key.
func ParseKey(key string) (Ref, error) {
	idPart, instPart, ok := strings.Cut(key, ":")
	if !ok {
		return Ref{}, fmt.Errorf("entity: malformed key %q", key)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("entity: malformed key %q: %w", key, err)
	}
	instance, err := strconv.ParseInt(instPart, 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("entity: malformed key %q: %w", key, err)
	}
	return Ref{ID: id, Instance: instance}, nil
}
