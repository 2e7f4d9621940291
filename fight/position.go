package fight

import (
	"math"

	"aggrolog/engine/entity"
)

type position struct {
	x, y float64
}

// positionTracker records the last known coordinates per actor instance.
// Entities are absent until the first event that carries coordinates.
type positionTracker struct {
	known map[entity.Ref]position
}

func newPositionTracker() positionTracker {
	return positionTracker{known: make(map[entity.Ref]position)}
}

func (t *positionTracker) update(actor entity.Ref, x, y float64) {
	t.known[actor] = position{x: x, y: y}
}

func (t *positionTracker) get(actor entity.Ref) (float64, float64, bool) {
	pos, ok := t.known[actor]
	return pos.x, pos.y, ok
}

// distance reports the Euclidean distance between two tracked entities.
// It is unknown until both have been observed at least once.
func (t *positionTracker) distance(a, b entity.Ref) (float64, bool) {
	pa, okA := t.known[a]
	pb, okB := t.known[b]
	if !okA || !okB {
		return 0, false
	}
	return math.Hypot(pa.x-pb.x, pa.y-pb.y), true
}

// inRange returns every tracked entity within radius of origin, excluding
// origin itself. Order is unspecified; callers sort if they care.
func (t *positionTracker) inRange(origin entity.Ref, radius float64) []entity.Ref {
	center, ok := t.known[origin]
	if !ok || radius < 0 {
		return nil
	}
	var hits []entity.Ref
	for ref, pos := range t.known {
		if ref == origin {
			continue
		}
		if math.Hypot(center.x-pos.x, center.y-pos.y) <= radius {
			hits = append(hits, ref)
		}
	}
	return hits
}
