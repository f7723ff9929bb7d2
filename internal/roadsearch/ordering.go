package roadsearch

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/trackdqm/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// HitOrdering selects how hits are ordered inside a candidate.
type HitOrdering string

const (
	// OrderAlongSeed sorts by signed distance from the seed's starting point
	// projected on the seed's propagation direction.
	OrderAlongSeed HitOrdering = "along_seed"
	// OrderInsideOut sorts barrel hits by transverse radius, then forward
	// hits by |z|. OppositeToMomentum seeds reverse the whole order.
	OrderInsideOut HitOrdering = "inside_out"
)

// ParseHitOrdering validates an ordering name. Empty selects OrderAlongSeed.
func ParseHitOrdering(s string) (HitOrdering, error) {
	switch HitOrdering(s) {
	case "", OrderAlongSeed:
		return OrderAlongSeed, nil
	case OrderInsideOut:
		return OrderInsideOut, nil
	}
	return "", fmt.Errorf("unknown hit ordering %q", s)
}

// HitLess orders hits for one seed. Build it with NewHitLess.
type HitLess struct {
	geom     geometry.Tracker
	ordering HitOrdering
	origin   r3.Vec
	dir      r3.Vec // unit, already signed by propagation direction
	sign     float64
}

// NewHitLess resolves the seed's starting point and direction in global
// coordinates.
func NewHitLess(geom geometry.Tracker, seed *TrajectorySeed, ordering HitOrdering) (*HitLess, error) {
	if geom == nil {
		return nil, ErrNoGeometry
	}
	sign := 1.0
	if seed.PropagationDirection() == OppositeToMomentum {
		sign = -1.0
	}
	hl := &HitLess{geom: geom, ordering: ordering, sign: sign}
	if ordering == OrderInsideOut {
		return hl, nil
	}

	st := seed.StartingState
	surf, ok := geom.Surface(st.DetID)
	if !ok {
		return nil, fmt.Errorf("%w: seed %q starts on det %d", ErrUnknownDetector, seed.ID, st.DetID)
	}
	mom := surf.VectorToGlobal(st.LocalMomentum)
	if r3.Norm(mom) == 0 {
		return nil, fmt.Errorf("%w: seed %q has zero momentum", ErrDegenerateSeed, seed.ID)
	}
	hl.origin = surf.ToGlobal(st.LocalPosition)
	hl.dir = r3.Scale(sign, r3.Unit(mom))
	return hl, nil
}

// HitKey is the sort key of a hit. Keys compare by Layer first, then by
// Distance; smaller keys sort first.
type HitKey struct {
	Layer    float64 // 0 barrel, 1 forward; always 0 for along_seed
	Distance float64
}

func (k HitKey) less(o HitKey) bool {
	if k.Layer != o.Layer {
		return k.Layer < o.Layer
	}
	return k.Distance < o.Distance
}

// Key returns the sort key of a hit, already signed by the propagation
// direction.
func (hl *HitLess) Key(h RecHit) (HitKey, error) {
	surf, ok := hl.geom.Surface(h.DetID)
	if !ok {
		return HitKey{}, fmt.Errorf("%w: hit on det %d", ErrUnknownDetector, h.DetID)
	}
	pos := surf.ToGlobal(h.LocalPosition)
	if hl.ordering != OrderInsideOut {
		return HitKey{Distance: r3.Dot(r3.Sub(pos, hl.origin), hl.dir)}, nil
	}
	if surf.SubDetector == geometry.Forward {
		return HitKey{Layer: hl.sign, Distance: hl.sign * math.Abs(pos.Z)}, nil
	}
	return HitKey{Distance: hl.sign * math.Hypot(pos.X, pos.Y)}, nil
}

// Less reports whether a sorts before b. Hits on unknown detectors sort
// last; use Sort to surface those as errors.
func (hl *HitLess) Less(a, b RecHit) bool {
	ka, errA := hl.Key(a)
	kb, errB := hl.Key(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	return ka.less(kb)
}

// Sort orders hits in place. Every hit position is looked up once; the sort
// is stable so hits with equal keys keep their cloud order.
func (hl *HitLess) Sort(hits []RecHit) error {
	keys := make([]HitKey, len(hits))
	for i, h := range hits {
		k, err := hl.Key(h)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	sort.Stable(keyedHits{hits: hits, keys: keys})
	return nil
}

type keyedHits struct {
	hits []RecHit
	keys []HitKey
}

func (k keyedHits) Len() int           { return len(k.hits) }
func (k keyedHits) Less(i, j int) bool { return k.keys[i].less(k.keys[j]) }
func (k keyedHits) Swap(i, j int) {
	k.hits[i], k.hits[j] = k.hits[j], k.hits[i]
	k.keys[i], k.keys[j] = k.keys[j], k.keys[i]
}
