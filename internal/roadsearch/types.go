package roadsearch

import (
	"github.com/banshee-data/trackdqm/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// PropagationDirection tells which way along the momentum a trajectory is
// followed.
type PropagationDirection string

const (
	AlongMomentum      PropagationDirection = "along_momentum"
	OppositeToMomentum PropagationDirection = "opposite_to_momentum"
)

// RecHit is a reconstructed hit on one detector element.
type RecHit struct {
	DetID         geometry.DetID `json:"det_id"`
	LocalPosition r3.Vec         `json:"local_position"`
	LocalError    [3]float64     `json:"local_error"` // xx, xy, yy
}

// Clone returns an independent copy of the hit.
func (h RecHit) Clone() RecHit {
	return h
}

// TrajectoryState is the persistent trajectory state on a detector surface.
type TrajectoryState struct {
	DetID         geometry.DetID `json:"det_id"`
	LocalPosition r3.Vec         `json:"local_position"`
	LocalMomentum r3.Vec         `json:"local_momentum"`
	Charge        int            `json:"charge"`
	Errors        [15]float64    `json:"errors"` // lower triangle of the 5x5 covariance
}

// Clone returns an independent copy of the state.
func (s TrajectoryState) Clone() TrajectoryState {
	return s
}

// Momentum returns |p| of the local momentum.
func (s TrajectoryState) Momentum() float64 {
	return r3.Norm(s.LocalMomentum)
}

// TrajectorySeed is an initial trajectory hypothesis.
type TrajectorySeed struct {
	ID            string               `json:"id"`
	Direction     PropagationDirection `json:"direction"`
	Hits          []RecHit             `json:"hits,omitempty"`
	StartingState TrajectoryState      `json:"starting_state"`
}

// Clone deep-copies the seed, including its hits.
func (s *TrajectorySeed) Clone() TrajectorySeed {
	out := *s
	if s.Hits != nil {
		out.Hits = cloneHits(s.Hits)
	}
	return out
}

// PropagationDirection returns the seed direction, defaulting to AlongMomentum.
func (s *TrajectorySeed) PropagationDirection() PropagationDirection {
	if s.Direction == "" {
		return AlongMomentum
	}
	return s.Direction
}

// Cloud is a cleaned road-search cloud: the hits collected along a road and
// references to the seeds the road was built from.
type Cloud struct {
	Hits  []RecHit          `json:"hits"`
	Seeds []*TrajectorySeed `json:"-"`
}

// TrackCandidate is an ordered hit list plus the seed it was built from,
// ready for the final fit. It shares no storage with its source cloud.
type TrackCandidate struct {
	Hits  []RecHit
	Seed  TrajectorySeed
	State TrajectoryState
}

func cloneHits(hits []RecHit) []RecHit {
	out := make([]RecHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Clone())
	}
	return out
}
