package roadsearch

import (
	"fmt"

	"github.com/banshee-data/trackdqm/internal/geometry"
	"github.com/banshee-data/trackdqm/internal/monitoring"
)

var logf = monitoring.Tagged("RoadSearch")

// Config holds the candidate maker's tunable policies.
type Config struct {
	SeedPolicy  SeedPolicy
	HitOrdering HitOrdering
}

// DefaultConfig returns the first-seed, along-seed configuration.
func DefaultConfig() Config {
	return Config{SeedPolicy: SeedFirst, HitOrdering: OrderAlongSeed}
}

// Algorithm converts clouds into track candidates. For now candidates are
// filled straight from the cleaned clouds and the seed trajectory is used as
// the initial trajectory for the final fit.
type Algorithm struct {
	cfg     Config
	metrics *Metrics
}

// NewAlgorithm creates an Algorithm. metrics may be nil.
func NewAlgorithm(cfg Config, metrics *Metrics) *Algorithm {
	if cfg.SeedPolicy == "" {
		cfg.SeedPolicy = SeedFirst
	}
	if cfg.HitOrdering == "" {
		cfg.HitOrdering = OrderAlongSeed
	}
	return &Algorithm{cfg: cfg, metrics: metrics}
}

// Config returns the effective configuration.
func (a *Algorithm) Config() Config { return a.cfg }

// Run produces exactly one candidate per cloud, in input order. Any failure
// aborts the whole collection and no candidates are returned.
func (a *Algorithm) Run(clouds []Cloud, geom geometry.Tracker) ([]TrackCandidate, error) {
	logf("Clean Clouds input size: %d", len(clouds))
	a.metrics.ObserveClouds(len(clouds))

	if geom == nil {
		a.metrics.IncrementFailure("no_geometry")
		return nil, ErrNoGeometry
	}

	output := make([]TrackCandidate, 0, len(clouds))
	for i := range clouds {
		cand, err := a.makeCandidate(&clouds[i], geom)
		if err != nil {
			a.metrics.IncrementFailure(failureReason(err))
			return nil, fmt.Errorf("cloud %d: %w", i, err)
		}
		output = append(output, cand)
	}

	a.metrics.ObserveCandidates(len(output))
	logf("Found %d track candidates.", len(output))
	return output, nil
}

func (a *Algorithm) makeCandidate(cloud *Cloud, geom geometry.Tracker) (TrackCandidate, error) {
	hits := cloneHits(cloud.Hits)

	seed, err := a.cfg.SeedPolicy.Select(cloud.Seeds)
	if err != nil {
		return TrackCandidate{}, err
	}

	// Sorting needs the seed: the ordering follows its propagation direction.
	less, err := NewHitLess(geom, seed, a.cfg.HitOrdering)
	if err != nil {
		return TrackCandidate{}, err
	}
	if err := less.Sort(hits); err != nil {
		return TrackCandidate{}, err
	}

	return TrackCandidate{
		Hits:  hits,
		Seed:  seed.Clone(),
		State: seed.StartingState.Clone(),
	}, nil
}
