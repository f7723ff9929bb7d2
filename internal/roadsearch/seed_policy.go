package roadsearch

import "fmt"

// SeedPolicy decides which of a cloud's seeds becomes the candidate's seed.
type SeedPolicy string

const (
	// SeedFirst takes the first seed associated with the cloud.
	SeedFirst SeedPolicy = "first"
	// SeedMaxMomentum takes the seed whose starting state has the largest |p|.
	// Ties go to the earlier seed.
	SeedMaxMomentum SeedPolicy = "max_momentum"
)

// ParseSeedPolicy validates a policy name. Empty selects SeedFirst.
func ParseSeedPolicy(s string) (SeedPolicy, error) {
	switch SeedPolicy(s) {
	case "", SeedFirst:
		return SeedFirst, nil
	case SeedMaxMomentum:
		return SeedMaxMomentum, nil
	}
	return "", fmt.Errorf("unknown seed policy %q", s)
}

// Select returns the chosen seed. Nil references are skipped.
func (p SeedPolicy) Select(seeds []*TrajectorySeed) (*TrajectorySeed, error) {
	var chosen *TrajectorySeed
	for _, s := range seeds {
		if s == nil {
			continue
		}
		if chosen == nil {
			chosen = s
			if p != SeedMaxMomentum {
				break
			}
			continue
		}
		if s.StartingState.Momentum() > chosen.StartingState.Momentum() {
			chosen = s
		}
	}
	if chosen == nil {
		return nil, ErrNoSeed
	}
	return chosen, nil
}
