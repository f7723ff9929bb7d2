package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/trackdqm/internal/geometry"
	"github.com/banshee-data/trackdqm/internal/lumimonitor"
	"github.com/banshee-data/trackdqm/internal/roadsearch"
)

// Fixture is a recorded sequence of runs to replay through both modules.
type Fixture struct {
	Geometry struct {
		Surfaces []geometry.SurfaceSpec `json:"surfaces"`
	} `json:"geometry"`
	Runs []FixtureRun `json:"runs"`
}

type FixtureRun struct {
	Run        uint32           `json:"run"`
	CacheID    uint64           `json:"cache_id"`
	LumiBlocks []FixtureLumiBlk `json:"lumi_blocks"`
}

type FixtureLumiBlk struct {
	LS     uint32                              `json:"lumi_section"`
	Lumi   map[string]*lumimonitor.LumiSummary `json:"lumi,omitempty"`
	Events []*FixtureEvent                     `json:"events"`
}

// FixtureCloud refers to its seeds by id within the event.
type FixtureCloud struct {
	Hits    []roadsearch.RecHit `json:"hits"`
	SeedIDs []string            `json:"seed_ids"`
}

type FixtureEvent struct {
	Event    uint64                              `json:"event"`
	Clusters map[string]int                      `json:"clusters,omitempty"`
	Lumi     map[string]*lumimonitor.LumiSummary `json:"lumi,omitempty"`
	Seeds    []roadsearch.TrajectorySeed         `json:"seeds,omitempty"`
	CloudSet map[string][]FixtureCloud           `json:"clouds,omitempty"`

	candidates map[string][]roadsearch.TrackCandidate
}

// LoadFixture reads a replay fixture from disk.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Tracker builds the detector geometry described by the fixture.
func (f *Fixture) Tracker() (*geometry.MapTracker, error) {
	return geometry.FromSpecs(f.Geometry.Surfaces)
}

func (e *FixtureEvent) ClusterCount(label string) (int, bool) {
	n, ok := e.Clusters[label]
	return n, ok
}

func (e *FixtureEvent) LumiSummary(label string) (*lumimonitor.LumiSummary, bool) {
	s, ok := e.Lumi[label]
	return s, ok && s != nil
}

// Clouds resolves seed references into pointers to the event's seeds.
func (e *FixtureEvent) Clouds(label string) ([]roadsearch.Cloud, error) {
	raw, ok := e.CloudSet[label]
	if !ok {
		return nil, fmt.Errorf("event %d: no cloud collection %q", e.Event, label)
	}
	byID := make(map[string]*roadsearch.TrajectorySeed, len(e.Seeds))
	for i := range e.Seeds {
		id := e.Seeds[i].ID
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("event %d: duplicate seed id %q", e.Event, id)
		}
		byID[id] = &e.Seeds[i]
	}

	clouds := make([]roadsearch.Cloud, 0, len(raw))
	for i, fc := range raw {
		c := roadsearch.Cloud{Hits: fc.Hits}
		for _, id := range fc.SeedIDs {
			seed, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("event %d cloud %d: unknown seed %q", e.Event, i, id)
			}
			c.Seeds = append(c.Seeds, seed)
		}
		clouds = append(clouds, c)
	}
	return clouds, nil
}

func (e *FixtureEvent) PutCandidates(label string, candidates []roadsearch.TrackCandidate) {
	if e.candidates == nil {
		e.candidates = make(map[string][]roadsearch.TrackCandidate)
	}
	e.candidates[label] = candidates
}

// Candidates returns a collection previously put into the event.
func (e *FixtureEvent) Candidates(label string) []roadsearch.TrackCandidate {
	return e.candidates[label]
}

func (b *FixtureLumiBlk) LumiSection() uint32 { return b.LS }

func (b *FixtureLumiBlk) LumiSummary(label string) (*lumimonitor.LumiSummary, bool) {
	s, ok := b.Lumi[label]
	return s, ok && s != nil
}
