package roadsearch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeEvent struct {
	clouds map[string][]Cloud
	put    map[string][]TrackCandidate
}

var errProductNotFound = errors.New("product not found")

func (e *fakeEvent) Clouds(label string) ([]Cloud, error) {
	c, ok := e.clouds[label]
	if !ok {
		return nil, errProductNotFound
	}
	return c, nil
}

func (e *fakeEvent) PutCandidates(label string, c []TrackCandidate) {
	if e.put == nil {
		e.put = make(map[string][]TrackCandidate)
	}
	e.put[label] = c
}

func TestProducer_Produce(t *testing.T) {
	ev := &fakeEvent{clouds: map[string][]Cloud{
		"cleanRoadSearchClouds": {{
			Hits:  []RecHit{hitAt(1, r3.Vec{X: 1})},
			Seeds: []*TrajectorySeed{seedAlong("s", r3.Vec{X: 1})},
		}},
	}}

	p := NewProducer(NewAlgorithm(DefaultConfig(), nil), "cleanRoadSearchClouds", "rsTrackCandidates")
	require.NoError(t, p.Produce(ev, testTracker(t)))
	assert.Len(t, ev.put["rsTrackCandidates"], 1)
}

func TestProducer_MissingInput(t *testing.T) {
	ev := &fakeEvent{}
	p := NewProducer(NewAlgorithm(DefaultConfig(), nil), "missing", "out")

	err := p.Produce(ev, testTracker(t))
	assert.ErrorIs(t, err, errProductNotFound)
	assert.Empty(t, ev.put)
}
