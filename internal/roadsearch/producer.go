package roadsearch

import (
	"fmt"

	"github.com/banshee-data/trackdqm/internal/geometry"
)

// Event gives the producer access to one event's products.
type Event interface {
	Clouds(label string) ([]Cloud, error)
	PutCandidates(label string, candidates []TrackCandidate)
}

// Producer runs an Algorithm on the cloud collection of each event and puts
// the candidate collection back under the output label.
type Producer struct {
	algo        *Algorithm
	inputLabel  string
	outputLabel string
}

// NewProducer binds an algorithm to its input and output labels.
func NewProducer(algo *Algorithm, inputLabel, outputLabel string) *Producer {
	return &Producer{algo: algo, inputLabel: inputLabel, outputLabel: outputLabel}
}

// Produce processes one event.
func (p *Producer) Produce(ev Event, geom geometry.Tracker) error {
	clouds, err := ev.Clouds(p.inputLabel)
	if err != nil {
		return fmt.Errorf("get clouds %q: %w", p.inputLabel, err)
	}
	candidates, err := p.algo.Run(clouds, geom)
	if err != nil {
		return err
	}
	ev.PutCandidates(p.outputLabel, candidates)
	return nil
}
