package roadsearch

import "errors"

var (
	// ErrNoSeed is returned for a cloud without any usable seed.
	ErrNoSeed = errors.New("no seed available")
	// ErrUnknownDetector is returned when a hit or seed state refers to a
	// detector element missing from the geometry.
	ErrUnknownDetector = errors.New("unknown detector element")
	// ErrNoGeometry is returned when Run is called without a geometry.
	ErrNoGeometry = errors.New("tracker geometry not available")
	// ErrDegenerateSeed is returned when a seed has no usable direction.
	ErrDegenerateSeed = errors.New("degenerate seed")
)
