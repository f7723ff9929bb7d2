package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidSurface is returned when a surface definition cannot be used.
var ErrInvalidSurface = errors.New("invalid surface")

// Tracker is a read-only lookup of detector surfaces by identifier.
type Tracker interface {
	Surface(id DetID) (*Surface, bool)
}

// MapTracker is an in-memory Tracker.
type MapTracker struct {
	surfaces map[DetID]*Surface
}

// NewMapTracker builds a tracker from the given surfaces. Duplicate
// identifiers and non-rigid poses are rejected.
func NewMapTracker(surfaces ...Surface) (*MapTracker, error) {
	t := &MapTracker{surfaces: make(map[DetID]*Surface, len(surfaces))}
	for i := range surfaces {
		s := surfaces[i]
		if _, dup := t.surfaces[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate det id %d", ErrInvalidSurface, s.ID)
		}
		if s.SubDetector != Barrel && s.SubDetector != Forward {
			return nil, fmt.Errorf("%w: det %d has unknown subdetector %q", ErrInvalidSurface, s.ID, s.SubDetector)
		}
		if !IsValidPose(s.Pose) {
			return nil, fmt.Errorf("%w: det %d pose is not a rigid transform", ErrInvalidSurface, s.ID)
		}
		t.surfaces[s.ID] = &s
	}
	return t, nil
}

// Surface implements Tracker.
func (t *MapTracker) Surface(id DetID) (*Surface, bool) {
	s, ok := t.surfaces[id]
	return s, ok
}

// Len returns the number of surfaces.
func (t *MapTracker) Len() int { return len(t.surfaces) }

// IDs returns all detector identifiers in ascending order.
func (t *MapTracker) IDs() []DetID {
	ids := make([]DetID, 0, len(t.surfaces))
	for id := range t.surfaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SurfaceSpec is the JSON form of a surface. Rotation is row-major 3x3 and
// defaults to identity when omitted.
type SurfaceSpec struct {
	ID          DetID       `json:"id"`
	SubDetector SubDetector `json:"subdetector"`
	Translation [3]float64  `json:"translation"`
	Rotation    *[9]float64 `json:"rotation,omitempty"`
}

// Surface converts the spec into a Surface.
func (sp SurfaceSpec) Surface() Surface {
	T := Translated(r3.Vec{X: sp.Translation[0], Y: sp.Translation[1], Z: sp.Translation[2]})
	if sp.Rotation != nil {
		R := sp.Rotation
		T[0], T[1], T[2] = R[0], R[1], R[2]
		T[4], T[5], T[6] = R[3], R[4], R[5]
		T[8], T[9], T[10] = R[6], R[7], R[8]
	}
	return Surface{ID: sp.ID, SubDetector: sp.SubDetector, Pose: T}
}

// FromSpecs builds a MapTracker from JSON surface specs.
func FromSpecs(specs []SurfaceSpec) (*MapTracker, error) {
	surfaces := make([]Surface, len(specs))
	for i, sp := range specs {
		surfaces[i] = sp.Surface()
	}
	return NewMapTracker(surfaces...)
}

// LoadJSON reads a geometry file of the form {"surfaces": [...]}.
func LoadJSON(path string) (*MapTracker, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}

	var doc struct {
		Surfaces []SurfaceSpec `json:"surfaces"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse geometry JSON: %w", err)
	}
	return FromSpecs(doc.Surfaces)
}
