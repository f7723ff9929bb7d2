package roadsearch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trackdqm/internal/geometry"
)

func TestParsePolicies(t *testing.T) {
	if p, err := ParseSeedPolicy(""); err != nil || p != SeedFirst {
		t.Errorf("ParseSeedPolicy(\"\") = %q, %v", p, err)
	}
	if p, err := ParseSeedPolicy("max_momentum"); err != nil || p != SeedMaxMomentum {
		t.Errorf("ParseSeedPolicy(max_momentum) = %q, %v", p, err)
	}
	if _, err := ParseSeedPolicy("best"); err == nil {
		t.Error("expected error for unknown seed policy")
	}

	if o, err := ParseHitOrdering(""); err != nil || o != OrderAlongSeed {
		t.Errorf("ParseHitOrdering(\"\") = %q, %v", o, err)
	}
	if o, err := ParseHitOrdering("inside_out"); err != nil || o != OrderInsideOut {
		t.Errorf("ParseHitOrdering(inside_out) = %q, %v", o, err)
	}
	if _, err := ParseHitOrdering("random"); err == nil {
		t.Error("expected error for unknown ordering")
	}
}

func TestHitLess_Less(t *testing.T) {
	tr := testTracker(t)
	hl, err := NewHitLess(tr, seedAlong("s", r3.Vec{Y: 2}), OrderAlongSeed)
	if err != nil {
		t.Fatalf("NewHitLess: %v", err)
	}

	near := hitAt(1, r3.Vec{Y: 1})
	far := hitAt(1, r3.Vec{Y: 4})
	unknown := hitAt(99, r3.Vec{})

	if !hl.Less(near, far) {
		t.Error("near hit should sort before far hit")
	}
	if hl.Less(far, near) {
		t.Error("far hit should not sort before near hit")
	}
	if !hl.Less(near, unknown) || hl.Less(unknown, near) {
		t.Error("hits on unknown detectors should sort last")
	}
}

func TestHitLess_SeedOffset(t *testing.T) {
	// Seed starts at x=5 on det 2 (z=10), pointing along -x.
	tr := testTracker(t)
	seed := &TrajectorySeed{
		ID:            "offset",
		StartingState: TrajectoryState{DetID: 2, LocalPosition: r3.Vec{X: 5}, LocalMomentum: r3.Vec{X: -1}},
	}
	hl, err := NewHitLess(tr, seed, OrderAlongSeed)
	if err != nil {
		t.Fatalf("NewHitLess: %v", err)
	}

	k, err := hl.Key(hitAt(1, r3.Vec{X: 2}))
	if err != nil {
		t.Fatal(err)
	}
	if k != (HitKey{Distance: 3}) {
		t.Errorf("Key = %+v, want distance 3", k)
	}
}

func TestTrajectorySeed_DefaultDirection(t *testing.T) {
	s := &TrajectorySeed{}
	if s.PropagationDirection() != AlongMomentum {
		t.Errorf("default direction = %q", s.PropagationDirection())
	}
}

// mixedTracker has barrel elements at transverse radius 3, 5 and 50 (the
// radius-3 one displaced to z=10) and a forward disk at z=-20.
func mixedTracker(t *testing.T) *geometry.MapTracker {
	t.Helper()
	tr, err := geometry.NewMapTracker(
		geometry.Surface{ID: 10, SubDetector: geometry.Barrel, Pose: geometry.Translated(r3.Vec{X: 5})},
		geometry.Surface{ID: 11, SubDetector: geometry.Barrel, Pose: geometry.Translated(r3.Vec{Y: 3, Z: 10})},
		geometry.Surface{ID: 12, SubDetector: geometry.Barrel, Pose: geometry.Translated(r3.Vec{X: 30, Y: 40})},
		geometry.Surface{ID: 20, SubDetector: geometry.Forward, Pose: geometry.Translated(r3.Vec{X: 1, Z: -20})},
	)
	if err != nil {
		t.Fatalf("NewMapTracker: %v", err)
	}
	return tr
}

func TestHitLess_InsideOutBarrelBeforeForward(t *testing.T) {
	tr := mixedTracker(t)
	tests := []struct {
		name      string
		direction PropagationDirection
		want      []geometry.DetID
	}{
		{"along momentum", AlongMomentum, []geometry.DetID{11, 10, 12, 20}},
		{"opposite to momentum", OppositeToMomentum, []geometry.DetID{20, 12, 10, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := seedAlong("s", r3.Vec{X: 1})
			seed.Direction = tt.direction
			hl, err := NewHitLess(tr, seed, OrderInsideOut)
			if err != nil {
				t.Fatalf("NewHitLess: %v", err)
			}

			hits := []RecHit{hitAt(10, r3.Vec{}), hitAt(11, r3.Vec{}), hitAt(20, r3.Vec{}), hitAt(12, r3.Vec{})}
			if err := hl.Sort(hits); err != nil {
				t.Fatalf("Sort: %v", err)
			}
			var got []geometry.DetID
			for _, h := range hits {
				got = append(got, h.DetID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHitLess_InsideOutForwardByAbsZ(t *testing.T) {
	tr, err := geometry.NewMapTracker(
		geometry.Surface{ID: 1, SubDetector: geometry.Forward, Pose: geometry.Translated(r3.Vec{Z: 40})},
		geometry.Surface{ID: 2, SubDetector: geometry.Forward, Pose: geometry.Translated(r3.Vec{X: 100, Z: -25})},
	)
	if err != nil {
		t.Fatalf("NewMapTracker: %v", err)
	}
	hl, err := NewHitLess(tr, seedAlong("s", r3.Vec{Z: 1}), OrderInsideOut)
	if err != nil {
		t.Fatalf("NewHitLess: %v", err)
	}
	if !hl.Less(hitAt(2, r3.Vec{}), hitAt(1, r3.Vec{})) {
		t.Error("|z|=25 should sort before |z|=40 regardless of transverse radius")
	}
}
