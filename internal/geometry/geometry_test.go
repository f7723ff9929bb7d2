package geometry

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func approxVec(a, b r3.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 && math.Abs(a.Z-b.Z) < 1e-9
}

func TestSurface_ToGlobal_Translation(t *testing.T) {
	s := Surface{ID: 1, SubDetector: Barrel, Pose: Translated(r3.Vec{X: 1, Y: 2, Z: 3})}

	got := s.ToGlobal(r3.Vec{X: 0.5, Y: 0, Z: -1})
	want := r3.Vec{X: 1.5, Y: 2, Z: 2}
	if !approxVec(got, want) {
		t.Errorf("ToGlobal = %v, want %v", got, want)
	}

	// Directions ignore the translation
	dir := s.VectorToGlobal(r3.Vec{X: 0, Y: 0, Z: 1})
	if !approxVec(dir, r3.Vec{Z: 1}) {
		t.Errorf("VectorToGlobal = %v, want (0,0,1)", dir)
	}
}

func TestSurface_ToGlobal_Rotation(t *testing.T) {
	// 90 degrees about Z: local X maps to global Y
	rot := [9]float64{0, -1, 0, 1, 0, 0, 0, 0, 1}
	s := SurfaceSpec{ID: 7, SubDetector: Forward, Translation: [3]float64{0, 0, 10}, Rotation: &rot}.Surface()

	got := s.ToGlobal(r3.Vec{X: 2})
	want := r3.Vec{X: 0, Y: 2, Z: 10}
	if !approxVec(got, want) {
		t.Errorf("ToGlobal = %v, want %v", got, want)
	}
}

func TestIsValidPose(t *testing.T) {
	if !IsValidPose(IdentityPose) {
		t.Error("identity pose should be valid")
	}
	scaled := IdentityPose
	scaled[0] = 2
	if IsValidPose(scaled) {
		t.Error("scaled pose should be invalid")
	}
	badRow := IdentityPose
	badRow[12] = 1
	if IsValidPose(badRow) {
		t.Error("pose with non-homogeneous last row should be invalid")
	}
}

func TestNewMapTracker(t *testing.T) {
	tr, err := NewMapTracker(
		Surface{ID: 2, SubDetector: Barrel, Pose: IdentityPose},
		Surface{ID: 1, SubDetector: Forward, Pose: IdentityPose},
	)
	if err != nil {
		t.Fatalf("NewMapTracker: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("Len = %d, want 2", tr.Len())
	}
	if ids := tr.IDs(); ids[0] != 1 || ids[1] != 2 {
		t.Errorf("IDs = %v, want [1 2]", ids)
	}
	if _, ok := tr.Surface(3); ok {
		t.Error("unexpected surface for unknown id")
	}
	if s, ok := tr.Surface(2); !ok || s.SubDetector != Barrel {
		t.Errorf("Surface(2) = %v, %v", s, ok)
	}
}

func TestNewMapTracker_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		surfaces []Surface
	}{
		{"duplicate", []Surface{{ID: 1, SubDetector: Barrel, Pose: IdentityPose}, {ID: 1, SubDetector: Barrel, Pose: IdentityPose}}},
		{"subdetector", []Surface{{ID: 1, SubDetector: "endcap", Pose: IdentityPose}}},
		{"pose", []Surface{{ID: 1, SubDetector: Barrel}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapTracker(tt.surfaces...)
			if !errors.Is(err, ErrInvalidSurface) {
				t.Errorf("err = %v, want ErrInvalidSurface", err)
			}
		})
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.json")
	doc := `{"surfaces": [
		{"id": 10, "subdetector": "barrel", "translation": [4.4, 0, 0]},
		{"id": 20, "subdetector": "forward", "translation": [0, 0, 35]}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	s, ok := tr.Surface(20)
	if !ok {
		t.Fatal("surface 20 missing")
	}
	if got := s.ToGlobal(r3.Vec{}); !approxVec(got, r3.Vec{Z: 35}) {
		t.Errorf("surface 20 origin = %v", got)
	}

	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
