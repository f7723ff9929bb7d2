package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DetID identifies a single detector element.
type DetID uint32

// SubDetector classifies a detector element by its layout.
type SubDetector string

const (
	// Barrel elements sit on cylinders around the beam line.
	Barrel SubDetector = "barrel"
	// Forward elements sit on disks perpendicular to the beam line.
	Forward SubDetector = "forward"
)

// IdentityPose is a 4x4 identity matrix.
// T is row-major: [m00,m01,m02,m03, m10,m11,m12,m13, m20,m21,m22,m23, m30,m31,m32,m33]
var IdentityPose = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// MatrixValidationTolerance is the tolerance for checking rotation matrix validity.
const MatrixValidationTolerance = 0.01

// Surface is the placement of one detector element.
type Surface struct {
	ID          DetID
	SubDetector SubDetector
	Pose        [16]float64 // local -> global
}

// ToGlobal converts a point in the element's local frame to global coordinates.
func (s *Surface) ToGlobal(local r3.Vec) r3.Vec {
	T := s.Pose
	return r3.Vec{
		X: T[0]*local.X + T[1]*local.Y + T[2]*local.Z + T[3],
		Y: T[4]*local.X + T[5]*local.Y + T[6]*local.Z + T[7],
		Z: T[8]*local.X + T[9]*local.Y + T[10]*local.Z + T[11],
	}
}

// VectorToGlobal rotates a local direction (e.g. momentum) into the global
// frame. Translation is not applied.
func (s *Surface) VectorToGlobal(local r3.Vec) r3.Vec {
	T := s.Pose
	return r3.Vec{
		X: T[0]*local.X + T[1]*local.Y + T[2]*local.Z,
		Y: T[4]*local.X + T[5]*local.Y + T[6]*local.Z,
		Z: T[8]*local.X + T[9]*local.Y + T[10]*local.Z,
	}
}

// Translated returns a pose with identity rotation and the given origin.
func Translated(origin r3.Vec) [16]float64 {
	T := IdentityPose
	T[3], T[7], T[11] = origin.X, origin.Y, origin.Z
	return T
}

// IsValidPose reports whether T is a proper rigid transform: the rotation
// block has determinant ~1 and the last row is [0 0 0 1].
func IsValidPose(T [16]float64) bool {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > MatrixValidationTolerance {
		return false
	}

	if T[12] != 0 || T[13] != 0 || T[14] != 0 || math.Abs(T[15]-1.0) > 0.001 {
		return false
	}

	return true
}

func (s *Surface) String() string {
	return fmt.Sprintf("det %d (%s) at (%.3f, %.3f, %.3f)", s.ID, s.SubDetector, s.Pose[3], s.Pose[7], s.Pose[11])
}
