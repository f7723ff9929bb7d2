// Package geometry is the read-only tracker geometry service used to turn
// detector-local hit and state coordinates into global coordinates.
//
// Key types: DetID, Surface, Tracker.
//
// Surfaces are keyed by detector-element identifier and carry a row-major
// 4x4 local-to-global pose. Nothing in this package mutates a Tracker once
// it has been built.
package geometry
