// Package roadsearch turns cleaned road-search clouds into track candidates.
//
// Each cloud groups the hits believed to belong to one trajectory together
// with the seeds that produced it. The candidate maker copies the hits, picks
// one seed, orders the hits along that seed using the tracker geometry and
// emits a TrackCandidate that owns all of its data.
//
// Key types: RecHit, TrajectorySeed, Cloud, TrackCandidate, Algorithm.
//
// Dependency rule: this package reads geometry through geometry.Tracker only
// and never touches storage.
package roadsearch
