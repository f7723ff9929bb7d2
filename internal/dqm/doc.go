// Package dqm is the in-process monitoring store: named, histogram-like
// Monitor Elements grouped in folders, plus helpers that render them as an
// HTML report or PNG plots.
//
// The store is not safe for concurrent use; it is owned by the single
// goroutine that drives the analyzers.
package dqm
