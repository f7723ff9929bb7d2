package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/trackdqm/internal/roadsearch"
	"github.com/google/uuid"
)

// EventKey identifies the event a candidate collection came from.
type EventKey struct {
	Run         uint32
	LumiSection uint32
	Event       uint64
}

// SaveCandidates stores one event's candidate collection, keeping its order.
// It returns the generated candidate IDs.
func (db *DB) SaveCandidates(runID string, key EventKey, candidates []roadsearch.TrackCandidate) ([]string, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	candStmt, err := tx.Prepare(`
		INSERT INTO track_candidates (
			candidate_id, run_id, cms_run, lumi_section, event, position,
			seed_id, direction, charge, n_hits, state_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer candStmt.Close()

	hitStmt, err := tx.Prepare(`
		INSERT INTO track_candidate_hits (candidate_id, hit_index, det_id, local_x, local_y, local_z)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer hitStmt.Close()

	ids := make([]string, 0, len(candidates))
	for pos, c := range candidates {
		id := uuid.New().String()
		state, err := json.Marshal(c.State)
		if err != nil {
			return nil, fmt.Errorf("marshal state: %w", err)
		}
		if _, err := candStmt.Exec(id, runID, key.Run, key.LumiSection, key.Event, pos,
			c.Seed.ID, string(c.Seed.PropagationDirection()), c.State.Charge, len(c.Hits), string(state)); err != nil {
			return nil, fmt.Errorf("insert candidate %d: %w", pos, err)
		}
		for i, h := range c.Hits {
			if _, err := hitStmt.Exec(id, i, h.DetID, h.LocalPosition.X, h.LocalPosition.Y, h.LocalPosition.Z); err != nil {
				return nil, fmt.Errorf("insert hit %d of candidate %d: %w", i, pos, err)
			}
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// CountCandidates returns how many candidates runID holds.
func (db *DB) CountCandidates(runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM track_candidates WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// CandidateHitDets returns the detector ids of a candidate's hits in stored
// order.
func (db *DB) CandidateHitDets(candidateID string) ([]uint32, error) {
	rows, err := db.Query(`SELECT det_id FROM track_candidate_hits WHERE candidate_id = ? ORDER BY hit_index`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dets []uint32
	for rows.Next() {
		var d uint32
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

func unixNanoUTC(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
