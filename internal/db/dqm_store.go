package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/trackdqm/internal/dqm"
	"github.com/banshee-data/trackdqm/internal/lumimonitor"
	"github.com/google/uuid"
)

// Run is one replay or processing job whose output is stored together.
type Run struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	ConfigJSON string `json:"config_json"`
	CreatedAt  int64  `json:"created_at"` // unix nanos
}

// CreateRun inserts a new run with a generated UUID and returns it.
func (db *DB) CreateRun(source string, config interface{}) (*Run, error) {
	cfgJSON := []byte("{}")
	if config != nil {
		var err error
		if cfgJSON, err = json.Marshal(config); err != nil {
			return nil, fmt.Errorf("marshal run config: %w", err)
		}
	}
	run := &Run{
		RunID:      uuid.New().String(),
		Source:     source,
		ConfigJSON: string(cfgJSON),
		CreatedAt:  db.clock.Now().UnixNano(),
	}
	_, err := db.Exec(
		`INSERT INTO dqm_runs (run_id, source, config_json, created_at) VALUES (?, ?, ?, ?)`,
		run.RunID, run.Source, run.ConfigJSON, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, source, config_json, created_at FROM dqm_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Source, &r.ConfigJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, through the schema's cascades, everything
// stored under it.
func (db *DB) DeleteRun(runID string) error {
	_, err := db.Exec(`DELETE FROM dqm_runs WHERE run_id = ?`, runID)
	return err
}

// SaveElements stores the elements as they stood at the end of CMS run
// cmsRun, replacing any earlier copy of the same path for that run.
func (db *DB) SaveElements(runID string, cmsRun uint32, elements []*dqm.MonitorElement) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, me := range elements {
		if err := saveElement(tx, runID, cmsRun, me); err != nil {
			return fmt.Errorf("save %s: %w", me.Path(), err)
		}
	}
	return tx.Commit()
}

func saveElement(tx *sql.Tx, runID string, cmsRun uint32, me *dqm.MonitorElement) error {
	// Bins go with the element through ON DELETE CASCADE.
	if _, err := tx.Exec(`DELETE FROM dqm_elements WHERE run_id = ? AND cms_run = ? AND path = ?`,
		runID, cmsRun, me.Path()); err != nil {
		return err
	}
	lo, hi := me.Range()
	_, err := tx.Exec(`
		INSERT INTO dqm_elements (
			run_id, cms_run, path, folder, name, title, kind, nbins, x_low, x_high, entries, x_title, y_title
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, cmsRun, me.Path(), me.Folder(), me.Name(), me.Title(), string(me.Kind()),
		me.NBins(), lo, hi, me.Entries(), me.XTitle, me.YTitle,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO dqm_bins (run_id, cms_run, path, bin, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for bin, v := range me.Contents() {
		if v == 0 {
			continue
		}
		if _, err := stmt.Exec(runID, cmsRun, me.Path(), bin, v); err != nil {
			return err
		}
	}
	return nil
}

// ElementRuns lists the CMS runs that have stored elements under runID.
func (db *DB) ElementRuns(runID string) ([]uint32, error) {
	rows, err := db.Query(`SELECT DISTINCT cms_run FROM dqm_elements WHERE run_id = ? ORDER BY cms_run`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []uint32
	for rows.Next() {
		var r uint32
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadElements rebuilds the elements stored for cmsRun into a fresh store.
func (db *DB) LoadElements(runID string, cmsRun uint32) (*dqm.Store, error) {
	rows, err := db.Query(`
		SELECT path, folder, name, title, nbins, x_low, x_high, entries, x_title, y_title
		FROM dqm_elements WHERE run_id = ? AND cms_run = ? ORDER BY path`, runID, cmsRun)
	if err != nil {
		return nil, err
	}

	type header struct {
		path, folder, name, title string
		nbins                     int
		lo, hi                    float64
		entries                   int64
		xTitle, yTitle            string
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.path, &h.folder, &h.name, &h.title, &h.nbins, &h.lo, &h.hi, &h.entries, &h.xTitle, &h.yTitle); err != nil {
			rows.Close()
			return nil, err
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	store := dqm.NewStore()
	for _, h := range headers {
		me, err := store.Book1D(h.folder, h.name, h.title, h.nbins, h.lo, h.hi)
		if err != nil {
			return nil, err
		}
		me.XTitle, me.YTitle = h.xTitle, h.yTitle

		contents, err := db.loadBins(runID, cmsRun, h.path, h.nbins+2)
		if err != nil {
			return nil, fmt.Errorf("load bins of %s: %w", h.path, err)
		}
		if err := me.Restore(contents, h.entries); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (db *DB) loadBins(runID string, cmsRun uint32, path string, n int) ([]float64, error) {
	rows, err := db.Query(`SELECT bin, content FROM dqm_bins WHERE run_id = ? AND cms_run = ? AND path = ?`,
		runID, cmsRun, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := make([]float64, n)
	for rows.Next() {
		var bin int
		var v float64
		if err := rows.Scan(&bin, &v); err != nil {
			return nil, err
		}
		if bin >= 0 && bin < n {
			contents[bin] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contents, nil
}

// SaveSlices stores lumi slice records under runID.
func (db *DB) SaveSlices(runID string, slices []lumimonitor.SliceRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO lumi_slices (
			run_id, cms_run, slice_index, lumi_section, slice_lumi, integrated_lumi,
			clusters, correlation, lumi_missing, flushed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range slices {
		if _, err := stmt.Exec(runID, s.Run, s.Index, s.LumiSection, s.SliceLumi, s.IntegratedLumi,
			s.Clusters, s.Correlation, s.LumiMissing, s.FlushedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert slice %d: %w", s.Index, err)
		}
	}
	return tx.Commit()
}

// ListSlices returns the slice records of runID in flush order.
func (db *DB) ListSlices(runID string) ([]lumimonitor.SliceRecord, error) {
	rows, err := db.Query(`
		SELECT cms_run, slice_index, lumi_section, slice_lumi, integrated_lumi,
		       clusters, correlation, lumi_missing, flushed_at
		FROM lumi_slices WHERE run_id = ? ORDER BY slice_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lumimonitor.SliceRecord
	for rows.Next() {
		var s lumimonitor.SliceRecord
		var flushedAt int64
		if err := rows.Scan(&s.Run, &s.Index, &s.LumiSection, &s.SliceLumi, &s.IntegratedLumi,
			&s.Clusters, &s.Correlation, &s.LumiMissing, &flushedAt); err != nil {
			return nil, err
		}
		s.FlushedAt = unixNanoUTC(flushedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
