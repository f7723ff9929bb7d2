package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/trackdqm/internal/config"
	"github.com/banshee-data/trackdqm/internal/db"
	"github.com/banshee-data/trackdqm/internal/dqm"
	"github.com/banshee-data/trackdqm/internal/geometry"
	"github.com/banshee-data/trackdqm/internal/lumimonitor"
	"github.com/banshee-data/trackdqm/internal/monitoring"
	"github.com/banshee-data/trackdqm/internal/roadsearch"
	"github.com/banshee-data/trackdqm/internal/timeutil"
)

var logf = monitoring.Tagged("replay")

// EventCandidates is the candidate collection produced for one event.
type EventCandidates struct {
	Key        db.EventKey
	Candidates []roadsearch.TrackCandidate
}

// RunElements is a copy of the monitor elements taken at the end of one run.
type RunElements struct {
	Run   uint32
	Store *dqm.Store
}

// ReplayResult is everything one replay produced.
type ReplayResult struct {
	RunID      string     // empty when nothing was persisted
	Store      *dqm.Store // live store, as left after the last run
	Runs       []RunElements
	Slices     []lumimonitor.SliceRecord
	Summaries  []lumimonitor.RunSummary
	Candidates []EventCandidates
}

// Replayer drives the candidate maker and the lumi monitor over a fixture
// in recorded order.
type Replayer struct {
	cfg      *config.Config
	clock    timeutil.Clock
	registry prometheus.Registerer
	db       *db.DB // optional
}

// NewReplayer wires a replayer. reg and store may be nil.
func NewReplayer(cfg *config.Config, clock timeutil.Clock, reg prometheus.Registerer, store *db.DB) *Replayer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Replayer{cfg: cfg, clock: clock, registry: reg, db: store}
}

// Replay runs the fixture to completion. The first error aborts the replay
// and removes whatever it had already stored.
func (r *Replayer) Replay(source string, f *Fixture) (res *ReplayResult, err error) {
	tracker, err := f.Tracker()
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	rsCfg, err := r.cfg.RoadSearchConfig()
	if err != nil {
		return nil, err
	}

	var rsMetrics *roadsearch.Metrics
	var lumiMetrics *lumimonitor.Metrics
	if r.registry != nil {
		rsMetrics = roadsearch.NewMetrics(r.registry)
		lumiMetrics = lumimonitor.NewMetrics(r.registry)
	}

	producer := roadsearch.NewProducer(
		roadsearch.NewAlgorithm(rsCfg, rsMetrics),
		r.cfg.GetCloudsLabel(), r.cfg.GetCandidatesLabel(),
	)

	store := dqm.NewStore()
	monitor, err := lumimonitor.New(r.cfg.LumiParams(), store, r.clock, lumiMetrics)
	if err != nil {
		return nil, err
	}

	res = &ReplayResult{Store: store}
	if r.db != nil {
		created, cerr := r.db.CreateRun(source, r.cfg)
		if cerr != nil {
			return nil, cerr
		}
		res.RunID = created.RunID
		defer func() {
			if err == nil {
				return
			}
			if derr := r.db.DeleteRun(created.RunID); derr != nil {
				logf("failed to remove aborted run %s: %v", created.RunID, derr)
			}
		}()
	}

	if err := monitor.BeginJob(); err != nil {
		return nil, err
	}
	logf("replaying %d runs over %d surfaces", len(f.Runs), tracker.Len())

	for _, run := range f.Runs {
		if err := monitor.BeginRun(run.Run, run.CacheID); err != nil {
			return nil, fmt.Errorf("run %d: %w", run.Run, err)
		}
		for bi := range run.LumiBlocks {
			lb := &run.LumiBlocks[bi]
			for _, ev := range lb.Events {
				key := db.EventKey{Run: run.Run, LumiSection: lb.LS, Event: ev.Event}
				if err := r.processEvent(producer, monitor, tracker, ev, key, res); err != nil {
					return nil, fmt.Errorf("run %d LS %d event %d: %w", run.Run, lb.LS, ev.Event, err)
				}
			}
			if _, err := monitor.EndLumiBlock(lb); err != nil {
				return nil, fmt.Errorf("run %d: %w", run.Run, err)
			}
		}
		res.Summaries = append(res.Summaries, monitor.EndRun())

		// The next BeginRun may re-book, so keep this run's copy now.
		snap := RunElements{Run: run.Run, Store: store.Snapshot()}
		res.Runs = append(res.Runs, snap)
		if r.db != nil {
			if err := r.db.SaveElements(res.RunID, run.Run, snap.Store.Elements()); err != nil {
				return nil, fmt.Errorf("run %d: save elements: %w", run.Run, err)
			}
		}
	}
	monitor.EndJob()
	res.Slices = monitor.Slices()

	if r.db != nil {
		if err := r.db.SaveSlices(res.RunID, res.Slices); err != nil {
			return nil, fmt.Errorf("save slices: %w", err)
		}
	}
	return res, nil
}

func (r *Replayer) processEvent(producer *roadsearch.Producer, monitor *lumimonitor.Monitor,
	tracker geometry.Tracker, ev *FixtureEvent, key db.EventKey, res *ReplayResult) error {
	if err := monitor.Analyze(ev); err != nil {
		return err
	}
	if _, ok := ev.CloudSet[r.cfg.GetCloudsLabel()]; !ok {
		return nil
	}
	if err := producer.Produce(ev, tracker); err != nil {
		return err
	}
	cands := ev.Candidates(r.cfg.GetCandidatesLabel())
	res.Candidates = append(res.Candidates, EventCandidates{Key: key, Candidates: cands})
	if r.db != nil {
		if _, err := r.db.SaveCandidates(res.RunID, key, cands); err != nil {
			return fmt.Errorf("save candidates: %w", err)
		}
	}
	return nil
}

// WriteReport renders each run's elements as run<N>.html plus one PNG per
// element under run<N>/.
func WriteReport(dir string, runs []RunElements) ([]string, error) {
	var files []string
	for _, run := range runs {
		runDir := filepath.Join(dir, fmt.Sprintf("run%d", run.Run))
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			return files, err
		}
		htmlPath := filepath.Join(dir, fmt.Sprintf("run%d.html", run.Run))
		if err := writeHTML(htmlPath, run); err != nil {
			return files, err
		}
		files = append(files, htmlPath)

		pngs, err := dqm.SaveAllPNG(runDir, run.Store.Elements())
		files = append(files, pngs...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func writeHTML(path string, run RunElements) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dqm.RenderHTML(f, reportTitle(run.Run), run.Store.Elements()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func reportTitle(run uint32) string {
	return fmt.Sprintf("Track DQM run %d", run)
}
