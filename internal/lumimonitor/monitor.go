package lumimonitor

import (
	"fmt"
	"math"
	"path"

	"github.com/banshee-data/trackdqm/internal/dqm"
	"github.com/banshee-data/trackdqm/internal/monitoring"
	"github.com/banshee-data/trackdqm/internal/timeutil"
	"gonum.org/v1/gonum/stat"
)

var logf = monitoring.Tagged("DQMLumiMonitor")

// Monitor accumulates cluster counts per luminosity block and records them
// against integrated luminosity.
type Monitor struct {
	params  Params
	store   *dqm.Store
	clock   timeutil.Clock
	metrics *Metrics

	nClusME                  *dqm.MonitorElement
	intLumiVsLSME            *dqm.MonitorElement
	nClusVsLSME              *dqm.MonitorElement
	corrIntLumiAndClusVsLSME *dqm.MonitorElement

	run         uint32
	cacheID     uint64
	haveCacheID bool

	intLumi     float64
	nLumi       int
	nClus       int64
	lastSummary *LumiSummary

	slices   []SliceRecord
	runStart int // index into slices of the current run's first record
}

// RunSummary is returned by EndRun.
type RunSummary struct {
	Run    uint32
	Slices int
	// IntegratedLumi sums this run's slices only; Monitor.IntegratedLumi
	// keeps the total since the last re-booking.
	IntegratedLumi float64
	Clusters       int64
	// Correlation is Pearson's r between per-slice luminosity and cluster
	// count. NaN when fewer than two slices or either series is constant.
	Correlation float64
}

// New creates a Monitor writing into store. clock and metrics may be nil.
func New(params Params, store *dqm.Store, clock timeutil.Clock, metrics *Metrics) (*Monitor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("lumimonitor: nil dqm store")
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Monitor{params: params, store: store, clock: clock, metrics: metrics}, nil
}

// Folder returns the store folder the elements are booked in.
func (m *Monitor) Folder() string {
	return path.Join(m.params.FolderName, m.params.ModuleName)
}

// BeginJob books the monitor elements.
func (m *Monitor) BeginJob() error {
	return m.bookHistograms()
}

// BeginRun re-books the elements when the conditions cache id changed since
// the previous run. Unchanged cache ids keep accumulating.
func (m *Monitor) BeginRun(run uint32, cacheID uint64) error {
	if m.nClusME == nil {
		return ErrNotBooked
	}
	m.run = run
	m.runStart = len(m.slices)

	if m.haveCacheID && cacheID == m.cacheID {
		return nil
	}
	logf("run %d: cache id changed (%d -> %d), re-booking", run, m.cacheID, cacheID)
	m.cacheID = cacheID
	m.haveCacheID = true

	m.store.RemoveFolder(m.Folder())
	return m.bookHistograms()
}

func (m *Monitor) bookHistograms() error {
	folder := m.Folder()
	m.store.SetCurrentFolder(folder)

	nls := m.params.MaxLumiBlocks
	lsLo, lsHi := 0.5, float64(nls)+0.5

	var err error
	if m.nClusME, err = m.store.Book1D(folder, "nClusters", "Number of pixel clusters per event",
		m.params.NClustersBins, 0, m.params.NClustersMax); err != nil {
		return err
	}
	m.nClusME.XTitle = "clusters"

	if m.intLumiVsLSME, err = m.store.Book1D(folder, "intLumiVsLS", "Integrated luminosity vs LS", nls, lsLo, lsHi); err != nil {
		return err
	}
	m.intLumiVsLSME.XTitle = "LS"

	if m.nClusVsLSME, err = m.store.Book1D(folder, "nClusVsLS", "Number of pixel clusters vs LS", nls, lsLo, lsHi); err != nil {
		return err
	}
	m.nClusVsLSME.XTitle = "LS"

	corrTitle := "Clusters / integrated luminosity vs LS"
	if m.params.CorrelationMode == CorrProduct {
		corrTitle = "Clusters x integrated luminosity vs LS"
	}
	if m.corrIntLumiAndClusVsLSME, err = m.store.Book1D(folder, "corrIntLumiAndClusVsLS", corrTitle, nls, lsLo, lsHi); err != nil {
		return err
	}
	m.corrIntLumiAndClusVsLSME.XTitle = "LS"

	// Booking an existing path hands back the old element; start it empty.
	for _, me := range []*dqm.MonitorElement{m.nClusME, m.intLumiVsLSME, m.nClusVsLSME, m.corrIntLumiAndClusVsLSME} {
		me.Reset()
	}

	m.intLumi = 0
	m.nLumi = 0
	m.nClus = 0
	m.lastSummary = nil
	return nil
}

// Analyze adds the event's cluster count to the current block.
func (m *Monitor) Analyze(ev Event) error {
	if m.nClusME == nil {
		return ErrNotBooked
	}
	n, ok := ev.ClusterCount(m.params.PixelClusterLabel)
	if !ok {
		return fmt.Errorf("%w: cluster collection %q", ErrMissingInput, m.params.PixelClusterLabel)
	}
	summary, ok := ev.LumiSummary(m.params.LumiRecordLabel)
	if !ok {
		return fmt.Errorf("%w: lumi summary %q", ErrMissingInput, m.params.LumiRecordLabel)
	}

	m.nClus += int64(n)
	m.nClusME.Fill(float64(n))
	if summary != nil && summary.Valid {
		m.lastSummary = summary
	}
	return nil
}

// EndLumiBlock flushes the block: integrates its luminosity, records the
// slice and resets the cluster counter.
func (m *Monitor) EndLumiBlock(lb LumiBlock) (*SliceRecord, error) {
	if m.nClusME == nil {
		return nil, ErrNotBooked
	}
	clusters := m.nClus
	last := m.lastSummary
	m.nClus = 0
	m.lastSummary = nil

	sliceLumi, missing := 0.0, false
	// An invalid record counts as absent.
	if summary, ok := lb.LumiSummary(m.params.LumiRecordLabel); ok && summary != nil && summary.Valid {
		sliceLumi = summary.DelLumi
	} else {
		missing = true
		m.metrics.IncrementMissingLumi()
		switch m.params.MissingLumiPolicy {
		case PolicyError:
			return nil, fmt.Errorf("%w: LS %d", ErrMissingLumi, lb.LumiSection())
		case PolicySkip:
			logf("LS %d: no lumi record, skipped (%d clusters dropped)", lb.LumiSection(), clusters)
			return nil, nil
		case PolicyLastEvent:
			if last != nil {
				sliceLumi = last.DelLumi
			}
		}
	}

	m.intLumi += sliceLumi
	m.nLumi++

	corr := m.combine(clusters)
	m.setVsLS(m.intLumiVsLSME, m.intLumi)
	m.setVsLS(m.nClusVsLSME, float64(clusters))
	m.setVsLS(m.corrIntLumiAndClusVsLSME, corr)

	rec := SliceRecord{
		Run:            m.run,
		Index:          m.nLumi,
		LumiSection:    lb.LumiSection(),
		SliceLumi:      sliceLumi,
		IntegratedLumi: m.intLumi,
		Clusters:       clusters,
		Correlation:    corr,
		LumiMissing:    missing,
		FlushedAt:      m.clock.Now(),
	}
	m.slices = append(m.slices, rec)
	m.metrics.ObserveSlice(rec)
	return &rec, nil
}

func (m *Monitor) combine(clusters int64) float64 {
	if m.params.CorrelationMode == CorrProduct {
		return float64(clusters) * m.intLumi
	}
	if m.intLumi == 0 {
		return 0
	}
	return float64(clusters) / m.intLumi
}

func (m *Monitor) setVsLS(me *dqm.MonitorElement, v float64) {
	me.SetBinContent(me.FindBin(float64(m.nLumi)), v)
}

// EndRun summarises the run's slices.
func (m *Monitor) EndRun() RunSummary {
	slices := m.slices[m.runStart:]
	sum := RunSummary{Run: m.run, Slices: len(slices), Correlation: math.NaN()}

	lumi := make([]float64, len(slices))
	clus := make([]float64, len(slices))
	for i, s := range slices {
		lumi[i] = s.SliceLumi
		clus[i] = float64(s.Clusters)
		sum.IntegratedLumi += s.SliceLumi
		sum.Clusters += s.Clusters
	}
	if len(slices) >= 2 {
		sum.Correlation = stat.Correlation(lumi, clus, nil)
	}

	logf("run %d: %d LS, integrated lumi %.3f, %d clusters, r=%.3f",
		sum.Run, sum.Slices, sum.IntegratedLumi, sum.Clusters, sum.Correlation)
	return sum
}

// EndJob logs the final state. Elements stay in the store for the caller to
// persist.
func (m *Monitor) EndJob() {
	logf("end of job: %d LS recorded, integrated lumi %.3f", len(m.slices), m.intLumi)
}

// Slices returns a copy of every flushed slice record.
func (m *Monitor) Slices() []SliceRecord {
	out := make([]SliceRecord, len(m.slices))
	copy(out, m.slices)
	return out
}

// PendingClusters returns the cluster count accumulated in the open block.
func (m *Monitor) PendingClusters() int64 { return m.nClus }

// IntegratedLumi returns the running luminosity total.
func (m *Monitor) IntegratedLumi() float64 { return m.intLumi }
