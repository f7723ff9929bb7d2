package lumimonitor

import "fmt"

// MissingLumiPolicy decides what happens at the end of a block that has no
// luminosity record.
type MissingLumiPolicy string

const (
	// PolicyZero records the slice with zero luminosity and flags it.
	PolicyZero MissingLumiPolicy = "zero"
	// PolicyLastEvent uses the last per-event summary seen in the block,
	// falling back to zero.
	PolicyLastEvent MissingLumiPolicy = "last_event"
	// PolicySkip records nothing for the block; the cluster counter is
	// still reset.
	PolicySkip MissingLumiPolicy = "skip"
	// PolicyError fails the block with ErrMissingLumi.
	PolicyError MissingLumiPolicy = "error"
)

// CorrelationMode selects how integrated luminosity and cluster count are
// combined in the correlation element.
type CorrelationMode string

const (
	// CorrRatio records clusters / integrated luminosity (0 when lumi is 0).
	CorrRatio CorrelationMode = "ratio"
	// CorrProduct records clusters * integrated luminosity.
	CorrProduct CorrelationMode = "product"
)

// Params configure a Monitor.
type Params struct {
	ModuleName        string
	FolderName        string
	PixelClusterLabel string
	LumiRecordLabel   string
	CorrelationMode   CorrelationMode
	MissingLumiPolicy MissingLumiPolicy
	MaxLumiBlocks     int
	NClustersBins     int
	NClustersMax      float64
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		ModuleName:        "DQMLumiMonitor",
		FolderName:        "Lumi",
		PixelClusterLabel: "siPixelClusters",
		LumiRecordLabel:   "lumiProducer",
		CorrelationMode:   CorrRatio,
		MissingLumiPolicy: PolicyZero,
		MaxLumiBlocks:     2000,
		NClustersBins:     100,
		NClustersMax:      10000,
	}
}

// Validate checks the enumerations and binning.
func (p Params) Validate() error {
	switch p.CorrelationMode {
	case CorrRatio, CorrProduct:
	default:
		return fmt.Errorf("unknown correlation mode %q", p.CorrelationMode)
	}
	switch p.MissingLumiPolicy {
	case PolicyZero, PolicyLastEvent, PolicySkip, PolicyError:
	default:
		return fmt.Errorf("unknown missing lumi policy %q", p.MissingLumiPolicy)
	}
	if p.MaxLumiBlocks <= 0 {
		return fmt.Errorf("max_lumi_blocks must be positive, got %d", p.MaxLumiBlocks)
	}
	if p.NClustersBins <= 0 || p.NClustersMax <= 0 {
		return fmt.Errorf("nclusters binning must be positive, got %d bins up to %g", p.NClustersBins, p.NClustersMax)
	}
	if p.ModuleName == "" || p.PixelClusterLabel == "" || p.LumiRecordLabel == "" {
		return fmt.Errorf("module name and input labels are required")
	}
	return nil
}
