package lumimonitor

import (
	"errors"
	"time"
)

var (
	// ErrMissingInput is returned when an event lacks a required product.
	ErrMissingInput = errors.New("missing input product")
	// ErrMissingLumi is returned under PolicyError when a luminosity block has
	// no luminosity record.
	ErrMissingLumi = errors.New("no luminosity record for luminosity block")
	// ErrNotBooked is returned when hooks run before BeginJob.
	ErrNotBooked = errors.New("monitor elements not booked")
)

// LumiSummary is the luminosity record for one luminosity section.
type LumiSummary struct {
	LumiSection uint32  `json:"lumi_section"`
	DelLumi     float64 `json:"del_lumi"` // delivered luminosity for the section
	Valid       bool    `json:"valid"`
}

// Event is the view of one event the monitor needs. Lookups return false
// when the product is absent.
type Event interface {
	ClusterCount(label string) (int, bool)
	LumiSummary(label string) (*LumiSummary, bool)
}

// LumiBlock is the view of one luminosity block at its end.
type LumiBlock interface {
	LumiSection() uint32
	LumiSummary(label string) (*LumiSummary, bool)
}

// SliceRecord is what the monitor flushed for one luminosity block.
type SliceRecord struct {
	Run            uint32    `json:"run"`
	Index          int       `json:"index"`
	LumiSection    uint32    `json:"lumi_section"`
	SliceLumi      float64   `json:"slice_lumi"`
	IntegratedLumi float64   `json:"integrated_lumi"`
	Clusters       int64     `json:"clusters"`
	Correlation    float64   `json:"correlation"`
	LumiMissing    bool      `json:"lumi_missing"`
	FlushedAt      time.Time `json:"flushed_at"`
}
