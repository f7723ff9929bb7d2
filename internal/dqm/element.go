package dqm

import (
	"fmt"
	"math"
	"path"
)

// Kind identifies the flavour of a Monitor Element.
type Kind string

const (
	// KindH1F is a fixed-width 1D histogram.
	KindH1F Kind = "TH1F"
)

// MonitorElement is a fixed-width 1D histogram. Bin 0 is underflow and bin
// NBins+1 is overflow, so in-range bins are numbered 1..NBins.
type MonitorElement struct {
	folder string
	name   string
	title  string
	kind   Kind

	nbins  int
	lo, hi float64

	contents []float64 // len nbins+2
	entries  int64

	XTitle string
	YTitle string
}

func newElement(folder, name, title string, nbins int, lo, hi float64) (*MonitorElement, error) {
	if name == "" {
		return nil, fmt.Errorf("monitor element name is empty")
	}
	if nbins <= 0 {
		return nil, fmt.Errorf("monitor element %q: nbins must be positive, got %d", name, nbins)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("monitor element %q: invalid range [%g, %g)", name, lo, hi)
	}
	return &MonitorElement{
		folder:   folder,
		name:     name,
		title:    title,
		kind:     KindH1F,
		nbins:    nbins,
		lo:       lo,
		hi:       hi,
		contents: make([]float64, nbins+2),
	}, nil
}

// Name returns the element name.
func (me *MonitorElement) Name() string { return me.name }

// Folder returns the folder the element was booked in.
func (me *MonitorElement) Folder() string { return me.folder }

// Path returns folder/name.
func (me *MonitorElement) Path() string { return path.Join(me.folder, me.name) }

// Title returns the element title.
func (me *MonitorElement) Title() string { return me.title }

// Kind returns the element kind.
func (me *MonitorElement) Kind() Kind { return me.kind }

// NBins returns the number of in-range bins.
func (me *MonitorElement) NBins() int { return me.nbins }

// Range returns the lower and upper edge of the axis.
func (me *MonitorElement) Range() (lo, hi float64) { return me.lo, me.hi }

// Entries returns the number of Fill/SetBinContent calls since the last reset.
func (me *MonitorElement) Entries() int64 { return me.entries }

// FindBin returns the bin that x falls into, including under/overflow.
func (me *MonitorElement) FindBin(x float64) int {
	if math.IsNaN(x) || x < me.lo {
		return 0
	}
	if x >= me.hi {
		return me.nbins + 1
	}
	width := (me.hi - me.lo) / float64(me.nbins)
	bin := int((x-me.lo)/width) + 1
	if bin > me.nbins {
		bin = me.nbins
	}
	return bin
}

// BinCenter returns the centre of bin.
func (me *MonitorElement) BinCenter(bin int) float64 {
	width := (me.hi - me.lo) / float64(me.nbins)
	return me.lo + (float64(bin)-0.5)*width
}

// Fill adds one entry at x.
func (me *MonitorElement) Fill(x float64) {
	me.FillWeighted(x, 1)
}

// FillWeighted adds w at x.
func (me *MonitorElement) FillWeighted(x, w float64) {
	me.contents[me.FindBin(x)] += w
	me.entries++
}

// SetBinContent overwrites bin. Bins outside 0..NBins+1 are ignored.
func (me *MonitorElement) SetBinContent(bin int, v float64) {
	if bin < 0 || bin > me.nbins+1 {
		return
	}
	me.contents[bin] = v
	me.entries++
}

// BinContent returns the content of bin, or 0 when out of range.
func (me *MonitorElement) BinContent(bin int) float64 {
	if bin < 0 || bin > me.nbins+1 {
		return 0
	}
	return me.contents[bin]
}

// Contents returns a copy of all bins including under/overflow.
func (me *MonitorElement) Contents() []float64 {
	out := make([]float64, len(me.contents))
	copy(out, me.contents)
	return out
}

// Integral sums the in-range bins.
func (me *MonitorElement) Integral() float64 {
	var sum float64
	for _, v := range me.contents[1 : me.nbins+1] {
		sum += v
	}
	return sum
}

// Reset zeroes all bins and the entry count.
func (me *MonitorElement) Reset() {
	for i := range me.contents {
		me.contents[i] = 0
	}
	me.entries = 0
}

// Restore replaces the element's contents, e.g. after loading from storage.
// contents must include under/overflow.
func (me *MonitorElement) Restore(contents []float64, entries int64) error {
	if len(contents) != me.nbins+2 {
		return fmt.Errorf("monitor element %q: expected %d bins, got %d", me.name, me.nbins+2, len(contents))
	}
	copy(me.contents, contents)
	me.entries = entries
	return nil
}

// Clone returns an independent copy of the element.
func (me *MonitorElement) Clone() *MonitorElement {
	out := *me
	out.contents = append([]float64(nil), me.contents...)
	return &out
}
