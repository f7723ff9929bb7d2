package dqm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorElement_FillAndBins(t *testing.T) {
	s := NewStore()
	me, err := s.Book1D("Lumi", "nClusters", "clusters per event", 10, 0, 100)
	require.NoError(t, err)

	me.Fill(-1)  // underflow
	me.Fill(0)   // bin 1
	me.Fill(9.9) // bin 1
	me.Fill(55)  // bin 6
	me.Fill(100) // overflow
	me.FillWeighted(99.9, 2.5)

	assert.Equal(t, 1.0, me.BinContent(0))
	assert.Equal(t, 2.0, me.BinContent(1))
	assert.Equal(t, 1.0, me.BinContent(6))
	assert.Equal(t, 2.5, me.BinContent(10))
	assert.Equal(t, 1.0, me.BinContent(11))
	assert.Equal(t, 5.5, me.Integral())
	assert.Equal(t, int64(6), me.Entries())
	assert.Equal(t, 5.0, me.BinCenter(1))
}

func TestMonitorElement_SetBinContent(t *testing.T) {
	me, err := NewStore().Book1D("", "intLumiVsLS", "", 5, 0.5, 5.5)
	require.NoError(t, err)

	me.SetBinContent(1, 1.0)
	me.SetBinContent(2, 3.0)
	me.SetBinContent(3, 4.5)
	me.SetBinContent(99, 7) // ignored

	assert.Equal(t, []float64{0, 1.0, 3.0, 4.5, 0, 0, 0}, me.Contents())
	assert.Equal(t, 3, me.FindBin(3.2))

	me.Reset()
	assert.Equal(t, 0.0, me.Integral())
	assert.Equal(t, int64(0), me.Entries())
}

func TestMonitorElement_Restore(t *testing.T) {
	me, err := NewStore().Book1D("", "h", "", 2, 0, 2)
	require.NoError(t, err)

	require.NoError(t, me.Restore([]float64{0, 1, 2, 0}, 3))
	assert.Equal(t, 3.0, me.Integral())
	assert.Error(t, me.Restore([]float64{1}, 1))
}

func TestStore_Book1D(t *testing.T) {
	s := NewStore()
	s.SetCurrentFolder("/Lumi/DQMLumiMonitor/")
	assert.Equal(t, "Lumi/DQMLumiMonitor", s.CurrentFolder())

	a, err := s.Book1D("", "nClusVsLS", "", 10, 0.5, 10.5)
	require.NoError(t, err)
	a.Fill(1)

	// Rebooking returns the same element, contents intact
	b, err := s.Book1D("Lumi/DQMLumiMonitor", "nClusVsLS", "", 10, 0.5, 10.5)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1.0, b.Integral())

	_, err = s.Book1D("", "nClusVsLS", "", 20, 0.5, 20.5)
	assert.Error(t, err)

	got, ok := s.Get("Lumi/DQMLumiMonitor/nClusVsLS")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestStore_InvalidBooking(t *testing.T) {
	s := NewStore()
	_, err := s.Book1D("f", "", "", 1, 0, 1)
	assert.Error(t, err)
	_, err = s.Book1D("f", "h", "", 0, 0, 1)
	assert.Error(t, err)
	_, err = s.Book1D("f", "h", "", 1, 1, 1)
	assert.Error(t, err)
}

func TestStore_FoldersAndReset(t *testing.T) {
	s := NewStore()
	for _, p := range []struct{ folder, name string }{
		{"Lumi", "b"}, {"Lumi", "a"}, {"Lumi/Sub", "c"}, {"Other", "d"},
	} {
		me, err := s.Book1D(p.folder, p.name, "", 1, 0, 1)
		require.NoError(t, err)
		me.Fill(0.5)
	}

	var paths []string
	for _, me := range s.Elements() {
		paths = append(paths, me.Path())
	}
	assert.Equal(t, []string{"Lumi/Sub/c", "Lumi/a", "Lumi/b", "Other/d"}, paths)
	assert.Len(t, s.ElementsIn("Lumi"), 3)

	s.Reset()
	for _, me := range s.Elements() {
		assert.Equal(t, 0.0, me.Integral())
	}

	assert.Equal(t, 3, s.RemoveFolder("Lumi"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	me, err := s.Book1D("Lumi", "nClusters", "", 4, 0, 4)
	require.NoError(t, err)
	me.XTitle = "clusters"
	me.Fill(1.5)

	snap := s.Snapshot()
	me.Fill(1.5)
	s.RemoveFolder("Lumi")

	got, ok := snap.Get("Lumi/nClusters")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.BinContent(2))
	assert.Equal(t, int64(1), got.Entries())
	assert.Equal(t, "clusters", got.XTitle)
	assert.Equal(t, 0, s.Len())
}

func TestRenderHTML(t *testing.T) {
	s := NewStore()
	me, err := s.Book1D("Lumi", "intLumiVsLS", "Integrated luminosity vs LS", 3, 0.5, 3.5)
	require.NoError(t, err)
	me.SetBinContent(1, 1.0)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "Lumi report", s.Elements()))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Integrated luminosity vs LS"))
	assert.True(t, strings.Contains(html, "Lumi/intLumiVsLS"))
}

func TestSaveAllPNG(t *testing.T) {
	s := NewStore()
	me, err := s.Book1D("Lumi", "nClusVsLS", "Clusters vs LS", 4, 0.5, 4.5)
	require.NoError(t, err)
	me.SetBinContent(2, 20)

	dir := t.TempDir()
	files, err := SaveAllPNG(filepath.Join(dir, "plots"), s.Elements())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Lumi_nClusVsLS.png", filepath.Base(files[0]))

	info, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
