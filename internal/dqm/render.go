package dqm

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderHTML writes an echarts page with one bar chart per element.
// Under/overflow bins are not drawn.
func RenderHTML(w io.Writer, pageTitle string, elements []*MonitorElement) error {
	page := components.NewPage()
	page.PageTitle = pageTitle

	for _, me := range elements {
		page.AddCharts(barChart(me))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func barChart(me *MonitorElement) *charts.Bar {
	xs := make([]string, 0, me.nbins)
	data := make([]opts.BarData, 0, me.nbins)
	for bin := 1; bin <= me.nbins; bin++ {
		xs = append(xs, strconv.FormatFloat(me.BinCenter(bin), 'g', 6, 64))
		data = append(data, opts.BarData{Value: me.contents[bin]})
	}

	title := me.title
	if title == "" {
		title = me.name
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%s entries=%d under=%g over=%g", me.Path(), me.entries, me.contents[0], me.contents[me.nbins+1]),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: me.XTitle, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: me.YTitle}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	bar.SetXAxis(xs).AddSeries(me.name, data)
	return bar
}

// SavePNG plots the in-range bins of me as a line and writes it to path.
func SavePNG(path string, me *MonitorElement) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	pts := make(plotter.XYs, me.nbins)
	for bin := 1; bin <= me.nbins; bin++ {
		pts[bin-1].X = me.BinCenter(bin)
		pts[bin-1].Y = me.contents[bin]
	}

	p := plot.New()
	p.Title.Text = me.title
	p.X.Label.Text = me.XTitle
	p.Y.Label.Text = me.YTitle

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build line for %s: %w", me.Path(), err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// SaveAllPNG writes one PNG per element under dir, named after the element
// path with "/" replaced by "_". It returns the files written.
func SaveAllPNG(dir string, elements []*MonitorElement) ([]string, error) {
	var written []string
	for _, me := range elements {
		name := strings.ReplaceAll(me.Path(), "/", "_") + ".png"
		p := filepath.Join(dir, name)
		if err := SavePNG(p, me); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}
