package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/internal/trend"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// PlotTitle is the chart title for q over r.
func PlotTitle(q query.Query, r query.YearRange) string {
	return fmt.Sprintf("Google Scholar Results for \"%s\" (%d-%d)", q.String(), r.Since, r.To)
}

// PlotFileName is trend_<kw1>_<kw2>.png with path separators replaced.
func PlotFileName(q query.Query) string {
	name := strings.Join(q.Terms(), "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '-'
		}
		return r
	}, name)
	return "trend_" + name + ".png"
}

// PlotTrend renders the total count per year as a PNG line chart.
func PlotTrend(w io.Writer, q query.Query, r query.YearRange, rs trend.ResultSet) error {
	if len(rs) == 0 {
		return fmt.Errorf("plot: no results to draw")
	}

	p := plot.New()
	p.Title.Text = PlotTitle(q, r)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Number of Results"
	p.X.Tick.Marker = yearTicks{}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(rs))
	for i, res := range rs {
		pts[i].X = float64(res.Year)
		pts[i].Y = float64(res.TotalCount)
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	points.Shape = draw.CrossGlyph{}
	points.Radius = vg.Points(4)
	p.Add(line, points)
	p.Legend.Add("Total Results", line, points)
	p.Legend.Top = true
	p.Y.Min = 0

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("plot: write png: %w", err)
	}
	return nil
}

// PlotTrendFile writes the chart to dir/PlotFileName(q) and returns the path.
func PlotTrendFile(dir string, q query.Query, r query.YearRange, rs trend.ResultSet) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, PlotFileName(q))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot: %w", err)
	}
	if err := PlotTrend(f, q, r, rs); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close plot: %w", err)
	}
	return path, nil
}

// yearTicks labels whole years only, thinning them to at most ten labels.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	if hi < lo {
		return nil
	}
	step := 1
	for (hi-lo)/step >= 10 {
		step++
	}
	var ticks []plot.Tick
	for y := lo; y <= hi; y++ {
		t := plot.Tick{Value: float64(y)}
		if (y-lo)%step == 0 {
			t.Label = strconv.Itoa(y)
		}
		ticks = append(ticks, t)
	}
	return ticks
}
