package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/courtside-data/courtside.report/internal/kinematics"
)

// SaveSpeedPlots writes one speed-over-frames PNG per player into
// outputDir and returns the file paths written.
func SaveSpeedPlots(outputDir string, sums []kinematics.Summary) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var files []string
	for _, sum := range sums {
		if len(sum.SpeedSeries) == 0 {
			continue
		}

		pts := make(plotter.XYs, 0, len(sum.SpeedSeries))
		for _, s := range sum.SpeedSeries {
			pts = append(pts, plotter.XY{X: float64(s.FrameIndex), Y: s.SpeedKmh})
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Player %d speed (%.0f m total)", sum.TrackID, sum.CumulativeDistanceM)
		p.X.Label.Text = "frame"
		p.Y.Label.Text = "km/h"
		p.Y.Min = 0

		line, err := plotter.NewLine(pts)
		if err != nil {
			return files, fmt.Errorf("player %d line: %w", sum.TrackID, err)
		}
		line.Width = vg.Points(1)
		p.Add(plotter.NewGrid(), line)

		file := filepath.Join(outputDir, fmt.Sprintf("player_%02d_speed.png", sum.TrackID))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
			return files, fmt.Errorf("save %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}
