package report

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/courtside-data/courtside.report/internal/court"
	"github.com/courtside-data/courtside.report/internal/httputil"
	"github.com/courtside-data/courtside.report/internal/track"
)

// handleTacticalChart renders the projected court positions of the
// whole run as a top-down scatter: one series per team plus the ball.
func (s *Server) handleTacticalChart(w http.ResponseWriter, r *http.Request) {
	var teamA, teamB, other, ball []opts.ScatterData
	for _, f := range s.results.Tactical {
		if !f.Projectable {
			continue
		}
		for _, p := range f.Players {
			d := opts.ScatterData{Value: []interface{}{p.Court.X, p.Court.Y}}
			switch p.Team {
			case track.TeamA:
				teamA = append(teamA, d)
			case track.TeamB:
				teamB = append(teamB, d)
			default:
				other = append(other, d)
			}
		}
		if f.Ball != nil {
			ball = append(ball, opts.ScatterData{Value: []interface{}{f.Ball.X, f.Ball.Y}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Tactical View", Width: "1000px", Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Tactical View",
			Subtitle: fmt.Sprintf("%d frames", len(s.results.Tactical)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: court.LengthMeters, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: court.WidthMeters, Name: "Y (m)"}),
	)
	scatter.AddSeries("team A", teamA, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	scatter.AddSeries("team B", teamB, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	if len(other) > 0 {
		scatter.AddSeries("unassigned", other, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	}
	scatter.AddSeries("ball", ball, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	s.renderChart(w, scatter)
}

// handleSpeedChart renders the smoothed speed series of every player
// on a shared frame axis.
func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	frameSet := map[int]bool{}
	for _, sum := range s.results.Kinematics {
		for _, sample := range sum.SpeedSeries {
			frameSet[sample.FrameIndex] = true
		}
	}
	frames := make([]int, 0, len(frameSet))
	for f := range frameSet {
		frames = append(frames, f)
	}
	sort.Ints(frames)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Player Speeds", Width: "1200px", Height: "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Player Speeds"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km/h"}),
	)
	line.SetXAxis(frames)

	for _, sum := range s.results.Kinematics {
		byFrame := make(map[int]float64, len(sum.SpeedSeries))
		for _, sample := range sum.SpeedSeries {
			byFrame[sample.FrameIndex] = sample.SpeedKmh
		}
		data := make([]opts.LineData, len(frames))
		for i, f := range frames {
			if v, ok := byFrame[f]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(fmt.Sprintf("player %d", sum.TrackID), data)
	}

	s.renderChart(w, line)
}

// renderer is the common interface of go-echarts chart types.
type renderer interface {
	Render(w io.Writer) error
}

func (s *Server) renderChart(w http.ResponseWriter, c renderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
