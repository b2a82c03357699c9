package chart

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"seatekcli/internal/config"
	"seatekcli/pkg/contracts/domain"
)

// RenderStatus reports whether a chart file was produced.
type RenderStatus int

const (
	// StatusRendered means a PNG was written to the output path.
	StatusRendered RenderStatus = iota
	// StatusSkipped means the series had too few points to chart.
	StatusSkipped
)

// String returns a log-friendly status name.
func (s RenderStatus) String() string {
	if s == StatusSkipped {
		return "skipped"
	}
	return "rendered"
}

var (
	sensorColor = drawing.Color{R: 255, G: 127, B: 14, A: 255}
	hydroColor  = drawing.Color{R: 31, G: 119, B: 180, A: 255}
)

// Renderer produces dual-axis time-series charts from merged series:
// sensor elevation on the primary axis, hydrograph flow on the secondary
// axis, time in minutes on the x-axis.
type Renderer struct {
	cfg    config.ChartConfig
	logger *slog.Logger
}

// NewRenderer creates a chart renderer with the given settings.
func NewRenderer(cfg config.ChartConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Render writes one PNG for the series to outPath, overwriting any
// previous artifact. A series with fewer than two points is skipped
// rather than rendered as an empty or misleading chart. All rendering
// buffers are scoped to this call, so repeated invocations do not
// accumulate memory.
func (r *Renderer) Render(series domain.MergedSeries, outPath string) (RenderStatus, error) {
	if series.Len() < 2 {
		r.logger.Warn("skipping chart with too few points",
			slog.String("location", domain.FormatRiverMile(series.RiverMile)),
			slog.Int("year", series.Year),
			slog.String("sensor", series.Sensor),
			slog.Int("points", series.Len()))
		return StatusSkipped, nil
	}

	times := make([]float64, series.Len())
	elevations := make([]float64, series.Len())
	flows := make([]float64, series.Len())
	for i, point := range series.Points {
		times[i] = point.TimeMinutes
		elevations[i] = point.Elevation
		flows[i] = point.Hydrograph
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("River Mile %s, Year %d, %s", domain.FormatRiverMile(series.RiverMile), series.Year, series.Sensor),
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		DPI:    float64(r.cfg.DPI),
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: "Time (Minutes)"},
		YAxis: chart.YAxis{
			Name:  "Seatek Elevation (NAVD88)",
			Style: chart.Style{StrokeColor: sensorColor},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Hydrograph Flow (Lagged)",
			Style: chart.Style{StrokeColor: hydroColor},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    series.Sensor,
				XValues: times,
				YValues: elevations,
				Style: chart.Style{
					StrokeColor: sensorColor,
					StrokeWidth: 1.5,
					DotColor:    sensorColor,
					DotWidth:    3,
				},
			},
			chart.ContinuousSeries{
				Name:    "Hydrograph",
				YAxis:   chart.YAxisSecondary,
				XValues: times,
				YValues: flows,
				Style: chart.Style{
					StrokeColor: hydroColor,
					StrokeWidth: 1.5,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return StatusSkipped, fmt.Errorf("failed to render chart: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return StatusSkipped, fmt.Errorf("failed to create chart directory: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated PNG
	// at the published path.
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return StatusSkipped, fmt.Errorf("failed to write chart file: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return StatusSkipped, fmt.Errorf("failed to publish chart file: %w", err)
	}

	r.logger.Debug("chart written",
		slog.String("path", outPath),
		slog.Int("points", series.Len()))

	return StatusRendered, nil
}
