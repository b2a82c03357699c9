package app

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"seatekcli/internal/chart"
	"seatekcli/internal/config"
	"seatekcli/internal/engine"
	apperrors "seatekcli/internal/errors"
	"seatekcli/internal/exporter"
	"seatekcli/internal/files"
	"seatekcli/internal/loader"
	"seatekcli/pkg/contracts/domain"
)

// App wires the loaders, the engine, the renderer and the exporter into
// one processing run over a dataset.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	loader   *loader.Loader
	engine   *engine.Engine
	renderer *chart.Renderer
	exporter *exporter.CSVExporter
}

// New builds an App from the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		loader:   loader.NewLoader(logger),
		engine:   engine.New(cfg.Calibration, logger),
		renderer: chart.NewRenderer(cfg.Chart, logger),
		exporter: exporter.NewCSVExporter(logger),
	}
}

// RunSummary is the aggregate outcome of one processing run.
type RunSummary struct {
	RunID            string
	Locations        int
	LocationFailures int
	UnitsProcessed   int
	ChartsRendered   int
	ChartsSkipped    int
	UnitFailures     int
	SeriesExported   int
	Artifacts        []domain.ChartArtifact
	Duration         time.Duration
}

// Run executes the full pipeline: load the summary metadata, load every
// location's measurement workbook, then walk location by location, year
// by year, sensor by sensor, producing one chart and one CSV export per
// unit of work. Failures are isolated to their unit or location; Run
// itself fails only when the summary is unreadable, when no location's
// data can be loaded, or when the context is cancelled.
func (a *App) Run(ctx context.Context) (RunSummary, error) {
	started := time.Now()
	summary := RunSummary{RunID: uuid.NewString()}
	logger := a.logger.With(slog.String("run_id", summary.RunID))

	if err := a.cfg.EnsureDirectories(); err != nil {
		return summary, err
	}

	metadata, err := a.loader.LoadSummary(a.cfg.SummaryFile())
	if err != nil {
		return summary, err
	}
	summary.Locations = len(metadata)

	tables, failures, err := a.loader.LoadMeasurements(metadata, a.cfg.RawDataDir())
	if err != nil {
		return summary, err
	}
	for id, loadErr := range failures {
		summary.LocationFailures++
		logger.Warn("skipping location",
			slog.String("location", id),
			slog.String("error", loadErr.Error()))
	}
	if len(tables) == 0 {
		return summary, apperrors.New(apperrors.KindDataLoad, "no location could be loaded")
	}

	ids := make([]string, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		a.processLocation(ctx, logger, tables[id], &summary)
	}

	summary.Duration = time.Since(started)
	logger.Info("run complete",
		slog.Int("locations", summary.Locations),
		slog.Int("location_failures", summary.LocationFailures),
		slog.Int("units_processed", summary.UnitsProcessed),
		slog.Int("charts_rendered", summary.ChartsRendered),
		slog.Int("charts_skipped", summary.ChartsSkipped),
		slog.Int("unit_failures", summary.UnitFailures),
		slog.Int("series_exported", summary.SeriesExported),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}

// processLocation walks every (year, sensor) pair of one location. Units
// run sequentially so a memory spike in chart rendering never compounds.
func (a *App) processLocation(ctx context.Context, logger *slog.Logger, table *domain.MeasurementTable, summary *RunSummary) {
	meta := table.Location
	first, last := meta.Years()

	for year := first; year <= last; year++ {
		for _, sensor := range meta.SensorColumns() {
			if ctx.Err() != nil {
				return
			}
			a.processUnit(logger, table, year, sensor, summary)
		}
	}
}

// processUnit runs one (location, year, sensor) unit end to end. Any
// failure is recorded and logged; the run continues with the next unit.
func (a *App) processUnit(logger *slog.Logger, table *domain.MeasurementTable, year int, sensor string, summary *RunSummary) {
	meta := table.Location
	summary.UnitsProcessed++

	result, err := a.engine.Process(table, year, sensor)
	if err != nil {
		summary.UnitFailures++
		logger.Warn("unit failed",
			slog.String("location", meta.ID()),
			slog.Int("year", year),
			slog.String("sensor", sensor),
			slog.String("error", err.Error()))
		return
	}

	if result.Status == engine.StatusInsufficientData {
		summary.ChartsSkipped++
		logger.Warn("insufficient data for chart",
			slog.String("location", meta.ID()),
			slog.Int("year", year),
			slog.String("sensor", sensor),
			slog.Int("merged_rows", result.Series.Len()),
			slog.Any("metrics", result.Metrics))
		return
	}

	chartPath := files.ChartPath(a.cfg.OutputDir(), meta.ID(), year, sensor)
	status, err := a.renderer.Render(result.Series, chartPath)
	if err != nil {
		summary.UnitFailures++
		logger.Error("chart rendering failed",
			slog.String("location", meta.ID()),
			slog.Int("year", year),
			slog.String("sensor", sensor),
			slog.String("error", err.Error()))
		return
	}
	switch status {
	case chart.StatusRendered:
		summary.ChartsRendered++
		summary.Artifacts = append(summary.Artifacts, domain.ChartArtifact{
			LocationID: meta.ID(),
			Year:       year,
			Sensor:     sensor,
			Path:       chartPath,
			Points:     result.Series.Len(),
		})
	case chart.StatusSkipped:
		summary.ChartsSkipped++
		return
	}

	csvPath := files.SeriesCSVPath(a.cfg.ProcessedDataDir(), meta.ID(), year, sensor)
	if err := a.exporter.WriteSeries(result.Series, result.Metrics, csvPath); err != nil {
		summary.UnitFailures++
		logger.Error("series export failed",
			slog.String("location", meta.ID()),
			slog.Int("year", year),
			slog.String("sensor", sensor),
			slog.String("error", err.Error()))
		return
	}
	summary.SeriesExported++
}
