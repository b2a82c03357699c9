package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"seatekcli/pkg/contracts/domain"
)

// CSVExporter writes merged series to disk as flat CSV tables so the
// processed data can be inspected or re-plotted without re-running the
// pipeline.
type CSVExporter struct {
	logger *slog.Logger
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{logger: logger}
}

// WriteSeries writes one merged series to path, one row per merged
// point, preceded by a header. The parent directory is created if
// missing and an existing file is overwritten.
func (e *CSVExporter) WriteSeries(series domain.MergedSeries, metrics domain.ProcessingMetrics, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Sidecar comment row carrying the filtering metrics for the unit, so
	// the artifact is self-describing without a companion file.
	sidecar := fmt.Sprintf("# location=%s year=%d sensor=%s original_rows=%d null_values=%d non_finite=%d zero_or_negative=%d valid_rows=%d",
		domain.FormatRiverMile(series.RiverMile), series.Year, series.Sensor,
		metrics.OriginalRows, metrics.NullValues, metrics.NonFinite, metrics.ZeroOrNegative, metrics.ValidRows)
	if err := w.Write([]string{sidecar}); err != nil {
		return fmt.Errorf("failed to write metrics row: %w", err)
	}

	header := []string{"Time (Minutes)", "Elevation (NAVD88)", "Hydrograph (Lagged)"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, point := range series.Points {
		record := []string{
			formatFloat(point.TimeMinutes),
			formatFloat(point.Elevation),
			formatFloat(point.Hydrograph),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush export file: %w", err)
	}

	e.logger.Debug("series exported",
		slog.String("path", path),
		slog.Int("rows", series.Len()),
		slog.Int("invalid_rows", metrics.InvalidRows()))

	return nil
}

// formatFloat renders values with enough precision to round-trip.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
