package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"seatekcli/internal/config"
	apperrors "seatekcli/internal/errors"
	"seatekcli/pkg/contracts/domain"
)

// Engine converts raw Seatek readings to NAVD88 elevations, filters
// invalid rows, and aligns the sensor stream with the lagged hydrograph
// stream on the shared time axis. It holds only read-only calibration
// state and is safe for concurrent use.
type Engine struct {
	calibration config.CalibrationConfig
	logger      *slog.Logger
}

// New creates an Engine with the given calibration constants.
func New(calibration config.CalibrationConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		calibration: calibration,
		logger:      logger,
	}
}

// Convert transforms one raw sensor reading to a standard-datum
// elevation:
//
//	e = -(r + offsetA - offsetB) * scaleFactor + yOffset
//
// A pure affine transform with no intermediate rounding.
func (e *Engine) Convert(raw, yOffset float64) float64 {
	return -(raw+e.calibration.OffsetA-e.calibration.OffsetB)*e.calibration.ScaleFactor + yOffset
}

// timedValue pairs a raw time key with a value during filtering.
type timedValue struct {
	timeSeconds float64
	value       float64
}

// Process runs one (location, year, sensor) unit of work: slice the
// year, filter the sensor stream, convert survivors to NAVD88, filter
// the hydrograph stream independently, inner-join the two on the raw
// seconds key, and normalize time to minutes. A year outside the
// location's declared range is a caller contract violation and returns a
// KindValidation error; too few merged rows is reported through the
// result status instead.
func (e *Engine) Process(table *domain.MeasurementTable, year int, sensor string) (Result, error) {
	meta := table.Location

	if !meta.ContainsYear(year) {
		return Result{}, apperrors.New(apperrors.KindValidation,
			fmt.Sprintf("year %d outside declared range Y%02d..Y%02d",
				year, meta.StartYear.Index, meta.EndYear.Index)).
			WithUnit(meta.ID(), year, sensor).WithFile(table.SourceFile)
	}

	channel, err := channelIndex(meta, sensor)
	if err != nil {
		return Result{}, err
	}

	yearRows := table.YearRows(year)

	result := Result{
		Series: domain.MergedSeries{
			RiverMile: meta.RiverMile,
			Year:      year,
			Sensor:    sensor,
		},
		Metrics: domain.ProcessingMetrics{OriginalRows: len(yearRows)},
	}

	// Filtering operates on raw seconds and raw readings; conversion and
	// the minutes axis come afterwards so the validity checks never see
	// transformed values.
	sensorStream := e.filterSensor(yearRows, channel, &result.Metrics)
	hydroStream := filterHydrograph(yearRows)

	result.Series.Points = mergeStreams(sensorStream, hydroStream, func(raw float64) float64 {
		return e.Convert(raw, meta.YOffset)
	})

	if result.Series.Len() < 2 {
		result.Status = StatusInsufficientData
	}

	e.logger.Debug("unit of work processed",
		slog.String("location", meta.ID()),
		slog.Int("year", year),
		slog.String("sensor", sensor),
		slog.String("status", result.Status.String()),
		slog.Int("merged_rows", result.Series.Len()),
		slog.Any("metrics", result.Metrics))

	return result, nil
}

// filterSensor excludes null, non-finite and zero-or-negative readings,
// counting each exclusion reason exactly once. A reading of zero or
// below is physically implausible for this instrument and signals a
// fault, not a true measurement.
func (e *Engine) filterSensor(rows []domain.MeasurementRow, channel int, metrics *domain.ProcessingMetrics) []timedValue {
	survivors := make([]timedValue, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.Reading(channel)
		switch {
		case !ok || math.IsNaN(raw):
			metrics.NullValues++
		case math.IsInf(raw, 0):
			metrics.NonFinite++
		case raw <= 0:
			metrics.ZeroOrNegative++
		default:
			survivors = append(survivors, timedValue{timeSeconds: row.TimeSeconds, value: raw})
			metrics.ValidRows++
		}
	}
	return survivors
}

// filterHydrograph excludes only null and non-finite flow values. Zero
// flow is physically valid and kept; the positivity heuristic applies to
// the sensor stream alone.
func filterHydrograph(rows []domain.MeasurementRow) map[float64]float64 {
	flows := make(map[float64]float64, len(rows))
	for _, row := range rows {
		if math.IsNaN(row.Hydrograph) || math.IsInf(row.Hydrograph, 0) {
			continue
		}
		flows[row.TimeSeconds] = row.Hydrograph
	}
	return flows
}

// mergeStreams inner-joins the filtered sensor stream with the filtered
// hydrograph stream on the raw seconds key, converts the surviving
// readings, and normalizes time to minutes. Only time points present in
// both streams survive; an empty side yields an empty merge.
func mergeStreams(sensorStream []timedValue, hydroStream map[float64]float64, convert func(float64) float64) []domain.MergedPoint {
	if len(sensorStream) == 0 || len(hydroStream) == 0 {
		return nil
	}

	points := make([]domain.MergedPoint, 0, len(sensorStream))
	for _, sv := range sensorStream {
		flow, ok := hydroStream[sv.timeSeconds]
		if !ok {
			continue
		}
		points = append(points, domain.MergedPoint{
			TimeMinutes: sv.timeSeconds / 60.0,
			Elevation:   convert(sv.value),
			Hydrograph:  flow,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].TimeMinutes < points[j].TimeMinutes })

	return points
}

// channelIndex resolves a sensor column name (Sensor_1..Sensor_N) to its
// zero-based channel, rejecting names outside the location's declared
// sensor count.
func channelIndex(meta domain.LocationMetadata, sensor string) (int, error) {
	for i, name := range meta.SensorColumns() {
		if name == sensor {
			return i, nil
		}
	}
	return 0, apperrors.New(apperrors.KindValidation,
		fmt.Sprintf("unknown sensor %q for location with %d sensors", sensor, meta.SensorCount)).
		WithUnit(meta.ID(), 0, sensor)
}
