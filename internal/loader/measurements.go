package loader

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "seatekcli/internal/errors"
	"seatekcli/internal/files"
	"seatekcli/pkg/contracts/domain"
)

// Column names of the per-location measurement workbooks.
const (
	colTimeSeconds = "Time (Seconds)"
	colYear        = "Year"
	colHydrograph  = "Hydrograph (Lagged)"
)

// sensorColumnPattern matches sensor channel headers (Sensor_1, Sensor_2, ...).
var sensorColumnPattern = regexp.MustCompile(`^Sensor_([0-9]+)$`)

// LoadMeasurements resolves and loads the measurement workbook of every location
// in the metadata mapping from dir. Loading is all-or-nothing per
// location: a location whose workbook is missing or structurally invalid
// gets an entry in the returned error map and no table, while the other
// locations load normally. The returned error is non-nil only when the
// directory itself cannot be read.
func (l *Loader) LoadMeasurements(metadata map[string]domain.LocationMetadata, dir string) (map[string]*domain.MeasurementTable, map[string]error, error) {
	discovery := files.NewDiscovery(dir)
	locationFiles, err := discovery.FindLocationFiles(".")
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindDataLoad, "failed to scan measurement directory", err).WithFile(dir)
	}

	tables := make(map[string]*domain.MeasurementTable, len(metadata))
	failures := make(map[string]error)

	for id, meta := range metadata {
		locationFile, ok := locationFiles[id]
		if !ok {
			failures[id] = apperrors.New(apperrors.KindDataLoad,
				fmt.Sprintf("no measurement workbook RM_%s.xlsx found", id)).WithLocation(id).WithFile(dir)
			continue
		}

		table, err := l.LoadLocation(meta, locationFile.Path)
		if err != nil {
			failures[id] = err
			continue
		}
		tables[id] = table
	}

	return tables, failures, nil
}

// LoadLocation reads one location's workbook into memory. It validates
// the header (time, year, N sensor columns, hydrograph) and keeps one
// record per source row; it performs no filtering or conversion.
func (l *Loader) LoadLocation(meta domain.LocationMetadata, filePath string) (*domain.MeasurementTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "failed to open measurement workbook", err).
			WithLocation(meta.ID()).WithFile(filePath)
	}
	defer f.Close()

	sheet := resolveSheet(f, meta.ID())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad,
			fmt.Sprintf("failed to read sheet %q", sheet), err).WithLocation(meta.ID()).WithFile(filePath)
	}
	if len(rows) < 2 {
		return nil, apperrors.New(apperrors.KindDataLoad,
			fmt.Sprintf("sheet %q has no data rows", sheet)).WithLocation(meta.ID()).WithFile(filePath)
	}

	required := append([]string{colTimeSeconds, colYear}, meta.SensorColumns()...)
	required = append(required, colHydrograph)
	columns, err := mapColumns(rows[0], required)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "invalid measurement header", err).
			WithLocation(meta.ID()).WithFile(filePath)
	}
	if err := checkSensorColumnCount(rows[0], meta.SensorCount); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "invalid measurement header", err).
			WithLocation(meta.ID()).WithFile(filePath)
	}

	sensorIdx := make([]int, meta.SensorCount)
	for i, name := range meta.SensorColumns() {
		sensorIdx[i] = columns[name]
	}

	table := &domain.MeasurementTable{
		Location:   meta,
		SourceFile: filePath,
		Rows:       make([]domain.MeasurementRow, 0, len(rows)-1),
	}

	skipped := 0
	for i, row := range rows[1:] {
		timeSeconds, err := parseFloatCell(cellAt(row, columns[colTimeSeconds]))
		if err != nil || timeSeconds < 0 {
			skipped++
			l.logger.Debug("skipping row without a usable time key",
				slog.String("location", meta.ID()),
				slog.String("file", filePath),
				slog.Int("row", i+2))
			continue
		}

		year, err := strconv.Atoi(cellAt(row, columns[colYear]))
		if err != nil {
			skipped++
			l.logger.Debug("skipping row without a usable year",
				slog.String("location", meta.ID()),
				slog.String("file", filePath),
				slog.Int("row", i+2))
			continue
		}

		readings := make([]float64, meta.SensorCount)
		for ch, idx := range sensorIdx {
			readings[ch] = parseMeasurementCell(cellAt(row, idx))
		}

		table.Rows = append(table.Rows, domain.MeasurementRow{
			TimeSeconds: timeSeconds,
			Year:        year,
			Readings:    readings,
			Hydrograph:  parseMeasurementCell(cellAt(row, columns[colHydrograph])),
		})
	}

	l.logger.Info("measurement table loaded",
		slog.String("location", meta.ID()),
		slog.String("file", filePath),
		slog.String("sheet", sheet),
		slog.Int("rows", len(table.Rows)),
		slog.Int("skipped_rows", skipped))

	return table, nil
}

// checkSensorColumnCount rejects headers carrying more sensor channels
// than the summary declares. The declared count and the columns present
// must agree, or readings would be silently ignored.
func checkSensorColumnCount(header []string, declared int) error {
	var surplus []string
	for _, cell := range header {
		match := sensorColumnPattern.FindStringSubmatch(strings.TrimSpace(cell))
		if match == nil {
			continue
		}
		channel, err := strconv.Atoi(match[1])
		if err != nil || channel <= declared {
			continue
		}
		surplus = append(surplus, strings.TrimSpace(cell))
	}
	if len(surplus) > 0 {
		return fmt.Errorf("workbook has %d undeclared sensor columns beyond Sensor_%d: %s",
			len(surplus), declared, strings.Join(surplus, ", "))
	}
	return nil
}

// resolveSheet prefers the sheet named after the location (RM_<id>) and
// falls back to the first sheet of the workbook.
func resolveSheet(f *excelize.File, locationID string) string {
	sheets := f.GetSheetList()
	want := "RM_" + locationID
	for _, name := range sheets {
		if strings.TrimSpace(name) == want {
			return name
		}
	}
	return sheets[0]
}

// parseMeasurementCell parses a measurement cell. Empty or unparsable
// cells become NaN so the engine can classify them as nulls; the raw
// value is otherwise preserved exactly.
func parseMeasurementCell(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
