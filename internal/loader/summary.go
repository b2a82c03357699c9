package loader

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "seatekcli/internal/errors"
	"seatekcli/pkg/contracts/domain"
)

// Column names of the summary workbook.
const (
	colRiverMile  = "River_Mile"
	colNumSensors = "Num_Sensors"
	colStartYear  = "Start_Year"
	colEndYear    = "End_Year"
	colYOffset    = "Y_Offset"
	colNotes      = "Notes"
)

// yearLabelPattern matches year-range markers such as "1995 (Y01)".
var yearLabelPattern = regexp.MustCompile(`^([0-9]{4})\s*\(Y([0-9]{1,2})\)$`)

// Loader reads the summary and per-location measurement workbooks.
type Loader struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewLoader creates a workbook loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		validate: validator.New(),
	}
}

// LoadSummary reads the metadata summary workbook and returns a mapping
// from location identifier to its metadata record. It is a pure read:
// a missing required column or an unreadable workbook yields a
// KindDataLoad error and no partial result.
func (l *Loader) LoadSummary(path string) (map[string]domain.LocationMetadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "failed to open summary workbook", err).WithFile(path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.New(apperrors.KindDataLoad, "summary workbook has no sheets").WithFile(path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "failed to read summary sheet", err).WithFile(path)
	}
	if len(rows) < 2 {
		return nil, apperrors.New(apperrors.KindDataLoad, "summary sheet has no data rows").WithFile(path)
	}

	columns, err := mapColumns(rows[0], []string{colRiverMile, colNumSensors, colStartYear, colEndYear, colYOffset})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDataLoad, "invalid summary header", err).WithFile(path)
	}
	notesIdx, hasNotes := indexOf(rows[0], colNotes)

	metadata := make(map[string]domain.LocationMetadata)
	for i, row := range rows[1:] {
		riverMileCell := cellAt(row, columns[colRiverMile])
		if riverMileCell == "" {
			continue
		}

		meta, err := l.parseSummaryRow(row, columns)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindDataLoad,
				fmt.Sprintf("invalid summary row %d", i+2), err).WithFile(path)
		}
		if hasNotes {
			meta.Notes = cellAt(row, notesIdx)
		}
		meta.SourceFile = path

		if err := l.validate.Struct(meta); err != nil {
			return nil, apperrors.Wrap(apperrors.KindDataLoad,
				fmt.Sprintf("summary row %d failed validation", i+2), err).WithFile(path)
		}
		if meta.EndYear.Index < meta.StartYear.Index {
			return nil, apperrors.New(apperrors.KindDataLoad,
				fmt.Sprintf("summary row %d declares an empty year range (Y%02d..Y%02d)",
					i+2, meta.StartYear.Index, meta.EndYear.Index)).WithFile(path)
		}

		metadata[meta.ID()] = meta
	}

	if len(metadata) == 0 {
		return nil, apperrors.New(apperrors.KindDataLoad, "summary workbook contains no locations").WithFile(path)
	}

	l.logger.Info("summary metadata loaded",
		slog.String("file", path),
		slog.Int("locations", len(metadata)))

	return metadata, nil
}

// parseSummaryRow converts one summary row into a metadata record.
func (l *Loader) parseSummaryRow(row []string, columns map[string]int) (domain.LocationMetadata, error) {
	var meta domain.LocationMetadata

	riverMile, err := parseFloatCell(cellAt(row, columns[colRiverMile]))
	if err != nil {
		return meta, fmt.Errorf("bad %s: %w", colRiverMile, err)
	}

	sensorCount, err := strconv.Atoi(cellAt(row, columns[colNumSensors]))
	if err != nil {
		return meta, fmt.Errorf("bad %s: %w", colNumSensors, err)
	}

	startYear, err := ParseYearLabel(cellAt(row, columns[colStartYear]))
	if err != nil {
		return meta, fmt.Errorf("bad %s: %w", colStartYear, err)
	}

	endYear, err := ParseYearLabel(cellAt(row, columns[colEndYear]))
	if err != nil {
		return meta, fmt.Errorf("bad %s: %w", colEndYear, err)
	}

	yOffset, err := parseFloatCell(cellAt(row, columns[colYOffset]))
	if err != nil {
		return meta, fmt.Errorf("bad %s: %w", colYOffset, err)
	}

	meta = domain.LocationMetadata{
		RiverMile:   riverMile,
		SensorCount: sensorCount,
		StartYear:   startYear,
		EndYear:     endYear,
		YOffset:     yOffset,
	}
	return meta, nil
}

// ParseYearLabel parses a year-range marker of the form
// "<calendar-year> (Y<NN>)", e.g. "1995 (Y01)".
func ParseYearLabel(label string) (domain.YearLabel, error) {
	match := yearLabelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if match == nil {
		return domain.YearLabel{}, fmt.Errorf("year label %q does not match \"<year> (Y<NN>)\"", label)
	}
	calendarYear, _ := strconv.Atoi(match[1])
	index, _ := strconv.Atoi(match[2])
	return domain.YearLabel{CalendarYear: calendarYear, Index: index}, nil
}

// mapColumns maps required header names to their positions, reporting
// every missing column at once.
func mapColumns(header []string, required []string) (map[string]int, error) {
	columns := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		idx, ok := indexOf(header, name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// indexOf finds a header cell by exact name after trimming.
func indexOf(header []string, name string) (int, bool) {
	for i, cell := range header {
		if strings.TrimSpace(cell) == name {
			return i, true
		}
	}
	return 0, false
}

// cellAt returns the trimmed cell value, tolerating short rows.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFloatCell parses a numeric cell, tolerating thousands separators.
func parseFloatCell(cell string) (float64, error) {
	if cell == "" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
}
