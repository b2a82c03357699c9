package validation

import (
	"fmt"
	"log/slog"
	"sort"

	apperrors "seatekcli/internal/errors"
	"seatekcli/internal/files"
	"seatekcli/internal/loader"
)

// FileResult is the structural verdict for one workbook.
type FileResult struct {
	File     string   `json:"file"`
	Location string   `json:"location,omitempty"`
	Valid    bool     `json:"valid"`
	Rows     int      `json:"rows,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// Report aggregates the verdicts of a full dataset check. Valid is true
// only when the summary and every referenced measurement workbook pass.
type Report struct {
	SummaryFile string       `json:"summary_file"`
	Locations   int          `json:"locations"`
	Results     []FileResult `json:"results"`
	Orphans     []string     `json:"orphans,omitempty"`
	Valid       bool         `json:"valid"`
}

// Validator checks a dataset's workbooks for structural problems before
// a processing run: missing columns, malformed year labels, locations
// without a workbook, workbooks without a summary entry.
type Validator struct {
	loader *loader.Loader
	logger *slog.Logger
}

// New creates a dataset validator.
func New(l *loader.Loader, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{loader: l, logger: logger}
}

// ValidateDataset checks the summary workbook at summaryPath and every
// measurement workbook it references under rawDir. Structural problems
// land in the report; the returned error is reserved for failures of the
// check itself.
func (v *Validator) ValidateDataset(summaryPath, rawDir string) (Report, error) {
	report := Report{SummaryFile: summaryPath, Valid: true}

	metadata, err := v.loader.LoadSummary(summaryPath)
	if err != nil {
		report.Valid = false
		report.Results = append(report.Results, FileResult{
			File:   summaryPath,
			Valid:  false,
			Errors: []string{err.Error()},
		})
		return report, nil
	}
	report.Locations = len(metadata)
	report.Results = append(report.Results, FileResult{
		File:  summaryPath,
		Valid: true,
		Rows:  len(metadata),
	})

	discovery := files.NewDiscovery(rawDir)
	locationFiles, err := discovery.FindLocationFiles(".")
	if err != nil {
		return report, apperrors.Wrap(apperrors.KindDataLoad, "failed to scan measurement directory", err).WithFile(rawDir)
	}

	ids := make([]string, 0, len(metadata))
	for id := range metadata {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		meta := metadata[id]
		locationFile, ok := locationFiles[id]
		if !ok {
			report.Valid = false
			report.Results = append(report.Results, FileResult{
				Location: id,
				Valid:    false,
				Errors:   []string{fmt.Sprintf("no measurement workbook RM_%s.xlsx found", id)},
			})
			continue
		}

		result := FileResult{File: locationFile.Path, Location: id, Valid: true}
		table, err := v.loader.LoadLocation(meta, locationFile.Path)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
			report.Valid = false
		} else {
			result.Rows = len(table.Rows)
			if len(table.Rows) == 0 {
				result.Valid = false
				result.Errors = append(result.Errors, "workbook has no usable data rows")
				report.Valid = false
			}
		}
		report.Results = append(report.Results, result)
	}

	for id, locationFile := range locationFiles {
		if _, ok := metadata[id]; !ok {
			report.Orphans = append(report.Orphans, locationFile.Name)
		}
	}
	sort.Strings(report.Orphans)

	v.logger.Info("dataset validated",
		slog.String("summary", summaryPath),
		slog.Int("locations", report.Locations),
		slog.Int("orphans", len(report.Orphans)),
		slog.Bool("valid", report.Valid))

	return report, nil
}
