package files

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeSegment reduces a path segment derived from external data to
// an allow-listed character set: letters, digits, underscore, hyphen and
// dot. Everything else becomes an underscore, dot runs are collapsed so
// traversal sequences cannot survive, and leading dots are stripped.
// The result is never empty.
func SanitizeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))

	lastDot := false
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
			lastDot = false
		case r == '.':
			if !lastDot {
				b.WriteRune(r)
			}
			lastDot = true
		default:
			b.WriteRune('_')
			lastDot = false
		}
	}

	sanitized := strings.Trim(b.String(), ".")
	if sanitized == "" {
		return "_"
	}
	return sanitized
}

// ChartPath builds the output path for one chart artifact under the
// output root: <root>/RM_<location>/Year_<year>_<sensor>.png. All
// segments derived from input data are sanitized, confining the path to
// the output root regardless of workbook content.
func ChartPath(outputRoot, locationID string, year int, sensor string) string {
	locationDir := fmt.Sprintf("RM_%s", SanitizeSegment(locationID))
	fileName := fmt.Sprintf("Year_%d_%s.png", year, SanitizeSegment(sensor))
	return filepath.Join(outputRoot, locationDir, fileName)
}

// SeriesCSVPath builds the output path for the exported merged series of
// one unit of work: <root>/RM_<location>/Year_<year>_<sensor>.csv.
func SeriesCSVPath(outputRoot, locationID string, year int, sensor string) string {
	locationDir := fmt.Sprintf("RM_%s", SanitizeSegment(locationID))
	fileName := fmt.Sprintf("Year_%d_%s.csv", year, SanitizeSegment(sensor))
	return filepath.Join(outputRoot, locationDir, fileName)
}
