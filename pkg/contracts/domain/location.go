package domain

import (
	"fmt"
	"strconv"
)

// LocationMetadata describes one monitored river cross-section as declared
// in the summary workbook.
type LocationMetadata struct {
	RiverMile   float64   `json:"river_mile" validate:"gte=0"`
	SensorCount int       `json:"sensor_count" validate:"gt=0"`
	StartYear   YearLabel `json:"start_year"`
	EndYear     YearLabel `json:"end_year"`
	YOffset     float64   `json:"y_offset"`
	Notes       string    `json:"notes,omitempty"`
	SourceFile  string    `json:"source_file,omitempty"`
}

// YearLabel is a parsed year-range marker of the form "1995 (Y01)":
// the calendar year plus the 1-based index within the monitored span.
type YearLabel struct {
	CalendarYear int `json:"calendar_year" validate:"gte=1900,lte=2100"`
	Index        int `json:"index" validate:"gte=1"`
}

// ID returns the canonical location identifier used for sheet and file
// resolution, e.g. "54.0".
func (m LocationMetadata) ID() string {
	return FormatRiverMile(m.RiverMile)
}

// Years returns the inclusive year-index range declared for the location.
func (m LocationMetadata) Years() (first, last int) {
	return m.StartYear.Index, m.EndYear.Index
}

// ContainsYear reports whether the year index falls inside the declared range.
func (m LocationMetadata) ContainsYear(year int) bool {
	return year >= m.StartYear.Index && year <= m.EndYear.Index
}

// SensorColumns returns the sensor column names implied by the sensor
// count, in channel order: Sensor_1 .. Sensor_N.
func (m LocationMetadata) SensorColumns() []string {
	cols := make([]string, 0, m.SensorCount)
	for i := 1; i <= m.SensorCount; i++ {
		cols = append(cols, fmt.Sprintf("Sensor_%d", i))
	}
	return cols
}

// FormatRiverMile renders a river mile with one decimal place, matching
// the naming convention of the source workbooks (RM_54.0).
func FormatRiverMile(rm float64) string {
	return strconv.FormatFloat(rm, 'f', 1, 64)
}
