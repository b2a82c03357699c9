package domain

// MeasurementRow is one raw row from a per-location workbook. Missing or
// unparsable cells are encoded as NaN so the filtering engine can count
// them as nulls.
type MeasurementRow struct {
	TimeSeconds float64   `json:"time_seconds"`
	Year        int       `json:"year"`
	Readings    []float64 `json:"readings"`
	Hydrograph  float64   `json:"hydrograph"`
}

// Reading returns the raw value for a zero-based sensor channel and
// whether the row carries that channel at all.
func (r MeasurementRow) Reading(channel int) (float64, bool) {
	if channel < 0 || channel >= len(r.Readings) {
		return 0, false
	}
	return r.Readings[channel], true
}

// MeasurementTable holds the fully loaded, unfiltered measurement rows
// for one location. Tables are read-only after loading and safe for
// concurrent readers.
type MeasurementTable struct {
	Location   LocationMetadata `json:"location"`
	SourceFile string           `json:"source_file"`
	Rows       []MeasurementRow `json:"rows"`
}

// YearRows returns the rows belonging to the given year index, in source
// order.
func (t *MeasurementTable) YearRows(year int) []MeasurementRow {
	var rows []MeasurementRow
	for _, row := range t.Rows {
		if row.Year == year {
			rows = append(rows, row)
		}
	}
	return rows
}

// MergedPoint is one time-aligned, converted observation: the sensor
// elevation in the standard datum and the hydrograph flow at the same
// raw time key.
type MergedPoint struct {
	TimeMinutes float64 `json:"time_minutes"`
	Elevation   float64 `json:"elevation"`
	Hydrograph  float64 `json:"hydrograph"`
}

// MergedSeries is the inner-joined, converted output of one unit of work.
type MergedSeries struct {
	RiverMile float64       `json:"river_mile"`
	Year      int           `json:"year"`
	Sensor    string        `json:"sensor"`
	Points    []MergedPoint `json:"points"`
}

// Len returns the number of merged points.
func (s MergedSeries) Len() int { return len(s.Points) }
