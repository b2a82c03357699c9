package domain

import "log/slog"

// ProcessingMetrics counts how many rows were excluded, and why, while
// filtering the sensor stream for one (location, year, sensor) unit of
// work. The exclusion categories are mutually exclusive: a reading is
// classified as null (missing cell), non-finite, or zero-or-negative,
// in that order, and counted exactly once.
type ProcessingMetrics struct {
	OriginalRows   int `json:"original_rows"`
	NullValues     int `json:"null_values"`
	NonFinite      int `json:"non_finite"`
	ZeroOrNegative int `json:"zero_or_negative"`
	ValidRows      int `json:"valid_rows"`
}

// InvalidRows returns the total number of excluded sensor readings.
func (m ProcessingMetrics) InvalidRows() int {
	return m.NullValues + m.NonFinite + m.ZeroOrNegative
}

// LogValue implements slog.LogValuer so metrics render as a structured
// group in log output.
func (m ProcessingMetrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("original_rows", m.OriginalRows),
		slog.Int("null_values", m.NullValues),
		slog.Int("non_finite", m.NonFinite),
		slog.Int("zero_or_negative", m.ZeroOrNegative),
		slog.Int("valid_rows", m.ValidRows),
	)
}
