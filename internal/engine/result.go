package engine

import (
	"seatekcli/pkg/contracts/domain"
)

// Status is the terminal state of one unit of work. Insufficient data is
// a legitimate outcome, not an error: the caller skips chart generation
// and logs a warning.
type Status int

const (
	// StatusOK means the merged series carries at least two points and
	// can be rendered.
	StatusOK Status = iota
	// StatusInsufficientData means fewer than two rows survived
	// filtering and merging.
	StatusInsufficientData
)

// String returns a log-friendly status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInsufficientData:
		return "insufficient_data"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one (location, year, sensor) unit
// of work. Metrics are populated for both statuses.
type Result struct {
	Status  Status
	Series  domain.MergedSeries
	Metrics domain.ProcessingMetrics
}
