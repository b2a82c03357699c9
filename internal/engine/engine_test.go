package engine

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatekcli/internal/config"
	apperrors "seatekcli/internal/errors"
	"seatekcli/pkg/contracts/domain"
)

func testCalibration() config.CalibrationConfig {
	return config.CalibrationConfig{
		OffsetA:     1.9,
		OffsetB:     0.32,
		ScaleFactor: 400.0 / 30.48,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetadata() domain.LocationMetadata {
	return domain.LocationMetadata{
		RiverMile:   54.0,
		SensorCount: 2,
		StartYear:   domain.YearLabel{CalendarYear: 1995, Index: 1},
		EndYear:     domain.YearLabel{CalendarYear: 1997, Index: 3},
		YOffset:     10.5,
	}
}

func TestConvertIsAffine(t *testing.T) {
	cal := testCalibration()
	e := New(cal, testLogger())

	tests := []struct {
		name    string
		raw     float64
		yOffset float64
	}{
		{name: "typical reading", raw: 150.23, yOffset: 10.5},
		{name: "small reading", raw: 0.01, yOffset: 0},
		{name: "large reading", raw: 412.7, yOffset: 25.3},
		{name: "negative offset", raw: 88.8, yOffset: -3.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Convert(tt.raw, tt.yOffset)
			want := -(tt.raw+cal.OffsetA-cal.OffsetB)*cal.ScaleFactor + tt.yOffset
			assert.InDelta(t, want, got, 1e-12)

			// Algebraic inversion recovers the raw reading.
			recovered := -(got-tt.yOffset)/cal.ScaleFactor - cal.OffsetA + cal.OffsetB
			assert.InDelta(t, tt.raw, recovered, 1e-9)
		})
	}
}

func TestProcessWorkedScenario(t *testing.T) {
	cal := testCalibration()
	e := New(cal, testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location:   meta,
		SourceFile: "RM_54.0.xlsx",
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 0, Year: 1, Readings: []float64{150.23, 1}, Hydrograph: 150},
			{TimeSeconds: 300, Year: 1, Readings: []float64{151.34, 1}, Hydrograph: 152},
			{TimeSeconds: 600, Year: 1, Readings: []float64{-1, 1}, Hydrograph: 154},
			{TimeSeconds: 900, Year: 1, Readings: []float64{math.NaN(), 1}, Hydrograph: 156},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 4, result.Metrics.OriginalRows)
	assert.Equal(t, 1, result.Metrics.NullValues)
	assert.Equal(t, 0, result.Metrics.NonFinite)
	assert.Equal(t, 1, result.Metrics.ZeroOrNegative)
	assert.Equal(t, 2, result.Metrics.ValidRows)
	assert.Equal(t, 2, result.Metrics.InvalidRows())

	require.Equal(t, 2, result.Series.Len())
	assert.Equal(t, 0.0, result.Series.Points[0].TimeMinutes)
	assert.Equal(t, 5.0, result.Series.Points[1].TimeMinutes)
	assert.InDelta(t, -(150.23+1.9-0.32)*cal.ScaleFactor+10.5, result.Series.Points[0].Elevation, 1e-9)
	assert.InDelta(t, -(151.34+1.9-0.32)*cal.ScaleFactor+10.5, result.Series.Points[1].Elevation, 1e-9)
	assert.Equal(t, 150.0, result.Series.Points[0].Hydrograph)
	assert.Equal(t, 152.0, result.Series.Points[1].Hydrograph)
}

func TestProcessMetricsAreMutuallyExclusive(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location: meta,
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 0, Year: 1, Readings: []float64{math.NaN(), 1}, Hydrograph: 10},
			{TimeSeconds: 60, Year: 1, Readings: []float64{math.Inf(1), 1}, Hydrograph: 10},
			{TimeSeconds: 120, Year: 1, Readings: []float64{math.Inf(-1), 1}, Hydrograph: 10},
			{TimeSeconds: 180, Year: 1, Readings: []float64{0, 1}, Hydrograph: 10},
			{TimeSeconds: 240, Year: 1, Readings: []float64{-12.5, 1}, Hydrograph: 10},
			{TimeSeconds: 300, Year: 1, Readings: []float64{101.1, 1}, Hydrograph: 10},
			{TimeSeconds: 360, Year: 1, Readings: []float64{102.2, 1}, Hydrograph: 10},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)

	m := result.Metrics
	assert.Equal(t, 7, m.OriginalRows)
	assert.Equal(t, 1, m.NullValues)
	assert.Equal(t, 2, m.NonFinite)
	assert.Equal(t, 1, m.ZeroOrNegative)
	assert.Equal(t, 3, m.ValidRows)
	assert.Equal(t, m.OriginalRows, m.ValidRows+m.InvalidRows())
}

func TestProcessInnerJoinDropsUnmatchedTimes(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location: meta,
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: 11},
			{TimeSeconds: 60, Year: 1, Readings: []float64{101, 1}, Hydrograph: math.NaN()},
			{TimeSeconds: 120, Year: 1, Readings: []float64{102, 1}, Hydrograph: math.Inf(1)},
			{TimeSeconds: 180, Year: 1, Readings: []float64{103, 1}, Hydrograph: 14},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)

	// All four sensor readings are valid, but only the rows whose
	// hydrograph also survived are merged.
	assert.Equal(t, 4, result.Metrics.ValidRows)
	require.Equal(t, 2, result.Series.Len())
	assert.Equal(t, 0.0, result.Series.Points[0].TimeMinutes)
	assert.Equal(t, 3.0, result.Series.Points[1].TimeMinutes)
}

func TestProcessKeepsZeroHydrographFlow(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location: meta,
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: 0},
			{TimeSeconds: 60, Year: 1, Readings: []float64{101, 1}, Hydrograph: -2},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)

	// Zero and negative flows are physically meaningful and kept; the
	// positivity check applies to sensor readings only.
	require.Equal(t, 2, result.Series.Len())
	assert.Equal(t, 0.0, result.Series.Points[0].Hydrograph)
	assert.Equal(t, -2.0, result.Series.Points[1].Hydrograph)
}

func TestProcessInsufficientData(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	tests := []struct {
		name string
		rows []domain.MeasurementRow
	}{
		{
			name: "no rows for year",
			rows: []domain.MeasurementRow{
				{TimeSeconds: 0, Year: 2, Readings: []float64{100, 1}, Hydrograph: 10},
			},
		},
		{
			name: "single merged row",
			rows: []domain.MeasurementRow{
				{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: 10},
				{TimeSeconds: 60, Year: 1, Readings: []float64{math.NaN(), 1}, Hydrograph: 11},
			},
		},
		{
			name: "valid readings but empty hydrograph",
			rows: []domain.MeasurementRow{
				{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: math.NaN()},
				{TimeSeconds: 60, Year: 1, Readings: []float64{101, 1}, Hydrograph: math.NaN()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &domain.MeasurementTable{Location: meta, Rows: tt.rows}

			result, err := e.Process(table, 1, "Sensor_1")
			require.NoError(t, err)
			assert.Equal(t, StatusInsufficientData, result.Status)
			assert.Less(t, result.Series.Len(), 2)
		})
	}
}

func TestProcessTwoRowsIsEnough(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location: meta,
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: 10},
			{TimeSeconds: 60, Year: 1, Readings: []float64{101, 1}, Hydrograph: 11},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 2, result.Series.Len())
}

func TestProcessYearOutOfRange(t *testing.T) {
	e := New(testCalibration(), testLogger())
	table := &domain.MeasurementTable{Location: testMetadata(), SourceFile: "RM_54.0.xlsx"}

	_, err := e.Process(table, 9, "Sensor_1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, err.Error(), "year 9")
}

func TestProcessUnknownSensor(t *testing.T) {
	e := New(testCalibration(), testLogger())
	table := &domain.MeasurementTable{Location: testMetadata()}

	_, err := e.Process(table, 1, "Sensor_7")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestProcessSortsMergedPointsByTime(t *testing.T) {
	e := New(testCalibration(), testLogger())
	meta := testMetadata()

	table := &domain.MeasurementTable{
		Location: meta,
		Rows: []domain.MeasurementRow{
			{TimeSeconds: 600, Year: 1, Readings: []float64{102, 1}, Hydrograph: 12},
			{TimeSeconds: 0, Year: 1, Readings: []float64{100, 1}, Hydrograph: 10},
			{TimeSeconds: 300, Year: 1, Readings: []float64{101, 1}, Hydrograph: 11},
		},
	}

	result, err := e.Process(table, 1, "Sensor_1")
	require.NoError(t, err)

	require.Equal(t, 3, result.Series.Len())
	for i := 1; i < result.Series.Len(); i++ {
		assert.Less(t, result.Series.Points[i-1].TimeMinutes, result.Series.Points[i].TimeMinutes)
	}
}
