package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/leafdash/core/model"
)

func series() model.HistorySeries {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return model.HistorySeries{
		Measurement: "battery",
		Field:       "soc_percent",
		Duration:    "1h",
		Window:      "1m",
		Data: []model.HistoryPoint{
			{Time: model.At(t0), Value: model.Float(80.5)},
			{Time: model.At(t0.Add(time.Minute))},
			{Time: model.At(t0.Add(2 * time.Minute)), Value: model.Float(80)},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, series()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "time,measurement,field,value\n" +
		"2024-05-01T10:00:00Z,battery,soc_percent,80.5\n" +
		"2024-05-01T10:01:00Z,battery,soc_percent,\n" +
		"2024-05-01T10:02:00Z,battery,soc_percent,80\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, series()))
	var out struct {
		Field string `json:"field"`
		Data  []struct {
			Value *float64 `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "soc_percent", out.Field)
	require.Len(t, out.Data, 3)
	assert.Nil(t, out.Data[1].Value)
	assert.Equal(t, 80.5, *out.Data[0].Value)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, series()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "soc_percent", v)
	v, err = f.GetCellValue(dataSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "80.5", v)
	v, err = f.GetCellValue(dataSheet, "B3")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestWriteChartHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChartHTML(&buf, series()))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "battery.soc_percent")
}

func TestWriteTripPDF(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	trips := []model.Trip{{
		ID:        "trip_1",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		TripMetrics: model.TripMetrics{
			DurationMinutes:   30,
			DistanceKm:        20,
			EnergyConsumedKWh: 3.2,
			EnergyRegenKWh:    0.4,
			EfficiencyWhPerKm: 140,
			AvgSpeedKmh:       40,
		},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteTripPDF(&buf, "leaf", trips, start))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), series()))
}
