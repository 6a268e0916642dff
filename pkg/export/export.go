// Package export renders historical series and trips into files for
// download: CSV, JSON, XLSX, an HTML line chart and a PDF trip report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/leafdash/core/model"
)

// Format names an export output.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
	FormatChart Format = "html"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatChart:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Write renders the series in the given format.
func Write(w io.Writer, f Format, s model.HistorySeries) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	case FormatChart:
		return WriteChartHTML(w, s)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteJSON writes the series to w in JSON format.
func WriteJSON(w io.Writer, s model.HistorySeries) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes one row per point. Missing values are left empty.
func WriteCSV(w io.Writer, s model.HistorySeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "measurement", "field", "value"}); err != nil {
		return err
	}
	for _, p := range s.Data {
		rec := []string{
			pointTime(p),
			s.Measurement,
			s.Field,
			pointValue(p),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func pointTime(p model.HistoryPoint) string {
	if t, ok := p.Time.Time(); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return p.Time.Raw
}

func pointValue(p model.HistoryPoint) string {
	v, ok := p.Value.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func seriesName(s model.HistorySeries) string {
	if s.Measurement == "" {
		return s.Field
	}
	return s.Measurement + "." + s.Field
}
