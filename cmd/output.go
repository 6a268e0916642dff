package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

// Output formats of the read commands.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type fieldView struct {
	Text     string `json:"text" yaml:"text"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

type displayView struct {
	Stamp     string               `json:"stamp,omitempty" yaml:"stamp,omitempty"`
	GPSFix    string               `json:"gps_fix" yaml:"gps_fix"`
	Freshness map[string]string    `json:"freshness" yaml:"freshness"`
	Fields    map[string]fieldView `json:"fields" yaml:"fields"`
}

func newDisplayView(m presentation.DisplayMapping) displayView {
	v := displayView{
		GPSFix:    string(m.GPSFix),
		Freshness: make(map[string]string, len(m.Freshness)),
		Fields:    make(map[string]fieldView, len(m.Fields)),
	}
	if !m.Stamp.IsZero() {
		v.Stamp = m.Stamp.UTC().Format(time.RFC3339)
	}
	for g, f := range m.Freshness {
		v.Freshness[string(g)] = f.String()
	}
	for k, f := range m.Fields {
		v.Fields[k] = fieldView{Text: f.Text, Unit: f.Unit, Category: string(f.Category)}
	}
	return v
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output %q", format)
}

// renderDisplay prints a projection as a table of groups then fields, or as
// JSON or YAML.
func renderDisplay(w io.Writer, format string, m presentation.DisplayMapping) error {
	if format != outputTable {
		return writeStructured(w, format, newDisplayView(m))
	}
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("GROUP", "FRESHNESS")
	for _, g := range model.Groups {
		table.AddRow(string(g), m.Freshness[g].String())
	}
	table.AddRow("gps_fix", string(m.GPSFix))
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	table = uitable.New()
	table.MaxColWidth = 60
	table.AddRow("FIELD", "VALUE", "CATEGORY")
	for _, k := range keys {
		f := m.Fields[k]
		text := f.Text
		if f.Unit != "" {
			text += " " + f.Unit
		}
		table.AddRow(k, text, string(f.Category))
	}
	_, err := fmt.Fprintln(w, "\n"+table.String())
	return err
}

func renderTrips(w io.Writer, format string, current model.CurrentTrip, recent []model.Trip) error {
	if format != outputTable {
		return writeStructured(w, format, map[string]any{"current": current, "recent": recent})
	}
	table := uitable.New()
	if current.Active {
		table.AddRow("CURRENT", current.ID, fmt.Sprintf("since %s", current.StartTime.Local().Format("15:04")),
			fmt.Sprintf("%.1f km", current.Metrics.DistanceKm), fmt.Sprintf("%.0f min", current.DurationMinutes))
	} else {
		table.AddRow("CURRENT", "parked")
	}
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}
	table = uitable.New()
	table.AddRow("TRIP", "START", "MIN", "KM", "KWH USED", "KWH REGEN", "WH/KM", "KM/H")
	for _, t := range recent {
		table.AddRow(t.ID, t.StartTime.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.0f", t.DurationMinutes),
			fmt.Sprintf("%.1f", t.DistanceKm),
			fmt.Sprintf("%.2f", t.EnergyConsumedKWh),
			fmt.Sprintf("%.2f", t.EnergyRegenKWh),
			fmt.Sprintf("%.0f", t.EfficiencyWhPerKm),
			fmt.Sprintf("%.1f", t.AvgSpeedKmh))
	}
	_, err := fmt.Fprintln(w, "\n"+table.String())
	return err
}

func renderCells(w io.Writer, format string, r model.CellReport) error {
	if format != outputTable {
		return writeStructured(w, format, r)
	}
	table := uitable.New()
	table.AddRow("MODULE", "MIN MV", "MAX MV", "DELTA MV", "MIN C", "MAX C")
	for _, k := range r.ModuleKeys() {
		m := r.Cells[k]
		table.AddRow(k, optText(m.MinVoltageMV, 0), optText(m.MaxVoltageMV, 0), optText(m.VoltageDeltaMV, 0),
			optText(m.MinTempC, 1), optText(m.MaxTempC, 1))
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func optText(f model.OptFloat, places int) string {
	v, ok := f.Get()
	if !ok {
		return presentation.NoData
	}
	return fmt.Sprintf("%.*f", places, v)
}
