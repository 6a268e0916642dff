package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/leafdash/config"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
	"github.com/kilianp07/leafdash/simulator"
)

func startUpstream(t *testing.T) string {
	t.Helper()
	sim := simulator.New(simulator.Options{Config: config.SimulatorConfig{Seed: 7}})
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(func() {
		sim.Close()
		srv.Close()
	})
	dir := t.TempDir()
	path := filepath.Join(dir, "leafdash.yaml")
	body := "source:\n  base_url: " + srv.URL + "\n  push: none\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgPath = ""
		historyOut = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatusCommandJSON(t *testing.T) {
	path := startUpstream(t)
	out, err := execute(t, "-c", path, "status", "-o", "json")
	require.NoError(t, err)

	var v displayView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "fresh", v.Freshness[string(model.GroupBattery)])
	assert.Equal(t, string(presentation.FixAcquired), v.GPSFix)
	assert.Equal(t, "96", v.Fields[presentation.KeyCellCount].Text)
	assert.NotEqual(t, presentation.NoData, v.Fields[presentation.KeySoC].Text)
}

func TestCellsCommandTable(t *testing.T) {
	path := startUpstream(t)
	out, err := execute(t, "-c", path, "cells", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "MODULE")
	for id := 0; id < model.ModuleCount; id++ {
		assert.Contains(t, out, model.ModuleKey(id))
	}
}

func TestHistoryCommandWritesCSV(t *testing.T) {
	path := startUpstream(t)
	dst := filepath.Join(t.TempDir(), "soc.csv")
	_, err := execute(t, "-c", path, "history", "battery", "soc_percent", "-d", "1h", "-f", "csv", "--out", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,measurement,field,value\n"))
}

func TestHistoryCommandRejectsFormat(t *testing.T) {
	_, err := execute(t, "history", "battery", "soc_percent", "-f", "bmp")
	require.Error(t, err)
}

func TestRenderDisplayTable(t *testing.T) {
	m := presentation.DisplayMapping{
		Fields: map[string]presentation.Field{
			presentation.KeySoC: {Text: "80", Unit: "%", Category: "high", Valid: true},
		},
		Freshness: map[model.Group]presentation.Freshness{model.GroupBattery: presentation.Fresh},
		GPSFix:    presentation.FixOffline,
	}
	var buf bytes.Buffer
	require.NoError(t, renderDisplay(&buf, outputTable, m))
	out := buf.String()
	assert.Contains(t, out, "FRESHNESS")
	assert.Contains(t, out, "80 %")
	assert.Contains(t, out, "absent")
}

func TestWriteStructuredYAML(t *testing.T) {
	m := presentation.DisplayMapping{
		Fields: map[string]presentation.Field{presentation.KeyHostname: {Text: "leaf", Valid: true}},
		GPSFix: presentation.FixSearching,
	}
	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, outputYAML, newDisplayView(m)))
	var v displayView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, "leaf", v.Fields[presentation.KeyHostname].Text)
	assert.Equal(t, string(presentation.FixSearching), v.GPSFix)

	require.Error(t, writeStructured(&buf, "toml", v))
}

func TestRenderCellsMissingValues(t *testing.T) {
	r := model.CellReport{Cells: map[string]model.CellModule{
		model.ModuleKey(1): {MinVoltageMV: model.Float(3912), MaxVoltageMV: model.Float(3925)},
	}}
	var buf bytes.Buffer
	require.NoError(t, renderCells(&buf, outputTable, r))
	assert.Contains(t, buf.String(), "3912")
	assert.Contains(t, buf.String(), presentation.NoData)
}
