package model

import (
	"fmt"
	"sort"
)

// ModuleCount is the number of battery modules reported by the cell endpoint.
const ModuleCount = 4

// CellModule holds the cell extrema of one battery module.
type CellModule struct {
	MaxTempC       OptFloat  `json:"max_temp_c"`
	MinTempC       OptFloat  `json:"min_temp_c"`
	MaxVoltageMV   OptFloat  `json:"max_voltage_mv"`
	MinVoltageMV   OptFloat  `json:"min_voltage_mv"`
	TempDeltaC     OptFloat  `json:"temp_delta_c"`
	VoltageDeltaMV OptFloat  `json:"voltage_delta_mv"`
	Time           Timestamp `json:"time"`
}

// CellReport is the response of the cell detail endpoint, keyed module_0 to
// module_3.
type CellReport struct {
	Timestamp Timestamp             `json:"timestamp"`
	Cells     map[string]CellModule `json:"cells"`
}

// ModuleKey returns the report key of module id.
func ModuleKey(id int) string { return fmt.Sprintf("module_%d", id) }

// ModuleKeys lists the keys present in the report in order.
func (r CellReport) ModuleKeys() []string {
	keys := make([]string, 0, len(r.Cells))
	for k := range r.Cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
