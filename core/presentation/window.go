package presentation

var historyWindows = map[string]string{
	"1h":  "1m",
	"6h":  "5m",
	"24h": "10m",
	"7d":  "1h",
}

// DefaultHistoryWindow is used for any duration outside the known set.
const DefaultHistoryWindow = "5m"

// HistoryDurations lists the selectable chart durations.
var HistoryDurations = []string{"1h", "6h", "24h", "7d"}

// HistoryWindow returns the aggregation window for a chart duration.
func HistoryWindow(duration string) string {
	if w, ok := historyWindows[duration]; ok {
		return w
	}
	return DefaultHistoryWindow
}

// ValidHistoryDuration reports whether duration is one of HistoryDurations.
func ValidHistoryDuration(duration string) bool {
	_, ok := historyWindows[duration]
	return ok
}
