package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/leafdash/core/model"
)

// WriteChartHTML renders the series as a standalone HTML line chart. Missing
// values become gaps.
func WriteChartHTML(w io.Writer, s model.HistorySeries) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: seriesName(s), Subtitle: fmt.Sprintf("last %s, %s buckets", s.Duration, s.Window)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.Field}),
	)

	xAxis := make([]string, 0, len(s.Data))
	yAxis := make([]opts.LineData, 0, len(s.Data))
	for _, p := range s.Data {
		xAxis = append(xAxis, pointTime(p))
		if v, ok := p.Value.Get(); ok {
			yAxis = append(yAxis, opts.LineData{Value: v})
		} else {
			yAxis = append(yAxis, opts.LineData{Value: "-"})
		}
	}
	line.SetXAxis(xAxis).AddSeries(s.Field, yAxis)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
