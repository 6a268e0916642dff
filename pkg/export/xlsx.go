package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/leafdash/core/model"
)

const (
	summarySheet = "summary"
	dataSheet    = "data"
)

// WriteXLSX writes a workbook with a summary sheet and one data row per
// point.
func WriteXLSX(w io.Writer, s model.HistorySeries) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Telemetry History")
	_ = f.SetCellValue(summarySheet, "A3", "Measurement")
	_ = f.SetCellValue(summarySheet, "B3", s.Measurement)
	_ = f.SetCellValue(summarySheet, "A4", "Field")
	_ = f.SetCellValue(summarySheet, "B4", s.Field)
	_ = f.SetCellValue(summarySheet, "A5", "Duration")
	_ = f.SetCellValue(summarySheet, "B5", s.Duration)
	_ = f.SetCellValue(summarySheet, "A6", "Window")
	_ = f.SetCellValue(summarySheet, "B6", s.Window)
	_ = f.SetCellValue(summarySheet, "A7", "Points")
	_ = f.SetCellValue(summarySheet, "B7", len(s.Data))

	_ = f.SetCellValue(dataSheet, "A1", "Time")
	_ = f.SetCellValue(dataSheet, "B1", "Value")
	for i, p := range s.Data {
		row := i + 2
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("A%d", row), pointTime(p))
		if v, ok := p.Value.Get(); ok {
			_ = f.SetCellValue(dataSheet, fmt.Sprintf("B%d", row), v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
