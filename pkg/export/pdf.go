package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/kilianp07/leafdash/core/model"
)

// WriteTripPDF renders a trip report with totals and one table row per trip.
func WriteTripPDF(w io.Writer, vehicle string, trips []model.Trip, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Trip Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Vehicle: %s", vehicle))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.UTC().Format(time.RFC3339)))
	pdf.Ln(5)

	var distance, consumed, regen float64
	for _, t := range trips {
		distance += t.DistanceKm
		consumed += t.EnergyConsumedKWh
		regen += t.EnergyRegenKWh
	}
	pdf.Cell(0, 6, fmt.Sprintf("Trips: %d", len(trips)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total distance (km): %.1f", distance))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Energy consumed / regenerated (kWh): %.2f / %.2f", consumed, regen))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	header := []struct {
		title string
		width float64
	}{
		{"Start", 38}, {"Duration (min)", 25}, {"Distance (km)", 25},
		{"Consumed (kWh)", 27}, {"Regen (kWh)", 25}, {"Wh/km", 20}, {"Avg km/h", 20},
	}
	for _, h := range header {
		pdf.CellFormat(h.width, 6, h.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, t := range trips {
		pdf.CellFormat(38, 6, t.StartTime.UTC().Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", t.DurationMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", t.DistanceKm), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.3f", t.EnergyConsumedKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.3f", t.EnergyRegenKWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.0f", t.EfficiencyWhPerKm), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", t.AvgSpeedKmh), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
