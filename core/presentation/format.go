package presentation

import (
	"math"
	"strconv"

	"github.com/kilianp07/leafdash/core/model"
)

// formatFloat rounds v to prec decimals and never renders a negative zero.
func formatFloat(v float64, prec int) string {
	p := math.Pow10(prec)
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', prec, 64)
}

func number(v float64, prec int, unit string) Field {
	return Field{Text: formatFloat(v, prec), Unit: unit, Valid: true}
}

// optNumber formats v or returns Missing when v is absent.
func optNumber(v model.OptFloat, prec int, unit string) Field {
	if !v.Valid {
		return Missing
	}
	return number(v.Value, prec, unit)
}

func label(text string, cat Category) Field {
	return Field{Text: text, Category: cat, Valid: true}
}

func withCategory(f Field, cat Category) Field {
	if f.Valid {
		f.Category = cat
	}
	return f
}
