package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/leafdash/core/model"
)

func TestValidFix(t *testing.T) {
	cases := []struct {
		name string
		g    *model.GPS
		want bool
	}{
		{"nil", nil, false},
		{"null island", &model.GPS{Latitude: model.Float(0), Longitude: model.Float(0)}, false},
		{"zero latitude", &model.GPS{Latitude: model.Float(0), Longitude: model.Float(4.8)}, false},
		{"missing longitude", &model.GPS{Latitude: model.Float(45)}, false},
		{"no quality", &model.GPS{Latitude: model.Float(45), Longitude: model.Float(4.8)}, true},
		{"quality zero", &model.GPS{Latitude: model.Float(45), Longitude: model.Float(4.8), FixQuality: model.Float(0)}, false},
		{"quality one", &model.GPS{Latitude: model.Float(45), Longitude: model.Float(4.8), FixQuality: model.Float(1)}, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ValidFix(c.g), c.name)
	}
}

func TestGPSFixStates(t *testing.T) {
	g := &model.GPS{Latitude: model.Float(45), Longitude: model.Float(4.8)}
	assert.Equal(t, FixOffline, GPSFix(g, false))
	assert.Equal(t, FixAcquired, GPSFix(g, true))
	assert.Equal(t, FixSearching, GPSFix(&model.GPS{}, true))
}
