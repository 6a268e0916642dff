package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAggregate(t *testing.T) {
	h := NewHistory(0)
	h.Add("battery", "soc_percent", t0.Add(10*time.Second), 1)
	h.Add("battery", "soc_percent", t0.Add(20*time.Second), 3)
	h.Add("battery", "soc_percent", t0.Add(70*time.Second), 5)
	h.Add("battery", "soc_percent", t0.Add(-2*time.Hour), 100)

	pts := h.Aggregate("battery", "soc_percent", t0.Add(2*time.Minute), time.Hour, time.Minute)
	require.Len(t, pts, 2)
	ts, ok := pts[0].Time.Time()
	require.True(t, ok)
	assert.True(t, ts.Equal(t0.Add(time.Minute)))
	v, _ := pts[0].Value.Get()
	assert.InDelta(t, 2, v, 1e-9)
	v, _ = pts[1].Value.Get()
	assert.InDelta(t, 5, v, 1e-9)

	assert.Empty(t, h.Aggregate("battery", "pack_voltage", t0, time.Hour, time.Minute))
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(2)
	for i := 0; i < 5; i++ {
		h.Add("motor", "rpm", t0.Add(time.Duration(i)*time.Second), float64(i))
	}
	rows := h.Range("motor", time.Time{}, time.Time{})
	require.Len(t, rows, 2)
	assert.Equal(t, 3.0, rows[0].Value)
	assert.Equal(t, 4.0, rows[1].Value)
}

func TestHistoryRange(t *testing.T) {
	h := NewHistory(0)
	h.Add("battery", "soc_percent", t0, 80)
	h.Add("battery", "pack_voltage", t0, 380)
	h.Add("battery", "soc_percent", t0.Add(time.Minute), 79)
	h.Add("motor", "rpm", t0, 1000)

	rows := h.Range("battery", t0, t0)
	require.Len(t, rows, 2)
	assert.Equal(t, "pack_voltage", rows[0].Field)
	assert.Equal(t, "soc_percent", rows[1].Field)
}

func TestParseSpan(t *testing.T) {
	d, err := ParseSpan("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)
	d, err = ParseSpan("10m")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)
	for _, bad := range []string{"", "xd", "-1h", "0d"} {
		_, err := ParseSpan(bad)
		assert.Error(t, err, bad)
	}
}
