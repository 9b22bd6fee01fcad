package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestPct(t *testing.T) {
	assert.Equal(t, "4.2%", Pct(ptr(0.042)))
	assert.Equal(t, "-1.5%", Pct(ptr(-0.015)))
	assert.Equal(t, "N/A", Pct(nil))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "18.30", Ratio(ptr(18.3)))
	assert.Equal(t, "N/A", Ratio(nil))
	assert.Equal(t, "12,345", Ratio(ptr(12345.2)))
	assert.Equal(t, "-12,345", Ratio(ptr(-12345.2)))
}

func TestPctChange(t *testing.T) {
	assert.Equal(t, "+8.0%", PctChange(ptr(0.08)))
	assert.Equal(t, "-3.2%", PctChange(ptr(-0.032)))
	assert.Equal(t, "0.0%", PctChange(ptr(0)))
	assert.Equal(t, "N/A", PctChange(nil))
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$1,234.50", Dollars(ptr(1234.5)))
	assert.Equal(t, "N/A", Dollars(nil))
}

// Formatting then parsing must recover the value within display precision.
func TestRoundTrip(t *testing.T) {
	for _, v := range []float64{0.042, 0.2, -0.015, 0.999} {
		got, err := ParsePct(Pct(ptr(v)))
		require.NoError(t, err)
		assert.InDelta(t, v, got, 0.0005+1e-9)
	}

	for _, v := range []float64{18.3, 25.1, 0.5, -7.25} {
		got, err := ParseRatio(Ratio(ptr(v)))
		require.NoError(t, err)
		assert.InDelta(t, v, got, 0.005+1e-9)
	}
}

func TestParsePctRejectsBareNumber(t *testing.T) {
	_, err := ParsePct("18.3")
	assert.Error(t, err)
}
