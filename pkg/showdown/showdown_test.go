package showdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metric-duck/labs/pkg/metricduck"
)

func ptr(v float64) *float64 { return &v }

func TestCompare(t *testing.T) {
	assert.Equal(t, WinnerA, Compare(ptr(10), ptr(20), PreferLower))
	assert.Equal(t, WinnerB, Compare(ptr(10), ptr(20), PreferHigher))
	assert.Equal(t, WinnerTie, Compare(ptr(10), ptr(10), PreferLower))
	assert.Equal(t, WinnerTie, Compare(ptr(10), ptr(10), PreferHigher))

	// Absent loses to present; double absence ties.
	assert.Equal(t, WinnerB, Compare(nil, ptr(5), PreferLower))
	assert.Equal(t, WinnerA, Compare(ptr(5), nil, PreferHigher))
	assert.Equal(t, WinnerTie, Compare(nil, nil, PreferLower))
}

func showdownData() map[string]metricduck.Company {
	series := func(v float64) metricduck.MetricSeries {
		return metricduck.MetricSeries{Values: []metricduck.MetricValue{{Value: ptr(v)}}}
	}
	return map[string]metricduck.Company{
		"NVDA": {
			CompanyName: "NVIDIA Corporation",
			Metrics: map[string]metricduck.MetricSeries{
				"pe_ratio":   series(55.0),
				"ev_ebitda":  series(48.0),
				"ev_ebit":    series(50.0),
				"fcf_yield":  series(0.02),
				"roic":       series(0.55),
				"fcf_margin": series(0.45),
			},
		},
		"AMD": {
			CompanyName: "Advanced Micro Devices, Inc.",
			Metrics: map[string]metricduck.MetricSeries{
				"pe_ratio":                series(40.0),
				"ev_ebitda":               series(35.0),
				"ev_ebit":                 series(38.0),
				"fcf_yield":               series(0.015),
				"roic":                    series(0.08),
				"fcf_margin":              series(0.10),
				"total_shareholder_yield": series(0.01),
			},
		},
	}
}

func TestRun(t *testing.T) {
	res := Run(showdownData(), "NVDA", "AMD", DefaultPanels())

	// AMD wins pe, ev_ebitda, ev_ebit; NVDA wins fcf_yield.
	assert.Equal(t, 1, res.Valuation.AWins)
	assert.Equal(t, 3, res.Valuation.BWins)
	assert.Equal(t, 4, res.Valuation.Scored)
	assert.Equal(t, "AMD", res.Verdict.ValuationWinner)
	assert.True(t, res.Verdict.ValuationClear)

	// NVDA wins roic, fcf_margin; AMD wins shareholder yield (NVDA absent).
	assert.Equal(t, 2, res.Quality.AWins)
	assert.Equal(t, 1, res.Quality.BWins)
	assert.Equal(t, "NVDA", res.Verdict.QualityWinner)

	require.Len(t, res.Quality.Rows, 3)
	assert.Equal(t, WinnerB, res.Quality.Rows[2].Winner)
}

func TestRunRender(t *testing.T) {
	res := Run(showdownData(), "NVDA", "AMD", DefaultPanels())
	out := res.Render()

	assert.Contains(t, out, "STOCK SHOWDOWN: NVDA vs AMD")
	assert.Contains(t, out, "Valuation: AMD is clearly cheaper (3 of 4 metrics)")
	assert.Contains(t, out, "Quality:   NVDA is stronger (2 of 3 metrics)")
	assert.Contains(t, out, "ROIC 55.0% vs 8.0%")
	assert.Contains(t, out, "NVDA has higher quality, AMD is cheaper.")
	assert.Contains(t, out, "Classic value-vs-quality tradeoff.")
	assert.Contains(t, out, "ROIC *")
}

func TestRunEvenlyMatched(t *testing.T) {
	series := func(v float64) metricduck.MetricSeries {
		return metricduck.MetricSeries{Values: []metricduck.MetricValue{{Value: ptr(v)}}}
	}
	data := map[string]metricduck.Company{
		"A": {Metrics: map[string]metricduck.MetricSeries{"pe_ratio": series(20), "roic": series(0.2)}},
		"B": {Metrics: map[string]metricduck.MetricSeries{"pe_ratio": series(20), "roic": series(0.2)}},
	}

	res := Run(data, "A", "B", DefaultPanels())
	assert.Equal(t, "tie", res.Verdict.ValuationWinner)
	assert.Equal(t, "tie", res.Verdict.QualityWinner)
	assert.Contains(t, res.Render(), "Both stocks are evenly matched")
}
