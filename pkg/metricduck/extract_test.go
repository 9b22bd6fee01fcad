package metricduck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func sampleData() map[string]Company {
	return map[string]Company{
		"AAPL": {
			CompanyName: "Apple Inc.",
			Metrics: map[string]MetricSeries{
				"roic": {Values: []MetricValue{
					{Value: fptr(0.31), Dimension: sptr("Q.MED8")},
					{Value: fptr(0.012), Dimension: sptr("Q.TREND8")},
					{Value: fptr(0.42)},
				}},
				"pe_ratio": {Values: []MetricValue{
					{Value: nil},
					{Value: fptr(28.5), Dimension: sptr("Q.MED8")},
				}},
			},
		},
	}
}

func TestMetricReturnsCurrentValue(t *testing.T) {
	data := sampleData()

	got := Metric(data, "AAPL", "roic")
	assert.NotNil(t, got)
	assert.Equal(t, 0.42, *got)
}

func TestMetricAbsence(t *testing.T) {
	data := sampleData()

	// Dimension entries only, no current value.
	assert.Nil(t, Metric(data, "AAPL", "pe_ratio"))
	// Unknown metric.
	assert.Nil(t, Metric(data, "AAPL", "fcf_yield"))
	// Unknown ticker.
	assert.Nil(t, Metric(data, "MSFT", "roic"))
}

func TestDimension(t *testing.T) {
	data := sampleData()

	med := Dimension(data, "AAPL", "roic", "Q.MED8")
	assert.NotNil(t, med)
	assert.Equal(t, 0.31, *med)

	trend := Dimension(data, "AAPL", "roic", "Q.TREND8")
	assert.NotNil(t, trend)
	assert.Equal(t, 0.012, *trend)

	assert.Nil(t, Dimension(data, "AAPL", "roic", "TTM.YOY"))
	assert.Nil(t, Dimension(data, "MSFT", "roic", "Q.MED8"))
}

func TestCompanyName(t *testing.T) {
	data := sampleData()

	assert.Equal(t, "Apple Inc.", CompanyName(data, "AAPL"))
	assert.Equal(t, "MSFT", CompanyName(data, "MSFT"))
}
