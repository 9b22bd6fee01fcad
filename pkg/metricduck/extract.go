package metricduck

// Metric returns the current (dimension-unset) value of a metric for a
// ticker, or nil when the ticker, metric or value is missing. Missing data
// is expected and never an error; callers exclude nils from aggregation.
func Metric(data map[string]Company, ticker, metricID string) *float64 {
	series, ok := data[ticker].Metrics[metricID]
	if !ok {
		return nil
	}
	for _, v := range series.Values {
		if v.Dimension == nil && v.Value != nil {
			return v.Value
		}
	}
	return nil
}

// Dimension returns the value recorded under a statistical dimension tag
// (Q.MED8, Q.TREND8, TTM.YOY, TTM.CAGR3, ...), or nil when absent.
func Dimension(data map[string]Company, ticker, metricID, dimension string) *float64 {
	series, ok := data[ticker].Metrics[metricID]
	if !ok {
		return nil
	}
	for _, v := range series.Values {
		if v.Dimension != nil && *v.Dimension == dimension && v.Value != nil {
			return v.Value
		}
	}
	return nil
}

// CompanyName returns the display name for a ticker, falling back to the
// ticker itself.
func CompanyName(data map[string]Company, ticker string) string {
	if company, ok := data[ticker]; ok && company.CompanyName != "" {
		return company.CompanyName
	}
	return ticker
}
