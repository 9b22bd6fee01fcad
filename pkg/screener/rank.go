// Package screener ranks companies by a quality + value composite of
// percentile ranks.
package screener

import "sort"

// Direction states which end of a metric's range is desirable.
type Direction string

const (
	HigherIsBetter Direction = "higher"
	LowerIsBetter  Direction = "lower"
)

// PercentileRanks assigns each ticker with a non-nil value a percentile in
// [0, 100]. The best value per direction lands at 100, the worst at 0; a
// single survivor gets 50. Map iteration order is random, so ties are
// pinned to ticker order before the value sort.
func PercentileRanks(values map[string]*float64, dir Direction) map[string]float64 {
	order := make([]string, 0, len(values))
	for ticker := range values {
		order = append(order, ticker)
	}
	sort.Strings(order)
	return rankOrdered(order, values, dir)
}

// rankOrdered is the ranking core. The sort is stable, so tied values keep
// their position in order and receive distinct ranks; this matches the
// historical screener behavior and is deliberately not a tie-averaged
// statistical percentile. Tickers with nil values are excluded; an empty or
// all-nil input yields an empty map.
func rankOrdered(order []string, values map[string]*float64, dir Direction) map[string]float64 {
	tickers := make([]string, 0, len(order))
	for _, ticker := range order {
		if values[ticker] != nil {
			tickers = append(tickers, ticker)
		}
	}
	if len(tickers) == 0 {
		return map[string]float64{}
	}

	sort.SliceStable(tickers, func(i, j int) bool {
		a, b := *values[tickers[i]], *values[tickers[j]]
		if dir == LowerIsBetter {
			return a > b
		}
		return a < b
	})

	n := len(tickers)
	ranks := make(map[string]float64, n)
	for i, ticker := range tickers {
		if n == 1 {
			ranks[ticker] = 50.0
			continue
		}
		ranks[ticker] = float64(i) / float64(n-1) * 100
	}
	return ranks
}
