package screener

import (
	"math"
	"sort"
)

// Metric names one screening input and its preferred direction.
type Metric struct {
	Name      string    `koanf:"name"`
	ID        string    `koanf:"id"`
	Direction Direction `koanf:"direction"`
}

// Config holds the screening tables and weights. Zero weights fall back to
// the standard 60/40 quality/value split.
type Config struct {
	Quality       []Metric `koanf:"quality"`
	Value         []Metric `koanf:"value"`
	QualityWeight float64  `koanf:"quality_weight"`
	ValueWeight   float64  `koanf:"value_weight"`
	// SignalFloor is the category average at or above which a signal label
	// is assigned. Defaults to 70 (top 30%).
	SignalFloor float64 `koanf:"signal_floor"`
}

// DefaultConfig is the standard quality/value screen.
func DefaultConfig() Config {
	return Config{
		Quality: []Metric{
			{Name: "ROIC", ID: "roic", Direction: HigherIsBetter},
			{Name: "FCF Margin", ID: "fcf_margin", Direction: HigherIsBetter},
		},
		Value: []Metric{
			{Name: "PE Ratio", ID: "pe_ratio", Direction: LowerIsBetter},
			{Name: "FCF Yield", ID: "fcf_yield", Direction: HigherIsBetter},
			{Name: "EV/EBITDA", ID: "ev_ebitda", Direction: LowerIsBetter},
		},
		QualityWeight: 0.6,
		ValueWeight:   0.4,
		SignalFloor:   70,
	}
}

func (c Config) withDefaults() Config {
	if c.QualityWeight == 0 && c.ValueWeight == 0 {
		c.QualityWeight, c.ValueWeight = 0.6, 0.4
	}
	if c.SignalFloor == 0 {
		c.SignalFloor = 70
	}
	return c
}

// MetricIDs returns the deduplicated ids across both categories, quality
// first, preserving table order.
func (c Config) MetricIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(c.Quality)+len(c.Value))
	for _, m := range append(append([]Metric{}, c.Quality...), c.Value...) {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	return ids
}

// Candidate is one company entering the screen. Values maps metric id to
// the current reading; nil means the metric is unavailable for the company.
type Candidate struct {
	Ticker      string
	CompanyName string
	Values      map[string]*float64
}

// Result is a scored company.
type Result struct {
	Ticker      string              `json:"ticker"`
	CompanyName string              `json:"company_name"`
	Metrics     map[string]*float64 `json:"metrics"`
	QualityAvg  float64             `json:"quality_score"`
	ValueAvg    float64             `json:"value_score"`
	Composite   float64             `json:"composite_score"`
	Signal      string              `json:"signal,omitempty"`
}

// Signal labels.
const (
	SignalBalanced = "BALANCED"
	SignalQuality  = "QUALITY"
	SignalValue    = "VALUE"
)

// Score percentile-ranks every metric across the candidates, averages the
// ranks per category, and combines them into a weighted composite. A
// company missing a metric is excluded from that metric's ranking rather
// than scored as zero; a company with no data in either category is dropped
// entirely. Results are ordered by composite descending, ties stable.
func Score(cfg Config, candidates []Candidate) []Result {
	cfg = cfg.withDefaults()

	qualityRanks := rankCategory(cfg.Quality, candidates)
	valueRanks := rankCategory(cfg.Value, candidates)

	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		qAvg, qOK := categoryAverage(cfg.Quality, qualityRanks, cand.Ticker)
		vAvg, vOK := categoryAverage(cfg.Value, valueRanks, cand.Ticker)
		if !qOK && !vOK {
			continue
		}

		var composite float64
		switch {
		case !qOK:
			composite = vAvg
		case !vOK:
			composite = qAvg
		default:
			composite = cfg.QualityWeight*qAvg + cfg.ValueWeight*vAvg
		}

		var signal string
		switch {
		case qAvg >= cfg.SignalFloor && vAvg >= cfg.SignalFloor:
			signal = SignalBalanced
		case qAvg >= cfg.SignalFloor:
			signal = SignalQuality
		case vAvg >= cfg.SignalFloor:
			signal = SignalValue
		}

		results = append(results, Result{
			Ticker:      cand.Ticker,
			CompanyName: cand.CompanyName,
			Metrics:     cand.Values,
			QualityAvg:  round1(qAvg),
			ValueAvg:    round1(vAvg),
			Composite:   round1(composite),
			Signal:      signal,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Composite > results[j].Composite
	})
	return results
}

// rankCategory computes per-metric percentile ranks for every metric in the
// table.
func rankCategory(metrics []Metric, candidates []Candidate) map[string]map[string]float64 {
	order := make([]string, 0, len(candidates))
	values := make(map[string]*float64, len(candidates))

	ranks := make(map[string]map[string]float64, len(metrics))
	for _, m := range metrics {
		order = order[:0]
		clear(values)
		for _, cand := range candidates {
			order = append(order, cand.Ticker)
			values[cand.Ticker] = cand.Values[m.ID]
		}
		ranks[m.ID] = rankOrdered(order, values, m.Direction)
	}
	return ranks
}

// categoryAverage averages the ticker's ranks over the metrics it has data
// for. ok is false when the ticker had no data in the whole category.
func categoryAverage(metrics []Metric, ranks map[string]map[string]float64, ticker string) (avg float64, ok bool) {
	var sum float64
	var count int
	for _, m := range metrics {
		if rank, found := ranks[m.ID][ticker]; found {
			sum += rank
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
