// Package showdown compares two stocks head-to-head across a valuation
// panel and a quality panel, then synthesizes a verdict.
package showdown

import (
	"github.com/metric-duck/labs/pkg/metricduck"
)

// Prefer states which value wins a metric comparison.
type Prefer string

const (
	PreferLower  Prefer = "lower"
	PreferHigher Prefer = "higher"
)

// Winner of a single metric comparison.
type Winner string

const (
	WinnerA   Winner = "A"
	WinnerB   Winner = "B"
	WinnerTie Winner = "tie"
)

// Metric is one comparison row. Exclusive marks metrics not available from
// free data sources.
type Metric struct {
	Name      string `koanf:"name"`
	ID        string `koanf:"id"`
	Prefer    Prefer `koanf:"prefer"`
	Unit      string `koanf:"unit"`
	Exclusive bool   `koanf:"exclusive"`
}

// Panels holds the two comparison tables.
type Panels struct {
	Valuation []Metric `koanf:"valuation"`
	Quality   []Metric `koanf:"quality"`
}

// DefaultPanels mirrors the standard showdown layout.
func DefaultPanels() Panels {
	return Panels{
		Valuation: []Metric{
			{Name: "PE Ratio", ID: "pe_ratio", Prefer: PreferLower, Unit: "ratio"},
			{Name: "EV/EBITDA", ID: "ev_ebitda", Prefer: PreferLower, Unit: "ratio"},
			{Name: "EV/EBIT", ID: "ev_ebit", Prefer: PreferLower, Unit: "ratio", Exclusive: true},
			{Name: "FCF Yield", ID: "fcf_yield", Prefer: PreferHigher, Unit: "pct", Exclusive: true},
		},
		Quality: []Metric{
			{Name: "ROIC", ID: "roic", Prefer: PreferHigher, Unit: "pct", Exclusive: true},
			{Name: "FCF Margin", ID: "fcf_margin", Prefer: PreferHigher, Unit: "pct", Exclusive: true},
			{Name: "Shareholder Yield", ID: "total_shareholder_yield", Prefer: PreferHigher, Unit: "pct", Exclusive: true},
		},
	}
}

// MetricIDs returns the deduplicated ids across both panels.
func (p Panels) MetricIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range append(append([]Metric{}, p.Valuation...), p.Quality...) {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	return ids
}

// Compare decides a single metric. An absent value loses to a present one;
// two absent values tie.
func Compare(a, b *float64, prefer Prefer) Winner {
	switch {
	case a == nil && b == nil:
		return WinnerTie
	case a == nil:
		return WinnerB
	case b == nil:
		return WinnerA
	}

	if prefer == PreferLower {
		switch {
		case *a < *b:
			return WinnerA
		case *b < *a:
			return WinnerB
		}
		return WinnerTie
	}
	switch {
	case *a > *b:
		return WinnerA
	case *b > *a:
		return WinnerB
	}
	return WinnerTie
}

// Row is one decided comparison line.
type Row struct {
	Metric Metric   `json:"metric"`
	ValueA *float64 `json:"value_a"`
	ValueB *float64 `json:"value_b"`
	Winner Winner   `json:"winner"`
}

// PanelResult tallies one panel.
type PanelResult struct {
	Rows  []Row `json:"rows"`
	AWins int   `json:"a_wins"`
	BWins int   `json:"b_wins"`
	// Scored counts rows where at least one side had data.
	Scored int `json:"scored"`
}

// Result is a full two-stock comparison.
type Result struct {
	TickerA   string      `json:"ticker_a"`
	TickerB   string      `json:"ticker_b"`
	NameA     string      `json:"name_a"`
	NameB     string      `json:"name_b"`
	Valuation PanelResult `json:"valuation"`
	Quality   PanelResult `json:"quality"`
	Verdict   Verdict     `json:"verdict"`

	roicA *float64
	roicB *float64
}

// Verdict summarizes both panels.
type Verdict struct {
	// ValuationWinner and QualityWinner are tickers, or "tie".
	ValuationWinner string `json:"valuation_winner"`
	QualityWinner   string `json:"quality_winner"`
	// Clear is true when the winner took all but at most one scored metric.
	ValuationClear bool `json:"valuation_clear"`
}

// Run compares two tickers over the configured panels.
func Run(data map[string]metricduck.Company, tickerA, tickerB string, panels Panels) Result {
	res := Result{
		TickerA: tickerA,
		TickerB: tickerB,
		NameA:   metricduck.CompanyName(data, tickerA),
		NameB:   metricduck.CompanyName(data, tickerB),
		roicA:   metricduck.Metric(data, tickerA, "roic"),
		roicB:   metricduck.Metric(data, tickerB, "roic"),
	}
	res.Valuation = runPanel(data, tickerA, tickerB, panels.Valuation)
	res.Quality = runPanel(data, tickerA, tickerB, panels.Quality)

	res.Verdict = Verdict{
		ValuationWinner: panelWinner(res.Valuation, tickerA, tickerB),
		QualityWinner:   panelWinner(res.Quality, tickerA, tickerB),
	}
	lead := res.Valuation.AWins
	if res.Valuation.BWins > lead {
		lead = res.Valuation.BWins
	}
	res.Verdict.ValuationClear = res.Valuation.Scored > 0 && lead >= res.Valuation.Scored-1
	return res
}

func runPanel(data map[string]metricduck.Company, tickerA, tickerB string, metrics []Metric) PanelResult {
	var panel PanelResult
	for _, m := range metrics {
		a := metricduck.Metric(data, tickerA, m.ID)
		b := metricduck.Metric(data, tickerB, m.ID)
		winner := Compare(a, b, m.Prefer)

		switch winner {
		case WinnerA:
			panel.AWins++
			panel.Scored++
		case WinnerB:
			panel.BWins++
			panel.Scored++
		default:
			if a != nil || b != nil {
				panel.Scored++
			}
		}
		panel.Rows = append(panel.Rows, Row{Metric: m, ValueA: a, ValueB: b, Winner: winner})
	}
	return panel
}

func panelWinner(panel PanelResult, tickerA, tickerB string) string {
	switch {
	case panel.AWins > panel.BWins:
		return tickerA
	case panel.BWins > panel.AWins:
		return tickerB
	default:
		return "tie"
	}
}
