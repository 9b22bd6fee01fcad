package screener

import (
	"fmt"
	"strings"

	"github.com/metric-duck/labs/pkg/format"
)

const displayWidth = 74

// Render lays out the ranked table with the weight banner, credit estimate
// and signal legend.
func Render(results []Result, cfg Config, totalScreened, top int, guest bool) string {
	cfg = cfg.withDefaults()
	shown := results
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	var b strings.Builder
	line := strings.Repeat("=", displayWidth)
	rule := strings.Repeat("-", displayWidth)

	b.WriteString("\n" + line + "\n")
	title := fmt.Sprintf("STOCK SCREENER: TOP %d OF %d STOCKS", len(shown), totalScreened)
	b.WriteString(center(title, displayWidth) + "\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "Quality weight: %.0f%% | Value weight: %.0f%%\n\n",
		cfg.QualityWeight*100, cfg.ValueWeight*100)

	fmt.Fprintf(&b, "%4s  %-6s %-20s %7s %7s %7s %6s %8s\n",
		"Rank", "Ticker", "Company", "ROIC", "FCF Yld", "PE", "Score", "")
	b.WriteString(rule + "\n")

	for i, r := range shown {
		name := r.CompanyName
		if len(name) > 20 {
			name = name[:20]
		}
		fmt.Fprintf(&b, "%4d  %-6s %-20s %7s %7s %7s %6.1f %8s\n",
			i+1, r.Ticker, name,
			format.Pct(r.Metrics["roic"]),
			format.Pct(r.Metrics["fcf_yield"]),
			format.Ratio(r.Metrics["pe_ratio"]),
			r.Composite, r.Signal)
	}
	b.WriteString(rule + "\n")

	metricCount := len(cfg.MetricIDs())
	credits := totalScreened * metricCount
	fmt.Fprintf(&b, "Screened %d stocks | %d metrics | ~%d credits\n\n",
		totalScreened, metricCount, credits)
	b.WriteString("  QUALITY = top 30% quality | VALUE = top 30% value\n")
	b.WriteString("  BALANCED = top 30% in both\n\n")
	b.WriteString("  70 metrics: https://www.metricduck.com/metrics\n")
	b.WriteString(line + "\n")

	if guest {
		b.WriteString("\nRegister free for full screening (50+ stocks):\n")
		b.WriteString("  https://www.metricduck.com/auth/register\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RenderDryRun prints the credit estimate without touching the API.
func RenderDryRun(tickerCount, metricCount int, guest bool) string {
	credits := tickerCount * metricCount

	var b strings.Builder
	b.WriteString("\nDry run — no API calls made.\n\n")
	fmt.Fprintf(&b, "Request: %d tickers x %d metrics x 1 year (TTM)\n", tickerCount, metricCount)
	fmt.Fprintf(&b, "Estimated cost: ~%d credits\n\n", credits)
	if guest {
		b.WriteString("  Guest (no key):     No credit cost (5 requests/day limit)\n")
	}
	fmt.Fprintf(&b, "  Free (registered):  %d of 500 daily credits\n", credits)
	b.WriteString("  Formula:            tickers x metrics x years\n\n")
	return b.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-pad-len(s))
}
