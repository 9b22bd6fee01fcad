// Package alert evaluates a watchlist against a PE-ratio threshold.
package alert

import (
	"fmt"
	"strings"

	"github.com/metric-duck/labs/pkg/format"
)

// Entry is one triggered alert.
type Entry struct {
	Ticker  string  `json:"ticker"`
	PERatio float64 `json:"pe_ratio"`
}

// Row is one watchlist line of the report, triggered or not.
type Row struct {
	Ticker    string   `json:"ticker"`
	PERatio   *float64 `json:"pe_ratio"`
	Triggered bool     `json:"triggered"`
}

// Report is a full watchlist check.
type Report struct {
	Threshold float64 `json:"threshold"`
	Rows      []Row   `json:"rows"`
	Alerts    []Entry `json:"alerts"`
}

// Check evaluates each watchlist ticker against the threshold. A PE
// strictly below the threshold triggers; a missing PE never does and is
// carried through as an N/A row. Rows keep watchlist order.
func Check(watchlist []string, peRatios map[string]*float64, threshold float64) Report {
	report := Report{Threshold: threshold}
	for _, ticker := range watchlist {
		pe := peRatios[ticker]
		row := Row{Ticker: ticker, PERatio: pe}
		if pe != nil && *pe < threshold {
			row.Triggered = true
			report.Alerts = append(report.Alerts, Entry{Ticker: ticker, PERatio: *pe})
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

// Render formats the report for the terminal.
func (r Report) Render() string {
	var b strings.Builder
	line := strings.Repeat("-", 50)

	fmt.Fprintf(&b, "%s\n", line)
	for _, row := range r.Rows {
		switch {
		case row.PERatio == nil:
			fmt.Fprintf(&b, "%s: No PE data available\n", row.Ticker)
		case row.Triggered:
			fmt.Fprintf(&b, "%s: PE = %s ** ALERT! Below threshold **\n", row.Ticker, format.Ratio(row.PERatio))
		default:
			fmt.Fprintf(&b, "%s: PE = %s\n", row.Ticker, format.Ratio(row.PERatio))
		}
	}
	fmt.Fprintf(&b, "%s\n", line)

	if len(r.Alerts) == 0 {
		fmt.Fprintf(&b, "\nNo alerts triggered. All PE ratios above threshold.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\n%d ALERT(S) TRIGGERED:\n", len(r.Alerts))
	for _, a := range r.Alerts {
		pe := a.PERatio
		fmt.Fprintf(&b, "  - %s: PE = %s\n", a.Ticker, format.Ratio(&pe))
	}
	return b.String()
}
