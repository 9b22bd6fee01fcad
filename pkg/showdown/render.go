package showdown

import (
	"fmt"
	"strings"

	"github.com/metric-duck/labs/pkg/format"
)

const displayWidth = 70

// exclusiveMarker flags metrics unavailable from free data sources.
const exclusiveMarker = " *"

// Render formats the comparison for the terminal.
func (r Result) Render() string {
	var b strings.Builder
	line := strings.Repeat("-", displayWidth)
	double := strings.Repeat("=", displayWidth)

	fmt.Fprintf(&b, "\n%s\n", double)
	fmt.Fprintf(&b, "%s\n", center("STOCK SHOWDOWN: "+r.TickerA+" vs "+r.TickerB, displayWidth))
	fmt.Fprintf(&b, "%s\n", double)

	fmt.Fprintf(&b, "\nCOMPANY INFO\n%s\n", line)
	fmt.Fprintf(&b, "%-22s %22s %22s\n", "", r.TickerA, r.TickerB)
	fmt.Fprintf(&b, "%-22s %22s %22s\n", "Name", truncate(r.NameA, 22), truncate(r.NameB, 22))

	r.renderPanel(&b, "PANEL 1: VALUATION", "Who's cheaper today?", "Better Value", r.Valuation)
	r.renderPanel(&b, "PANEL 2: QUALITY", "Who's the better business?", "Better Quality", r.Quality)

	r.renderVerdict(&b)
	return b.String()
}

func (r Result) renderPanel(b *strings.Builder, title, subtitle, winnerLabel string, panel PanelResult) {
	line := strings.Repeat("-", displayWidth)

	fmt.Fprintf(b, "\n%s  (%s)\n%s\n", title, subtitle, line)
	fmt.Fprintf(b, "%-22s %14s %14s %16s\n", "", r.TickerA, r.TickerB, winnerLabel)
	fmt.Fprintf(b, "%s\n", line)

	for _, row := range panel.Rows {
		name := row.Metric.Name
		if row.Metric.Exclusive {
			name += exclusiveMarker
		}

		var winner string
		switch row.Winner {
		case WinnerA:
			winner = "<- " + r.TickerA
		case WinnerB:
			winner = r.TickerB + " ->"
		default:
			winner = "Tie"
		}

		fmt.Fprintf(b, "%-22s %14s %14s %14s\n",
			name,
			format.Value(row.ValueA, row.Metric.Unit),
			format.Value(row.ValueB, row.Metric.Unit),
			winner)
	}

	word := title
	if _, after, found := strings.Cut(title, ":"); found {
		word = strings.Fields(strings.TrimSpace(after))[0]
	}
	switch {
	case panel.AWins > panel.BWins:
		fmt.Fprintf(b, "%52s%s: %s %d-%d\n", "", word, r.TickerA, panel.AWins, panel.BWins)
	case panel.BWins > panel.AWins:
		fmt.Fprintf(b, "%52s%s: %s %d-%d\n", "", word, r.TickerB, panel.BWins, panel.AWins)
	default:
		fmt.Fprintf(b, "%52s%s: Tied %d-%d\n", "", word, panel.AWins, panel.BWins)
	}
}

func (r Result) renderVerdict(b *strings.Builder) {
	line := strings.Repeat("-", displayWidth)
	double := strings.Repeat("=", displayWidth)

	fmt.Fprintf(b, "\n%s\nVERDICT\n%s\n", double, line)

	val, qual := r.Valuation, r.Quality
	switch {
	case val.AWins > val.BWins:
		fmt.Fprintf(b, "Valuation: %s is %s cheaper (%d of %d metrics)\n",
			r.TickerA, strength(val.AWins, val.Scored), val.AWins, val.Scored)
	case val.BWins > val.AWins:
		fmt.Fprintf(b, "Valuation: %s is %s cheaper (%d of %d metrics)\n",
			r.TickerB, strength(val.BWins, val.Scored), val.BWins, val.Scored)
	default:
		fmt.Fprintf(b, "Valuation: Tied (%d-%d)\n", val.AWins, val.BWins)
	}

	roicNote := r.roicNote()
	switch {
	case qual.AWins > qual.BWins:
		fmt.Fprintf(b, "Quality:   %s is stronger (%d of %d metrics)%s\n", r.TickerA, qual.AWins, qual.Scored, roicNote)
	case qual.BWins > qual.AWins:
		fmt.Fprintf(b, "Quality:   %s is stronger (%d of %d metrics)%s\n", r.TickerB, qual.BWins, qual.Scored, roicNote)
	default:
		fmt.Fprintf(b, "Quality:   Tied (%d-%d)%s\n", qual.AWins, qual.BWins, roicNote)
	}

	fmt.Fprintln(b)
	valWinner := winnerOrEmpty(r.Verdict.ValuationWinner)
	qualWinner := winnerOrEmpty(r.Verdict.QualityWinner)
	switch {
	case valWinner != "" && valWinner == qualWinner:
		fmt.Fprintf(b, "%s wins on BOTH valuation and quality.\n", valWinner)
	case valWinner != "" && qualWinner != "":
		fmt.Fprintf(b, "%s has higher quality, %s is cheaper.\n", qualWinner, valWinner)
		fmt.Fprintln(b, "Classic value-vs-quality tradeoff.")
	case valWinner != "":
		fmt.Fprintf(b, "%s is cheaper; quality is evenly matched.\n", valWinner)
	case qualWinner != "":
		fmt.Fprintf(b, "%s is the better business; valuations are similar.\n", qualWinner)
	default:
		fmt.Fprintln(b, "Both stocks are evenly matched on valuation and quality.")
	}

	fmt.Fprintf(b, "\n%s\n* = not available from free data sources\n%s\n", line, double)
}

func (r Result) roicNote() string {
	switch {
	case r.roicA != nil && r.roicB != nil:
		return fmt.Sprintf(" -- ROIC %s vs %s", format.Pct(r.roicA), format.Pct(r.roicB))
	case r.roicA != nil:
		return fmt.Sprintf(" -- ROIC %s vs N/A", format.Pct(r.roicA))
	case r.roicB != nil:
		return fmt.Sprintf(" -- ROIC N/A vs %s", format.Pct(r.roicB))
	}
	return ""
}

func strength(wins, scored int) string {
	if wins >= scored-1 {
		return "clearly"
	}
	return "marginally"
}

func winnerOrEmpty(w string) string {
	if w == "tie" {
		return ""
	}
	return w
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s
}
