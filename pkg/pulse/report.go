package pulse

import (
	"fmt"
	"strings"

	"github.com/metric-duck/labs/pkg/format"
	"github.com/metric-duck/labs/pkg/metricduck"
)

// Statistical dimensions the pulse report consumes.
const (
	DimMedian8 = "Q.MED8"
	DimTrend8  = "Q.TREND8"
	DimYoY     = "TTM.YOY"
	DimCAGR3   = "TTM.CAGR3"
)

// TableMetric names one metric row of a report section. Unit is "pct" or
// "ratio"; Dimension is set for growth rows read from a dimension instead
// of the current value.
type TableMetric struct {
	Name      string `koanf:"name"`
	ID        string `koanf:"id"`
	Unit      string `koanf:"unit"`
	Dimension string `koanf:"dimension"`
}

// Tables configures which metrics appear in each report section.
type Tables struct {
	VitalSigns []TableMetric `koanf:"vital_signs"`
	Valuation  []TableMetric `koanf:"valuation"`
	Growth     []TableMetric `koanf:"growth"`
	Leverage   []TableMetric `koanf:"leverage"`
}

// DefaultTables mirrors the stock pulse report layout.
func DefaultTables() Tables {
	return Tables{
		VitalSigns: []TableMetric{
			{Name: "ROIC", ID: "roic", Unit: "pct"},
			{Name: "Gross Margin", ID: "gross_margin", Unit: "pct"},
			{Name: "Oper Margin", ID: "oper_margin", Unit: "pct"},
			{Name: "FCF Margin", ID: "fcf_margin", Unit: "pct"},
		},
		Valuation: []TableMetric{
			{Name: "PE Ratio", ID: "pe_ratio", Unit: "ratio"},
			{Name: "EV/EBITDA", ID: "ev_ebitda", Unit: "ratio"},
		},
		Growth: []TableMetric{
			{Name: "Revenue YoY", ID: "revenues", Dimension: DimYoY},
			{Name: "Revenue 3yr CAGR", ID: "revenues", Dimension: DimCAGR3},
		},
		Leverage: []TableMetric{
			{Name: "Debt/Equity", ID: "debt_to_equity", Unit: "ratio"},
		},
	}
}

// MetricIDs returns the deduplicated ids across all sections.
func (t Tables) MetricIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, section := range [][]TableMetric{t.VitalSigns, t.Valuation, t.Growth, t.Leverage} {
		for _, m := range section {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Dimensions returns every dimension tag the report requests.
func (t Tables) Dimensions() []string {
	return []string{DimMedian8, DimTrend8, DimYoY, DimCAGR3}
}

// VitalRow is one current-vs-median line.
type VitalRow struct {
	Name    string   `json:"name"`
	Current *float64 `json:"current"`
	Median  *float64 `json:"median_8q"`
	Signal  string   `json:"signal"`
}

// ValuationRow is one current-plus-trend line.
type ValuationRow struct {
	Name    string   `json:"name"`
	Current *float64 `json:"current"`
	Trend   Trend    `json:"trend"`
}

// GrowthRow is one growth-dimension line.
type GrowthRow struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// Report is the full pulse for one stock.
type Report struct {
	Ticker      string         `json:"ticker"`
	CompanyName string         `json:"company_name"`
	VitalSigns  []VitalRow     `json:"vital_signs"`
	Valuation   []ValuationRow `json:"valuation"`
	Growth      []GrowthRow    `json:"growth"`
	Leverage    []GrowthRow    `json:"leverage"`
	Diagnosis   Diagnosis      `json:"diagnosis"`

	roicCurrent *float64
	roicMedian  *float64
	roicTrend   *float64
	peCurrent   *float64
	peTrend     *float64
	vitalUnits  []string
	valUnits    []string
}

// Build assembles the report from a metrics payload.
func Build(data map[string]metricduck.Company, ticker string, tables Tables) Report {
	r := Report{
		Ticker:      ticker,
		CompanyName: metricduck.CompanyName(data, ticker),
	}

	for _, m := range tables.VitalSigns {
		current := metricduck.Metric(data, ticker, m.ID)
		median := metricduck.Dimension(data, ticker, m.ID, DimMedian8)
		r.VitalSigns = append(r.VitalSigns, VitalRow{
			Name:    m.Name,
			Current: current,
			Median:  median,
			Signal:  FormatMedianSignal(current, median),
		})
		r.vitalUnits = append(r.vitalUnits, m.Unit)
	}

	for _, m := range tables.Valuation {
		r.Valuation = append(r.Valuation, ValuationRow{
			Name:    m.Name,
			Current: metricduck.Metric(data, ticker, m.ID),
			Trend:   ClassifyTrend(metricduck.Dimension(data, ticker, m.ID, DimTrend8)),
		})
		r.valUnits = append(r.valUnits, m.Unit)
	}

	for _, m := range tables.Growth {
		r.Growth = append(r.Growth, GrowthRow{
			Name:  m.Name,
			Value: metricduck.Dimension(data, ticker, m.ID, m.Dimension),
		})
	}

	for _, m := range tables.Leverage {
		r.Leverage = append(r.Leverage, GrowthRow{
			Name:  m.Name,
			Value: metricduck.Metric(data, ticker, m.ID),
		})
	}

	r.roicCurrent = metricduck.Metric(data, ticker, "roic")
	r.roicMedian = metricduck.Dimension(data, ticker, "roic", DimMedian8)
	r.roicTrend = metricduck.Dimension(data, ticker, "roic", DimTrend8)
	r.peCurrent = metricduck.Metric(data, ticker, "pe_ratio")
	r.peTrend = metricduck.Dimension(data, ticker, "pe_ratio", DimTrend8)
	r.Diagnosis = Diagnose(r.roicTrend, r.peTrend)
	return r
}

const reportWidth = 58

// Render formats the report for the terminal.
func (r Report) Render() string {
	var b strings.Builder
	line := strings.Repeat("-", reportWidth)
	double := strings.Repeat("=", reportWidth)

	fmt.Fprintf(&b, "\n%s\n", double)
	fmt.Fprintf(&b, "%s\n", center("STOCK PULSE: "+r.Ticker, reportWidth))
	fmt.Fprintf(&b, "%s\n", center(r.CompanyName, reportWidth))
	fmt.Fprintf(&b, "%s\n", double)

	fmt.Fprintf(&b, "\nVITAL SIGNS  (current vs 2-year median)\n%s\n", line)
	fmt.Fprintf(&b, "%-18s %10s %10s %16s\n", "", "Current", "2yr Med", "Signal")
	fmt.Fprintf(&b, "%s\n", line)
	for i, row := range r.VitalSigns {
		fmt.Fprintf(&b, "%-18s %10s %10s %16s\n",
			row.Name,
			format.Value(row.Current, r.vitalUnits[i]),
			format.Value(row.Median, r.vitalUnits[i]),
			row.Signal)
	}

	fmt.Fprintf(&b, "\nVALUATION  (current + 2-year trend)\n%s\n", line)
	fmt.Fprintf(&b, "%-18s %10s %10s %16s\n", "", "Current", "", "Trend")
	fmt.Fprintf(&b, "%s\n", line)
	for i, row := range r.Valuation {
		fmt.Fprintf(&b, "%-18s %10s %10s %16s\n",
			row.Name, format.Value(row.Current, r.valUnits[i]), "", string(row.Trend))
	}

	fmt.Fprintf(&b, "\nGROWTH\n%s\n", line)
	for _, row := range r.Growth {
		fmt.Fprintf(&b, "%-18s %21s %16s\n", row.Name, "", format.PctChange(row.Value))
	}

	fmt.Fprintf(&b, "\nLEVERAGE\n%s\n", line)
	for _, row := range r.Leverage {
		fmt.Fprintf(&b, "%-18s %21s %16s\n", row.Name, "", format.Ratio(row.Value))
	}

	fmt.Fprintf(&b, "\n%s\nDIAGNOSIS\n%s\n", double, line)
	r.renderDiagnosis(&b)
	fmt.Fprintf(&b, "%s\n", double)
	return b.String()
}

func (r Report) renderDiagnosis(b *strings.Builder) {
	if r.roicCurrent != nil {
		strength := QualityStrength(*r.roicCurrent)
		trendWord := strings.ToLower(string(ClassifyTrend(r.roicTrend)))
		signal, _ := VsMedian(r.roicCurrent, r.roicMedian)
		switch signal {
		case AboveNorm:
			fmt.Fprintf(b, "Quality is %s - ROIC %.1f%%, above its 2-year median, trend %s.\n",
				strength, *r.roicCurrent*100, trendWord)
		case BelowNorm:
			fmt.Fprintf(b, "Quality is %s - ROIC %.1f%%, below its 2-year median, trend %s.\n",
				strength, *r.roicCurrent*100, trendWord)
		case NearNorm:
			fmt.Fprintf(b, "Quality is %s - ROIC %.1f%%, near its 2-year median, trend %s.\n",
				strength, *r.roicCurrent*100, trendWord)
		default:
			fmt.Fprintf(b, "Quality is %s - ROIC %.1f%%, trend %s.\n",
				strength, *r.roicCurrent*100, trendWord)
		}
	} else {
		fmt.Fprintln(b, "ROIC not available (financial or recently listed).")
	}

	fmt.Fprintln(b)
	if r.peTrend != nil && r.peCurrent != nil {
		switch ClassifyTrend(r.peTrend) {
		case TrendRising:
			fmt.Fprintf(b, "Valuation trend: PE %.1f and rising -\nmarket is paying more per dollar of earnings.\n", *r.peCurrent)
		case TrendFalling:
			fmt.Fprintf(b, "Valuation trend: PE %.1f and falling -\nvaluation is compressing (could be opportunity).\n", *r.peCurrent)
		default:
			fmt.Fprintf(b, "Valuation trend: PE %.1f, stable.\n", *r.peCurrent)
		}
	} else {
		fmt.Fprintln(b, "PE trend data not available.")
	}

	fmt.Fprintf(b, "\n%s: %s.\n", r.Diagnosis.Label, r.Diagnosis.Note)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s
}
