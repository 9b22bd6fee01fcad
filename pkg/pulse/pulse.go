// Package pulse checks a single stock against its own history: current
// readings vs 8-quarter medians, trend slopes, and a five-way diagnosis
// crossing the quality trend against the valuation trend.
package pulse

import (
	"fmt"
	"math"
)

// Trend classifies an 8-quarter regression slope.
type Trend string

const (
	TrendRising  Trend = "Rising"
	TrendFalling Trend = "Falling"
	TrendStable  Trend = "Stable"
	TrendUnknown Trend = "N/A"

	// slopeThreshold separates a real move from noise.
	slopeThreshold = 0.003
)

// ClassifyTrend maps a slope to a direction. A nil slope is unknown.
func ClassifyTrend(slope *float64) Trend {
	switch {
	case slope == nil:
		return TrendUnknown
	case *slope > slopeThreshold:
		return TrendRising
	case *slope < -slopeThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

// Diagnosis labels, from crossing the quality trend with the valuation trend.
const (
	DiagnosisOpportunity = "OPPORTUNITY"
	DiagnosisValueTrap   = "VALUE TRAP"
	DiagnosisEarningIt   = "EARNING IT"
	DiagnosisWatch       = "WATCH"
	DiagnosisStable      = "STABLE"
)

// Diagnosis is the synthesized verdict for one stock.
type Diagnosis struct {
	Label        string `json:"label"`
	QualityTrend Trend  `json:"quality_trend"`
	PriceTrend   Trend  `json:"valuation_trend"`
	Note         string `json:"note"`
}

// Diagnose crosses a quality-metric trend slope (e.g. ROIC) with a
// valuation-metric trend slope (e.g. PE). Missing data on either side
// forces STABLE with an explanatory note instead of a classification.
func Diagnose(qualitySlope, valuationSlope *float64) Diagnosis {
	qt := ClassifyTrend(qualitySlope)
	vt := ClassifyTrend(valuationSlope)

	if qt == TrendUnknown || vt == TrendUnknown {
		return Diagnosis{
			Label:        DiagnosisStable,
			QualityTrend: qt,
			PriceTrend:   vt,
			Note:         "insufficient trend data for a diagnosis",
		}
	}

	d := Diagnosis{QualityTrend: qt, PriceTrend: vt}
	switch {
	case qt == TrendRising && vt == TrendFalling:
		d.Label = DiagnosisOpportunity
		d.Note = "improving quality while the valuation compresses"
	case qt == TrendFalling && vt == TrendRising:
		d.Label = DiagnosisValueTrap
		d.Note = "declining quality while the valuation expands"
	case qt == TrendRising && vt == TrendRising:
		d.Label = DiagnosisEarningIt
		d.Note = "quality improving and the market is paying up for it"
	case qt == TrendFalling && vt == TrendFalling:
		d.Label = DiagnosisWatch
		d.Note = "quality and valuation both declining"
	default:
		d.Label = DiagnosisStable
		d.Note = "fundamentals and valuation near historical norms"
	}
	return d
}

// MedianSignal describes where a current reading sits against its
// 8-quarter median.
type MedianSignal string

const (
	AboveNorm MedianSignal = "above"
	BelowNorm MedianSignal = "below"
	NearNorm  MedianSignal = "near"
	NoSignal  MedianSignal = "n/a"

	// medianBandPct is the dead band, in percent of the median, inside
	// which a reading counts as normal.
	medianBandPct = 5.0
)

// VsMedian compares current to median. Returns the signal and the distance
// in percent of the median's magnitude.
func VsMedian(current, median *float64) (MedianSignal, float64) {
	if current == nil || median == nil || *median == 0 {
		return NoSignal, 0
	}
	pct := (*current - *median) / math.Abs(*median) * 100
	switch {
	case pct > medianBandPct:
		return AboveNorm, pct
	case pct < -medianBandPct:
		return BelowNorm, pct
	default:
		return NearNorm, pct
	}
}

// FormatMedianSignal renders a VsMedian result as the report glyph string.
func FormatMedianSignal(current, median *float64) string {
	signal, pct := VsMedian(current, median)
	switch signal {
	case AboveNorm:
		return fmt.Sprintf("^ %.0f%% above", math.Abs(pct))
	case BelowNorm:
		return fmt.Sprintf("v %.0f%% below", math.Abs(pct))
	case NearNorm:
		return "~ Near norm"
	default:
		return "N/A"
	}
}

// QualityStrength tiers a ROIC reading.
func QualityStrength(roic float64) string {
	switch {
	case roic > 0.20:
		return "strong"
	case roic > 0.10:
		return "adequate"
	default:
		return "weak"
	}
}
