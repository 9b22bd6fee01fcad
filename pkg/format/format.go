// Package format renders metric values for terminal reports.
//
// All formatters accept a nil pointer as "no data" and render it as "N/A".
// Percent metrics arrive as ratios from the API (0.042 means 4.2%).
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// NA is the placeholder for absent values.
const NA = "N/A"

// Pct formats a ratio as a percentage with one decimal place.
func Pct(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// Ratio formats a plain ratio with two decimal places. Values of 1000 or
// more are shown whole with thousands separators.
func Ratio(v *float64) string {
	if v == nil {
		return NA
	}
	if *v >= 1000 || *v <= -1000 {
		return group(fmt.Sprintf("%.0f", *v))
	}
	return fmt.Sprintf("%.2f", *v)
}

// Value formats a metric according to its unit type ("pct" or "ratio").
func Value(v *float64, unit string) string {
	if unit == "pct" {
		return Pct(v)
	}
	return Ratio(v)
}

// PctChange formats a change ratio with an explicit sign.
func PctChange(v *float64) string {
	if v == nil {
		return NA
	}
	sign := ""
	if *v > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, *v*100)
}

// Dollars formats a price with two decimals and a dollar sign.
func Dollars(v *float64) string {
	if v == nil {
		return NA
	}
	return "$" + group(fmt.Sprintf("%.2f", *v))
}

// ParsePct recovers the ratio from a string produced by Pct.
func ParsePct(s string) (float64, error) {
	trimmed := strings.TrimSuffix(s, "%")
	if trimmed == s {
		return 0, fmt.Errorf("parse pct %q: missing %% suffix", s)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse pct %q: %w", s, err)
	}
	return f / 100, nil
}

// ParseRatio recovers the value from a string produced by Ratio.
func ParseRatio(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ratio %q: %w", s, err)
	}
	return f, nil
}

// group inserts comma separators into the integer part of a formatted number.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
