// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package aggregate

// ratio.go - Consolidated zero-safe division policy
//
// Every cost and usage ratio in the rollup formulas shares one of two
// zero-denominator defaults:
//   - SafeDiv:      0 (nothing happened, so the quantity is zero)
//   - RatioPercent: 100 (the comparison is "on par" when the baseline is
//     empty, never undefined or infinite)
// Keeping both here makes the zero-case policy auditable in one place.

// SafeDiv returns num/den, or def when den is zero.
func SafeDiv(num, den, def float64) float64 {
	if den == 0 {
		return def
	}
	return num / den
}

// RatioPercent returns num/den*100, or def when den is not positive.
func RatioPercent(num, den, def float64) float64 {
	if den <= 0 {
		return def
	}
	return num / den * 100
}

// clampPercent bounds a percentage to [0, 100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
