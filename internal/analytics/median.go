// Lucarne - Self-Hosted Web Analytics
// Copyright 2026 Bureau Double
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bureaudouble/lucarne

package analytics

import "sort"

// median returns the median of values: the middle element of the sorted
// sequence, or the mean of the two middle elements for even lengths. An
// empty input yields 0, which presentation treats the same as "no data".
//
// Durations use the median rather than the mean throughout so a single
// left-open tab cannot dominate the report.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
