package services

import (
	"delivery-times-service/internal/domain"
	"math"
	"slices"
)

const (
	HistogramBinMinutes = 15

	highConfidenceReports   = 20
	mediumConfidenceReports = 7
)

// ComputeMedian returns nil for no values. An even count averages the two
// middle values, rounded to the nearest minute.
func ComputeMedian(values []int) *int {
	if len(values) == 0 {
		return nil
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	m := sorted[mid]
	if len(sorted)%2 == 0 {
		m = int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	}
	return &m
}

// BuildHistogram counts values into 15-minute bins. Only non-empty bins are
// returned, ascending by start.
func BuildHistogram(values []int) []domain.HistogramBin {
	counts := make(map[int]int)
	for _, v := range values {
		start := (v / HistogramBinMinutes) * HistogramBinMinutes
		counts[start]++
	}

	bins := make([]domain.HistogramBin, 0, len(counts))
	for start, n := range counts {
		bins = append(bins, domain.HistogramBin{
			BinStart: start,
			BinEnd:   start + HistogramBinMinutes,
			Count:    n,
		})
	}
	slices.SortFunc(bins, func(a, b domain.HistogramBin) int { return a.BinStart - b.BinStart })

	return bins
}

func DetermineConfidence(count int) domain.Confidence {
	switch {
	case count >= highConfidenceReports:
		return domain.ConfidenceHigh
	case count >= mediumConfidenceReports:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// RenderStats builds the aggregate for one label from per-report minutes.
func RenderStats(label string, minutes []int) domain.AggregatedStats {
	stats := domain.AggregatedStats{
		Label:         label,
		Count:         len(minutes),
		MedianMinutes: ComputeMedian(minutes),
		Histogram:     BuildHistogram(minutes),
		Confidence:    DetermineConfidence(len(minutes)),
	}
	if len(minutes) > 0 {
		lo, hi := slices.Min(minutes), slices.Max(minutes)
		stats.MinMinutes = &lo
		stats.MaxMinutes = &hi
	}
	return stats
}
