package model

import (
	"math"
	"sort"
)

// AggregatedStats is the total number of bytes per language across repositories
type AggregatedStats map[string]int

type LanguageShare struct {
	Language   string  `json:"language"`
	Percentage float64 `json:"percentage"`
}

// PercentageStats is ordered by descending percentage
type PercentageStats []LanguageShare

// PercentagePolicy controls how shares are rounded and which ones are kept
// MinPercent is compared against the unrounded share
type PercentagePolicy struct {
	Decimals   int
	MinPercent float64
}

var (
	// WidgetPolicy is used by the stats endpoint: whole percent, nothing dropped
	WidgetPolicy = PercentagePolicy{Decimals: 0, MinPercent: 0}

	// BadgePolicy is the default badge policy: one decimal, shares below 1% dropped
	BadgePolicy = PercentagePolicy{Decimals: 1, MinPercent: 1}
)

// FallbackLanguages is served whenever live data is unavailable or empty
var FallbackLanguages = PercentageStats{
	{Language: "PHP", Percentage: 35},
	{Language: "TypeScript", Percentage: 20},
	{Language: "JavaScript", Percentage: 15},
	{Language: "Java", Percentage: 10},
	{Language: "C++", Percentage: 8},
	{Language: "Kotlin", Percentage: 5},
	{Language: "HTML", Percentage: 4},
	{Language: "CSS", Percentage: 3},
}

// Fallback returns a copy of the static dataset so callers can't alter the original
func Fallback() PercentageStats {
	stats := make(PercentageStats, len(FallbackLanguages))
	copy(stats, FallbackLanguages)
	return stats
}

// Merge sums byte counts per language over all maps
func Merge(maps ...LanguageByteMap) AggregatedStats {
	aggregated := make(AggregatedStats)

	for _, languages := range maps {
		for language, bytes := range languages {
			aggregated[language] += bytes
		}
	}

	return aggregated
}

func (s AggregatedStats) Total() int {
	total := 0
	for _, bytes := range s {
		total += bytes
	}

	return total
}

// Percentages converts byte counts to shares of the total
// returns nil when there is no usable data (empty or zero total)
func (s AggregatedStats) Percentages(policy PercentagePolicy) PercentageStats {
	total := s.Total()
	if total <= 0 {
		return nil
	}

	stats := make(PercentageStats, 0, len(s))

	for language, bytes := range s {
		share := float64(bytes) / float64(total) * 100
		if share < policy.MinPercent {
			continue
		}

		stats = append(stats, LanguageShare{
			Language:   language,
			Percentage: roundTo(share, policy.Decimals),
		})
	}

	stats.Sort()
	return stats
}

// Sort orders by descending percentage, ties by language name
func (s PercentageStats) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Percentage != s[j].Percentage {
			return s[i].Percentage > s[j].Percentage
		}

		return s[i].Language < s[j].Language
	})
}

// Top returns at most n entries, all of them when n <= 0
func (s PercentageStats) Top(n int) PercentageStats {
	if n <= 0 || n >= len(s) {
		return s
	}

	return s[:n]
}

func (s PercentageStats) Languages() []string {
	names := make([]string, 0, len(s))
	for _, share := range s {
		names = append(names, share.Language)
	}

	return names
}

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
