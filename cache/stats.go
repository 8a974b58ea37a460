package cache

import (
	"math"

	"drip-rating-server/models"
)

// CalculateUserStats recomputes summary statistics from the full rating
// list. There is no incremental path: every list mutation triggers a fresh
// pass, so the numbers can never drift from the visible records.
//
// An empty list yields zero counts, zero means and an empty frequency map.
func CalculateUserStats(ratings []models.OutfitRating) models.UserStats {
	stats := models.UserStats{StyleFrequency: make(map[string]int)}
	if len(ratings) == 0 {
		return stats
	}

	var totalStyle, totalColor float64
	for _, r := range ratings {
		stats.StyleFrequency[r.OutfitVibe]++
		totalStyle += r.LookScore
		totalColor += r.ColorScore
	}

	n := float64(len(ratings))
	stats.TotalRatings = len(ratings)
	stats.AverageStyleScore = roundOneDecimal(totalStyle / n)
	stats.AverageColorScore = roundOneDecimal(totalColor / n)
	return stats
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
