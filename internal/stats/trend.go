package stats

import (
	"sort"
	"time"

	"github.com/Alias1177/Guessometer/models"
)

// ComputeTrend returns the running accuracy, average confidence and optionally
// Brier score over a user's resolved predictions, one point per calendar day in
// ascending order. When several predictions fall on the same day the point holds
// the running values after the last of them.
func ComputeTrend(predictions []models.Prediction, period models.Period, includeBrier bool, now time.Time) []models.TrendPoint {
	cutoff, windowed := period.Cutoff(now)

	resolved := make([]models.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if !models.ParseOutcome(string(p.Outcome)).Resolved() {
			continue
		}
		if windowed && p.CreatedAt.Before(cutoff) {
			continue
		}
		resolved = append(resolved, p)
	}

	// Oldest first; ties keep their storage order
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].CreatedAt.Before(resolved[j].CreatedAt)
	})

	var (
		count      int
		correct    int
		confidence int
		brierSum   float64
	)

	points := make([]models.TrendPoint, 0, len(resolved))
	for _, p := range resolved {
		isCorrect := models.ParseOutcome(string(p.Outcome)) == models.OutcomeCorrect

		count++
		if isCorrect {
			correct++
		}
		confidence += p.ConfidenceLevel

		point := models.TrendPoint{
			Date:       models.CalendarDate(p.CreatedAt),
			Accuracy:   float64(correct) / float64(count) * 100,
			Confidence: float64(confidence) / float64(count),
		}
		if includeBrier {
			brierSum += brierTerm(p.ConfidenceLevel, isCorrect)
			brier := brierSum / float64(count)
			point.BrierScore = &brier
		}

		// Sorted input means a repeated date can only be the last point
		if n := len(points); n > 0 && points[n-1].Date == point.Date {
			points[n-1] = point
			continue
		}
		points = append(points, point)
	}

	return points
}
