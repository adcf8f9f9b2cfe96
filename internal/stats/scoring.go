package stats

import (
	"time"

	mstats "github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/Alias1177/Guessometer/models"
)

const (
	accuracyPlaces = 2
	brierPlaces    = 4
)

// ComputeStats builds the aggregate for one user from their predictions.
// Only public predictions count. Accuracy and Brier score cover resolved
// predictions only and are 0 when nothing is resolved.
func ComputeStats(userID string, predictions []models.Prediction, now time.Time) models.UserStats {
	result := models.UserStats{
		UserID:         userID,
		LastCalculated: now,
	}

	var brierTerms []float64
	for _, p := range predictions {
		if !p.IsPublic {
			continue
		}
		result.TotalPredictions++

		switch models.ParseOutcome(string(p.Outcome)) {
		case models.OutcomeCorrect:
			result.CorrectPredictions++
			brierTerms = append(brierTerms, brierTerm(p.ConfidenceLevel, true))
		case models.OutcomeIncorrect:
			result.IncorrectPredictions++
			brierTerms = append(brierTerms, brierTerm(p.ConfidenceLevel, false))
		default:
			result.PendingPredictions++
		}
	}

	resolved := result.CorrectPredictions + result.IncorrectPredictions
	if resolved > 0 {
		accuracy := float64(result.CorrectPredictions) / float64(resolved) * 100
		result.Accuracy = round(accuracy, accuracyPlaces)
	}

	// Mean only errors on empty input, which leaves the score at 0
	if brier, err := mstats.Mean(brierTerms); err == nil {
		result.BrierScore = round(brier, brierPlaces)
	}

	return result
}

// brierTerm is the squared error between the stated probability and the outcome
func brierTerm(confidence int, correct bool) float64 {
	forecast := probability(confidence)
	actual := 0.0
	if correct {
		actual = 1
	}
	diff := forecast - actual
	return diff * diff
}

// probability converts a confidence percent to [0, 1]
func probability(confidence int) float64 {
	switch {
	case confidence < 0:
		return 0
	case confidence > 100:
		return 1
	default:
		return float64(confidence) / 100
	}
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
