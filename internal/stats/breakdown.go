package stats

import (
	"sort"

	mstats "github.com/montanaflynn/stats"

	"github.com/Alias1177/Guessometer/models"
)

type group struct {
	correct int
	terms   []float64
}

func (g *group) add(p models.Prediction, correct bool) {
	if correct {
		g.correct++
	}
	g.terms = append(g.terms, brierTerm(p.ConfidenceLevel, correct))
}

func (g *group) stats(key string) models.GroupStats {
	out := models.GroupStats{Key: key, Resolved: len(g.terms), Correct: g.correct}
	if out.Resolved > 0 {
		out.Accuracy = round(float64(g.correct)/float64(out.Resolved)*100, accuracyPlaces)
	}
	if brier, err := mstats.Mean(g.terms); err == nil {
		out.BrierScore = round(brier, brierPlaces)
	}
	return out
}

// ComputeBreakdown groups a user's resolved public predictions by category and
// by creation month (UTC), and measures correct streaks in creation order.
func ComputeBreakdown(userID string, predictions []models.Prediction) models.Breakdown {
	resolved := make([]models.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.IsPublic && models.ParseOutcome(string(p.Outcome)).Resolved() {
			resolved = append(resolved, p)
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].CreatedAt.Before(resolved[j].CreatedAt)
	})

	categories := make(map[string]*group)
	months := make(map[string]*group)
	result := models.Breakdown{
		UserID:     userID,
		Categories: []models.GroupStats{},
		Months:     []models.GroupStats{},
	}

	run := 0
	for _, p := range resolved {
		correct := models.ParseOutcome(string(p.Outcome)) == models.OutcomeCorrect

		groupFor(categories, p.Category).add(p, correct)
		groupFor(months, p.CreatedAt.UTC().Format("2006-01")).add(p, correct)

		switch {
		case correct && run >= 0:
			run++
		case correct:
			run = 1
		case run <= 0:
			run--
		default:
			run = -1
		}
		if run > result.LongestStreak {
			result.LongestStreak = run
		}
	}
	result.CurrentStreak = run

	for _, key := range sortedKeys(categories) {
		result.Categories = append(result.Categories, categories[key].stats(key))
	}
	for _, key := range sortedKeys(months) {
		result.Months = append(result.Months, months[key].stats(key))
	}
	return result
}

func groupFor(groups map[string]*group, key string) *group {
	g, ok := groups[key]
	if !ok {
		g = &group{}
		groups[key] = g
	}
	return g
}

func sortedKeys(groups map[string]*group) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
