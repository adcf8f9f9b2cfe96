package stats

import (
	"sort"

	"github.com/Alias1177/Guessometer/models"
)

// RankLeaderboard drops users without predictions and orders the rest by
// accuracy, then by number of predictions. Ranks are 1-based.
func RankLeaderboard(rows []models.LeaderboardRow) []models.LeaderboardRow {
	ranked := make([]models.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		if row.Stats.TotalPredictions > 0 {
			ranked = append(ranked, row)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Stats, ranked[j].Stats
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.TotalPredictions > b.TotalPredictions
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
