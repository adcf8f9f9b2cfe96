package stats

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Alias1177/Guessometer/models"
)

func createdAt(confidence int, outcome models.Outcome, at time.Time) models.Prediction {
	return models.Prediction{
		ConfidenceLevel: confidence,
		Outcome:         outcome,
		IsPublic:        true,
		CreatedAt:       at,
	}
}

func ptr(v float64) *float64 { return &v }

func trendFixture() []models.Prediction {
	return []models.Prediction{
		createdAt(90, models.OutcomeCorrect, time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)),
		createdAt(60, models.OutcomeIncorrect, time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC)),
		createdAt(50, models.OutcomePending, time.Date(2026, 10, 6, 10, 0, 0, 0, time.UTC)),
		createdAt(80, models.OutcomeCorrect, time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)),
		createdAt(70, models.OutcomeCorrect, time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)),
	}
}

func TestComputeTrend(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)

	tests := []struct {
		name         string
		preds        []models.Prediction
		period       models.Period
		includeBrier bool
		expected     []models.TrendPoint
	}{
		{
			name:     "No predictions",
			period:   models.PeriodAll,
			expected: []models.TrendPoint{},
		},
		{
			name: "Only pending",
			preds: []models.Prediction{
				createdAt(50, models.OutcomePending, fixedNow),
			},
			period:   models.PeriodAll,
			expected: []models.TrendPoint{},
		},
		{
			name:         "All time with brier",
			preds:        trendFixture(),
			period:       models.PeriodAll,
			includeBrier: true,
			expected: []models.TrendPoint{
				{Date: "2026-08-10", Accuracy: 100, Confidence: 70, BrierScore: ptr(0.09)},
				{Date: "2026-10-01", Accuracy: 200.0 / 3, Confidence: 70, BrierScore: ptr(0.49 / 3)},
				{Date: "2026-10-05", Accuracy: 75, Confidence: 75, BrierScore: ptr(0.125)},
			},
		},
		{
			name:   "One month window drops older predictions",
			preds:  trendFixture(),
			period: models.PeriodOneMonth,
			expected: []models.TrendPoint{
				{Date: "2026-10-01", Accuracy: 50, Confidence: 70},
				{Date: "2026-10-05", Accuracy: 200.0 / 3, Confidence: 230.0 / 3},
			},
		},
		{
			name:   "Six month window keeps August",
			preds:  trendFixture(),
			period: models.PeriodSixMonths,
			expected: []models.TrendPoint{
				{Date: "2026-08-10", Accuracy: 100, Confidence: 70},
				{Date: "2026-10-01", Accuracy: 200.0 / 3, Confidence: 70},
				{Date: "2026-10-05", Accuracy: 75, Confidence: 75},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeTrend(tt.preds, tt.period, tt.includeBrier, fixedNow)
			if diff := cmp.Diff(tt.expected, result, approx); diff != "" {
				t.Errorf("ComputeTrend() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeTrendOneMonthExcludesTwoMonthsAgo(t *testing.T) {
	preds := []models.Prediction{
		createdAt(80, models.OutcomeCorrect, fixedNow.AddDate(0, -2, 0)),
	}

	if result := ComputeTrend(preds, models.PeriodOneMonth, false, fixedNow); len(result) != 0 {
		t.Errorf("ComputeTrend() = %v, want empty", result)
	}
	if result := ComputeTrend(preds, models.PeriodAll, false, fixedNow); len(result) != 1 {
		t.Errorf("ComputeTrend() len = %d, want 1", len(result))
	}
}

func TestComputeTrendSameDayKeepsLastSnapshot(t *testing.T) {
	day := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	preds := []models.Prediction{
		createdAt(90, models.OutcomeCorrect, day.Add(1*time.Hour)),
		createdAt(90, models.OutcomeCorrect, day.Add(2*time.Hour)),
		createdAt(90, models.OutcomeIncorrect, day.Add(3*time.Hour)),
		createdAt(90, models.OutcomeIncorrect, day.Add(4*time.Hour)),
	}

	result := ComputeTrend(preds, models.PeriodAll, false, fixedNow)
	expected := []models.TrendPoint{{Date: "2026-10-02", Accuracy: 50, Confidence: 90}}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Errorf("ComputeTrend() mismatch (-want +got):\n%s", diff)
	}
}

func TestPeriodCutoffClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		period   models.Period
		expected time.Time
	}{
		{
			name:     "One month before March 31",
			now:      time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC),
			period:   models.PeriodOneMonth,
			expected: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "One month before May 31",
			now:      time.Date(2026, 5, 31, 8, 30, 0, 0, time.UTC),
			period:   models.PeriodOneMonth,
			expected: time.Date(2026, 4, 30, 8, 30, 0, 0, time.UTC),
		},
		{
			name:     "Six months before May 31",
			now:      time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			period:   models.PeriodSixMonths,
			expected: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Twelve months before Feb 29",
			now:      time.Date(2028, 2, 29, 23, 59, 0, 0, time.UTC),
			period:   models.PeriodTwelveMonth,
			expected: time.Date(2027, 2, 28, 23, 59, 0, 0, time.UTC),
		},
		{
			name:     "Mid month is unchanged",
			now:      time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
			period:   models.PeriodOneMonth,
			expected: time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cutoff, ok := tt.period.Cutoff(tt.now)
			if !ok {
				t.Fatalf("Cutoff() ok = false")
			}
			if !cutoff.Equal(tt.expected) {
				t.Errorf("Cutoff() = %v, want %v", cutoff, tt.expected)
			}
		})
	}

	if _, ok := models.PeriodAll.Cutoff(fixedNow); ok {
		t.Errorf("Cutoff() ok = true for all")
	}
}

func TestComputeTrendMonthEndWindowKeepsStartOfMonth(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	preds := []models.Prediction{
		createdAt(80, models.OutcomeCorrect, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}

	result := ComputeTrend(preds, models.PeriodOneMonth, false, now)
	expected := []models.TrendPoint{{Date: "2026-03-01", Accuracy: 100, Confidence: 80}}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Errorf("ComputeTrend() mismatch (-want +got):\n%s", diff)
	}
}
