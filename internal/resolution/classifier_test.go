package resolution

import (
	"testing"

	"github.com/Alias1177/Guessometer/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		predicted string
		known     string
		expected  models.Outcome
	}{
		{name: "outcome not known", predicted: "Yes", known: "No", expected: models.OutcomePending},
		{name: "known flag missing", predicted: "Yes", known: "", expected: models.OutcomePending},
		{name: "known flag lowercase", predicted: "Yes", known: "yes", expected: models.OutcomePending},
		{name: "known yes", predicted: "Yes", known: "Yes", expected: models.OutcomeCorrect},
		{name: "known no", predicted: "No", known: "Yes", expected: models.OutcomeIncorrect},
		{name: "known but marker missing", predicted: "", known: "Yes", expected: models.OutcomePending},
		{name: "known but marker unknown", predicted: "Maybe", known: "Yes", expected: models.OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.predicted, tt.known)
			if result != tt.expected {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.predicted, tt.known, result, tt.expected)
			}
		})
	}
}

func TestMarkersRoundTrip(t *testing.T) {
	for _, o := range []models.Outcome{models.OutcomeCorrect, models.OutcomeIncorrect} {
		known, actual := Markers(o)
		if got := Classify(actual, known); got != o {
			t.Errorf("Classify(Markers(%v)) = %v", o, got)
		}
	}

	known, actual := Markers(models.OutcomePending)
	if known != Negative || actual != "" {
		t.Errorf("Markers(pending) = %q, %q", known, actual)
	}
}
