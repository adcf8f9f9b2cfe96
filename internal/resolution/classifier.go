package resolution

import "github.com/Alias1177/Guessometer/models"

// Marker values used by the external record service
const (
	Affirmative = "Yes"
	Negative    = "No"
)

// Classify maps an external outcome marker to a prediction outcome.
// Anything other than an affirmatively known yes/no is pending.
func Classify(predictedOutcome, outcomeKnown string) models.Outcome {
	if outcomeKnown != Affirmative {
		return models.OutcomePending
	}
	switch predictedOutcome {
	case Affirmative:
		return models.OutcomeCorrect
	case Negative:
		return models.OutcomeIncorrect
	default:
		return models.OutcomePending
	}
}

// Markers is the inverse of Classify: the known flag and the actual outcome marker
// to write for an outcome. actual is empty while pending.
func Markers(o models.Outcome) (known, actual string) {
	switch models.ParseOutcome(string(o)) {
	case models.OutcomeCorrect:
		return Affirmative, Affirmative
	case models.OutcomeIncorrect:
		return Affirmative, Negative
	default:
		return Negative, ""
	}
}
