package airtable

import (
	"time"

	"github.com/Alias1177/Guessometer/internal/resolution"
	"github.com/Alias1177/Guessometer/models"
)

const (
	defaultCategory   = "general"
	defaultConfidence = 50
)

// Prediction maps an Airtable record to a local prediction. Missing fields fall
// back to the defaults the record service uses; the outcome goes through the
// resolution classifier.
func (r Record) Prediction() models.Prediction {
	text := r.stringField(FieldPredictionText)
	p := models.Prediction{
		PredictionText:  text,
		Category:        r.stringField(FieldCategory),
		ConfidenceLevel: defaultConfidence,
		Outcome:         resolution.Classify(r.stringField(FieldPredictedOutcome), r.stringField(FieldOutcomeKnown)),
		IsPublic:        r.stringField(FieldPrivacy) != privacyPrivate,
	}
	if text != "" {
		p.Description = &text
	}
	if r.ID != "" {
		id := r.ID
		p.AirtableID = &id
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	if v, ok := r.Fields[FieldConfidence].(float64); ok {
		p.ConfidenceLevel = int(v)
	}
	if user := r.userField(); user != "" {
		p.UserID = &user
	}

	created, _ := time.Parse(time.RFC3339, r.CreatedTime)
	p.PredictionDate = r.dateField(FieldPredictionDate, created)
	p.TargetDate = r.dateField(FieldRemindDate, time.Now().UTC())
	if !created.IsZero() {
		p.CreatedAt = created
	}
	return p
}

func (r Record) stringField(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// userField handles both plain text and linked-record columns
func (r Record) userField() string {
	switch v := r.Fields[FieldUser].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

func (r Record) dateField(name string, fallback time.Time) time.Time {
	raw := r.stringField(name)
	if raw == "" {
		return fallback
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return fallback
}
