package recordsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Guessometer/internal/api/airtable"
	"github.com/Alias1177/Guessometer/models"
)

type MockSource struct{ mock.Mock }

func (m *MockSource) ListRecords(ctx context.Context) ([]airtable.Record, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]airtable.Record)
	return recs, args.Error(1)
}

type MockImportStore struct{ mock.Mock }

func (m *MockImportStore) PredictionByAirtableID(ctx context.Context, airtableID string) (*models.Prediction, error) {
	args := m.Called(ctx, airtableID)
	p, _ := args.Get(0).(*models.Prediction)
	return p, args.Error(1)
}

func (m *MockImportStore) CreatePrediction(ctx context.Context, p models.Prediction) (*models.Prediction, error) {
	args := m.Called(ctx, p)
	return &p, args.Error(1)
}

func (m *MockImportStore) CreateCategory(ctx context.Context, name string, color *string) (*models.Category, error) {
	args := m.Called(ctx, name, color)
	return &models.Category{Name: name, Color: color}, args.Error(1)
}

type MockRecalculator struct{ mock.Mock }

func (m *MockRecalculator) Recalculate(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	return &models.UserStats{UserID: userID}, args.Error(1)
}

func TestImport(t *testing.T) {
	records := []airtable.Record{
		{ID: "rec1", Fields: map[string]interface{}{
			airtable.FieldUser:             "u1",
			airtable.FieldCategory:         "sports",
			airtable.FieldPredictedOutcome: "Yes",
			airtable.FieldOutcomeKnown:     "Yes",
		}},
		{ID: "rec2", Fields: map[string]interface{}{
			airtable.FieldUser:     "u2",
			airtable.FieldCategory: "weather",
		}},
		{ID: "rec3", Fields: map[string]interface{}{}},
	}

	source := &MockSource{}
	source.On("ListRecords", mock.Anything).Return(records, nil)

	store := &MockImportStore{}
	store.On("PredictionByAirtableID", mock.Anything, "rec1").Return(nil, nil)
	store.On("PredictionByAirtableID", mock.Anything, "rec2").Return(&models.Prediction{ID: "existing"}, nil)
	store.On("PredictionByAirtableID", mock.Anything, "rec3").Return(nil, nil)
	store.On("CreatePrediction", mock.Anything, mock.MatchedBy(func(p models.Prediction) bool {
		return p.AirtableID != nil && *p.AirtableID == "rec1" && p.Outcome == models.OutcomeCorrect
	})).Return(nil, nil).Once()
	store.On("CreatePrediction", mock.Anything, mock.MatchedBy(func(p models.Prediction) bool {
		return p.AirtableID != nil && *p.AirtableID == "rec3" && p.UserID == nil
	})).Return(nil, nil).Once()
	store.On("CreateCategory", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil, nil)

	recalc := &MockRecalculator{}
	recalc.On("Recalculate", mock.Anything, "u1").Return(nil, nil).Once()

	result, err := NewImporter(source, store, recalc, 2).Import(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ImportResult{Fetched: 3, Created: 2, Skipped: 1, Categories: 3, Users: 1}, result)
	store.AssertNumberOfCalls(t, "CreateCategory", 3)
	store.AssertExpectations(t)
	recalc.AssertExpectations(t)
}

func TestImportSourceFailure(t *testing.T) {
	source := &MockSource{}
	source.On("ListRecords", mock.Anything).Return(nil, errors.New("unauthorized"))

	_, err := NewImporter(source, &MockImportStore{}, &MockRecalculator{}, 1).Import(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestImportRecalculateFailure(t *testing.T) {
	source := &MockSource{}
	source.On("ListRecords", mock.Anything).Return([]airtable.Record{
		{ID: "rec1", Fields: map[string]interface{}{airtable.FieldUser: "u1"}},
	}, nil)

	store := &MockImportStore{}
	store.On("PredictionByAirtableID", mock.Anything, "rec1").Return(nil, nil)
	store.On("CreatePrediction", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("CreateCategory", mock.Anything, "general", mock.Anything).Return(nil, nil)

	recalc := &MockRecalculator{}
	recalc.On("Recalculate", mock.Anything, "u1").Return(nil, errors.New("db gone"))

	result, err := NewImporter(source, store, recalc, 1).Import(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, result.Created)
}
