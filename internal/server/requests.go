package server

import (
	"strings"
	"time"

	"github.com/Alias1177/Guessometer/models"
)

type createPredictionRequest struct {
	PredictionText  string    `json:"prediction_text" validate:"required,max=1000"`
	Description     *string   `json:"description" validate:"omitempty,max=4000"`
	Category        string    `json:"category" validate:"omitempty,max=64"`
	ConfidenceLevel *int      `json:"confidence_level" validate:"required,min=0,max=100"`
	TargetDate      time.Time `json:"target_date" validate:"required"`
	IsPublic        *bool     `json:"is_public"`
}

func (req createPredictionRequest) prediction() models.Prediction {
	p := models.Prediction{
		PredictionText:  strings.TrimSpace(req.PredictionText),
		Description:     req.Description,
		Category:        req.Category,
		ConfidenceLevel: *req.ConfidenceLevel,
		TargetDate:      req.TargetDate,
		Outcome:         models.OutcomePending,
		IsPublic:        true,
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
	return p
}

type updatePredictionRequest struct {
	PredictionText  *string    `json:"prediction_text" validate:"omitempty,min=1,max=1000"`
	Description     *string    `json:"description" validate:"omitempty,max=4000"`
	Category        *string    `json:"category" validate:"omitempty,min=1,max=64"`
	ConfidenceLevel *int       `json:"confidence_level" validate:"omitempty,min=0,max=100"`
	TargetDate      *time.Time `json:"target_date"`
	Outcome         *string    `json:"outcome" validate:"omitempty,oneof=pending correct incorrect"`
	IsPublic        *bool      `json:"is_public"`
}

func (req updatePredictionRequest) update() models.PredictionUpdate {
	upd := models.PredictionUpdate{
		PredictionText:  req.PredictionText,
		Description:     req.Description,
		Category:        req.Category,
		ConfidenceLevel: req.ConfidenceLevel,
		TargetDate:      req.TargetDate,
		IsPublic:        req.IsPublic,
	}
	if req.Outcome != nil {
		o := models.Outcome(*req.Outcome)
		upd.Outcome = &o
	}
	return upd
}

type displayNameRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=50"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type categoryRequest struct {
	Name  string  `json:"name" validate:"required,max=64"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}
