package models

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// PredictionEvent is published whenever a record changes. Prediction is nil
// for deletions.
type PredictionEvent struct {
	Type         string           `json:"type"`
	SessionToken string           `json:"session_token"`
	ID           uint             `json:"id"`
	Prediction   *PricePrediction `json:"prediction,omitempty"`
}
