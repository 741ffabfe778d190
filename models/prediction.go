package models

import (
	"fmt"
	"strconv"
	"time"
)

// PricePrediction is one stored estimate. PredictedPrice is derived from
// SquareFootage and Bedrooms and is never taken from the client.
type PricePrediction struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	SessionToken   string    `gorm:"column:session_token;size:255;not null;default:'';index" json:"session_token"`
	Name           string    `gorm:"column:name;size:255;not null;default:''" json:"name"`
	SquareFootage  float64   `gorm:"column:square_footage;not null" json:"square_footage"`
	Bedrooms       int       `gorm:"column:bedrooms;not null" json:"bedrooms"`
	PredictedPrice float64   `gorm:"column:predicted_price;not null" json:"predicted_price"`
	CreatedAt      time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PricePrediction) TableName() string { return "price_predictions" }

func (p PricePrediction) String() string {
	return fmt.Sprintf("Prediction: %s sqft, %d bed - $%s",
		strconv.FormatFloat(p.SquareFootage, 'f', -1, 64), p.Bedrooms,
		strconv.FormatFloat(p.PredictedPrice, 'f', -1, 64))
}
