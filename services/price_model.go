package services

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TrainingSample is one observed sale used to fit the price model.
type TrainingSample struct {
	SquareFootage float64
	Bedrooms      int
	Price         float64
}

// DefaultTrainingSet returns the fixed sales the service fits at startup.
func DefaultTrainingSet() []TrainingSample {
	return []TrainingSample{
		{SquareFootage: 800, Bedrooms: 2, Price: 150000},
		{SquareFootage: 1200, Bedrooms: 3, Price: 200000},
		{SquareFootage: 1500, Bedrooms: 3, Price: 250000},
		{SquareFootage: 1800, Bedrooms: 4, Price: 300000},
		{SquareFootage: 2000, Bedrooms: 4, Price: 320000},
		{SquareFootage: 2200, Bedrooms: 5, Price: 360000},
		{SquareFootage: 2400, Bedrooms: 4, Price: 380000},
		{SquareFootage: 2600, Bedrooms: 5, Price: 400000},
	}
}

type Coefficients struct {
	Intercept     float64 `json:"intercept"`
	SquareFootage float64 `json:"square_footage"`
	Bedrooms      float64 `json:"bedrooms"`
}

// PriceModel is a two-feature linear model. It is immutable once built and
// safe for concurrent use.
type PriceModel struct {
	coef Coefficients
}

func NewPriceModel(intercept, squareFootageCoef, bedroomsCoef float64) *PriceModel {
	return &PriceModel{coef: Coefficients{
		Intercept:     intercept,
		SquareFootage: squareFootageCoef,
		Bedrooms:      bedroomsCoef,
	}}
}

// FitPriceModel solves ordinary least squares with an intercept term over
// samples. The design matrix must have full column rank.
func FitPriceModel(samples []TrainingSample) (*PriceModel, error) {
	const features = 3
	if len(samples) < features {
		return nil, fmt.Errorf("need at least %d training samples, got %d", features, len(samples))
	}

	x := mat.NewDense(len(samples), features, nil)
	y := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x.Set(i, 0, 1)
		x.Set(i, 1, s.SquareFootage)
		x.Set(i, 2, float64(s.Bedrooms))
		y.SetVec(i, s.Price)
	}

	// SolveVec on a tall matrix is a QR least-squares solve.
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("training set is ill-conditioned: %w", err)
		}
		return nil, fmt.Errorf("least squares solve failed: %w", err)
	}

	m := NewPriceModel(beta.AtVec(0), beta.AtVec(1), beta.AtVec(2))
	for _, c := range []float64{m.coef.Intercept, m.coef.SquareFootage, m.coef.Bedrooms} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New("least squares solve produced non-finite coefficients")
		}
	}
	return m, nil
}

// FitDefaultPriceModel fits DefaultTrainingSet.
func FitDefaultPriceModel() (*PriceModel, error) {
	return FitPriceModel(DefaultTrainingSet())
}

func (m *PriceModel) Coefficients() Coefficients {
	return m.coef
}

// Predict returns the estimated price, clamped at zero.
func (m *PriceModel) Predict(squareFootage float64, bedrooms int) float64 {
	price := m.coef.Intercept +
		m.coef.SquareFootage*squareFootage +
		m.coef.Bedrooms*float64(bedrooms)
	return math.Max(0, price)
}
