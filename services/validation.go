package services

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	MaxSquareFootage = 500000
	MaxBedrooms      = 300
)

const (
	reasonRequiredFields   = "square_footage and bedrooms are required"
	reasonSessionToken     = "session_token is required"
	reasonSessionQuery     = "session_token query parameter is required"
	reasonCreateTypes      = "square_footage must be a number and bedrooms must be an integer"
	reasonSqftType         = "square_footage must be a valid number"
	reasonBedroomsType     = "bedrooms must be a valid integer"
	reasonNameType         = "name must be a string"
	reasonSqftPositive     = "square_footage must be greater than 0"
	reasonBedroomsPositive = "bedrooms must be greater than 0"
	reasonSqftMax          = "square_footage cannot exceed 500,000"
	reasonBedroomsMax      = "bedrooms cannot exceed 300"
)

// Submission is a validated create request.
type Submission struct {
	SessionToken  string
	Name          string
	SquareFootage float64
	Bedrooms      int
}

// PredictionPatch holds the fields present in a partial update. Nil means
// the field was absent (or null) and is left unchanged.
type PredictionPatch struct {
	Name          *string
	SquareFootage *float64
	Bedrooms      *int
}

// ChangesMeasurements reports whether the patch requires a new price.
func (p PredictionPatch) ChangesMeasurements() bool {
	return p.SquareFootage != nil || p.Bedrooms != nil
}

// ValidateSubmission checks a raw create body. Checks run in a fixed order
// and the first failure is returned.
func ValidateSubmission(raw map[string]any) (Submission, error) {
	sqftRaw := raw["square_footage"]
	bedroomsRaw := raw["bedrooms"]
	if sqftRaw == nil || bedroomsRaw == nil {
		return Submission{}, newError(ErrorMissingFields, reasonRequiredFields, nil)
	}

	token, _ := raw["session_token"].(string)
	if token == "" {
		return Submission{}, newError(ErrorMissingSessionToken, reasonSessionToken, nil)
	}

	sqft, okSqft := coerceFloat(sqftRaw)
	bedrooms, okBedrooms := coerceInt(bedroomsRaw)
	if !okSqft || !okBedrooms {
		return Submission{}, newError(ErrorInvalidType, reasonCreateTypes, nil)
	}

	if err := checkRanges(sqft, bedrooms); err != nil {
		return Submission{}, err
	}

	name, ok := coerceName(raw["name"])
	if !ok {
		return Submission{}, newError(ErrorInvalidType, reasonNameType, nil)
	}

	return Submission{
		SessionToken:  token,
		Name:          name,
		SquareFootage: sqft,
		Bedrooms:      bedrooms,
	}, nil
}

// ValidatePatch checks a raw partial-update body field by field.
func ValidatePatch(raw map[string]any) (PredictionPatch, error) {
	var patch PredictionPatch

	if v, present := raw["name"]; present {
		name, ok := coerceName(v)
		if !ok {
			return PredictionPatch{}, newError(ErrorInvalidType, reasonNameType, nil)
		}
		patch.Name = &name
	}

	if v := raw["square_footage"]; v != nil {
		sqft, ok := coerceFloat(v)
		if !ok {
			return PredictionPatch{}, newError(ErrorInvalidType, reasonSqftType, nil)
		}
		if sqft <= 0 {
			return PredictionPatch{}, newError(ErrorOutOfRange, reasonSqftPositive, nil)
		}
		if sqft > MaxSquareFootage {
			return PredictionPatch{}, newError(ErrorOutOfRange, reasonSqftMax, nil)
		}
		patch.SquareFootage = &sqft
	}

	if v := raw["bedrooms"]; v != nil {
		bedrooms, ok := coerceInt(v)
		if !ok {
			return PredictionPatch{}, newError(ErrorInvalidType, reasonBedroomsType, nil)
		}
		if bedrooms <= 0 {
			return PredictionPatch{}, newError(ErrorOutOfRange, reasonBedroomsPositive, nil)
		}
		if bedrooms > MaxBedrooms {
			return PredictionPatch{}, newError(ErrorOutOfRange, reasonBedroomsMax, nil)
		}
		patch.Bedrooms = &bedrooms
	}

	return patch, nil
}

// ValidateMeasurements applies the range rules alone, for callers that
// already hold typed values.
func ValidateMeasurements(sqft float64, bedrooms int) error {
	if math.IsNaN(sqft) || math.IsInf(sqft, 0) {
		return newError(ErrorInvalidType, reasonSqftType, nil)
	}
	return checkRanges(sqft, bedrooms)
}

// checkRanges applies the lower bounds to both fields before either
// upper bound.
func checkRanges(sqft float64, bedrooms int) error {
	switch {
	case sqft <= 0:
		return newError(ErrorOutOfRange, reasonSqftPositive, nil)
	case bedrooms <= 0:
		return newError(ErrorOutOfRange, reasonBedroomsPositive, nil)
	case sqft > MaxSquareFootage:
		return newError(ErrorOutOfRange, reasonSqftMax, nil)
	case bedrooms > MaxBedrooms:
		return newError(ErrorOutOfRange, reasonBedroomsMax, nil)
	}
	return nil
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceInt accepts integral strings and any finite JSON number, truncating
// fractional numbers toward zero.
func coerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return clampInt(n), true
		}
		if err != nil {
			return 0, false
		}
		return clampInt(n), true
	case int:
		return x, true
	case json.Number:
		if n, err := strconv.Atoi(string(x)); err == nil {
			return n, true
		}
	}

	f, ok := coerceFloat(v)
	if !ok {
		return 0, false
	}
	f = math.Trunc(f)
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32, true
	case f <= math.MinInt32:
		return math.MinInt32, true
	}
	return int(f), true
}

// clampInt keeps out-of-range integers out of range after narrowing so they
// still fail the bounds checks.
func clampInt(n int64) int {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int(n)
}

func coerceName(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	}
	return "", false
}
