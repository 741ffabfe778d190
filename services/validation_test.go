package services

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

// body decodes a JSON literal the way the handlers do.
func body(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("bad test body %s: %v", s, err)
	}
	return m
}

func assertReason(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if e.Code != code {
		t.Errorf("Code = %s, want %s", e.Code, code)
	}
	if e.Reason != reason {
		t.Errorf("Reason = %q, want %q", e.Reason, reason)
	}
}

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   ErrorCode
		reason string
	}{
		{"missing square footage", `{"session_token":"s","bedrooms":3}`, ErrorMissingFields, reasonRequiredFields},
		{"missing bedrooms", `{"session_token":"s","square_footage":2000}`, ErrorMissingFields, reasonRequiredFields},
		{"null bedrooms", `{"session_token":"s","square_footage":2000,"bedrooms":null}`, ErrorMissingFields, reasonRequiredFields},
		{"fields checked before token", `{"bedrooms":3}`, ErrorMissingFields, reasonRequiredFields},
		{"missing token", `{"square_footage":2000,"bedrooms":3}`, ErrorMissingSessionToken, reasonSessionToken},
		{"empty token", `{"session_token":"","square_footage":2000,"bedrooms":3}`, ErrorMissingSessionToken, reasonSessionToken},
		{"token before types", `{"square_footage":"abc","bedrooms":3}`, ErrorMissingSessionToken, reasonSessionToken},
		{"non numeric square footage", `{"session_token":"s","square_footage":"big","bedrooms":3}`, ErrorInvalidType, reasonCreateTypes},
		{"fractional bedroom string", `{"session_token":"s","square_footage":2000,"bedrooms":"3.5"}`, ErrorInvalidType, reasonCreateTypes},
		{"boolean bedrooms", `{"session_token":"s","square_footage":2000,"bedrooms":true}`, ErrorInvalidType, reasonCreateTypes},
		{"nan square footage", `{"session_token":"s","square_footage":"NaN","bedrooms":3}`, ErrorInvalidType, reasonCreateTypes},
		{"types before range", `{"session_token":"s","square_footage":-5,"bedrooms":"x"}`, ErrorInvalidType, reasonCreateTypes},
		{"negative square footage", `{"session_token":"s","square_footage":-1000,"bedrooms":3}`, ErrorOutOfRange, reasonSqftPositive},
		{"zero square footage", `{"session_token":"s","square_footage":0,"bedrooms":3}`, ErrorOutOfRange, reasonSqftPositive},
		{"negative bedrooms", `{"session_token":"s","square_footage":2000,"bedrooms":-1}`, ErrorOutOfRange, reasonBedroomsPositive},
		{"lower bounds before upper", `{"session_token":"s","square_footage":600000,"bedrooms":0}`, ErrorOutOfRange, reasonBedroomsPositive},
		{"square footage too large", `{"session_token":"s","square_footage":500001,"bedrooms":3}`, ErrorOutOfRange, reasonSqftMax},
		{"bedrooms too many", `{"session_token":"s","square_footage":2000,"bedrooms":301}`, ErrorOutOfRange, reasonBedroomsMax},
		{"both too large reports square footage", `{"session_token":"s","square_footage":500001,"bedrooms":301}`, ErrorOutOfRange, reasonSqftMax},
		{"huge bedroom string", `{"session_token":"s","square_footage":2000,"bedrooms":"99999999999999999999"}`, ErrorOutOfRange, reasonBedroomsMax},
		{"non string name", `{"session_token":"s","square_footage":2000,"bedrooms":3,"name":7}`, ErrorInvalidType, reasonNameType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSubmission(body(t, tt.body))
			assertReason(t, err, tt.code, tt.reason)
		})
	}
}

func TestValidateSubmissionAccepts(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sqft     float64
		bedrooms int
		label    string
	}{
		{"plain", `{"session_token":"s1","square_footage":1500,"bedrooms":3}`, 1500, 3, ""},
		{"with name", `{"session_token":"s1","square_footage":1500.5,"bedrooms":3,"name":"Cottage"}`, 1500.5, 3, "Cottage"},
		{"null name", `{"session_token":"s1","square_footage":1500,"bedrooms":3,"name":null}`, 1500, 3, ""},
		{"numeric strings", `{"session_token":"s1","square_footage":" 1200 ","bedrooms":"2"}`, 1200, 2, ""},
		{"fractional bedrooms truncate", `{"session_token":"s1","square_footage":1200,"bedrooms":2.9}`, 1200, 2, ""},
		{"upper limits", `{"session_token":"s1","square_footage":500000,"bedrooms":300}`, 500000, 300, ""},
		{"smallest values", `{"session_token":"s1","square_footage":0.01,"bedrooms":1}`, 0.01, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := ValidateSubmission(body(t, tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sub.SessionToken != "s1" {
				t.Errorf("SessionToken = %q, want %q", sub.SessionToken, "s1")
			}
			if sub.SquareFootage != tt.sqft {
				t.Errorf("SquareFootage = %v, want %v", sub.SquareFootage, tt.sqft)
			}
			if sub.Bedrooms != tt.bedrooms {
				t.Errorf("Bedrooms = %d, want %d", sub.Bedrooms, tt.bedrooms)
			}
			if sub.Name != tt.label {
				t.Errorf("Name = %q, want %q", sub.Name, tt.label)
			}
		})
	}
}

func TestValidateSubmissionRepeatable(t *testing.T) {
	raw := body(t, `{"session_token":"s","square_footage":500001,"bedrooms":3}`)
	for i := 0; i < 5; i++ {
		_, err := ValidateSubmission(raw)
		assertReason(t, err, ErrorOutOfRange, reasonSqftMax)
	}
}

func TestValidatePatch(t *testing.T) {
	t.Run("empty body changes nothing", func(t *testing.T) {
		patch, err := ValidatePatch(body(t, `{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if patch.Name != nil || patch.SquareFootage != nil || patch.Bedrooms != nil {
			t.Errorf("patch = %+v, want empty", patch)
		}
		if patch.ChangesMeasurements() {
			t.Error("empty patch should not change measurements")
		}
	})

	t.Run("name only", func(t *testing.T) {
		patch, err := ValidatePatch(body(t, `{"name":"Updated Name"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if patch.Name == nil || *patch.Name != "Updated Name" {
			t.Errorf("Name = %v, want Updated Name", patch.Name)
		}
		if patch.ChangesMeasurements() {
			t.Error("name-only patch should not change measurements")
		}
	})

	t.Run("null name clears", func(t *testing.T) {
		patch, err := ValidatePatch(body(t, `{"name":null}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if patch.Name == nil || *patch.Name != "" {
			t.Errorf("Name = %v, want empty string", patch.Name)
		}
	})

	t.Run("null measurements are ignored", func(t *testing.T) {
		patch, err := ValidatePatch(body(t, `{"square_footage":null,"bedrooms":null}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if patch.ChangesMeasurements() {
			t.Error("null measurements should be treated as absent")
		}
	})

	t.Run("measurements", func(t *testing.T) {
		patch, err := ValidatePatch(body(t, `{"square_footage":500000,"bedrooms":300}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *patch.SquareFootage != 500000 || *patch.Bedrooms != 300 {
			t.Errorf("patch = %v/%v, want 500000/300", *patch.SquareFootage, *patch.Bedrooms)
		}
		if !patch.ChangesMeasurements() {
			t.Error("patch should change measurements")
		}
	})

	rejections := []struct {
		name   string
		body   string
		code   ErrorCode
		reason string
	}{
		{"bad square footage", `{"square_footage":"wide"}`, ErrorInvalidType, reasonSqftType},
		{"bad bedrooms", `{"bedrooms":"many"}`, ErrorInvalidType, reasonBedroomsType},
		{"zero square footage", `{"square_footage":0}`, ErrorOutOfRange, reasonSqftPositive},
		{"zero bedrooms", `{"bedrooms":0}`, ErrorOutOfRange, reasonBedroomsPositive},
		{"square footage too large", `{"square_footage":500001}`, ErrorOutOfRange, reasonSqftMax},
		{"bedrooms too many", `{"bedrooms":301}`, ErrorOutOfRange, reasonBedroomsMax},
		{"square footage checked first", `{"square_footage":500001,"bedrooms":301}`, ErrorOutOfRange, reasonSqftMax},
		{"name must be string", `{"name":["a"]}`, ErrorInvalidType, reasonNameType},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePatch(body(t, tt.body))
			assertReason(t, err, tt.code, tt.reason)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	e := newError(ErrorNotFound, notFoundReason, ErrNotFound)
	if !errors.Is(e, ErrNotFound) {
		t.Error("errors.Is should see the wrapped cause")
	}
	if !strings.Contains(e.Error(), "NOT_FOUND") {
		t.Errorf("Error() = %q, missing code", e.Error())
	}
	if CodeOf(e) != ErrorNotFound {
		t.Errorf("CodeOf = %s, want %s", CodeOf(e), ErrorNotFound)
	}
	if CodeOf(errors.New("boom")) != ErrorInternal {
		t.Error("CodeOf should default to INTERNAL_ERROR")
	}
}

func TestValidateMeasurements(t *testing.T) {
	if err := ValidateMeasurements(MaxSquareFootage, MaxBedrooms); err != nil {
		t.Fatalf("limits should be accepted: %v", err)
	}
	assertReason(t, ValidateMeasurements(0, 3), ErrorOutOfRange, reasonSqftPositive)
	assertReason(t, ValidateMeasurements(1500, MaxBedrooms+1), ErrorOutOfRange, reasonBedroomsMax)
	assertReason(t, ValidateMeasurements(math.NaN(), 3), ErrorInvalidType, reasonSqftType)
}
