package validator

import "testing"

type fixture struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Code      string   `json:"code,omitempty" validate:"omitempty,oneof=timeout permission_denied"`
}

func TestStructRejectsOutOfRangeCoordinates(t *testing.T) {
	val := New()
	lat, lng := 91.0, 10.0

	err := val.Struct(fixture{Latitude: &lat, Longitude: &lng})
	if err == nil {
		t.Fatalf("expected latitude 91 to be rejected")
	}

	fields := FieldErrors(err)
	if fields["latitude"] != "latitude" {
		t.Fatalf("expected latitude rule failure, got %v", fields)
	}
	if _, ok := fields["longitude"]; ok {
		t.Fatalf("did not expect longitude failure, got %v", fields)
	}
}

func TestStructRequiresBothCoordinates(t *testing.T) {
	val := New()
	lat := 37.7749

	fields := FieldErrors(val.Struct(fixture{Latitude: &lat}))
	if fields["longitude"] != "required" {
		t.Fatalf("expected missing longitude to be reported, got %v", fields)
	}
}

func TestFieldErrorsUsesJSONNameAndParam(t *testing.T) {
	val := New()
	lat, lng := 1.0, 2.0

	fields := FieldErrors(val.Struct(fixture{Latitude: &lat, Longitude: &lng, Code: "exploded"}))
	if fields["code"] != "oneof=timeout permission_denied" {
		t.Fatalf("unexpected field errors %v", fields)
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
