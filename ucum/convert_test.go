package ucum

import "testing"

func TestConvertMassAndLength(t *testing.T) {
	r := Default()
	v, _ := NewFromString("1000")
	got, err := r.Convert(v, "g", "kg")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "1" {
		t.Errorf("1000 g -> kg: got %s, want 1", got.String())
	}

	v2, _ := NewFromString("100")
	got2, err := r.Convert(v2, "cm", "m")
	if err != nil {
		t.Fatal(err)
	}
	if got2.String() != "1" {
		t.Errorf("100 cm -> m: got %s, want 1", got2.String())
	}
}

func TestConvertRate(t *testing.T) {
	r := Default()
	v, _ := NewFromString("15")
	got, err := r.Convert(v, "/min", "/h")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "900" {
		t.Errorf("15/min -> /h: got %s, want 900", got.String())
	}
}

func TestIsComparableVelocity(t *testing.T) {
	r := Default()
	if !r.IsComparable("m/s", "km/h") {
		t.Error("m/s and km/h should be comparable")
	}
}

func TestConvertTemperatureOffsetRejected(t *testing.T) {
	r := Default()
	v, _ := NewFromString("100")
	_, err := r.Convert(v, "Cel", "K")
	if err == nil {
		t.Fatal("expected error converting Cel to K via the ratio path")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	r := Default()
	v, _ := NewFromString("98.6")
	// m/s <-> km/h round trips within precision for ratio units.
	converted, err := r.Convert(v, "m/s", "km/h")
	if err != nil {
		t.Fatal(err)
	}
	back, err := r.Convert(converted, "km/h", "m/s")
	if err != nil {
		t.Fatal(err)
	}
	if back.ComparesTo(v) != 0 {
		t.Errorf("round trip mismatch: %s -> %s -> %s", v.String(), converted.String(), back.String())
	}
}

func TestValidateUnknownUnit(t *testing.T) {
	r := Default()
	if err := r.Validate("bogus-unit"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
