package ucum

import "testing"

func TestDecimalEqualHonoursPrecision(t *testing.T) {
	a, err := NewFromString("42.00")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFromString("42.000")
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Error("42.00 and 42.000 should not be Decimal-equal (different precision)")
	}
	if a.ComparesTo(b) != 0 {
		t.Error("42.00 and 42.000 should be numerically equal")
	}
}

func TestDecimalArithmeticScenario(t *testing.T) {
	a, _ := NewFromString("80.0")
	b, _ := NewFromString("100")
	c, _ := NewFromString("81")
	product := a.Multiply(b)
	quotient, err := product.Divide(c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if quotient.String() != "98.8" {
		t.Errorf("expected 98.8, got %s", quotient.String())
	}
}

func TestDecimalDivisionByZero(t *testing.T) {
	a, _ := NewFromString("1")
	_, err := a.Divide(Zero, 2)
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestDecimalSignNormalization(t *testing.T) {
	neg, _ := NewFromString("-0")
	if neg.ComparesTo(Zero) != 0 {
		t.Error("-0 should compare equal to 0")
	}
}
