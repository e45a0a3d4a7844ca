package uri

import (
	"context"
	"testing"
)

func TestLocateAnyNonEmptyString(t *testing.T) {
	p := New()
	bg := context.Background()
	ctx, msg, err := p.Locate(bg, "http://snomed.info/sct")
	if err != nil || msg != "" || ctx == nil {
		t.Fatalf("any non-empty string should locate: %v %q", err, msg)
	}
	if _, msg, err := p.Locate(bg, ""); err != nil || msg == "" {
		t.Fatal("empty string should fail with a message")
	}
}

func TestDisplayEmptyWithoutSupplement(t *testing.T) {
	p := New()
	bg := context.Background()
	ctx, _, _ := p.Locate(bg, "http://example.org/system")
	display, err := p.Display(bg, nil, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if display != "" {
		t.Fatalf("Display() = %q, want empty with no host display and no supplement", display)
	}
}
