package country

import (
	"context"
	"testing"

	"github.com/wardle/terminology/provider"
)

func TestLocateAcrossFormats(t *testing.T) {
	p := New()
	bg := context.Background()
	numeric, _, err := p.Locate(bg, "840")
	if err != nil || numeric == nil {
		t.Fatalf("Locate(840) failed: %v", err)
	}
	alpha2, _, err := p.Locate(bg, "US")
	if err != nil || alpha2 == nil {
		t.Fatalf("Locate(US) failed: %v", err)
	}
	if p.SameConcept(numeric, alpha2) {
		t.Fatal("numeric and alpha-2 forms must be distinct concepts")
	}
	dNumeric, _ := p.Display(bg, provider.English, numeric)
	dAlpha2, _ := p.Display(bg, provider.English, alpha2)
	if dNumeric != "United States of America" || dAlpha2 != dNumeric {
		t.Fatalf("displays = %q, %q", dNumeric, dAlpha2)
	}
	if _, msg, _ := p.Locate(bg, "XX"); msg == "" {
		t.Fatal("unknown code should yield a not-found message")
	}
}

func TestCodeRegexFilterNumericOnly(t *testing.T) {
	p := New()
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "code", "regex", "8[0-9]{2}"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(sets))
	}
	if _, msg, _ := sets[0].Locate(context.Background(), "CAN"); msg == "" {
		t.Fatal("alpha-3 code should not satisfy a numeric regex")
	}
	if _, msg, err := sets[0].Locate(context.Background(), "840"); err != nil || msg != "" {
		t.Fatalf("expected 840 in filter set: %v %q", err, msg)
	}
}
