package ndc

import (
	"context"
	"testing"
)

func TestPackageLocateAndExtendLookup(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()
	c, msg, err := p.Locate(bg, "0002-1433-01")
	if err != nil || msg != "" || c == nil {
		t.Fatalf("Locate package: %v %q", err, msg)
	}
	display, err := p.Display(bg, nil, c)
	if err != nil {
		t.Fatal(err)
	}
	if display != "Humalog" {
		t.Fatalf("unexpected display %q", display)
	}
	extended, err := p.ExtendLookup(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if extended["company"] != "Eli Lilly" {
		t.Fatalf("expected company in extended lookup, got %+v", extended)
	}
}

func TestCodeTypeFilter(t *testing.T) {
	p := New(DefaultFixture())
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "code-type", "=", "11-digit"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].Size() != 1 {
		t.Fatalf("expected 1 11-digit package, got %+v", sets)
	}
}
