package loinc

import (
	"context"
	"testing"
)

func TestLocateAndDisplay(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()
	c, msg, err := p.Locate(bg, "2093-3")
	if err != nil || msg != "" || c == nil {
		t.Fatalf("Locate: %v %q", err, msg)
	}
	display, err := p.Display(bg, nil, c)
	if err != nil {
		t.Fatal(err)
	}
	if display != "Cholesterol [Mass/volume] in Serum or Plasma" {
		t.Fatalf("unexpected display %q", display)
	}
	if _, msg, _ := p.Locate(bg, "unknown-code"); msg == "" {
		t.Fatal("expected not-found message for unknown code")
	}
}

func TestAnswersForAndListFilters(t *testing.T) {
	p := New(DefaultFixture())
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "answers-for", "=", "2093-3"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].Size() != 2 {
		t.Fatalf("expected 2 answers, got %+v", sets)
	}
}

func TestDescendentOfList(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()
	c, msg, err := p.LocateIsA(bg, "LA6576-8", "LL1001-8", true)
	if err != nil || msg != "" || c == nil {
		t.Fatalf("expected LA6576-8 descendent-of LL1001-8: %v %q", err, msg)
	}
}
