package omop

import (
	"context"
	"testing"
)

func TestDomainFilterReturnsOnlyStandardConcepts(t *testing.T) {
	store := DefaultFixture()
	p := New(store, 1)
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "domain", "=", "Condition"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].Size() != 1 {
		t.Fatalf("expected exactly 1 standard concept in vocabulary 1, got %+v", sets)
	}
}

func TestNewFromURIRejectsUnknownSystem(t *testing.T) {
	if _, err := NewFromURI(DefaultFixture(), "http://example.org/not-a-vocabulary"); err == nil {
		t.Fatal("expected an error for an unregistered vocabulary URI")
	}
	p, err := NewFromURI(DefaultFixture(), "http://snomed.info/sct")
	if err != nil {
		t.Fatal(err)
	}
	if p.System() != "http://snomed.info/sct" {
		t.Fatalf("unexpected system %q", p.System())
	}
}

func TestGetTranslations(t *testing.T) {
	store := DefaultFixture()
	p := New(store, 1)
	codes, err := p.GetTranslations("320128", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 1 || codes[0] != "38341003" {
		t.Fatalf("expected translation to 38341003, got %+v", codes)
	}
}
