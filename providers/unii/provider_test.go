package unii

import (
	"context"
	"testing"

	"github.com/wardle/terminology/provider"
)

func TestLocateAndDisplay(t *testing.T) {
	p := New(DefaultFixture())
	op := provider.NewOpContextFromAcceptLanguage("en")
	c, msg, err := p.Locate(context.Background(), "362O9ITL9D")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatalf("expected a context, got not-found message %q", msg)
	}
	display, err := p.Display(context.Background(), op, c)
	if err != nil {
		t.Fatal(err)
	}
	if display != "Acetaminophen" {
		t.Fatalf("unexpected display %q", display)
	}
}

func TestLocateUnknownCodeIsNotFound(t *testing.T) {
	p := New(DefaultFixture())
	c, msg, err := p.Locate(context.Background(), "NOSUCHCODE")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil || msg == "" {
		t.Fatal("expected a nil context and a not-found message")
	}
}

func TestDesignationsDeduplicatesAlternativeNames(t *testing.T) {
	s := DefaultFixture()
	s.byCode["362O9ITL9D"].altNames = []string{"Paracetamol", "APAP", "Paracetamol"}
	p := New(s)
	c, _, err := p.Locate(context.Background(), "362O9ITL9D")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	designations, err := p.Designations(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if len(designations) != 3 {
		t.Fatalf("expected 1 preferred name + 2 deduplicated alternatives, got %d: %+v", len(designations), designations)
	}
}

func TestNoHierarchy(t *testing.T) {
	p := New(DefaultFixture())
	c, _, err := p.Locate(context.Background(), "362O9ITL9D")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	if _, err := p.Parent(c); err == nil {
		t.Fatal("expected ErrNoParent")
	}
}
