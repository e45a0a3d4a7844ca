package cpt

import (
	"context"
	"testing"
)

func TestExpressionValidation(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()

	if _, msg, err := p.Locate(bg, "99213:25:57"); err != nil || msg == "" {
		t.Fatalf("expected mutually-exclusive-modifier failure, got err=%v msg=%q", err, msg)
	}

	c, msg, err := p.Locate(bg, "99213:25")
	if err != nil || msg != "" || c == nil {
		t.Fatalf("expected 99213:25 to validate, got err=%v msg=%q", err, msg)
	}
	code, err := p.Code(c)
	if err != nil {
		t.Fatal(err)
	}
	if code != "99213:25" {
		t.Fatalf("expected code '99213:25', got %q", code)
	}
}

func TestPhysicalStatusModifierRequiresAnesthesiaRange(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()
	if _, msg, err := p.Locate(bg, "99213:63"); err != nil || msg == "" {
		t.Fatal("expected 63 on a non-anesthesia code to fail")
	}
	if _, msg, err := p.Locate(bg, "00100:63"); err != nil || msg != "" {
		t.Fatalf("expected 00100:63 to validate, got err=%v msg=%q", err, msg)
	}
}

func TestHCPCSModifierRequiresCoexistingModifier59(t *testing.T) {
	p := New(DefaultFixture())
	bg := context.Background()
	if _, msg, err := p.Locate(bg, "86701:92"); err != nil || msg == "" {
		t.Fatal("expected 92 without 59 to fail")
	}
	if _, msg, err := p.Locate(bg, "86701:59:92"); err != nil || msg != "" {
		t.Fatalf("expected 86701:59:92 to validate, got err=%v msg=%q", err, msg)
	}
}
