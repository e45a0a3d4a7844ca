package mime

import (
	"context"
	"testing"
)

func TestLocateValidatesShape(t *testing.T) {
	p := New()
	bg := context.Background()
	if ctx, msg, err := p.Locate(bg, "text/plain"); err != nil || msg != "" || ctx == nil {
		t.Fatalf("text/plain should be valid: %v %q", err, msg)
	}
	if ctx, msg, err := p.Locate(bg, "application/fhir+json"); err != nil || msg != "" || ctx == nil {
		t.Fatalf("application/fhir+json should be valid: %v %q", err, msg)
	}
	if _, msg, err := p.Locate(bg, "not-a-mime-type"); err != nil || msg == "" {
		t.Fatal("missing slash should fail to locate with a message, not an error")
	}
}

func TestTotalCountUnbounded(t *testing.T) {
	p := New()
	if p.TotalCount() != -1 {
		t.Fatalf("TotalCount() = %d, want -1", p.TotalCount())
	}
	if p.Iterator(nil) != nil {
		t.Fatal("Iterator should be nil for an unbounded grammar-based provider")
	}
}
