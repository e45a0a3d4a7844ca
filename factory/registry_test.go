package factory

import (
	"testing"

	"github.com/wardle/terminology/provider"
	"github.com/wardle/terminology/providers/country"
)

func TestRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	f := NewFuncFactory("urn:iso:std:iso:3166", func(supplements ...provider.Supplement) (provider.Provider, error) {
		return country.New(supplements...), nil
	})
	r.Register(f)

	p, err := r.New("urn:iso:std:iso:3166")
	if err != nil {
		t.Fatal(err)
	}
	if p.System() != "urn:iso:std:iso:3166" {
		t.Fatalf("unexpected system %q", p.System())
	}
	if f.UseCount() != 1 {
		t.Fatalf("expected UseCount 1, got %d", f.UseCount())
	}

	if _, err := r.New("urn:unregistered"); err == nil {
		t.Fatal("expected an error for an unregistered system")
	}
}
