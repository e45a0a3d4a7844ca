package hgvs

import (
	"context"
	"errors"
	"testing"
)

type fakeValidator struct {
	ok      bool
	message string
	err     error
}

func (f *fakeValidator) Validate(context.Context, string) (bool, string, error) {
	return f.ok, f.message, f.err
}

func TestLocateValid(t *testing.T) {
	p := New(&fakeValidator{ok: true})
	c, msg, err := p.Locate(context.Background(), "NM_004006.2:c.4375C>T")
	if err != nil || msg != "" || c == nil {
		t.Fatalf("expected valid HGVS to locate, got err=%v msg=%q", err, msg)
	}
}

func TestLocateInvalidIsNotFoundNotError(t *testing.T) {
	p := New(&fakeValidator{ok: false, message: "not a valid HGVS expression"})
	c, msg, err := p.Locate(context.Background(), "garbage")
	if err != nil {
		t.Fatalf("invalid HGVS is a not-found outcome, not an error: %v", err)
	}
	if c != nil || msg == "" {
		t.Fatal("expected nil context and a message for invalid HGVS")
	}
}

func TestLocateTimeoutPropagatesAsError(t *testing.T) {
	p := New(&fakeValidator{err: errors.New("context deadline exceeded")})
	_, _, err := p.Locate(context.Background(), "NM_004006.2:c.4375C>T")
	if err == nil {
		t.Fatal("expected remote failure to propagate as an error")
	}
}
