package expression

import (
	"fmt"
	"strings"
	"testing"
)

func TestDefaultRendererRoundTrip(t *testing.T) {
	for _, test := range etests {
		e1, err := Parse(test.expression)
		if err != nil {
			t.Fatalf("%s: %s", test.name, err)
		}
		s, err := NewDefaultRenderer().Render(e1)
		if err != nil {
			t.Fatalf("%s: %s", test.name, err)
		}
		e2, err := Parse(s)
		if err != nil {
			t.Fatalf("%s: re-parsing %q: %s", test.name, s, err)
		}
		if !Equivalent(e1, e2) {
			t.Errorf("%s: default render/re-parse changed meaning: %q -> %q", test.name, test.expression, s)
		}
	}
}

func TestCanonicalRendererHidesTermsAndSorts(t *testing.T) {
	e, err := Parse("312845000 |epiphysis| + 119189000 |ulna part|")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewCanonicalRenderer().Render(e)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(s, "|") {
		t.Errorf("canonical form should omit terms entirely, got %q", s)
	}
	if s != "119189000+312845000" {
		t.Errorf("canonical form should sort focus concepts, got %q", s)
	}
}

func TestCanonicalRendererStable(t *testing.T) {
	a, err := Parse("71388002:{260686004=129304002} {260686004=261519002}")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("71388002:{260686004=261519002} {260686004=129304002}")
	if err != nil {
		t.Fatal(err)
	}
	r := NewCanonicalRenderer()
	sa, err := r.Render(a)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := r.Render(b)
	if err != nil {
		t.Fatal(err)
	}
	if sa != sb {
		t.Errorf("canonical form should be independent of input group order: %q vs %q", sa, sb)
	}
}

func TestUpdatingRendererReplacesTerm(t *testing.T) {
	lookup := func(code int64) (string, error) {
		if code == 80146002 {
			return "Appendicectomy", nil
		}
		return "", fmt.Errorf("no term for %d", code)
	}
	e, err := Parse("80146002 |Appendectomy|")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewUpdatingRenderer(lookup).Render(e)
	if err != nil {
		t.Fatal(err)
	}
	if s != "80146002|Appendicectomy|" {
		t.Errorf("expected updated term, got %q", s)
	}
}

func TestUpdatingRendererPropagatesLookupError(t *testing.T) {
	lookup := func(code int64) (string, error) {
		return "", fmt.Errorf("lookup failed for %d", code)
	}
	e := FromReference(1)
	if _, err := NewUpdatingRenderer(lookup).Render(e); err == nil {
		t.Error("expected the lookup error to propagate")
	}
}

func TestRenderNestedRefinementValue(t *testing.T) {
	e, err := Parse("397956004:363704007=(24136001:272741003=7771000)")
	if err != nil {
		t.Fatal(err)
	}
	s := Render(e)
	if !strings.Contains(s, "(24136001") {
		t.Errorf("expected nested expression value to be parenthesised, got %q", s)
	}
}
