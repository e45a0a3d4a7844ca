package bcp47

import (
	"context"
	"testing"

	"github.com/wardle/terminology/provider"
)

func TestLocateValidAndInvalidTags(t *testing.T) {
	p := New()
	bg := context.Background()

	c, msg, err := p.Locate(bg, "en-GB")
	if err != nil || msg != "" || c == nil {
		t.Fatalf("en-GB should locate: ctx=%v msg=%q err=%v", c, msg, err)
	}

	c, msg, err = p.Locate(bg, "not a tag!!")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil || msg == "" {
		t.Fatal("an invalid tag should fail to locate with an explanatory message")
	}
}

func TestDisplaySynthesizesEnglishName(t *testing.T) {
	p := New()
	bg := context.Background()
	op := provider.NewOpContextFromAcceptLanguage("en")

	c, _, err := p.Locate(bg, "fr")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	display, err := p.Display(bg, op, c)
	if err != nil {
		t.Fatal(err)
	}
	if display != "French" {
		t.Fatalf("Display() = %q, want %q", display, "French")
	}
}

func TestDesignationsIncludeRegionVariants(t *testing.T) {
	p := New()
	bg := context.Background()

	c, _, err := p.Locate(bg, "en-GB")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	designations, err := p.Designations(bg, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(designations) != 3 {
		t.Fatalf("expected a primary designation plus two region-qualified variants, got %d: %+v", len(designations), designations)
	}
}

func TestPropertiesDecomposeSubtags(t *testing.T) {
	p := New()
	bg := context.Background()

	c, _, err := p.Locate(bg, "zh-Hans-CN")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	props, err := p.Properties(c)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"language": "zh", "script": "Hans", "region": "CN"}
	got := make(map[string]string, len(props))
	for _, pr := range props {
		got[pr.Code] = pr.Value
	}
	for code, value := range want {
		if got[code] != value {
			t.Errorf("property %s = %q, want %q", code, got[code], value)
		}
	}
}

func TestSubsumesTestOnlyRecognisesEquivalence(t *testing.T) {
	p := New()
	bg := context.Background()

	sub, err := p.SubsumesTest(bg, "en-GB", "en-GB")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Equivalent {
		t.Fatalf("identical tags should be reported equivalent, got %+v", sub)
	}

	sub, err = p.SubsumesTest(bg, "en-GB", "en-US")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.NotSubsumed {
		t.Fatalf("distinct tags should be reported not subsumed, got %+v", sub)
	}
}

func TestParentIsUnsupported(t *testing.T) {
	p := New()
	if _, err := p.Parent(nil); err != provider.ErrNoParent {
		t.Fatalf("expected ErrNoParent, got %v", err)
	}
}

func TestIteratorIsNilForAnUnboundedGrammar(t *testing.T) {
	p := New()
	if p.Iterator(nil) != nil {
		t.Fatal("BCP-47 has no enumerable concept set")
	}
	if p.TotalCount() != -1 {
		t.Fatalf("TotalCount() = %d, want -1", p.TotalCount())
	}
}
