package area

import (
	"context"
	"testing"
)

func TestClassFilter(t *testing.T) {
	p := New()
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "class", "=", "country"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].Size() == 0 {
		t.Fatalf("expected a non-empty country set, got %#v", sets)
	}
	if _, msg, _ := sets[0].Locate(context.Background(), "001"); msg == "" {
		t.Fatal("the World region should not satisfy class=country")
	}
}

func TestHierarchy(t *testing.T) {
	p := New()
	bg := context.Background()
	sub, msg, err := p.LocateIsA(bg, "840", "019", false)
	if err != nil || msg != "" || sub == nil {
		t.Fatalf("USA should be within the Americas: %v %q", err, msg)
	}
	sub2, err := p.SubsumesTest(bg, "001", "840")
	if err != nil || !sub2.Subsumes {
		t.Fatalf("World should subsume USA: %+v %v", sub2, err)
	}
}
