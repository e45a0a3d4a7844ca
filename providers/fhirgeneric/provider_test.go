package fhirgeneric

import (
	"context"
	"testing"

	"github.com/wardle/terminology/fhircs"
	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

func mustParse(t *testing.T, data string) *fhircs.Document {
	t.Helper()
	doc, err := fhircs.ParseJSON([]byte(data))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	return doc
}

func TestIsAReflexiveAndDescendentOfExcludesSelf(t *testing.T) {
	doc := mustParse(t, `{
		"resourceType": "CodeSystem", "url": "http://example.org/fruit", "content": "complete",
		"concept": [{"code": "fruit", "display": "Fruit", "concept": [
			{"code": "apple", "display": "Apple"}
		]}]
	}`)
	p, err := New(doc)
	if err != nil {
		t.Fatal(err)
	}
	bg := context.Background()
	if _, msg, _ := p.LocateIsA(bg, "fruit", "fruit", false); msg != "" {
		t.Fatalf("is-a(A,A) should succeed, got message %q", msg)
	}
	if _, msg, _ := p.LocateIsA(bg, "fruit", "fruit", true); msg == "" {
		t.Fatal("descendent-of(A,A) should fail when self is disallowed")
	}
	sub, err := p.SubsumesTest(bg, "fruit", "apple")
	if err != nil || !sub.Subsumes {
		t.Fatalf("fruit should subsume apple: %+v, %v", sub, err)
	}
}

func TestFilterIsA(t *testing.T) {
	doc := mustParse(t, `{
		"resourceType": "CodeSystem", "url": "http://example.org/fruit", "content": "complete",
		"concept": [{"code": "fruit", "display": "Fruit", "concept": [
			{"code": "apple", "display": "Apple"},
			{"code": "banana", "display": "Banana"}
		]}]
	}`)
	p, err := New(doc)
	if err != nil {
		t.Fatal(err)
	}
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "concept", "is-a", "fruit"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].Size() != 3 {
		t.Fatalf("expected 1 set of 3 members, got %#v", sets)
	}
}

func TestSupplementDisplayOverlay(t *testing.T) {
	host := mustParse(t, `{
		"resourceType": "CodeSystem", "url": "http://example.org/fruit", "content": "complete",
		"language": "en",
		"concept": [{"code": "apple", "display": "Apple"}]
	}`)
	supplement := mustParse(t, `{
		"resourceType": "CodeSystem", "url": "http://example.org/fruit-nl", "content": "supplement",
		"supplements": "http://example.org/fruit", "language": "nl",
		"concept": [{"code": "apple", "display": "Appel"}]
	}`)
	p, err := New(host, supplement)
	if err != nil {
		t.Fatal(err)
	}
	nl := lang.FromTags(lang.MustParse("nl"))
	if !p.HasAnyDisplays(nl) {
		t.Fatal("HasAnyDisplays(nl) should be true with a matching nl supplement")
	}
	ctx, _, err := p.Locate(context.Background(), "apple")
	if err != nil || ctx == nil {
		t.Fatalf("Locate(apple) failed: %v", err)
	}
	display, err := p.Display(context.Background(), provider.NewOpContext(nl), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if display != "Appel" {
		t.Fatalf("Display with nl op context = %q, want Appel", display)
	}
}

func TestLocateUnknownCodeReturnsMessageNotError(t *testing.T) {
	doc := mustParse(t, `{"resourceType": "CodeSystem", "url": "http://example.org/x", "content": "complete", "concept": [{"code": "a", "display": "A"}]}`)
	p, err := New(doc)
	if err != nil {
		t.Fatal(err)
	}
	ctx, msg, err := p.Locate(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("locate of unknown code must not be an error: %v", err)
	}
	if ctx != nil || msg == "" {
		t.Fatalf("expected nil context and a message, got %v %q", ctx, msg)
	}
}
