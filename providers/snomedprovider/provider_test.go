package snomedprovider

import (
	"context"
	"testing"

	"github.com/wardle/terminology/provider"
	"github.com/wardle/terminology/snomed"
)

// buildFixture constructs a tiny hierarchy: "finding" (404684003) with a
// fully specified name only, and "headache" (25064002) Is-A finding with a
// preferred English synonym, using snomed.NewTestReader the way the
// expression package's own normaliser tests do.
func buildFixture() *snomed.Reader {
	const isAID = 116680003
	const findingID = 404684003
	const headacheID = 25064002
	const langRefsetID = 900000000000508004

	concepts := []snomed.Concept{
		{Identity: findingID, Flags: 1, ActiveChildren: []int64{headacheID}, Descriptions: []int64{0}},
		{Identity: headacheID, Flags: 1, ActiveParents: []int64{findingID}, Descriptions: []int64{1}, Outbound: []int64{0}},
	}
	descriptions := []snomed.Description{
		{ID: 1000001, ConceptID: findingID, LanguageCode: "en", TypeID: int64(snomed.FullySpecifiedName), Term: "Finding", Active: true},
		{ID: 1000002, ConceptID: headacheID, LanguageCode: "en", TypeID: int64(snomed.Synonym), Term: "Headache", Active: true},
	}
	relationships := []snomed.Relationship{
		{ID: 2000001, SourceID: headacheID, DestinationID: findingID, TypeID: isAID, CharacteristicTypeID: 900000000000011006, Active: true},
	}
	members := []snomed.ReferenceSetMember{
		{ID: 3000001, RefsetID: langRefsetID, ReferencedComponent: 1000002, Active: true, AcceptabilityID: 900000000000548007},
	}
	return snomed.NewTestReader(concepts, descriptions, relationships, members, isAID)
}

func TestLocateBareSCTIDAndDisplay(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	op := provider.NewOpContextFromAcceptLanguage("en")
	c, msg, err := p.Locate(context.Background(), "25064002")
	if err != nil || c == nil {
		t.Fatalf("locate headache failed: err=%v msg=%q", err, msg)
	}
	display, err := p.Display(context.Background(), op, c)
	if err != nil {
		t.Fatal(err)
	}
	if display != "Headache" {
		t.Fatalf("unexpected display %q", display)
	}
}

func TestParentAndSubsumesTest(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	c, _, err := p.Locate(context.Background(), "25064002")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	parent, err := p.Parent(c)
	if err != nil {
		t.Fatal(err)
	}
	parentCode, err := p.Code(parent)
	if err != nil || parentCode != "404684003" {
		t.Fatalf("expected parent 404684003, got %q (err=%v)", parentCode, err)
	}

	sub, err := p.SubsumesTest(context.Background(), "404684003", "25064002")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Subsumes {
		t.Fatalf("expected finding to subsume headache, got %+v", sub)
	}
}

func TestIsAFilter(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	fctx := p.GetPrepContext(false)
	if err := p.Filter(fctx, "concept", "is-a", "404684003"); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 filter set, got %d", len(sets))
	}
	c, _, err := p.Locate(context.Background(), "25064002")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	if !sets[0].Check(c) {
		t.Fatal("expected headache to satisfy is-a 404684003 via its Is-A relationship")
	}
}

func TestSearchFilterMatchesDescriptionTerm(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	fctx := p.GetPrepContext(false)
	if err := p.SearchFilter(context.Background(), fctx, "headache", true); err != nil {
		t.Fatal(err)
	}
	sets, err := p.ExecuteFilters(context.Background(), fctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 filter set, got %d", len(sets))
	}
	c, _, err := p.Locate(context.Background(), "25064002")
	if err != nil || c == nil {
		t.Fatalf("locate failed: %v", err)
	}
	if !sets[0].Check(c) {
		t.Fatal("expected a search for 'headache' to match the headache concept")
	}
	if sets[0].Size() != 1 {
		t.Fatalf("expected exactly 1 hit, got %d", sets[0].Size())
	}
}

func TestUnknownCodeIsNotFound(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	c, msg, err := p.Locate(context.Background(), "999")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil || msg == "" {
		t.Fatal("expected nil context and not-found message for an absent concept")
	}
}

func TestExpressionLocateRejectsUnknownFocusConcept(t *testing.T) {
	p, err := New(buildFixture())
	if err != nil {
		t.Fatal(err)
	}
	c, msg, err := p.Locate(context.Background(), "123456789:116680003=404684003")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil || msg == "" {
		t.Fatal("expected a not-found outcome for an expression whose focus concept is absent from the cache")
	}
}
