package expression

import (
	"testing"

	"github.com/wardle/terminology/snomed"
)

// buildNormalizerFixture constructs a tiny hierarchy: primitive "finding"
// (1), primitive "headache" (2, Is-A finding), and a sufficiently defined
// "migraine" (3) with an Is-A to headache plus one defining "associated
// with" relationship and one qualifying (non-defining) relationship to
// finding, used to exercise the primitive-ancestor walk and refinement
// extraction in NormalizeConcept.
func buildNormalizerFixture() *snomed.Reader {
	const isAID = 116680003
	const associatedWithID = 47429007
	concepts := []snomed.Concept{
		{Identity: 1, Flags: 1 /* active, primitive */},
		{Identity: 2, Flags: 1, ActiveParents: []int64{1}, Outbound: []int64{0}},
		{Identity: 3, Flags: 1 | 2 /* active, defined */, ActiveParents: []int64{2}, Outbound: []int64{1, 2, 3}},
	}
	relationships := []snomed.Relationship{
		{ID: 100, SourceID: 2, DestinationID: 1, TypeID: isAID, CharacteristicTypeID: 900000000000011006, Active: true},
		{ID: 101, SourceID: 3, DestinationID: 2, TypeID: isAID, CharacteristicTypeID: 900000000000011006, Active: true},
		{ID: 102, SourceID: 3, DestinationID: 1, TypeID: associatedWithID, CharacteristicTypeID: 900000000000011006, Active: true},
		{ID: 103, SourceID: 3, DestinationID: 1, TypeID: associatedWithID, CharacteristicTypeID: 900000000000225001, Active: true}, // qualifying, not defining
	}
	return snomed.NewTestReader(concepts, nil, relationships, nil, isAID)
}

func TestNormalizeConceptPrimitiveIsUnchanged(t *testing.T) {
	r := buildNormalizerFixture()
	e, err := NormalizeConcept(r, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Concepts) != 1 || e.Concepts[0].Code != 2 {
		t.Errorf("NormalizeConcept of a primitive concept should leave it as its own focus concept, got %+v", e.Concepts)
	}
	if len(e.Refinements) != 0 {
		t.Errorf("Is-A relationships should never become refinements, got %+v", e.Refinements)
	}
}

func TestNormalizeConceptDefinedConceptExtractsRefinement(t *testing.T) {
	r := buildNormalizerFixture()
	e, err := NormalizeConcept(r, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Concepts) != 1 || e.Concepts[0].Code != 2 {
		t.Errorf("a defined concept should normalise to its nearest primitive ancestor (2), got %+v", e.Concepts)
	}
	if len(e.Refinements) != 1 {
		t.Fatalf("expected exactly one defining, non-Is-A refinement, got %+v", e.Refinements)
	}
	if e.Refinements[0].Name.Code != 47429007 || e.Refinements[0].Value.Concepts[0].Code != 1 {
		t.Errorf("unexpected refinement: %+v", e.Refinements[0])
	}
}

func TestNormalizeBareReferenceKeepsFocusConcept(t *testing.T) {
	r := buildNormalizerFixture()
	e, err := Parse("2")
	if err != nil {
		t.Fatal(err)
	}
	n, err := Normalize(r, e)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Concepts) != 1 || n.Concepts[0].Code != 2 {
		t.Errorf("Normalize of a bare reference should keep the same focus concept, got %+v", n.Concepts)
	}
}

func TestMergeExpressionsDedupsConceptsAndRefinements(t *testing.T) {
	a := &Expression{
		Concepts:    []Concept{{Code: 1}},
		Refinements: []Refinement{{Name: Concept{Code: 10}, Value: FromReference(100)}},
	}
	b := &Expression{
		Concepts:    []Concept{{Code: 1}, {Code: 2}},
		Refinements: []Refinement{{Name: Concept{Code: 10}, Value: FromReference(100)}},
	}
	merged := mergeExpressions([]*Expression{a, b})
	if len(merged.Concepts) != 2 {
		t.Errorf("expected 2 distinct concepts after merge, got %v", merged.Concepts)
	}
	if len(merged.Refinements) != 1 {
		t.Errorf("expected the duplicate refinement to be merged away, got %v", merged.Refinements)
	}
}

func TestMergeExpressionsConcatenatesGroups(t *testing.T) {
	a := &Expression{RefinementGroups: []RefinementGroup{{Refinements: []Refinement{{Name: Concept{Code: 1}, Value: FromReference(2)}}}}}
	b := &Expression{RefinementGroups: []RefinementGroup{{Refinements: []Refinement{{Name: Concept{Code: 3}, Value: FromReference(4)}}}}}
	merged := mergeExpressions([]*Expression{a, b})
	if len(merged.RefinementGroups) != 2 {
		t.Errorf("expected refinement groups to be concatenated, not merged, got %v", merged.RefinementGroups)
	}
}
