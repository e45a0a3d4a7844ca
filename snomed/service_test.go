package snomed

import (
	"testing"

	"github.com/wardle/terminology/lang"
)

func TestPreferredDescription(t *testing.T) {
	r, err := Open(buildFixture(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	languages := lang.FromTags(lang.MustParse("en"))
	d, err := r.PreferredDescription(25064002, languages)
	if err != nil {
		t.Fatalf("PreferredDescription: %v", err)
	}
	if d.Term != "Headache" {
		t.Errorf("term = %q, want Headache", d.Term)
	}
}

func TestPreferredDescriptionFallsBackToFSN(t *testing.T) {
	r, err := Open(buildFixture(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// 404684003 ("Finding") only has a fully specified name in the fixture,
	// no preferred synonym, so PreferredDescription must fall back to it.
	languages := lang.FromTags(lang.MustParse("en"))
	d, err := r.PreferredDescription(404684003, languages)
	if err != nil {
		t.Fatalf("PreferredDescription: %v", err)
	}
	if d.Term != "Finding" {
		t.Errorf("term = %q, want Finding", d.Term)
	}
}

func TestAncestorsAndIsA(t *testing.T) {
	r, err := Open(buildFixture(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ancestors, err := r.Ancestors(25064002)
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(ancestors) != 1 || ancestors[0] != 404684003 {
		t.Errorf("Ancestors(headache) = %v, want [404684003]", ancestors)
	}

	isA, err := r.IsA(25064002, 404684003)
	if err != nil || !isA {
		t.Errorf("IsA(headache, finding) = %v, %v, want true, nil", isA, err)
	}

	isA, err = r.IsA(404684003, 25064002)
	if err != nil || isA {
		t.Errorf("IsA(finding, headache) = %v, %v, want false, nil", isA, err)
	}
}
