package lang

import "testing"

func TestFromAcceptLanguage(t *testing.T) {
	l := FromAcceptLanguage("fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7, *;q=0.5")
	if len(l) != 4 {
		t.Fatalf("expected 4 tags (fr-CH, fr, en, de), got %d: %+v", len(l), l)
	}
	if l[0].Tag.Primary != "fr" || l[0].Tag.Region != "CH" {
		t.Errorf("expected fr-CH first, got %+v", l[0])
	}
	if l[0].Quality != 1.0 {
		t.Errorf("expected implicit quality 1.0, got %v", l[0].Quality)
	}
}

func TestFromAcceptLanguageEmpty(t *testing.T) {
	l := FromAcceptLanguage("")
	if !l.IsEnglishOrNothing() {
		t.Error("empty header should be treated as English or nothing")
	}
}

func TestFromAcceptLanguageZeroQualityExcluded(t *testing.T) {
	l := FromAcceptLanguage("en;q=0, fr;q=0.5")
	if len(l) != 1 || l[0].Tag.Primary != "fr" {
		t.Errorf("expected only fr to survive, got %+v", l)
	}
}
