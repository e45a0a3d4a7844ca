package lang

import "testing"

func TestMatchesForDisplay(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"de-CH", "de", true},
		{"fr-CA", "fr", true},
		{"de-DE", "de-AT", false},
		{"de", "de-DE", false},
		{"en-GB", "en-GB", true},
		{"en", "fr", false},
	}
	for _, tt := range tests {
		a, err := Parse(tt.a)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.a, err)
		}
		b, err := Parse(tt.b)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.b, err)
		}
		if got := a.MatchesForDisplay(b); got != tt.want {
			t.Errorf("%s.MatchesForDisplay(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"en", "en-GB", "de-CH", "zh-Hans-CN", "es-419"} {
		tag, err := Parse(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		tag2, err := Parse(tag.String())
		if err != nil {
			t.Fatalf("reparse %s: %v", tag.String(), err)
		}
		if tag2.Primary != tag.Primary || tag2.Region != tag.Region || tag2.Script != tag.Script {
			t.Errorf("round trip mismatch for %s: %+v vs %+v", s, tag, tag2)
		}
	}
}

func TestIsEnglishOrNothing(t *testing.T) {
	empty := Tag{}
	if !empty.IsEnglishOrNothing() {
		t.Error("empty tag should be English or nothing")
	}
	en := MustParse("en-US")
	if !en.IsEnglishOrNothing() {
		t.Error("en-US should be English or nothing")
	}
	fr := MustParse("fr")
	if fr.IsEnglishOrNothing() {
		t.Error("fr should not be English or nothing")
	}
}
