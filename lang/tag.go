// Copyright 2018 Mark Wardle / Eldrix Ltd
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.
//

// Package lang implements BCP-47 language tag parsing and the "matches for
// display" relation used throughout the terminology providers to decide
// whether a designation in one language may stand in for a request in
// another.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Tag is a structured BCP-47 language tag. Unlike golang.org/x/text/language.Tag,
// which canonicalises and hides which subfields were actually present on the
// wire, Tag keeps every subfield as parsed so MatchesForDisplay can tell an
// absent subfield from an explicit one.
type Tag struct {
	raw       string
	Primary   string
	ExtLang   []string
	Script    string
	Region    string
	Variant   string
	Extension string
	PrivateUse []string
}

// Parse parses a BCP-47 tag such as "en", "en-GB", "de-CH" or "zh-Hans-CN".
// It delegates canonical-form validation to golang.org/x/text/language and
// then re-splits the original string so every subfield the caller wrote is
// preserved verbatim for display matching.
func Parse(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tag{}, nil
	}
	if _, err := language.Parse(s); err != nil {
		return Tag{}, err
	}
	return parseSubfields(s), nil
}

// MustParse parses s, panicking on error. Intended for static tag literals.
func MustParse(s string) Tag {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseSubfields(s string) Tag {
	t := Tag{raw: s}
	parts := strings.Split(s, "-")
	if len(parts) == 0 {
		return t
	}
	t.Primary = strings.ToLower(parts[0])
	rest := parts[1:]
	for len(rest) > 0 && len(rest[0]) == 3 && isAlpha(rest[0]) {
		t.ExtLang = append(t.ExtLang, strings.ToLower(rest[0]))
		rest = rest[1:]
	}
	if len(rest) > 0 && len(rest[0]) == 4 && isAlpha(rest[0]) {
		t.Script = strings.Title(strings.ToLower(rest[0]))
		rest = rest[1:]
	}
	if len(rest) > 0 && (len(rest[0]) == 2 && isAlpha(rest[0]) || len(rest[0]) == 3 && isDigit(rest[0])) {
		t.Region = strings.ToUpper(rest[0])
		rest = rest[1:]
	}
	var variants []string
	for len(rest) > 0 && isVariantSubtag(rest[0]) {
		variants = append(variants, rest[0])
		rest = rest[1:]
	}
	t.Variant = strings.Join(variants, "-")
	var extensions, privateUse []string
	inPrivateUse := false
	for _, p := range rest {
		if p == "x" {
			inPrivateUse = true
			continue
		}
		if inPrivateUse {
			privateUse = append(privateUse, p)
			continue
		}
		extensions = append(extensions, p)
	}
	t.Extension = strings.Join(extensions, "-")
	t.PrivateUse = privateUse
	return t
}

func isVariantSubtag(s string) bool {
	if len(s) >= 5 && len(s) <= 8 {
		return true
	}
	return len(s) == 4 && isDigit(s[:1])
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func isDigit(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsZero reports whether this is the empty tag (no primary subtag).
func (t Tag) IsZero() bool {
	return t.Primary == ""
}

// String reconstructs the tag string. Parse(t.String()) always yields an
// equivalent Tag: this is the round-trip invariant required by spec §3.
func (t Tag) String() string {
	if t.raw != "" {
		return t.raw
	}
	var b strings.Builder
	b.WriteString(t.Primary)
	for _, e := range t.ExtLang {
		b.WriteByte('-')
		b.WriteString(e)
	}
	if t.Script != "" {
		b.WriteByte('-')
		b.WriteString(t.Script)
	}
	if t.Region != "" {
		b.WriteByte('-')
		b.WriteString(t.Region)
	}
	if t.Variant != "" {
		b.WriteByte('-')
		b.WriteString(t.Variant)
	}
	if t.Extension != "" {
		b.WriteByte('-')
		b.WriteString(t.Extension)
	}
	for _, p := range t.PrivateUse {
		b.WriteString("-x-")
		b.WriteString(p)
	}
	return b.String()
}

// IsEnglishOrNothing reports whether this tag is "English or nothing": the
// primary subtag is "en", or the tag is entirely empty. Used by the display
// resolution algorithm (spec §4.1.1 step 3) as a fast path for the common
// case where no real language negotiation is needed.
func (t Tag) IsEnglishOrNothing() bool {
	return t.Primary == "" || strings.EqualFold(t.Primary, "en")
}

// MatchesForDisplay reports whether tag a may be used in place of tag b for
// display purposes: the primary subtags are equal, and every subfield b
// specifies is also specified on a with an equal (not merely compatible)
// value. This makes the relation asymmetric: a narrower tag may stand in for
// a wider request, naming only what it itself constrains, but a wider tag
// cannot satisfy a narrower request for a subfield it never specified.
//
//	de-CH.MatchesForDisplay(de)     == true   (de names nothing beyond primary)
//	fr-CA.MatchesForDisplay(fr)     == true
//	de-DE.MatchesForDisplay(de-AT)  == false  (de-AT asks for region AT, de-DE has DE)
//	de.MatchesForDisplay(de-DE)     == false  (de-DE asks for region DE, de has none)
func (a Tag) MatchesForDisplay(b Tag) bool {
	if !strings.EqualFold(a.Primary, b.Primary) {
		return false
	}
	if b.Script != "" && !strings.EqualFold(a.Script, b.Script) {
		return false
	}
	if b.Region != "" && !strings.EqualFold(a.Region, b.Region) {
		return false
	}
	if b.Variant != "" && !strings.EqualFold(a.Variant, b.Variant) {
		return false
	}
	if len(b.ExtLang) > 0 && !strings.EqualFold(strings.Join(a.ExtLang, "-"), strings.Join(b.ExtLang, "-")) {
		return false
	}
	if b.Extension != "" && !strings.EqualFold(a.Extension, b.Extension) {
		return false
	}
	if len(b.PrivateUse) > 0 && !strings.EqualFold(strings.Join(a.PrivateUse, "-"), strings.Join(b.PrivateUse, "-")) {
		return false
	}
	return true
}
