package lang

import (
	"sort"
	"strconv"
	"strings"
)

// Weighted pairs a language tag with its requested quality (0..1), as found
// in an HTTP Accept-Language header entry.
type Weighted struct {
	Tag     Tag
	Quality float64
}

// Languages is an ordered, quality-ranked list of requested display
// languages, as carried by the operation context (spec §3). Entries are
// sorted by descending quality; zero-quality entries are never present.
type Languages []Weighted

// Empty is the zero-value Languages list, treated as "English or nothing"
// by IsEnglishOrNothing.
var Empty Languages

// FromAcceptLanguage parses a comma-separated Accept-Language header value,
// each entry optionally carrying a ";q=" weight, into a Languages list
// sorted by descending quality. An empty header yields an empty list.
func FromAcceptLanguage(header string) Languages {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	entries := strings.Split(header, ",")
	out := make(Languages, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		tagPart := e
		quality := 1.0
		if idx := strings.Index(e, ";"); idx >= 0 {
			tagPart = strings.TrimSpace(e[:idx])
			params := e[idx+1:]
			for _, p := range strings.Split(params, ";") {
				p = strings.TrimSpace(p)
				if strings.HasPrefix(p, "q=") {
					if q, err := strconv.ParseFloat(strings.TrimPrefix(p, "q="), 64); err == nil {
						quality = q
					}
				}
			}
		}
		if quality <= 0 {
			continue
		}
		t, err := Parse(tagPart)
		if err != nil || t.IsZero() {
			continue
		}
		out = append(out, Weighted{Tag: t, Quality: quality})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quality > out[j].Quality
	})
	return out
}

// FromTags builds a Languages list from explicit tags, all at quality 1.0,
// preserving the given order. Used when a caller already has parsed tags
// rather than a raw Accept-Language header.
func FromTags(tags ...Tag) Languages {
	out := make(Languages, 0, len(tags))
	for _, t := range tags {
		if !t.IsZero() {
			out = append(out, Weighted{Tag: t, Quality: 1})
		}
	}
	return out
}

// IsEnglishOrNothing reports whether this list is empty, or contains only
// tags that are themselves "English or nothing".
func (l Languages) IsEnglishOrNothing() bool {
	if len(l) == 0 {
		return true
	}
	for _, w := range l {
		if !w.Tag.IsEnglishOrNothing() {
			return false
		}
	}
	return true
}

// AnyMatches reports whether the candidate tag b matches some requested
// tag in the list for display (spec §4.1.1's "A matches some l∈L"), i.e.
// b.MatchesForDisplay(l[i].Tag): a narrower candidate satisfies a wider
// request, never the reverse.
func (l Languages) AnyMatches(b Tag) bool {
	for _, w := range l {
		if b.MatchesForDisplay(w.Tag) {
			return true
		}
	}
	return false
}

// MatchedBy reports whether any tag in the list is matched-for-display by a
// (i.e. a.MatchesForDisplay(l[i].Tag)), used when the host designation's
// language is the narrower side and the requested languages are the wider
// side being satisfied.
func (l Languages) MatchedBy(a Tag) bool {
	for _, w := range l {
		if a.MatchesForDisplay(w.Tag) {
			return true
		}
	}
	return false
}
