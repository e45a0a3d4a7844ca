package provider

import (
	"strings"

	"github.com/wardle/terminology/lang"
)

// Supplement is the read surface a provider needs from a supplement
// CodeSystem to overlay it onto a host concept (spec §3 "Supplement",
// §4.1.2). fhircs.Document implements this when its Content is
// "supplement"; a provider stores its supplements as an immutable slice
// of this interface so the display/designation/property overlay logic in
// this file is shared across every provider, not reimplemented per
// code system.
type Supplement interface {
	// Language is the supplement resource's own default language, used by
	// display resolution step 1 and by HasAnyDisplays.
	Language() lang.Tag
	// Display returns the supplement's display for code, if any.
	Display(code string) (string, bool)
	// Designations returns every designation the supplement overlays onto
	// code.
	Designations(code string) []Designation
	// Properties returns every property the supplement overlays onto code.
	Properties(code string) []Property
	// HasAnyDisplays reports whether this supplement has, anywhere within
	// it, either a matching default language with any display, or a
	// designation in a matching language with a display-kind use (spec
	// §4.1.2). This is evaluated across the whole supplement, not one
	// code, since hasAnyDisplays is a provider-level capability probe.
	HasAnyDisplays(languages lang.Languages) bool
}

// HasAnyDisplays reports whether any supplement in supplements can supply
// a display for languages, per spec §4.1.2.
func HasAnyDisplays(languages lang.Languages, supplements []Supplement) bool {
	for _, s := range supplements {
		if s.HasAnyDisplays(languages) {
			return true
		}
	}
	return false
}

// HostDisplay is the data a provider must supply about its own (non
// supplement) view of a concept in order to run the shared display
// resolution algorithm.
type HostDisplay struct {
	// DefLang is the CodeSystem's own default language (spec §3
	// "CodeSystem document"), used at algorithm step 5.
	DefLang lang.Tag
	// Primary is the provider's single best display with no language
	// negotiation applied — usually the FSN/primary term. Used at steps
	// 3, 5 and as the step-6 fallback.
	Primary   string
	HasPrimary bool
	// Designations lists the host's own designations in declared order,
	// scanned at step 4.
	Designations []Designation
}

// ResolveDisplay implements the normative display resolution algorithm of
// spec §4.1.1, given a concept's code, the host's own display data, and
// the supplements applicable to the provider. Callers (the provider
// implementations under providers/) gather HostDisplay and call this once
// per Display invocation; the algorithm itself is identical for every
// provider, so it lives here rather than being re-derived per package.
func ResolveDisplay(op *OpContext, code string, supplements []Supplement, host HostDisplay) string {
	if op == nil {
		op = English
	}
	languages := op.Languages

	// Step 1: supplement whose resource language matches some requested
	// language wins outright with its first non-empty display.
	for _, s := range supplements {
		if languages.AnyMatches(s.Language()) {
			if d, ok := s.Display(code); ok && d != "" {
				return d
			}
		}
	}

	// Step 2: else scan every supplement's display-kind designations for
	// a language match.
	for _, s := range supplements {
		for _, d := range s.Designations(code) {
			if !d.Use.IsDisplay() || d.Value == "" {
				continue
			}
			if languages.AnyMatches(d.Language) {
				return d.Value
			}
		}
	}

	// Step 3: "English or nothing" requests take the host's primary
	// display with no further negotiation.
	if languages.IsEnglishOrNothing() {
		if host.HasPrimary {
			return host.Primary
		}
	}

	// Step 4: scan host designations in declared order for each requested
	// language in turn; an exact language match wins over a partial
	// (prefix/narrower) match, but the first requested language to match
	// at all short-circuits the scan.
	for _, w := range languages {
		var partial string
		for _, d := range host.Designations {
			if !d.Use.IsDisplay() || d.Value == "" {
				continue
			}
			if strings.EqualFold(d.Language.String(), w.Tag.String()) {
				return d.Value
			}
			if partial == "" && d.Language.MatchesForDisplay(w.Tag) {
				partial = d.Value
			}
		}
		if partial != "" {
			return partial
		}
	}

	// Step 5: host default language matches a requested language.
	if !host.DefLang.IsZero() && languages.AnyMatches(host.DefLang) && host.HasPrimary {
		return host.Primary
	}

	// Step 6: provider-specific default, usually the primary display.
	if host.HasPrimary {
		return host.Primary
	}

	// Step 7: last resort, a language-less supplement display.
	for _, s := range supplements {
		if s.Language().IsZero() {
			if d, ok := s.Display(code); ok && d != "" {
				return d
			}
		}
	}
	return ""
}

// MergeDesignations concatenates host designations first, then each
// supplement's designations for code in order, per spec §4.1.2 ("the
// merged view for designations concatenates host first, then each
// supplement in order").
func MergeDesignations(code string, host []Designation, supplements []Supplement) []Designation {
	out := make([]Designation, 0, len(host))
	out = append(out, host...)
	for _, s := range supplements {
		out = append(out, s.Designations(code)...)
	}
	return out
}

// MergeProperties concatenates host properties first, then each
// supplement's overlaid properties for code in order.
func MergeProperties(code string, host []Property, supplements []Supplement) []Property {
	out := make([]Property, 0, len(host))
	out = append(out, host...)
	for _, s := range supplements {
		out = append(out, s.Properties(code)...)
	}
	return out
}
