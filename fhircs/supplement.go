package fhircs

import (
	"fmt"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

// supplementAdapter exposes a Document with Content=ContentSupplement as
// a provider.Supplement, so every provider can overlay it with the same
// shared display-resolution code (spec §4.1.2) rather than each
// reimplementing supplement reads.
type supplementAdapter struct {
	doc *Document
	tag lang.Tag
}

// AsSupplement adapts this Document for overlay onto a host provider. It
// rejects anything other than a CodeSystem with Content=supplement,
// per spec §9 ("constructing a provider validates every supplement up
// front; reject anything other than a CodeSystem resource").
func (d *Document) AsSupplement() (provider.Supplement, error) {
	if d.Content != ContentSupplement {
		return nil, fmt.Errorf("fhircs: %s is not a supplement (content=%q)", d.URL, d.Content)
	}
	tag, err := lang.Parse(d.Language)
	if err != nil {
		return nil, fmt.Errorf("fhircs: supplement %s: invalid language %q: %w", d.URL, d.Language, err)
	}
	return &supplementAdapter{doc: d, tag: tag}, nil
}

func (s *supplementAdapter) Language() lang.Tag { return s.tag }

func (s *supplementAdapter) Display(code string) (string, bool) {
	c, ok := s.doc.Lookup(code)
	if !ok || c.Display == "" {
		return "", false
	}
	return c.Display, true
}

func (s *supplementAdapter) Designations(code string) []provider.Designation {
	c, ok := s.doc.Lookup(code)
	if !ok {
		return nil
	}
	out := make([]provider.Designation, 0, len(c.Designation))
	for _, d := range c.Designation {
		tag, err := lang.Parse(d.Language)
		if err != nil {
			continue
		}
		var use *provider.Use
		if d.Use != nil && d.Use.Code != "" {
			use = &provider.Use{System: d.Use.System, Code: d.Use.Code}
		}
		out = append(out, provider.Designation{Language: tag, Use: use, Value: d.Value})
	}
	return out
}

func (s *supplementAdapter) Properties(code string) []provider.Property {
	c, ok := s.doc.Lookup(code)
	if !ok {
		return nil
	}
	out := make([]provider.Property, 0, len(c.Property))
	for _, p := range c.Property {
		out = append(out, provider.Property{Code: p.Code, Value: p.StringValue()})
	}
	return out
}

// HasAnyDisplays scans every concept in the supplement, not just one
// code, since this is a provider-level capability probe (spec §4.1.2).
func (s *supplementAdapter) HasAnyDisplays(languages lang.Languages) bool {
	concepts := s.doc.Concepts()
	if languages.AnyMatches(s.tag) {
		for _, c := range concepts {
			if c.Display != "" {
				return true
			}
		}
	}
	for _, c := range concepts {
		for _, d := range c.Designation {
			if !d.IsDisplay() || d.Value == "" {
				continue
			}
			tag, err := lang.Parse(d.Language)
			if err != nil {
				continue
			}
			if languages.AnyMatches(tag) {
				return true
			}
		}
	}
	return false
}
