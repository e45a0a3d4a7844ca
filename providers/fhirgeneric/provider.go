// Package fhirgeneric implements the spec §4.3 FHIR CodeSystem provider:
// any CodeSystem resource parsed by fhircs, exposed through the uniform
// provider.Provider contract, with hierarchy closure, the filter
// operators of §4.3's table, and supplement overlay.
package fhirgeneric

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wardle/terminology/fhircs"
	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

// Provider implements provider.Provider over one primary fhircs.Document
// plus zero or more content=supplement documents (spec §4.3).
type Provider struct {
	doc            *fhircs.Document
	supplementDocs []*fhircs.Document
	supplements    []provider.Supplement
}

// New builds a Provider from a primary CodeSystem document and zero or
// more supplement documents, validating every supplement up front (spec
// §9): each must itself be a content=supplement CodeSystem.
func New(doc *fhircs.Document, supplementDocs ...*fhircs.Document) (*Provider, error) {
	if doc == nil {
		return nil, fmt.Errorf("fhirgeneric: nil CodeSystem document")
	}
	p := &Provider{doc: doc, supplementDocs: supplementDocs}
	for _, s := range supplementDocs {
		adapter, err := s.AsSupplement()
		if err != nil {
			return nil, err
		}
		p.supplements = append(p.supplements, adapter)
	}
	return p, nil
}

// --- metadata ---

func (p *Provider) System() string  { return p.doc.URL }
func (p *Provider) Version() string { return p.doc.Version }
func (p *Provider) Name() string    { return p.doc.Name }
func (p *Provider) Description() string {
	if p.doc.Description != "" {
		return p.doc.Description
	}
	return p.doc.Title
}

func (p *Provider) DefLang() lang.Tag {
	if p.doc.Language == "" {
		return lang.MustParse("en")
	}
	t, err := lang.Parse(p.doc.Language)
	if err != nil {
		return lang.MustParse("en")
	}
	return t
}

func (p *Provider) ContentMode() string { return string(p.doc.Content) }
func (p *Provider) TotalCount() int     { return p.doc.TotalCount() }
func (p *Provider) HasParents() bool    { return p.doc.HasParents() }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	out := make([]provider.PropertyDefinition, 0, len(p.doc.Property))
	for _, d := range p.doc.Property {
		out = append(out, provider.PropertyDefinition{Code: d.Code, URI: d.URI, Type: d.Type})
	}
	return out
}

func (p *Provider) HasSupplement(url string) bool {
	for _, s := range p.supplementDocs {
		if s.URL == url {
			return true
		}
	}
	return false
}

func (p *Provider) ListSupplements() []string {
	out := make([]string, 0, len(p.supplementDocs))
	for _, s := range p.supplementDocs {
		out = append(out, s.URL)
	}
	return out
}

// VersionIsMoreDetailed reports whether v1 carries more specific
// dot-separated version information than v2 (e.g. "2023-09.1" is more
// detailed than "2023-09"), comparing segment-by-segment and treating a
// longer, otherwise-matching version string as more detailed.
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool {
	a, b := splitVersion(v1), splitVersion(v2)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return numericLess(b[i], a[i])
		}
	}
	return len(a) > len(b)
}

func splitVersion(v string) []string {
	var out []string
	start := 0
	for i := 0; i < len(v); i++ {
		if v[i] == '.' || v[i] == '-' {
			out = append(out, v[start:i])
			start = i + 1
		}
	}
	out = append(out, v[start:])
	return out
}

func numericLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func (p *Provider) Status() string { return p.doc.Status }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// --- concept resolution ---

func asConcept(c provider.Context) (*fhircs.Concept, error) {
	if c == nil {
		return nil, fmt.Errorf("fhirgeneric: nil context")
	}
	fc, ok := c.(*fhircs.Concept)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return fc, nil
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	c, ok := p.doc.Lookup(code)
	if !ok {
		return nil, fmt.Sprintf("Code '%s' not found in %s", code, p.doc.URL), nil
	}
	return c, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	fc, err := asConcept(c)
	if err != nil {
		return "", err
	}
	return fc.Code, nil
}

func convertDesignations(cds []fhircs.Designation) []provider.Designation {
	out := make([]provider.Designation, 0, len(cds))
	for _, d := range cds {
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

func convertProperties(cps []fhircs.Property) []provider.Property {
	out := make([]provider.Property, 0, len(cps))
	for _, p := range cps {
		out = append(out, provider.Property{Code: p.Code, Value: p.StringValue()})
	}
	return out
}

func (p *Provider) hostDisplay(fc *fhircs.Concept) provider.HostDisplay {
	return provider.HostDisplay{
		DefLang:      p.DefLang(),
		Primary:      fc.Display,
		HasPrimary:   fc.Display != "",
		Designations: convertDesignations(fc.Designation),
	}
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	fc, err := asConcept(c)
	if err != nil {
		return "", err
	}
	return provider.ResolveDisplay(op, fc.Code, p.supplements, p.hostDisplay(fc)), nil
}

func (p *Provider) Definition(c provider.Context) (string, error) {
	fc, err := asConcept(c)
	if err != nil {
		return "", err
	}
	return fc.Definition, nil
}

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	fc, err := asConcept(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeDesignations(fc.Code, convertDesignations(fc.Designation), p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	fc, err := asConcept(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeProperties(fc.Code, convertProperties(fc.Property), p.supplements), nil
}

func (p *Provider) Extensions(c provider.Context) ([]provider.Property, error) {
	return nil, nil
}

func propBool(fc *fhircs.Concept, code string) bool {
	for _, prop := range fc.Property {
		if prop.Code == code && prop.ValueBoolean != nil {
			return *prop.ValueBoolean
		}
	}
	return false
}

func (p *Provider) IsAbstract(c provider.Context) (bool, error) {
	fc, err := asConcept(c)
	if err != nil {
		return false, err
	}
	return propBool(fc, "notSelectable"), nil
}

func (p *Provider) IsInactive(c provider.Context) (bool, error) {
	fc, err := asConcept(c)
	if err != nil {
		return false, err
	}
	return propBool(fc, "inactive"), nil
}

func (p *Provider) IsDeprecated(c provider.Context) (bool, error) {
	fc, err := asConcept(c)
	if err != nil {
		return false, err
	}
	return propBool(fc, "deprecated"), nil
}

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	fc, err := asConcept(c)
	if err != nil {
		return nil, err
	}
	parents := p.doc.Parents(fc.Code)
	if len(parents) == 0 {
		return nil, provider.ErrNoParent
	}
	parent, ok := p.doc.Lookup(parents[0])
	if !ok {
		return nil, provider.ErrNoParent
	}
	return parent, nil
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	fa, erra := asConcept(a)
	fb, errb := asConcept(b)
	if erra != nil || errb != nil {
		return false
	}
	return fa.Code == fb.Code
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	fc, err := asConcept(c)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(requestedProperties))
	for _, r := range requestedProperties {
		want[r] = true
	}
	out := make(map[string]string)
	for _, prop := range fc.Property {
		if len(want) == 0 || want[prop.Code] {
			out[prop.Code] = prop.StringValue()
		}
	}
	return out, nil
}

// --- hierarchy ---

func (p *Provider) LocateIsA(ctx context.Context, code, parentCode string, disallowSelf bool) (provider.Context, string, error) {
	c, msg, err := p.Locate(ctx, code)
	if err != nil || c == nil {
		return c, msg, err
	}
	if code == parentCode {
		if disallowSelf {
			return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
		}
		return c, "", nil
	}
	for _, a := range p.doc.Ancestors(code) {
		if a == parentCode {
			return c, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	aSubsumesB := contains(p.doc.Ancestors(b), a)
	bSubsumesA := contains(p.doc.Ancestors(a), b)
	switch {
	case aSubsumesB && bSubsumesA:
		return provider.Subsumption{Equivalent: true}, nil
	case aSubsumesB:
		return provider.Subsumption{Subsumes: true}, nil
	case bSubsumesA:
		return provider.Subsumption{SubsumedBy: true}, nil
	default:
		return provider.Subsumption{NotSubsumed: true}, nil
	}
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// --- iteration ---

type sliceIterator struct {
	items []*fhircs.Concept
	pos   int
}

func (it *sliceIterator) Next(context.Context) (provider.Context, bool, error) {
	if it.pos >= len(it.items) {
		return nil, false, nil
	}
	c := it.items[it.pos]
	it.pos++
	return c, true, nil
}

func (p *Provider) Iterator(c provider.Context) provider.Iterator {
	if c == nil {
		return &sliceIterator{items: p.doc.Concepts()}
	}
	fc, err := asConcept(c)
	if err != nil {
		return &sliceIterator{}
	}
	var children []*fhircs.Concept
	for _, code := range p.doc.Children(fc.Code) {
		if cc, ok := p.doc.Lookup(code); ok {
			children = append(children, cc)
		}
	}
	return &sliceIterator{items: children}
}

// Close releases nothing: a fhirgeneric Provider holds no external
// resources, only a reference to the already-loaded Document.
func (p *Provider) Close() error { return nil }
