// Package cpt implements the CPT provider (spec §4.5): plain codes and
// modifiers co-existing in one code system, plus expression codes of the
// form "base:modifier[:modifier]*" validated against mutually-exclusive
// modifier sets, kind constraints, and code-specific modifier allow-lists.
package cpt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "http://www.ama-assn.org/go/cpt"

// expandLimitation bounds how many members Filter will ever materialise;
// Iterator is not bounded by it (spec §4.5 "expandLimitation = 1000").
const expandLimitation = 1000

type kind string

const (
	kindCode       kind = "code"
	kindModifier   kind = "modifier"
	kindCat2       kind = "cat2"      // category II code
	kindHCPCS      kind = "hcpcs-mod" // HCPCS-level modifier
	kindPhysStatus kind = "phys-status"
)

type entry struct {
	code    string
	display string
	kind    kind
}

// mutuallyExclusiveSets lists modifier groups of which at most one may
// appear in a single expression (spec §4.5 "mutually-exclusive modifier
// sets").
var mutuallyExclusiveSets = [][]string{
	{"25", "57", "59"},
	{"52", "53", "73", "74"},
	{"76", "77", "78", "79"},
	{"93", "95"},
}

// codeSpecificAllowLists restricts modifiers 63/92/95 to specific base
// codes (spec §4.5 "code-specific allow-lists for modifiers 63, 92, 95").
var codeSpecificAllowLists = map[string][]string{
	"63": {"00100"},
	"92": {"86701", "86702"},
	"95": {"99213", "99214", "99441"},
}

// Store holds the CPT Information/Concepts/Properties/Designations
// tables of spec §6 as an in-memory fixture.
type Store struct {
	entries map[string]*entry
}

// DefaultFixture returns a small representative CPT subset.
func DefaultFixture() *Store {
	return &Store{entries: map[string]*entry{
		"99213": {code: "99213", display: "Office visit, established patient, low complexity", kind: kindCode},
		"99214": {code: "99214", display: "Office visit, established patient, moderate complexity", kind: kindCode},
		"99441": {code: "99441", display: "Telephone E/M service", kind: kindCode},
		"86701": {code: "86701", display: "Antibody; HIV-1", kind: kindCode},
		"86702": {code: "86702", display: "Antibody; HIV-2", kind: kindCode},
		"00100": {code: "00100", display: "Anesthesia for procedures on salivary glands", kind: kindCode},
		"25":    {code: "25", display: "Significant, separately identifiable E/M service", kind: kindModifier},
		"57":    {code: "57", display: "Decision for surgery", kind: kindModifier},
		"59":    {code: "59", display: "Distinct procedural service", kind: kindModifier},
		"52":    {code: "52", display: "Reduced services", kind: kindModifier},
		"63":    {code: "63", display: "Procedure performed on infants < 4 kg", kind: kindPhysStatus},
		"92":    {code: "92", display: "Alternative laboratory platform testing", kind: kindHCPCS},
		"95":    {code: "95", display: "Synchronous telemedicine service", kind: kindModifier},
	}}
}

// Provider implements provider.Provider over a CPT Store.
type Provider struct {
	store       *Store
	supplements []provider.Supplement
}

func New(s *Store, supplements ...provider.Supplement) *Provider {
	return &Provider{store: s, supplements: supplements}
}

// Context identifies either a plain code/modifier or a validated
// expression "base:modifier[:modifier]*" (spec §4.5 "CPT").
type Context struct {
	code      string
	base      string
	modifiers []string
}

func asContext(c provider.Context) (*Context, error) {
	cc, ok := c.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cc, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "CPT" }
func (p *Provider) Description() string { return "Current Procedural Terminology" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return -1 } // expressions are unbounded
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{
		{Code: "modifier", Type: "code"},
		{Code: "modified", Type: "code"},
		{Code: "kind", Type: "code"},
	}
}

func (p *Provider) HasSupplement(string) bool                { return false }
func (p *Provider) ListSupplements() []string                { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool  { return v1 > v2 }
func (p *Provider) Status() string                            { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// validateModifiers applies spec §4.5's validation rules: mutually
// exclusive sets (at most one per group), kind constraints (cat-2
// modifier requires cat-2 base; physical-status modifier requires code
// 00100-01999; hcpcs modifier requires coexisting modifier 59), and
// code-specific allow-lists for 63/92/95.
func (s *Store) validateModifiers(base string, modifiers []string) error {
	if _, ok := s.entries[base]; !ok {
		return fmt.Errorf("base code %s not found", base)
	}
	for _, group := range mutuallyExclusiveSets {
		count := 0
		for _, m := range modifiers {
			if contains(group, m) {
				count++
			}
		}
		if count > 1 {
			return fmt.Errorf("mutually exclusive modifiers used together from set %v", group)
		}
	}
	hasModifier := func(code string) bool { return contains(modifiers, code) }
	for _, m := range modifiers {
		me, ok := s.entries[m]
		if !ok {
			return fmt.Errorf("modifier %s not found", m)
		}
		switch me.kind {
		case kindPhysStatus:
			baseNum, err := strconv.Atoi(base)
			if err != nil || baseNum < 100 || baseNum > 1999 {
				return fmt.Errorf("physical-status modifier %s requires a code in range 00100-01999", m)
			}
		case kindHCPCS:
			if !hasModifier("59") {
				return fmt.Errorf("hcpcs modifier %s requires coexisting modifier 59", m)
			}
		case kindCat2:
			if s.entries[base].kind != kindCat2 {
				return fmt.Errorf("category II modifier %s requires a category II base code", m)
			}
		}
		if allow, ok := codeSpecificAllowLists[m]; ok && !contains(allow, base) {
			return fmt.Errorf("modifier %s is not allowed on base code %s", m, base)
		}
	}
	return nil
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// Locate validates a plain code/modifier, or (if it contains a colon) an
// expression "base:modifier[:modifier]*" (spec §4.5 "CPT").
func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if !strings.Contains(code, ":") {
		if _, ok := p.store.entries[code]; !ok {
			return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
		}
		return &Context{code: code, base: code}, "", nil
	}
	parts := strings.Split(code, ":")
	base, modifiers := parts[0], parts[1:]
	if _, ok := p.store.entries[base]; !ok {
		return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
	}
	if err := p.store.validateModifiers(base, modifiers); err != nil {
		return nil, fmt.Sprintf("Code '%s' is invalid: %v", code, err), nil
	}
	return &Context{code: code, base: base, modifiers: modifiers}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	return cc.code, nil
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	base, ok := p.store.entries[cc.base]
	name := ""
	if ok {
		name = base.display
	}
	for _, m := range cc.modifiers {
		if me, ok := p.store.entries[m]; ok {
			name += " (" + me.display + ")"
		}
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: name, HasPrimary: name != ""}
	return provider.ResolveDisplay(op, cc.code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	base, ok := p.store.entries[cc.base]
	var host []provider.Designation
	if ok {
		host = append(host, provider.Designation{Language: lang.MustParse("en"), Value: base.display})
	}
	return provider.MergeDesignations(cc.code, host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	base, ok := p.store.entries[cc.base]
	var host []provider.Property
	if ok {
		host = append(host, provider.Property{Code: "kind", Value: string(base.kind)})
	}
	for _, m := range cc.modifiers {
		host = append(host, provider.Property{Code: "modifier", Value: m})
	}
	if len(cc.modifiers) > 0 {
		host = append(host, provider.Property{Code: "modified", Value: cc.base})
	}
	return provider.MergeProperties(cc.code, host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

// IsAbstract is false for a validated expression context; modifier
// concepts on their own may be abstract (spec §4.5 "CPT").
func (p *Provider) IsAbstract(c provider.Context) (bool, error) {
	cc, err := asContext(c)
	if err != nil {
		return false, err
	}
	if len(cc.modifiers) > 0 {
		return false, nil
	}
	e, ok := p.store.entries[cc.base]
	return ok && (e.kind == kindModifier || e.kind == kindHCPCS || e.kind == kindPhysStatus), nil
}

func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	if len(cc.modifiers) == 0 {
		return nil, provider.ErrNoParent
	}
	return &Context{code: cc.base, base: cc.base}, nil
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.code == cb.code
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	props, err := p.Properties(c)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, pr := range props {
		out[pr.Code] = pr.Value
	}
	return out, nil
}

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
	cc := c.(*Context)
	if cc.base == parentCode && len(cc.modifiers) > 0 {
		return c, "", nil
	}
	return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	bParts := strings.SplitN(b, ":", 2)
	if len(bParts) == 2 && bParts[0] == a {
		return provider.Subsumption{Subsumes: true}, nil
	}
	aParts := strings.SplitN(a, ":", 2)
	if len(aParts) == 2 && aParts[0] == b {
		return provider.Subsumption{SubsumedBy: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

type sliceIterator struct {
	items []*Context
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
		codes := make([]string, 0, len(p.store.entries))
		for code := range p.store.entries {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		items := make([]*Context, 0, len(codes))
		for _, code := range codes {
			items = append(items, &Context{code: code, base: code})
		}
		return &sliceIterator{items: items}
	}
	return &sliceIterator{}
}

// ---- filtering ----

type closedSet struct {
	items []*Context
	pos   int
}

func (s *closedSet) Size() int { return len(s.items) }

func (s *closedSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	c := s.items[s.pos]
	s.pos++
	return c, true, nil
}

func (s *closedSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	for _, c := range s.items {
		if c.code == code {
			return c, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
}

func (s *closedSet) Check(c provider.Context) bool {
	cc, ok := c.(*Context)
	if !ok {
		return false
	}
	for _, m := range s.items {
		if m.code == cc.code {
			return true
		}
	}
	return false
}

func (s *closedSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return (property == "modifier" || property == "modified" || property == "kind") && op == "="
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if op != "=" || (property != "modifier" && property != "modified" && property != "kind") {
		return fmt.Errorf("%w: cpt filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
	var items []*Context
	codes := make([]string, 0, len(p.store.entries))
	for code := range p.store.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		e := p.store.entries[code]
		match := false
		switch property {
		case "kind":
			match = string(e.kind) == value
		case "modifier", "modified":
			match = e.kind == kindModifier && code == value
		}
		if match {
			items = append(items, &Context{code: code, base: code})
		}
		if len(items) >= expandLimitation {
			break
		}
	}
	fctx.Sets = append(fctx.Sets, &closedSet{items: items})
	return nil
}

func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	needle := strings.ToLower(text)
	codes := make([]string, 0, len(p.store.entries))
	for code := range p.store.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	var items []*Context
	for _, code := range codes {
		if strings.Contains(strings.ToLower(p.store.entries[code].display), needle) {
			items = append(items, &Context{code: code, base: code})
		}
	}
	fctx.Sets = append(fctx.Sets, &closedSet{items: items})
	return nil
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return false }

func (p *Provider) Close() error { return nil }

var _ provider.Provider = (*Provider)(nil)
