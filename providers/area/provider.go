// Package area implements the UN M49 area/region provider (spec §4.4
// "Area/region"): a small in-memory table of concepts classed either
// "region" (a geographic or economic grouping) or "country" (a member
// state), filterable by that class.
package area

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "http://unstats.un.org/unsd/methods/m49/m49.htm"

type class string

const (
	classRegion  class = "region"
	classCountry class = "country"
)

type entry struct {
	code   string
	name   string
	class  class
	parent string
}

// table is a representative excerpt of the UN M49 hierarchy: the world
// grouping, its top-level regions, and a handful of member countries
// nested beneath them, grounded on the classification UN M49 itself
// publishes (world -> continent -> sub-region -> country).
var table = []entry{
	{"001", "World", classRegion, ""},
	{"002", "Africa", classRegion, "001"},
	{"019", "Americas", classRegion, "001"},
	{"142", "Asia", classRegion, "001"},
	{"150", "Europe", classRegion, "001"},
	{"009", "Oceania", classRegion, "001"},
	{"015", "Northern Africa", classRegion, "002"},
	{"202", "Sub-Saharan Africa", classRegion, "002"},
	{"021", "Northern America", classRegion, "019"},
	{"419", "Latin America and the Caribbean", classRegion, "019"},
	{"154", "Northern Europe", classRegion, "150"},
	{"155", "Western Europe", classRegion, "150"},
	{"039", "Southern Europe", classRegion, "150"},
	{"151", "Eastern Europe", classRegion, "150"},
	{"030", "Eastern Asia", classRegion, "142"},
	{"034", "Southern Asia", classRegion, "142"},
	{"035", "South-eastern Asia", classRegion, "142"},
	{"145", "Western Asia", classRegion, "142"},
	{"840", "United States of America", classCountry, "021"},
	{"124", "Canada", classCountry, "021"},
	{"826", "United Kingdom of Great Britain and Northern Ireland", classCountry, "154"},
	{"276", "Germany", classCountry, "155"},
	{"250", "France", classCountry, "155"},
	{"380", "Italy", classCountry, "039"},
	{"724", "Spain", classCountry, "039"},
	{"392", "Japan", classCountry, "030"},
	{"156", "China", classCountry, "030"},
	{"356", "India", classCountry, "034"},
	{"036", "Australia", classCountry, "009"},
}

var byCode = func() map[string]*entry {
	m := make(map[string]*entry, len(table))
	for i := range table {
		m[table[i].code] = &table[i]
	}
	return m
}()

// Provider implements provider.Provider for the UN M49 area/region
// classification.
type Provider struct {
	supplements []provider.Supplement
}

// New builds a Provider over the built-in M49 excerpt.
func New(supplements ...provider.Supplement) *Provider {
	return &Provider{supplements: supplements}
}

func asEntry(c provider.Context) (*entry, error) {
	e, ok := c.(*entry)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return e, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "UN M49 area/region classification" }
func (p *Provider) Description() string { return "Standard country or area codes for statistical use (M49)" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return len(table) }
func (p *Provider) HasParents() bool    { return true }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{{Code: "class", Type: "code"}}
}

func (p *Provider) HasSupplement(string) bool { return false }
func (p *Provider) ListSupplements() []string { return nil }

func (p *Provider) VersionIsMoreDetailed(string, string) bool { return false }

func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if e, ok := byCode[code]; ok {
		return e, "", nil
	}
	return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	e, err := asEntry(c)
	if err != nil {
		return "", err
	}
	return e.code, nil
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	e, err := asEntry(c)
	if err != nil {
		return "", err
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: e.name, HasPrimary: true}
	return provider.ResolveDisplay(op, e.code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	e, err := asEntry(c)
	if err != nil {
		return nil, err
	}
	host := []provider.Designation{{Language: lang.MustParse("en"), Value: e.name}}
	return provider.MergeDesignations(e.code, host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	e, err := asEntry(c)
	if err != nil {
		return nil, err
	}
	host := []provider.Property{{Code: "class", Value: string(e.class)}}
	return provider.MergeProperties(e.code, host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	e, err := asEntry(c)
	if err != nil {
		return nil, err
	}
	if e.parent == "" {
		return nil, provider.ErrNoParent
	}
	parent, ok := byCode[e.parent]
	if !ok {
		return nil, provider.ErrNoParent
	}
	return parent, nil
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ea, erra := asEntry(a)
	eb, errb := asEntry(b)
	if erra != nil || errb != nil {
		return false
	}
	return ea.code == eb.code
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	e, err := asEntry(c)
	if err != nil {
		return nil, err
	}
	return map[string]string{"class": string(e.class), "parent": e.parent}, nil
}

func (p *Provider) ancestors(e *entry) []string {
	var out []string
	cur := e
	for cur.parent != "" {
		out = append(out, cur.parent)
		cur = byCode[cur.parent]
		if cur == nil {
			break
		}
	}
	return out
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
	e, _ := asEntry(c)
	for _, a := range p.ancestors(e) {
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
	ea, okA := byCode[a]
	eb, okB := byCode[b]
	if !okA || !okB {
		return provider.Subsumption{NotSubsumed: true}, nil
	}
	aSubsumesB := contains(p.ancestors(eb), a)
	bSubsumesA := contains(p.ancestors(ea), b)
	switch {
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

// ---- filtering ----

type closedSet struct {
	members []*entry
	pos     int
}

func (s *closedSet) Size() int { return len(s.members) }

func (s *closedSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.members) {
		return nil, false, nil
	}
	e := s.members[s.pos]
	s.pos++
	return e, true, nil
}

func (s *closedSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	for _, m := range s.members {
		if m.code == code {
			return m, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
}

func (s *closedSet) Check(c provider.Context) bool {
	e, err := asEntry(c)
	if err != nil {
		return false
	}
	for _, m := range s.members {
		if m == e {
			return true
		}
	}
	return false
}

func (s *closedSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return (property == "class" || property == "type") && op == "="
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

// Filter supports "class = country|region" (spec §4.4): the property
// name "type" is accepted as a synonym.
func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if (property != "class" && property != "type") || op != "=" {
		return fmt.Errorf("%w: area filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
	var members []*entry
	for i := range table {
		if string(table[i].class) == value {
			members = append(members, &table[i])
		}
	}
	fctx.Sets = append(fctx.Sets, &closedSet{members: members})
	return nil
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return false }

func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	needle := strings.ToLower(text)
	var members []*entry
	for i := range table {
		if strings.Contains(strings.ToLower(table[i].name), needle) {
			members = append(members, &table[i])
		}
	}
	if sortResults {
		sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })
	}
	fctx.Sets = append(fctx.Sets, &closedSet{members: members})
	return nil
}

// ---- iteration ----

type iterator struct {
	members []*entry
	pos     int
}

func (it *iterator) Next(context.Context) (provider.Context, bool, error) {
	if it.pos >= len(it.members) {
		return nil, false, nil
	}
	e := it.members[it.pos]
	it.pos++
	return e, true, nil
}

func (p *Provider) Iterator(c provider.Context) provider.Iterator {
	if c == nil {
		members := make([]*entry, len(table))
		for i := range table {
			members[i] = &table[i]
		}
		return &iterator{members: members}
	}
	e, err := asEntry(c)
	if err != nil {
		return &iterator{}
	}
	var children []*entry
	for i := range table {
		if table[i].parent == e.code {
			children = append(children, &table[i])
		}
	}
	return &iterator{members: children}
}

func (p *Provider) Close() error { return nil }
