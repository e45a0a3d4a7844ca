// Package unii implements the UNII (Unique Ingredient Identifier)
// provider (spec §4.5): lookup by code yields a display and a
// deduplicated set of alternative descriptions from a secondary table.
// No hierarchy, no filters, no iteration.
package unii

import (
	"context"
	"fmt"
	"sort"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "http://fdasis.nlm.nih.gov"

type entry struct {
	code          string
	preferredName string
	altNames      []string // deduplicated, from the UniiDesc secondary table
}

// Store holds the Unii/UniiDesc tables of spec §6 as an in-memory
// fixture.
type Store struct {
	byCode map[string]*entry
}

// DefaultFixture returns a small representative UNII subset.
func DefaultFixture() *Store {
	return &Store{byCode: map[string]*entry{
		"362O9ITL9D": {code: "362O9ITL9D", preferredName: "Acetaminophen", altNames: []string{"Paracetamol", "APAP"}},
	}}
}

// Provider implements provider.Provider over a UNII Store.
type Provider struct {
	store       *Store
	supplements []provider.Supplement
}

func New(s *Store, supplements ...provider.Supplement) *Provider {
	return &Provider{store: s, supplements: supplements}
}

type Context struct{ code string }

func asContext(c provider.Context) (*Context, error) {
	cc, ok := c.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cc, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "UNII" }
func (p *Provider) Description() string { return "FDA Unique Ingredient Identifiers" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return len(p.store.byCode) }
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition { return nil }
func (p *Provider) HasSupplement(string) bool                         { return false }
func (p *Provider) ListSupplements() []string                          { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool           { return v1 > v2 }
func (p *Provider) Status() string                                     { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if _, ok := p.store.byCode[code]; !ok {
		return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
	}
	return &Context{code: code}, "", nil
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
	e, ok := p.store.byCode[cc.code]
	name := ""
	if ok {
		name = e.preferredName
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: name, HasPrimary: name != ""}
	return provider.ResolveDisplay(op, cc.code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

// Designations returns the preferred name plus a deduplicated set of
// alternative descriptions (spec §4.5 "UNII").
func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	e, ok := p.store.byCode[cc.code]
	if !ok {
		return nil, nil
	}
	seen := map[string]bool{e.preferredName: true}
	host := []provider.Designation{{Language: lang.MustParse("en"), Value: e.preferredName}}
	var alts []string
	for _, alt := range e.altNames {
		if !seen[alt] {
			seen[alt] = true
			alts = append(alts, alt)
		}
	}
	sort.Strings(alts)
	for _, alt := range alts {
		host = append(host, provider.Designation{Language: lang.MustParse("en"), Use: &provider.Use{Code: "synonym"}, Value: alt})
	}
	return provider.MergeDesignations(cc.code, host, p.supplements), nil
}

func (p *Provider) Properties(provider.Context) ([]provider.Property, error)  { return nil, nil }
func (p *Provider) Extensions(provider.Context) ([]provider.Property, error)  { return nil, nil }
func (p *Provider) IsAbstract(provider.Context) (bool, error)                 { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)                 { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error)               { return false, nil }
func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.code == cb.code
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: UNII codes do not have parents", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

type emptyIterator struct{}

func (emptyIterator) Next(context.Context) (provider.Context, bool, error) { return nil, false, nil }

func (p *Provider) Iterator(provider.Context) provider.Iterator { return emptyIterator{} }

func (p *Provider) DoesFilter(string, string, string) bool { return false }

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(*provider.FilterContext, string, string, string) error {
	return fmt.Errorf("%w: UNII has no filters", provider.ErrUnsupportedFilter)
}

func (p *Provider) SearchFilter(context.Context, *provider.FilterContext, string, bool) error {
	return fmt.Errorf("%w: UNII searchFilter", provider.ErrNotSupported)
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
