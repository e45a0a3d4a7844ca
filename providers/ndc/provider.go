// Package ndc implements the National Drug Code provider (spec §4.5):
// two concept kinds (10-digit product, 10-/11-digit package linked to a
// product), code-type filters, and an ExtendLookup that enriches a
// package with its product's trade name/dose form/route/company/category.
package ndc

import (
	"context"
	"fmt"
	"sort"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "http://hl7.org/fhir/sid/ndc"

type product struct {
	code      string // 10-digit labeler-product code
	tradeName string
	doseForm  string
	route     string
	company   string
	category  string
	active    bool
}

type pkg struct {
	code10    string
	code11    string
	productID string
}

// Store holds the two NDCProducts/NDCPackages tables (spec §6) in memory.
type Store struct {
	products    map[string]*product
	packages    []*pkg
	byCode      map[string]*pkg // both 10- and 11-digit forms
}

// DefaultFixture returns a small representative NDC subset.
func DefaultFixture() *Store {
	s := &Store{
		products: map[string]*product{
			"0002-1433": {code: "0002-1433", tradeName: "Humalog", doseForm: "Injection, Solution", route: "Subcutaneous", company: "Eli Lilly", category: "HUMAN PRESCRIPTION DRUG", active: true},
		},
		byCode: map[string]*pkg{},
	}
	p := &pkg{code10: "0002-1433-01", code11: "00002143301", productID: "0002-1433"}
	s.packages = append(s.packages, p)
	s.byCode[p.code10] = p
	s.byCode[p.code11] = p
	return s
}

// Provider implements provider.Provider over an NDC Store.
type Provider struct {
	store       *Store
	supplements []provider.Supplement
}

func New(s *Store, supplements ...provider.Supplement) *Provider {
	return &Provider{store: s, supplements: supplements}
}

// Context identifies either a package (code set) or a bare product.
type Context struct {
	code      string
	isPackage bool
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
func (p *Provider) Name() string        { return "National Drug Code Directory" }
func (p *Provider) Description() string { return "FDA National Drug Code product and package codes" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return len(p.store.products) + len(p.store.packages) }
func (p *Provider) HasParents() bool    { return true }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{{Code: "code-type", Type: "code"}}
}

func (p *Provider) HasSupplement(string) bool                { return false }
func (p *Provider) ListSupplements() []string                { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool  { return v1 > v2 }
func (p *Provider) Status() string                            { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// Locate searches packages first (by both stored 10-digit and normalised
// 11-digit code), then falls back to products (spec §4.5 "NDC").
func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if _, ok := p.store.byCode[code]; ok {
		return &Context{code: code, isPackage: true}, "", nil
	}
	if _, ok := p.store.products[code]; ok {
		return &Context{code: code, isPackage: false}, "", nil
	}
	return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	return cc.code, nil
}

func (p *Provider) resolveProduct(cc *Context) (*product, bool) {
	if cc.isPackage {
		pk, ok := p.store.byCode[cc.code]
		if !ok {
			return nil, false
		}
		prod, ok := p.store.products[pk.productID]
		return prod, ok
	}
	prod, ok := p.store.products[cc.code]
	return prod, ok
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	prod, ok := p.resolveProduct(cc)
	name := ""
	if ok {
		name = prod.tradeName
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
	var host []provider.Designation
	if prod, ok := p.resolveProduct(cc); ok {
		host = append(host, provider.Designation{Language: lang.MustParse("en"), Value: prod.tradeName})
	}
	return provider.MergeDesignations(cc.code, host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	codeType := "product"
	if cc.isPackage {
		if len(cc.code) == 11 {
			codeType = "11-digit"
		} else {
			codeType = "10-digit"
		}
	}
	host := []provider.Property{{Code: "code-type", Value: codeType}}
	return provider.MergeProperties(cc.code, host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }
func (p *Provider) IsAbstract(provider.Context) (bool, error)                { return false, nil }

func (p *Provider) IsInactive(c provider.Context) (bool, error) {
	cc, err := asContext(c)
	if err != nil {
		return false, err
	}
	prod, ok := p.resolveProduct(cc)
	return ok && !prod.active, nil
}

func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	if !cc.isPackage {
		return nil, provider.ErrNoParent
	}
	pk, ok := p.store.byCode[cc.code]
	if !ok {
		return nil, provider.ErrNoParent
	}
	return &Context{code: pk.productID, isPackage: false}, nil
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.code == cb.code && ca.isPackage == cb.isPackage
}

// ExtendLookup enriches a context with trade-name/dose-form/route/company/
// category/active/product resolved via the product lookup, per spec
// §4.5 "NDC".
func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	prod, ok := p.resolveProduct(cc)
	if !ok {
		return map[string]string{}, nil
	}
	out := map[string]string{
		"trade-name": prod.tradeName,
		"dose-form":  prod.doseForm,
		"route":      prod.route,
		"company":    prod.company,
		"category":   prod.category,
		"active":     fmt.Sprintf("%v", prod.active),
		"product":    prod.code,
	}
	if len(requestedProperties) == 0 {
		return out, nil
	}
	want := make(map[string]bool, len(requestedProperties))
	for _, r := range requestedProperties {
		want[r] = true
	}
	for k := range out {
		if !want[k] {
			delete(out, k)
		}
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
	if cc.isPackage {
		if pk, ok := p.store.byCode[cc.code]; ok && pk.productID == parentCode {
			return c, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	if pk, ok := p.store.byCode[b]; ok && pk.productID == a {
		return provider.Subsumption{Subsumes: true}, nil
	}
	if pk, ok := p.store.byCode[a]; ok && pk.productID == b {
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
		var items []*Context
		codes := make([]string, 0, len(p.store.products))
		for code := range p.store.products {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			items = append(items, &Context{code: code})
		}
		return &sliceIterator{items: items}
	}
	cc, err := asContext(c)
	if err != nil || cc.isPackage {
		return &sliceIterator{}
	}
	var items []*Context
	for _, pk := range p.store.packages {
		if pk.productID == cc.code {
			items = append(items, &Context{code: pk.code10, isPackage: true})
		}
	}
	return &sliceIterator{items: items}
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
		if m.code == cc.code && m.isPackage == cc.isPackage {
			return true
		}
	}
	return false
}

func (s *closedSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return property == "code-type" && op == "="
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

// Filter supports "code-type = product|10-digit|11-digit", materialising
// every matching code of the store in one closed set (spec §4.5 "NDC").
func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if property != "code-type" || op != "=" {
		return fmt.Errorf("%w: ndc filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
	var items []*Context
	switch value {
	case "product":
		codes := make([]string, 0, len(p.store.products))
		for code := range p.store.products {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			items = append(items, &Context{code: code})
		}
	case "10-digit":
		for _, pk := range p.store.packages {
			items = append(items, &Context{code: pk.code10, isPackage: true})
		}
	case "11-digit":
		for _, pk := range p.store.packages {
			items = append(items, &Context{code: pk.code11, isPackage: true})
		}
	default:
		return fmt.Errorf("%w: ndc code-type %s", provider.ErrUnsupportedFilter, value)
	}
	fctx.Sets = append(fctx.Sets, &closedSet{items: items})
	return nil
}

func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	return fmt.Errorf("%w: ndc searchFilter", provider.ErrNotSupported)
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
