// Package uri implements the grammar-based URI provider (spec §4.4
// "URI"): any non-empty string is a valid code, with no host display or
// metadata of its own — supplements are the only source of
// displays/designations/properties.
package uri

import (
	"context"
	"fmt"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "urn:ietf:rfc:3986"

// Provider implements provider.Provider for arbitrary URIs.
type Provider struct {
	supplements []provider.Supplement
}

// New builds a Provider. URI has no backing table to load.
func New(supplements ...provider.Supplement) *Provider {
	return &Provider{supplements: supplements}
}

type ctxURI struct{ value string }

func asURI(c provider.Context) (*ctxURI, error) {
	cu, ok := c.(*ctxURI)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cu, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "URI" }
func (p *Provider) Description() string { return "A Uniform Resource Identifier reference (RFC 3986)" }
func (p *Provider) DefLang() lang.Tag   { return lang.Tag{} }
func (p *Provider) ContentMode() string { return "not-present" }
func (p *Provider) TotalCount() int     { return -1 }
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition { return nil }

func (p *Provider) HasSupplement(string) bool { return false }
func (p *Provider) ListSupplements() []string { return nil }

func (p *Provider) VersionIsMoreDetailed(string, string) bool { return false }

func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if code == "" {
		return nil, "A URI code must be non-empty", nil
	}
	return &ctxURI{value: code}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cu, err := asURI(c)
	if err != nil {
		return "", err
	}
	return cu.value, nil
}

// Display returns empty unless a supplement overlays one: URI carries
// no host display of its own (spec §4.1.1 step 6, "URI provider returns
// empty").
func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cu, err := asURI(c)
	if err != nil {
		return "", err
	}
	return provider.ResolveDisplay(op, cu.value, p.supplements, provider.HostDisplay{}), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cu, err := asURI(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeDesignations(cu.value, nil, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cu, err := asURI(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeProperties(cu.value, nil, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ua, erra := asURI(a)
	ub, errb := asURI(b)
	if erra != nil || errb != nil {
		return false
	}
	return ua.value == ub.value
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	_, err := asURI(c)
	if err != nil {
		return nil, err
	}
	return map[string]string{}, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: URIs do not have parents", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

func (p *Provider) DoesFilter(string, string, string) bool { return false }

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(*provider.FilterContext, string, string, string) error {
	return fmt.Errorf("%w: URI has no filters", provider.ErrUnsupportedFilter)
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return true }

func (p *Provider) SearchFilter(context.Context, *provider.FilterContext, string, bool) error {
	return fmt.Errorf("%w: URI has no search filter", provider.ErrNotSupported)
}

// Iterator returns nil: URIs are grammar-based and unbounded
// (TotalCount()==-1), so there is nothing to enumerate.
func (p *Provider) Iterator(provider.Context) provider.Iterator { return nil }

func (p *Provider) Close() error { return nil }
