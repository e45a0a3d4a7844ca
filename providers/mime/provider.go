// Package mime implements the grammar-based MIME type provider (spec
// §4.4 "MIME"): locate validates the "type/subtype" shape of RFC 2045
// media types without an enumerable backing table, no hierarchy, and no
// filters.
package mime

import (
	"context"
	"fmt"
	"strings"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "urn:ietf:bcp:13"

// Provider implements provider.Provider for IANA media types.
type Provider struct {
	supplements []provider.Supplement
}

// New builds a Provider. MIME has no backing table to load.
func New(supplements ...provider.Supplement) *Provider {
	return &Provider{supplements: supplements}
}

type ctxType struct{ value string }

func asType(c provider.Context) (*ctxType, error) {
	ct, ok := c.(*ctxType)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return ct, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "MIME type" }
func (p *Provider) Description() string { return "A media type as defined in RFC 2045" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
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

// isValidMediaType reports whether code has the "type/subtype" shape
// required of a MIME media type: two non-empty token runs either side
// of exactly one slash.
func isValidMediaType(code string) bool {
	parts := strings.SplitN(code, "/", 2)
	if len(parts) != 2 {
		return false
	}
	return isToken(parts[0]) && isToken(stripParameters(parts[1]))
}

func stripParameters(subtype string) string {
	if i := strings.Index(subtype, ";"); i >= 0 {
		return subtype[:i]
	}
	return subtype
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '+' || r == '.' || r == '_':
		default:
			return false
		}
	}
	return true
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if !isValidMediaType(code) {
		return nil, fmt.Sprintf("Code '%s' is not a valid MIME media type", code), nil
	}
	return &ctxType{value: code}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	ct, err := asType(c)
	if err != nil {
		return "", err
	}
	return ct.value, nil
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	ct, err := asType(c)
	if err != nil {
		return "", err
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en")}
	return provider.ResolveDisplay(op, ct.value, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	ct, err := asType(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeDesignations(ct.value, nil, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	ct, err := asType(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeProperties(ct.value, nil, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ta, erra := asType(a)
	tb, errb := asType(b)
	if erra != nil || errb != nil {
		return false
	}
	return strings.EqualFold(ta.value, tb.value)
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	ct, err := asType(c)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(ct.value, "/", 2)
	return map[string]string{"type": parts[0], "subtype": stripParameters(parts[1])}, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: MIME types do not have parents", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if strings.EqualFold(a, b) {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

func (p *Provider) DoesFilter(string, string, string) bool { return false }

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(*provider.FilterContext, string, string, string) error {
	return fmt.Errorf("%w: MIME has no filters", provider.ErrUnsupportedFilter)
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return true }

func (p *Provider) SearchFilter(context.Context, *provider.FilterContext, string, bool) error {
	return fmt.Errorf("%w: MIME has no search filter", provider.ErrNotSupported)
}

// Iterator returns nil: MIME is grammar-based and unbounded
// (TotalCount()==-1), so there is nothing to enumerate.
func (p *Provider) Iterator(provider.Context) provider.Iterator { return nil }

func (p *Provider) Close() error { return nil }
