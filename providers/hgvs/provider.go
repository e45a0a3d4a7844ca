// Package hgvs implements the HGVS provider (spec §4.6): a grammar-based
// code system whose locate validates a variant expression by issuing a
// remote HTTP GET to a configured validation endpoint with a hard 5s
// timeout, parsing a FHIR Parameters-shaped {result, message?} response.
// No filters, no iteration, no subsumption.
package hgvs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "http://varnomen.hgvs.org"

// validateTimeout is the hard timeout spec §4.6/§5 requires: "HGVS has a
// hard 5 s timeout; cancellation closes the underlying connection and
// surfaces a timeout error."
const validateTimeout = 5 * time.Second

// parametersResponse mirrors the FHIR Parameters shape spec §6 names for
// the HGVS remote endpoint: {parameter: [{name:"result", valueBoolean},
// {name:"message", valueString}]}.
type parametersResponse struct {
	Parameter []struct {
		Name         string `json:"name"`
		ValueBoolean *bool  `json:"valueBoolean"`
		ValueString  string `json:"valueString"`
	} `json:"parameter"`
}

func (r parametersResponse) result() (bool, string) {
	var ok bool
	var message string
	for _, p := range r.Parameter {
		switch p.Name {
		case "result":
			if p.ValueBoolean != nil {
				ok = *p.ValueBoolean
			}
		case "message":
			message = p.ValueString
		}
	}
	return ok, message
}

// Validator issues the remote validation call; production code uses
// HTTPValidator, tests substitute a fake to avoid a real network call.
type Validator interface {
	Validate(ctx context.Context, code string) (ok bool, message string, err error)
}

// HTTPValidator is the net/http-backed Validator hitting a configured
// terminology validator endpoint (spec §6 "HGVS remote endpoint"),
// following the teacher's own net/http-with-explicit-timeout idiom for
// its I/O boundaries rather than a full HTTP client framework.
type HTTPValidator struct {
	Endpoint string
	Client   *http.Client
}

func (v *HTTPValidator) httpClient() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return http.DefaultClient
}

func (v *HTTPValidator) Validate(ctx context.Context, code string) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()
	u := v.Endpoint + "?code=" + url.QueryEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, "", fmt.Errorf("hgvs: building request: %w", err)
	}
	resp, err := v.httpClient().Do(req)
	if err != nil {
		return false, "", fmt.Errorf("hgvs: validating %q: %w", code, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, "", fmt.Errorf("hgvs: reading response: %w", err)
	}
	var parsed parametersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, "", fmt.Errorf("hgvs: decoding response: %w", err)
	}
	ok, message := parsed.result()
	return ok, message, nil
}

// Provider implements provider.Provider over a remote HGVS Validator.
type Provider struct {
	validator   Validator
	supplements []provider.Supplement
}

// New builds a Provider that validates every Locate call against
// validator.
func New(validator Validator, supplements ...provider.Supplement) *Provider {
	return &Provider{validator: validator, supplements: supplements}
}

// Context wraps a validated HGVS expression string; HGVS has no other
// concept shape (spec §4.6 "Grammar-based").
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
func (p *Provider) Name() string        { return "HGVS" }
func (p *Provider) Description() string { return "Human Genome Variation Society nomenclature" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "not-present" }
func (p *Provider) TotalCount() int     { return -1 }
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition { return nil }
func (p *Provider) HasSupplement(string) bool                         { return false }
func (p *Provider) ListSupplements() []string                          { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool           { return v1 > v2 }
func (p *Provider) Status() string                                     { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// Locate validates code against the remote endpoint; a negative result
// is a normal not-found outcome whose message is the remote message when
// the endpoint sent one, while a network, timeout or decoding failure
// propagates as the Validator's error.
func (p *Provider) Locate(ctx context.Context, code string) (provider.Context, string, error) {
	ok, message, err := p.validator.Validate(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		if message == "" {
			message = fmt.Sprintf("Code '%s' not found in %s", code, systemURI)
		}
		return nil, message, nil
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
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: cc.code, HasPrimary: true}
	return provider.ResolveDisplay(op, cc.code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	host := []provider.Designation{{Language: lang.MustParse("en"), Value: cc.code}}
	return provider.MergeDesignations(cc.code, host, p.supplements), nil
}

func (p *Provider) Properties(provider.Context) ([]provider.Property, error) { return nil, nil }
func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }
func (p *Provider) IsAbstract(provider.Context) (bool, error)                { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)                { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error)              { return false, nil }
func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.code == cb.code
}

func (p *Provider) ExtendLookup(provider.Context, []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: HGVS has no hierarchy", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(context.Context, string, string) (provider.Subsumption, error) {
	return provider.Subsumption{}, fmt.Errorf("%w: HGVS has no subsumption", provider.ErrNotSupported)
}

type emptyIterator struct{}

func (emptyIterator) Next(context.Context) (provider.Context, bool, error) { return nil, false, nil }

func (p *Provider) Iterator(provider.Context) provider.Iterator { return emptyIterator{} }

func (p *Provider) DoesFilter(string, string, string) bool { return false }

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(*provider.FilterContext, string, string, string) error {
	return fmt.Errorf("%w: HGVS has no filters", provider.ErrUnsupportedFilter)
}

func (p *Provider) SearchFilter(context.Context, *provider.FilterContext, string, bool) error {
	return fmt.Errorf("%w: HGVS searchFilter", provider.ErrNotSupported)
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return true }

func (p *Provider) Close() error { return nil }

var _ provider.Provider = (*Provider)(nil)
