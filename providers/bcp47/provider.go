// Package bcp47 implements the grammar-based BCP-47 language tag
// provider (spec §4.4 "BCP-47 provider"): any syntactically valid tag is
// a valid code, there is no enumerable total count, and filters test
// subfield presence rather than producing closed sets.
package bcp47

import (
	"context"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "urn:ietf:bcp:47"

// Provider implements provider.Provider for BCP-47 language tags.
type Provider struct {
	supplements []provider.Supplement
}

// New builds a Provider that overlays the given supplements; they are
// stored as given, without validation.
func New(supplements ...provider.Supplement) *Provider {
	return &Provider{supplements: supplements}
}

type ctxTag struct{ tag lang.Tag }

func asTag(c provider.Context) (lang.Tag, error) {
	t, ok := c.(*ctxTag)
	if !ok {
		return lang.Tag{}, provider.ErrWrongContextType
	}
	return t.tag, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "" }
func (p *Provider) Name() string        { return "IETF language tag (BCP-47)" }
func (p *Provider) Description() string { return "A language code conforming to BCP-47" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "not-present" }
func (p *Provider) TotalCount() int     { return -1 }
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	codes := []string{"language", "ext-lang", "script", "region", "variant", "extension", "private-use"}
	out := make([]provider.PropertyDefinition, 0, len(codes))
	for _, c := range codes {
		out = append(out, provider.PropertyDefinition{Code: c, Type: "boolean"})
	}
	return out
}

// HasSupplement always reports false: a Provider only retains the
// narrow provider.Supplement read surface, which carries no URL, so it
// cannot answer "is this particular supplement resource attached".
func (p *Provider) HasSupplement(string) bool { return false }

func (p *Provider) ListSupplements() []string { return nil }

func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool { return len(v1) > len(v2) }

func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	t, err := lang.Parse(code)
	if err != nil || t.IsZero() {
		return nil, fmt.Sprintf("Code '%s' is not a valid BCP-47 language tag", code), nil
	}
	return &ctxTag{tag: t}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	t, err := asTag(c)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// englishName synthesizes a human-readable English name for tag via
// golang.org/x/text/language/display, used as both the primary display
// and the synthesized designations spec §4.4 describes.
func englishName(tag lang.Tag) string {
	xt, err := xlanguage.Parse(tag.String())
	if err != nil {
		return tag.String()
	}
	name := display.English.Tags().Name(xt)
	if name == "" {
		return tag.String()
	}
	return name
}

func regionName(region string) string {
	r, err := xlanguage.ParseRegion(region)
	if err != nil {
		return region
	}
	name := display.English.Regions().Name(r)
	if name == "" {
		return region
	}
	return name
}

func synthesizedDesignations(t lang.Tag) []provider.Designation {
	name := englishName(t)
	out := []provider.Designation{{Language: lang.MustParse("en"), Value: name}}
	if t.Region != "" {
		rn := regionName(t.Region)
		out = append(out, provider.Designation{Language: lang.MustParse("en"), Value: fmt.Sprintf("%s (%s)", name, rn)})
		out = append(out, provider.Designation{Language: lang.MustParse("en"), Value: fmt.Sprintf("%s (Region=%s)", name, t.Region)})
	}
	return out
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	t, err := asTag(c)
	if err != nil {
		return "", err
	}
	host := provider.HostDisplay{
		DefLang:      lang.MustParse("en"),
		Primary:      englishName(t),
		HasPrimary:   true,
		Designations: synthesizedDesignations(t),
	}
	return provider.ResolveDisplay(op, t.String(), p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	t, err := asTag(c)
	if err != nil {
		return nil, err
	}
	return provider.MergeDesignations(t.String(), synthesizedDesignations(t), p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	t, err := asTag(c)
	if err != nil {
		return nil, err
	}
	var out []provider.Property
	add := func(code, value string) {
		if value != "" {
			out = append(out, provider.Property{Code: code, Value: value})
		}
	}
	add("language", t.Primary)
	add("script", t.Script)
	add("region", t.Region)
	add("variant", t.Variant)
	add("extension", t.Extension)
	for _, e := range t.ExtLang {
		out = append(out, provider.Property{Code: "ext-lang", Value: e})
	}
	for _, pu := range t.PrivateUse {
		out = append(out, provider.Property{Code: "private-use", Value: pu})
	}
	return provider.MergeProperties(t.String(), out, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ta, erra := asTag(a)
	tb, errb := asTag(b)
	if erra != nil || errb != nil {
		return false
	}
	return strings.EqualFold(ta.String(), tb.String())
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	props, err := p.Properties(c)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(requestedProperties))
	for _, r := range requestedProperties {
		want[r] = true
	}
	out := make(map[string]string)
	for _, pr := range props {
		if len(want) == 0 || want[pr.Code] {
			out[pr.Code] = pr.Value
		}
	}
	return out, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: BCP-47 does not have parents", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if strings.EqualFold(a, b) {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

// Iterator returns nil: BCP-47 is grammar-based and unbounded, so there
// is nothing to enumerate (spec §4.1 "iteration", TotalCount()==-1).
func (p *Provider) Iterator(provider.Context) provider.Iterator { return nil }

func (p *Provider) Close() error { return nil }
