// Package snomedprovider wraps the snomed binary cache and the expression
// compositional-grammar engine behind the uniform provider.Provider
// contract (spec §4.7), so a SNOMED CT cache can be located, displayed,
// filtered and subsumption-tested the same way every other code system is.
//
// A code is either a plain SCTID (a pre-coordinated concept reference) or
// a compositional expression string; both resolve to a *Context wrapping
// an *expression.Expression, following spec §4.7.3's "Expression context
// is either a reference to a cached concept ... or a parsed expression".
package snomedprovider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wardle/terminology/expression"
	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
	"github.com/wardle/terminology/snomed"
)

const systemURI = "http://snomed.info/sct"

// Provider implements provider.Provider over a single SNOMED CT binary
// cache (spec §4.7). It holds no per-request state beyond its supplements:
// the cache itself is immutable, shared, read-only data owned by the
// factory that built this provider (spec §5 "Shared-resource policy").
type Provider struct {
	reader      *snomed.Reader
	supplements []provider.Supplement
	search      *searchIndex
}

// New builds a Provider over an already-opened cache reader, building its
// in-memory full-text search index over the cache's active descriptions up
// front (see search.go).
func New(reader *snomed.Reader, supplements ...provider.Supplement) (*Provider, error) {
	if reader == nil {
		return nil, fmt.Errorf("snomedprovider: nil cache reader")
	}
	idx, err := buildSearchIndex(reader)
	if err != nil {
		return nil, fmt.Errorf("snomedprovider: building search index: %w", err)
	}
	return &Provider{reader: reader, supplements: supplements, search: idx}, nil
}

// Context wraps a parsed expression (a bare SCTID reference, or a
// genuine post-coordinated expression), per spec §4.7.3; focus derives
// the single concept it resolves to when it is not complex.
type Context struct {
	expr *expression.Expression
}

func asContext(c provider.Context) (*Context, error) {
	cc, ok := c.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cc, nil
}

// focus returns the single focus concept code for a non-complex
// expression context; complex (post-coordinated) expressions have no
// single code and report ok=false.
func (c *Context) focus() (int64, bool) {
	if len(c.expr.Concepts) != 1 || c.expr.IsComplex() {
		return 0, false
	}
	return c.expr.Concepts[0].Code, true
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return p.reader.VersionURI }
func (p *Provider) Name() string        { return "SNOMED CT" }
func (p *Provider) Description() string { return "SNOMED CT clinical terminology" }

func (p *Provider) DefLang() lang.Tag {
	if p.reader.DefaultLanguage == "" {
		return lang.MustParse("en")
	}
	t, err := lang.Parse(p.reader.DefaultLanguage)
	if err != nil {
		return lang.MustParse("en")
	}
	return t
}

func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return -1 } // grammar-based: post-coordination is unbounded
func (p *Provider) HasParents() bool    { return true }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{
		{Code: "inactive", Type: "boolean"},
		{Code: "parent", Type: "code"},
	}
}

func (p *Provider) HasSupplement(url string) bool { return false }

func (p *Provider) ListSupplements() []string { return nil }

func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool { return v1 > v2 }

func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// Locate accepts either a bare SCTID or a compositional expression
// string (spec §4.7.2); a plain SCTID must resolve to a concept present
// and active in the cache.
func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	code = strings.TrimSpace(code)
	if id, err := strconv.ParseInt(code, 10, 64); err == nil && !strings.ContainsAny(code, ":=|{}") {
		c, ok := p.reader.FindConcept(id)
		if !ok {
			return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
		}
		if !c.IsActive() {
			return nil, fmt.Sprintf("Code '%s' is inactive in %s", code, systemURI), nil
		}
		return &Context{expr: expression.FromReference(id)}, "", nil
	}
	expr, err := expression.Parse(code)
	if err != nil {
		return nil, fmt.Sprintf("Invalid expression '%s': %v", code, err), nil
	}
	for _, fc := range expr.Concepts {
		c, ok := p.reader.FindConcept(fc.Code)
		if !ok || !c.IsActive() {
			return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
		}
	}
	return &Context{expr: expr}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	if id, ok := cc.focus(); ok {
		return strconv.FormatInt(id, 10), nil
	}
	return expression.Render(cc.expr), nil
}

func (p *Provider) preferredTerm(id int64) string {
	d, err := p.reader.PreferredDescription(id, lang.Languages{{Tag: p.DefLang(), Quality: 1}})
	if err != nil {
		return ""
	}
	return d.Term
}

func (p *Provider) hostDisplay(cc *Context, op *provider.OpContext) provider.HostDisplay {
	id, ok := cc.focus()
	if !ok {
		return provider.HostDisplay{DefLang: p.DefLang(), Primary: expression.Render(cc.expr), HasPrimary: true}
	}
	languages := lang.Languages{{Tag: p.DefLang(), Quality: 1}}
	if op != nil && len(op.Languages) > 0 {
		languages = op.Languages
	}
	d, err := p.reader.PreferredDescription(id, languages)
	var designations []provider.Designation
	if err == nil {
		tag, terr := lang.Parse(d.LanguageCode)
		if terr != nil {
			tag = p.DefLang()
		}
		designations = append(designations, provider.Designation{Language: tag, Value: d.Term})
	}
	primary := ""
	if err == nil {
		primary = d.Term
	}
	return provider.HostDisplay{DefLang: p.DefLang(), Primary: primary, HasPrimary: primary != "", Designations: designations}
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	code, err := p.Code(c)
	if err != nil {
		return "", err
	}
	return provider.ResolveDisplay(op, code, p.supplements, p.hostDisplay(cc, op)), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	id, ok := cc.focus()
	if !ok {
		return nil, nil
	}
	concept, found := p.reader.FindConcept(id)
	if !found {
		return nil, nil
	}
	var host []provider.Designation
	for _, idx := range concept.Descriptions {
		d, ok := p.reader.Description(idx)
		if !ok || !d.Active {
			continue
		}
		tag, terr := lang.Parse(d.LanguageCode)
		if terr != nil {
			continue
		}
		use := &provider.Use{Code: "synonym"}
		if d.IsFullySpecifiedName() {
			use = &provider.Use{Code: "definition"}
		}
		host = append(host, provider.Designation{Language: tag, Use: use, Value: d.Term})
	}
	return provider.MergeDesignations(strconv.FormatInt(id, 10), host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	id, ok := cc.focus()
	if !ok {
		return nil, nil
	}
	concept, found := p.reader.FindConcept(id)
	var host []provider.Property
	if found {
		host = append(host, provider.Property{Code: "inactive", Value: boolStr(!concept.IsActive())})
		host = append(host, provider.Property{Code: "sufficientlyDefined", Value: boolStr(concept.IsSufficientlyDefined())})
	}
	return provider.MergeProperties(strconv.FormatInt(id, 10), host, p.supplements), nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error) { return false, nil }

func (p *Provider) IsInactive(c provider.Context) (bool, error) {
	cc, err := asContext(c)
	if err != nil {
		return false, err
	}
	id, ok := cc.focus()
	if !ok {
		return false, nil
	}
	concept, found := p.reader.FindConcept(id)
	if !found {
		return false, nil
	}
	return !concept.IsActive(), nil
}

func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	id, ok := cc.focus()
	if !ok {
		return nil, provider.ErrNoParent
	}
	concept, found := p.reader.FindConcept(id)
	if !found || len(concept.ActiveParents) == 0 {
		return nil, provider.ErrNoParent
	}
	return &Context{expr: expression.FromReference(concept.ActiveParents[0])}, nil
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	if erra != nil || errb != nil {
		return false
	}
	codeA, errA := p.Code(ca)
	codeB, errB := p.Code(cb)
	return errA == nil && errB == nil && codeA == codeB
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	id, ok := cc.focus()
	if !ok {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	for _, parent := range mustParents(p.reader, id) {
		out["parent"] = strconv.FormatInt(parent, 10)
		break
	}
	_ = requestedProperties
	return out, nil
}

func mustParents(r *snomed.Reader, id int64) []int64 {
	c, ok := r.FindConcept(id)
	if !ok {
		return nil
	}
	return c.ActiveParents
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
	childID, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
	}
	parentID, err := strconv.ParseInt(parentCode, 10, 64)
	if err != nil {
		return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
	}
	isA, err := p.reader.IsA(childID, parentID)
	if err != nil || !isA {
		return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
	}
	return c, "", nil
}

// SubsumesTest compares two bare SCTIDs only: A subsumes B iff B is a
// transitive descendant of A via active Is-A relationships, and equal
// codes are equivalent. A compositional expression in either argument is
// rejected with an error; focus sets and refinements are not compared.
func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	aID, aErr := strconv.ParseInt(a, 10, 64)
	bID, bErr := strconv.ParseInt(b, 10, 64)
	if aErr != nil || bErr != nil {
		return provider.Subsumption{}, fmt.Errorf("snomedprovider: subsumesTest requires bare SCTIDs")
	}
	if aID == bID {
		return provider.Subsumption{Equivalent: true}, nil
	}
	aSubsumesB, err := p.reader.IsA(bID, aID)
	if err != nil {
		return provider.Subsumption{}, err
	}
	bSubsumesA, err := p.reader.IsA(aID, bID)
	if err != nil {
		return provider.Subsumption{}, err
	}
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

// --- iteration ---

type childIterator struct {
	ids []int64
	pos int
}

func (it *childIterator) Next(context.Context) (provider.Context, bool, error) {
	if it.pos >= len(it.ids) {
		return nil, false, nil
	}
	id := it.ids[it.pos]
	it.pos++
	return &Context{expr: expression.FromReference(id)}, true, nil
}

// Iterator started from nil is not supported: the cache's full concept
// table has no stable enumeration order exposed here and is typically far
// too large to walk wholesale; starting from a concept visits its direct
// active children, which is the operation value-set expansion actually
// needs (spec §4.1 "Iteration").
func (p *Provider) Iterator(c provider.Context) provider.Iterator {
	if c == nil {
		return &childIterator{}
	}
	cc, err := asContext(c)
	if err != nil {
		return &childIterator{}
	}
	id, ok := cc.focus()
	if !ok {
		return &childIterator{}
	}
	concept, found := p.reader.FindConcept(id)
	if !found {
		return &childIterator{}
	}
	return &childIterator{ids: concept.ActiveChildren}
}

// --- filtering ---

type isAFilterSet struct {
	reader       *snomed.Reader
	ancestorID   int64
	includeSelf  bool
}

func (s *isAFilterSet) Size() int { return -1 } // transitive closure size is not precomputed

func (s *isAFilterSet) Next(context.Context) (provider.Context, bool, error) {
	return nil, false, fmt.Errorf("%w: snomed is-a filter sets do not support full enumeration", provider.ErrNotSupported)
}

func (s *isAFilterSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
	}
	if !s.memberID(id) {
		return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
	}
	return &Context{expr: expression.FromReference(id)}, "", nil
}

func (s *isAFilterSet) memberID(id int64) bool {
	if s.includeSelf && id == s.ancestorID {
		return true
	}
	isA, err := s.reader.IsA(id, s.ancestorID)
	return err == nil && isA
}

func (s *isAFilterSet) Check(c provider.Context) bool {
	cc, err := asContext(c)
	if err != nil {
		return false
	}
	id, ok := cc.focus()
	return ok && s.memberID(id)
}

func (s *isAFilterSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return (property == "concept" || property == "code") &&
		(op == "is-a" || op == "descendent-of" || op == "is-not-a")
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if property != "concept" && property != "code" {
		return fmt.Errorf("%w: snomed filter property %s", provider.ErrUnsupportedFilter, property)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: snomed filter value %s is not a valid SCTID", provider.ErrUnsupportedFilter, value)
	}
	switch op {
	case "is-a":
		fctx.Sets = append(fctx.Sets, &isAFilterSet{reader: p.reader, ancestorID: id, includeSelf: true})
	case "descendent-of":
		fctx.Sets = append(fctx.Sets, &isAFilterSet{reader: p.reader, ancestorID: id, includeSelf: false})
	case "is-not-a":
		return fmt.Errorf("%w: snomed is-not-a filter requires negating an enumerable set, unsupported on an unbounded cache", provider.ErrNotSupported)
	default:
		return fmt.Errorf("%w: snomed filter op %s", provider.ErrUnsupportedFilter, op)
	}
	return nil
}

const searchMaxHits = 200

// searchResultSet is the FilterSet produced by SearchFilter: a fixed,
// relevance-ordered list of concept identifiers that matched a free-text
// query against the cache's description terms.
type searchResultSet struct {
	ids []int64
	pos int
}

func (s *searchResultSet) Size() int { return len(s.ids) }

func (s *searchResultSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.ids) {
		return nil, false, nil
	}
	id := s.ids[s.pos]
	s.pos++
	return &Context{expr: expression.FromReference(id)}, true, nil
}

func (s *searchResultSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || !s.memberID(id) {
		return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
	}
	return &Context{expr: expression.FromReference(id)}, "", nil
}

func (s *searchResultSet) memberID(id int64) bool {
	for _, candidate := range s.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *searchResultSet) Check(c provider.Context) bool {
	cc, err := asContext(c)
	if err != nil {
		return false
	}
	id, ok := cc.focus()
	return ok && s.memberID(id)
}

func (s *searchResultSet) Finish() error { return nil }

// SearchFilter matches text against the cache's active description terms
// using the in-memory bleve index built in New, following the teacher's
// terminology/bleve.go token-query construction (spec §4.7's filter
// execution context, extended with free-text search).
func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	ids, err := p.search.search(text, searchMaxHits)
	if err != nil {
		return fmt.Errorf("snomed searchFilter: %w", err)
	}
	if sortResults {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	fctx.Sets = append(fctx.Sets, &searchResultSet{ids: ids})
	return nil
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: snomed specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

// FiltersNotClosed is always true for SNOMED (spec §4.4 example, §9
// "grammar-based totals"): post-coordination means the set of codes
// satisfying an is-a filter can never be enumerated up front.
func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return true }

func (p *Provider) Close() error { return p.search.close() }

var _ provider.Provider = (*Provider)(nil)
