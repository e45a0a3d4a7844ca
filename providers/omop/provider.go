// Package omop implements the OMOP Standardized Vocabularies provider
// (spec §4.5): vocabularies keyed by integer, a fixed UI-URI <-> vocabulary
// table, a "domain" filter over standard concepts, and getTranslations
// for cross-vocabulary concept_id mapping. Not iterable in full (spec
// §4.5 "Not iterable in full (too large)").
package omop

import (
	"context"
	"fmt"
	"sort"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

// vocabularyURIs is the fixed bidirectional table mapping a UI vocabulary
// id to the URI OMOP concepts of that vocabulary are exposed under (spec
// §4.5 "Vocabularies keyed by integer; UI URIs mapped bidirectionally via
// a fixed table").
var vocabularyURIs = map[int]string{
	1: "http://www.nlm.nih.gov/research/umls/rxnorm",
	2: "http://snomed.info/sct",
	3: "http://loinc.org",
}

var uriToVocabulary = func() map[string]int {
	out := make(map[string]int, len(vocabularyURIs))
	for id, uri := range vocabularyURIs {
		out[uri] = id
	}
	return out
}()

type concept struct {
	conceptID       int64
	conceptCode     string
	conceptName     string
	vocabularyID    int
	domainID        string
	standardConcept string // "S" for standard
	invalidReason   string
	mapsTo          int64 // ConceptRelationships "Maps to" target concept_id, 0 if none
}

// Store holds the Concepts/Domains/ConceptClasses/Vocabularies/
// ConceptRelationships/ConceptSynonyms tables of spec §6, as an in-memory
// fixture.
type Store struct {
	byID map[int64]*concept
}

// DefaultFixture returns a small representative OMOP subset.
func DefaultFixture() *Store {
	return &Store{byID: map[int64]*concept{
		1: {conceptID: 1, conceptCode: "320128", conceptName: "Essential hypertension", vocabularyID: 1, domainID: "Condition", standardConcept: "S", mapsTo: 2},
		2: {conceptID: 2, conceptCode: "38341003", conceptName: "Hypertensive disorder, systemic arterial", vocabularyID: 2, domainID: "Condition", standardConcept: ""},
	}}
}

// Provider implements provider.Provider over an OMOP Store.
type Provider struct {
	store       *Store
	vocabulary  int
	supplements []provider.Supplement
}

// New builds a Provider scoped to a single OMOP vocabulary id, following
// spec §4.5's per-vocabulary provider instantiation.
func New(s *Store, vocabularyID int, supplements ...provider.Supplement) *Provider {
	return &Provider{store: s, vocabulary: vocabularyID, supplements: supplements}
}

// NewFromURI builds a Provider for whichever vocabulary is registered
// under systemURI in the fixed bidirectional vocabulary table.
func NewFromURI(s *Store, systemURI string, supplements ...provider.Supplement) (*Provider, error) {
	id, ok := uriToVocabulary[systemURI]
	if !ok {
		return nil, fmt.Errorf("omop: no vocabulary registered for %s", systemURI)
	}
	return New(s, id, supplements...), nil
}

type Context struct{ conceptID int64 }

func asContext(c provider.Context) (*Context, error) {
	cc, ok := c.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cc, nil
}

func (p *Provider) System() string { return vocabularyURIs[p.vocabulary] }
func (p *Provider) Version() string { return "" }
func (p *Provider) Name() string    { return "OMOP Standardized Vocabularies" }
func (p *Provider) Description() string {
	return "OHDSI OMOP Common Data Model standardized vocabulary concepts"
}
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "fragment" }
func (p *Provider) TotalCount() int     { return -1 } // too large to enumerate, spec §4.5
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{{Code: "domain", Type: "code"}}
}

func (p *Provider) HasSupplement(string) bool               { return false }
func (p *Provider) ListSupplements() []string                { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool { return v1 > v2 }
func (p *Provider) Status() string                           { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) conceptsInVocabulary() []*concept {
	var out []*concept
	for _, c := range p.store.byID {
		if c.vocabularyID == p.vocabulary {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].conceptID < out[j].conceptID })
	return out
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	for _, c := range p.conceptsInVocabulary() {
		if c.conceptCode == code {
			return &Context{conceptID: c.conceptID}, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' not found in %s", code, p.System()), nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	con, ok := p.store.byID[cc.conceptID]
	if !ok {
		return "", fmt.Errorf("omop: concept_id %d not found", cc.conceptID)
	}
	return con.conceptCode, nil
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	con, ok := p.store.byID[cc.conceptID]
	name := ""
	if ok {
		name = con.conceptName
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: name, HasPrimary: name != ""}
	code := ""
	if ok {
		code = con.conceptCode
	}
	return provider.ResolveDisplay(op, code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	con, ok := p.store.byID[cc.conceptID]
	var host []provider.Designation
	code := ""
	if ok {
		host = append(host, provider.Designation{Language: lang.MustParse("en"), Value: con.conceptName})
		code = con.conceptCode
	}
	return provider.MergeDesignations(code, host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	con, ok := p.store.byID[cc.conceptID]
	if !ok {
		return nil, nil
	}
	host := []provider.Property{{Code: "domain", Value: con.domainID}}
	return provider.MergeProperties(con.conceptCode, host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }
func (p *Provider) IsAbstract(provider.Context) (bool, error)                { return false, nil }

func (p *Provider) IsInactive(c provider.Context) (bool, error) {
	cc, err := asContext(c)
	if err != nil {
		return false, err
	}
	con, ok := p.store.byID[cc.conceptID]
	return ok && con.invalidReason != "", nil
}

func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }
func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.conceptID == cb.conceptID
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

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: omop concepts have no parent hierarchy exposed", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

type emptyIterator struct{}

func (emptyIterator) Next(context.Context) (provider.Context, bool, error) { return nil, false, nil }

// Iterator is not supported over the full vocabulary (spec §4.5 "Not
// iterable in full (too large)"); direct-children iteration is likewise
// empty since OMOP concepts carry no parent hierarchy in this provider.
func (p *Provider) Iterator(provider.Context) provider.Iterator { return emptyIterator{} }

// ---- filtering ----

type domainSet struct {
	items []*Context
	pos   int
}

func (s *domainSet) Size() int { return len(s.items) }

func (s *domainSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	c := s.items[s.pos]
	s.pos++
	return c, true, nil
}

func (s *domainSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
}

func (s *domainSet) Check(c provider.Context) bool {
	cc, ok := c.(*Context)
	if !ok {
		return false
	}
	for _, m := range s.items {
		if m.conceptID == cc.conceptID {
			return true
		}
	}
	return false
}

func (s *domainSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return property == "domain" && op == "="
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

// Filter supports "domain = domain-id", producing standard concepts
// (standard_concept = 'S') in that domain (spec §4.5 "OMOP").
func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if property != "domain" || op != "=" {
		return fmt.Errorf("%w: omop filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
	var items []*Context
	for _, c := range p.conceptsInVocabulary() {
		if c.domainID == value && c.standardConcept == "S" {
			items = append(items, &Context{conceptID: c.conceptID})
		}
	}
	fctx.Sets = append(fctx.Sets, &domainSet{items: items})
	return nil
}

func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	return fmt.Errorf("%w: omop searchFilter", provider.ErrNotSupported)
}

func (p *Provider) SpecialFilter(*provider.FilterContext, string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

func (p *Provider) FiltersNotClosed(*provider.FilterContext) bool { return false }

func (p *Provider) Close() error { return nil }

// GetTranslations searches concepts of the target vocabulary reachable
// from the source coding's concept via a "Maps to" ConceptRelationships
// entry (spec §4.5 "getTranslations(coding, target) searches concepts of
// the target vocabulary whose concept_id matches the source code").
func (p *Provider) GetTranslations(sourceCode string, targetVocabularyID int) ([]string, error) {
	src, err := p.Locate(context.Background(), sourceCode)
	if err != nil {
		return nil, err
	}
	cc, ok := src.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	source, ok := p.store.byID[cc.conceptID]
	if !ok || source.mapsTo == 0 {
		return nil, nil
	}
	target, ok := p.store.byID[source.mapsTo]
	if !ok || target.vocabularyID != targetVocabularyID {
		return nil, nil
	}
	return []string{target.conceptCode}, nil
}

var _ provider.Provider = (*Provider)(nil)
