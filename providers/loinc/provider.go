// Package loinc implements the LOINC provider (spec §4.5): a hierarchical,
// database-backed code system with code/part/list/answer concept kinds,
// relationship- and property-based filters, a closure table for
// is-a/descendent-of, and LONG_COMMON_NAME as the canonical display.
//
// The backing store is an in-memory fixture built on providers/store's
// integer-key Table, standing in for the real "Codes, Descriptions,
// Relationships, Properties, Closure" schema of spec §6; provider logic
// above the Table seam is unchanged by that substitution.
package loinc

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
	"github.com/wardle/terminology/providers/store"
)

const systemURI = "http://loinc.org"

// kind distinguishes the four LOINC concept flavours spec §4.5 names.
type kind string

const (
	kindCode   kind = "code"
	kindPart   kind = "part"
	kindList   kind = "list"
	kindAnswer kind = "answer"
)

type concept struct {
	id             int64
	code           string
	kind           kind
	longCommonName string
	shortName      string
	class          string // CLASSTYPE mapping target
	status         string
	copyright      string // "LOINC" or "3rdParty"
	listCode       string // for kindAnswer: the LL- list it belongs to
	answersFor     string // for kindAnswer: the code it answers
	children       []int64
	relationships  map[string]string // relationship property name -> target code or description
	properties     map[string]string
}

// classTypeNames maps LOINC's numeric CLASSTYPE property to its name,
// per spec §4.5 "property = value (with CLASSTYPE numeric->name
// mapping)".
var classTypeNames = map[string]string{
	"1": "Laboratory class",
	"2": "Clinical class",
	"3": "Claims attachment",
	"4": "Surveys",
}

// Store is the read surface a Factory builds once and shares across every
// provider instance built from it (spec §4.5 "store interface").
type Store struct {
	byID   *store.Table[*concept]
	byCode map[string]int64
}

// NewStore builds a Store from fixture rows; a production Factory would
// instead query the Codes/Descriptions/Relationships/Properties/Closure
// schema of spec §6 to populate the same shape.
func NewStore(concepts []*concept) *Store {
	ids := make([]int64, len(concepts))
	vals := make([]*concept, len(concepts))
	byCode := make(map[string]int64, len(concepts))
	for i, c := range concepts {
		ids[i] = c.id
		vals[i] = c
		byCode[c.code] = c.id
	}
	return &Store{byID: store.NewTable(ids, vals), byCode: byCode}
}

// DefaultFixture returns a small, representative LOINC subset covering
// all four concept kinds and the filters spec §4.5 names.
func DefaultFixture() *Store {
	return NewStore([]*concept{
		{id: 1, code: "2093-3", kind: kindCode, longCommonName: "Cholesterol [Mass/volume] in Serum or Plasma",
			shortName: "Cholesterol SerPl-mCnc", class: "1", status: "ACTIVE", copyright: "LOINC",
			relationships: map[string]string{"system-core": "LP7833-0", "has-answers-for": ""}},
		{id: 2, code: "2085-9", kind: kindCode, longCommonName: "Cholesterol in HDL [Mass/volume] in Serum or Plasma",
			shortName: "Cholest.in HDL SerPl-mCnc", class: "1", status: "ACTIVE", copyright: "LOINC"},
		{id: 3, code: "LP7833-0", kind: kindPart, longCommonName: "Serum or Plasma", shortName: "Ser/Plas",
			class: "1", status: "ACTIVE", copyright: "LOINC"},
		{id: 4, code: "LL1001-8", kind: kindList, longCommonName: "Positive/Negative list", status: "ACTIVE", copyright: "LOINC",
			children: []int64{5, 6}},
		{id: 5, code: "LA6576-8", kind: kindAnswer, longCommonName: "Positive", status: "ACTIVE", copyright: "LOINC",
			listCode: "LL1001-8", answersFor: "2093-3"},
		{id: 6, code: "LA6577-6", kind: kindAnswer, longCommonName: "Negative", status: "ACTIVE", copyright: "LOINC",
			listCode: "LL1001-8", answersFor: "2093-3"},
	})
}

// closure returns every id that is, transitively, a "child"-relationship
// descendant of root (spec §4.5 "Closure"), including root itself.
func (s *Store) closure(root int64) []int64 {
	seen := map[int64]bool{root: true}
	queue := []int64{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		c, ok := s.byID.Get(id)
		if !ok {
			continue
		}
		for _, child := range c.children {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Provider implements provider.Provider over a LOINC Store.
type Provider struct {
	store       *Store
	supplements []provider.Supplement
}

// New builds a Provider over a shared Store (spec §4.5 "each built
// provider holds a fresh connection to the backing store").
func New(s *Store, supplements ...provider.Supplement) *Provider {
	return &Provider{store: s, supplements: supplements}
}

// Context identifies one LOINC concept by internal id.
type Context struct{ id int64 }

func asContext(c provider.Context) (*Context, error) {
	cc, ok := c.(*Context)
	if !ok {
		return nil, provider.ErrWrongContextType
	}
	return cc, nil
}

func (p *Provider) concept(cc *Context) (*concept, error) {
	c, ok := p.store.byID.Get(cc.id)
	if !ok {
		return nil, fmt.Errorf("loinc: concept id %d not found", cc.id)
	}
	return c, nil
}

func (p *Provider) System() string      { return systemURI }
func (p *Provider) Version() string     { return "2.76" }
func (p *Provider) Name() string        { return "LOINC" }
func (p *Provider) Description() string { return "Logical Observation Identifiers Names and Codes" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return p.store.byID.Len() }
func (p *Provider) HasParents() bool    { return true }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{
		{Code: "CLASSTYPE", Type: "code"},
		{Code: "STATUS", Type: "code"},
		{Code: "LIST", Type: "code"},
		{Code: "answers-for", Type: "code"},
		{Code: "copyright", Type: "code"},
	}
}

func (p *Provider) HasSupplement(string) bool { return false }
func (p *Provider) ListSupplements() []string { return nil }
func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool { return v1 > v2 }
func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	id, ok := p.store.byCode[code]
	if !ok {
		return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
	}
	return &Context{id: id}, "", nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	con, err := p.concept(cc)
	if err != nil {
		return "", err
	}
	return con.code, nil
}

// Display resolves to LONG_COMMON_NAME, the canonical LOINC display (spec
// §4.5 "LONG_COMMON_NAME is the canonical display").
func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	con, err := p.concept(cc)
	if err != nil {
		return "", err
	}
	host := provider.HostDisplay{
		DefLang:    lang.MustParse("en"),
		Primary:    con.longCommonName,
		HasPrimary: con.longCommonName != "",
		Designations: []provider.Designation{
			{Language: lang.MustParse("en"), Use: &provider.Use{Code: "display"}, Value: con.longCommonName},
			{Language: lang.MustParse("en"), Use: &provider.Use{Code: "short"}, Value: con.shortName},
		},
	}
	return provider.ResolveDisplay(op, con.code, p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	con, err := p.concept(cc)
	if err != nil {
		return nil, err
	}
	host := []provider.Designation{{Language: lang.MustParse("en"), Value: con.longCommonName}}
	if con.shortName != "" {
		host = append(host, provider.Designation{Language: lang.MustParse("en"), Use: &provider.Use{Code: "short"}, Value: con.shortName})
	}
	return provider.MergeDesignations(con.code, host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	con, err := p.concept(cc)
	if err != nil {
		return nil, err
	}
	host := []provider.Property{
		{Code: "STATUS", Value: con.status},
		{Code: "copyright", Value: con.copyright},
	}
	if con.class != "" {
		host = append(host, provider.Property{Code: "CLASSTYPE", Value: con.class})
	}
	if con.listCode != "" {
		host = append(host, provider.Property{Code: "LIST", Value: con.listCode})
	}
	if con.answersFor != "" {
		host = append(host, provider.Property{Code: "answers-for", Value: con.answersFor})
	}
	for k, v := range con.relationships {
		host = append(host, provider.Property{Code: k, Value: v})
	}
	return provider.MergeProperties(con.code, host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }
func (p *Provider) IsAbstract(provider.Context) (bool, error)                { return false, nil }

func (p *Provider) IsInactive(c provider.Context) (bool, error) {
	cc, err := asContext(c)
	if err != nil {
		return false, err
	}
	con, err := p.concept(cc)
	if err != nil {
		return false, err
	}
	return con.status != "ACTIVE", nil
}

func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(c provider.Context) (provider.Context, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	con, err := p.concept(cc)
	if err != nil {
		return nil, err
	}
	if con.listCode != "" {
		if parentID, ok := p.store.byCode[con.listCode]; ok {
			return &Context{id: parentID}, nil
		}
	}
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	return erra == nil && errb == nil && ca.id == cb.id
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
	parentID, ok := p.store.byCode[parentCode]
	if !ok {
		return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
	}
	cc := c.(*Context)
	for _, id := range p.store.closure(parentID) {
		if id == cc.id {
			return c, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' is not a descendant of '%s'", code, parentCode), nil
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	aID, aOK := p.store.byCode[a]
	bID, bOK := p.store.byCode[b]
	if !aOK || !bOK {
		return provider.Subsumption{NotSubsumed: true}, nil
	}
	aSubsumesB := memberOf(p.store.closure(aID), bID)
	bSubsumesA := memberOf(p.store.closure(bID), aID)
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

func memberOf(ids []int64, id int64) bool {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	return i < len(ids) && ids[i] == id
}

type sliceIterator struct {
	ids []int64
	pos int
	s   *Store
}

func (it *sliceIterator) Next(context.Context) (provider.Context, bool, error) {
	if it.pos >= len(it.ids) {
		return nil, false, nil
	}
	id := it.ids[it.pos]
	it.pos++
	return &Context{id: id}, true, nil
}

func (p *Provider) Iterator(c provider.Context) provider.Iterator {
	if c == nil {
		return &sliceIterator{ids: p.store.byID.All(), s: p.store}
	}
	cc, err := asContext(c)
	if err != nil {
		return &sliceIterator{}
	}
	con, err := p.concept(cc)
	if err != nil {
		return &sliceIterator{}
	}
	ids := append([]int64{}, con.children...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &sliceIterator{ids: ids, s: p.store}
}

// ---- filtering ----

type idSet struct {
	ids []int64
	pos int
	s   *Store
}

func (s *idSet) Size() int { return len(s.ids) }

func (s *idSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.ids) {
		return nil, false, nil
	}
	id := s.ids[s.pos]
	s.pos++
	return &Context{id: id}, true, nil
}

func (s *idSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	id, ok := s.s.byCode[code]
	if !ok || !memberOf(s.ids, id) {
		return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
	}
	return &Context{id: id}, "", nil
}

func (s *idSet) Check(c provider.Context) bool {
	cc, ok := c.(*Context)
	return ok && memberOf(s.ids, cc.id)
}

func (s *idSet) Finish() error { return nil }

// DoesFilter is advisory per spec §9 "Filter capability probing"; Filter
// remains the source of truth.
func (p *Provider) DoesFilter(property, op, value string) bool {
	switch {
	case (property == "concept" || property == "code") && (op == "is-a" || op == "descendent-of"):
		return true
	case property == "CLASSTYPE" && op == "=":
		return true
	case property == "STATUS" && op == "=":
		return true
	case property == "LIST" && op == "=":
		return true
	case property == "answers-for" && op == "=":
		return true
	case property == "copyright" && op == "=":
		return true
	case op == "regex":
		return true
	default:
		return false
	}
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	allIDs := p.store.byID.All()
	match := func(pred func(*concept) bool) []int64 {
		var out []int64
		for _, id := range allIDs {
			c, _ := p.store.byID.Get(id)
			if pred(c) {
				out = append(out, id)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	switch {
	case (property == "concept" || property == "code") && op == "is-a":
		id, ok := p.store.byCode[value]
		if !ok {
			fctx.Sets = append(fctx.Sets, &idSet{s: p.store})
			return nil
		}
		fctx.Sets = append(fctx.Sets, &idSet{ids: p.store.closure(id), s: p.store})
		return nil
	case (property == "concept" || property == "code") && op == "descendent-of":
		id, ok := p.store.byCode[value]
		if !ok {
			fctx.Sets = append(fctx.Sets, &idSet{s: p.store})
			return nil
		}
		ids := p.store.closure(id)
		var without []int64
		for _, d := range ids {
			if d != id {
				without = append(without, d)
			}
		}
		fctx.Sets = append(fctx.Sets, &idSet{ids: without, s: p.store})
		return nil
	case property == "CLASSTYPE" && op == "=":
		var want string
		for num, name := range classTypeNames {
			if name == value || num == value {
				want = num
			}
		}
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool { return c.class == want }), s: p.store})
		return nil
	case property == "STATUS" && op == "=":
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool { return c.status == value }), s: p.store})
		return nil
	case property == "LIST" && op == "=":
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool { return c.listCode == value }), s: p.store})
		return nil
	case property == "answers-for" && op == "=":
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool { return c.answersFor == value }), s: p.store})
		return nil
	case property == "copyright" && op == "=":
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool { return c.copyright == value }), s: p.store})
		return nil
	case op == "regex":
		re, reErr := regexp.Compile("^(?:" + value + ")$")
		if reErr != nil {
			return fmt.Errorf("%w: %v", provider.ErrInvalidRegex, reErr)
		}
		fctx.Sets = append(fctx.Sets, &idSet{ids: match(func(c *concept) bool {
			if v, ok := c.relationships[property]; ok {
				return re.MatchString(v)
			}
			return re.MatchString(propertyValue(c, property))
		}), s: p.store})
		return nil
	default:
		return fmt.Errorf("%w: loinc filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
}

func propertyValue(c *concept, property string) string {
	switch property {
	case "STATUS":
		return c.status
	case "copyright":
		return c.copyright
	case "LIST":
		return c.listCode
	case "answers-for":
		return c.answersFor
	default:
		return ""
	}
}

func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	needle := strings.ToLower(text)
	var matches []int64
	for _, id := range p.store.byID.All() {
		c, _ := p.store.byID.Get(id)
		if strings.Contains(strings.ToLower(c.longCommonName), needle) || strings.Contains(strings.ToLower(c.code), needle) {
			matches = append(matches, id)
		}
	}
	if sortResults {
		sort.Slice(matches, func(i, j int) bool {
			ci, _ := p.store.byID.Get(matches[i])
			cj, _ := p.store.byID.Get(matches[j])
			return ci.longCommonName < cj.longCommonName
		})
	}
	fctx.Sets = append(fctx.Sets, &idSet{ids: matches, s: p.store})
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
