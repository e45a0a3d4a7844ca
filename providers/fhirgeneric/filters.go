package fhirgeneric

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wardle/terminology/fhircs"
	"github.com/wardle/terminology/provider"
)

// closedSet is a fully materialised, ordered set of concepts: every
// filter this provider supports is bounded (spec §4.3's table has no
// grammar-based operator), so FiltersNotClosed is always false here.
type closedSet struct {
	members []*fhircs.Concept
	ratings map[string]int
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
		if m.Code == code {
			return m, "", nil
		}
	}
	return nil, fmt.Sprintf("Code '%s' not found in filter set", code), nil
}

func (s *closedSet) Check(c provider.Context) bool {
	fc, err := asConcept(c)
	if err != nil {
		return false
	}
	for _, m := range s.members {
		if m.Code == fc.Code {
			return true
		}
	}
	return false
}

func (s *closedSet) Finish() error { return nil }

// DoesFilter is an advisory probe (spec §9 "filter capability probing");
// Filter itself remains the source of truth and rejects anything this
// accepts incorrectly would still fail there.
func (p *Provider) DoesFilter(property, op, value string) bool {
	switch property {
	case "concept", "code":
		switch op {
		case "is-a", "descendent-of", "is-not-a", "in", "=", "regex":
			return true
		}
	case "child":
		return op == "exists"
	case "notSelectable", "inactive", "deprecated", "status":
		switch op {
		case "=", "in", "not-in":
			return true
		}
	default:
		if p.isDeclaredProperty(property) {
			switch op {
			case "=", "in", "not-in", "regex":
				return true
			}
		}
	}
	return false
}

func (p *Provider) isDeclaredProperty(code string) bool {
	for _, d := range p.doc.Property {
		if d.Code == code {
			return true
		}
	}
	return false
}

func (p *Provider) GetPrepContext(iterate bool) *provider.FilterContext {
	return provider.NewFilterContext(iterate)
}

// Filter appends one prepared, closed filter set per spec §4.3's
// operator table.
func (p *Provider) Filter(fctx *provider.FilterContext, property, op, value string) error {
	var members []*fhircs.Concept
	var err error
	switch property {
	case "concept", "code":
		members, err = p.filterConceptCode(op, value)
	case "child":
		members, err = p.filterChildExists(op, value)
	case "notSelectable", "inactive", "deprecated":
		members, err = p.filterBooleanProperty(property, op, value)
	case "status":
		members, err = p.filterStatus(op, value)
	default:
		if p.isDeclaredProperty(property) {
			members, err = p.filterDeclaredProperty(property, op, value)
		} else {
			return fmt.Errorf("%w: unknown property %q", provider.ErrUnsupportedFilter, property)
		}
	}
	if err != nil {
		return err
	}
	fctx.Sets = append(fctx.Sets, &closedSet{members: members})
	return nil
}

func (p *Provider) filterConceptCode(op, value string) ([]*fhircs.Concept, error) {
	switch op {
	case "is-a":
		return p.descendentsOf(value, true), nil
	case "descendent-of":
		return p.descendentsOf(value, false), nil
	case "is-not-a":
		all := p.doc.Concepts()
		excluded := make(map[string]bool)
		for _, c := range p.descendentsOf(value, true) {
			excluded[c.Code] = true
		}
		var out []*fhircs.Concept
		for _, c := range all {
			if !excluded[c.Code] {
				out = append(out, c)
			}
		}
		return out, nil
	case "in":
		var out []*fhircs.Concept
		for _, code := range strings.Split(value, ",") {
			if c, ok := p.doc.Lookup(strings.TrimSpace(code)); ok {
				out = append(out, c)
			}
		}
		return out, nil
	case "=":
		if c, ok := p.doc.Lookup(value); ok {
			return []*fhircs.Concept{c}, nil
		}
		return nil, nil
	case "regex":
		re, err := regexp.Compile("^(?:" + value + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrInvalidRegex, err)
		}
		var out []*fhircs.Concept
		for _, c := range p.doc.Concepts() {
			if re.MatchString(c.Code) {
				out = append(out, c)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: concept/code op %q", provider.ErrUnsupportedFilter, op)
}

func (p *Provider) descendentsOf(code string, includeSelf bool) []*fhircs.Concept {
	var out []*fhircs.Concept
	if includeSelf {
		if c, ok := p.doc.Lookup(code); ok {
			out = append(out, c)
		}
	}
	for _, d := range p.doc.Descendants(code) {
		if c, ok := p.doc.Lookup(d); ok {
			out = append(out, c)
		}
	}
	return out
}

func (p *Provider) filterChildExists(op, value string) ([]*fhircs.Concept, error) {
	if op != "exists" {
		return nil, fmt.Errorf("%w: child op %q", provider.ErrUnsupportedFilter, op)
	}
	want := value == "true"
	var out []*fhircs.Concept
	for _, c := range p.doc.Concepts() {
		has := len(p.doc.Children(c.Code)) > 0
		if has == want {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Provider) filterBooleanProperty(property, op, value string) ([]*fhircs.Concept, error) {
	values, err := booleanOperandSet(op, value)
	if err != nil {
		return nil, err
	}
	var out []*fhircs.Concept
	for _, c := range p.doc.Concepts() {
		if values[propBool(c, property)] {
			out = append(out, c)
		}
	}
	return out, nil
}

func booleanOperandSet(op, value string) (map[bool]bool, error) {
	switch op {
	case "=":
		return map[bool]bool{value == "true": true}, nil
	case "in":
		m := map[bool]bool{}
		for _, v := range strings.Split(value, ",") {
			m[strings.TrimSpace(v) == "true"] = true
		}
		return m, nil
	case "not-in":
		m := map[bool]bool{true: true, false: true}
		for _, v := range strings.Split(value, ",") {
			delete(m, strings.TrimSpace(v) == "true")
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: boolean op %q", provider.ErrUnsupportedFilter, op)
}

func (p *Provider) filterStatus(op, value string) ([]*fhircs.Concept, error) {
	set, err := stringOperandSet(op, value)
	if err != nil {
		return nil, err
	}
	var out []*fhircs.Concept
	for _, c := range p.doc.Concepts() {
		status := ""
		for _, prop := range c.Property {
			if prop.Code == "status" {
				status = prop.StringValue()
			}
		}
		if set(status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Provider) filterDeclaredProperty(property, op, value string) ([]*fhircs.Concept, error) {
	if op == "regex" {
		re, err := regexp.Compile("^(?:" + value + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrInvalidRegex, err)
		}
		var out []*fhircs.Concept
		for _, c := range p.doc.Concepts() {
			for _, prop := range c.Property {
				if prop.Code == property && re.MatchString(prop.StringValue()) {
					out = append(out, c)
					break
				}
			}
		}
		return out, nil
	}
	set, err := stringOperandSet(op, value)
	if err != nil {
		return nil, err
	}
	var out []*fhircs.Concept
	for _, c := range p.doc.Concepts() {
		matched := false
		for _, prop := range c.Property {
			if prop.Code == property && set(prop.StringValue()) {
				matched = true
				break
			}
		}
		if matched {
			out = append(out, c)
		}
	}
	return out, nil
}

func stringOperandSet(op, value string) (func(string) bool, error) {
	switch op {
	case "=":
		return func(v string) bool { return v == value }, nil
	case "in":
		set := map[string]bool{}
		for _, v := range strings.Split(value, ",") {
			set[strings.TrimSpace(v)] = true
		}
		return func(v string) bool { return set[v] }, nil
	case "not-in":
		set := map[string]bool{}
		for _, v := range strings.Split(value, ",") {
			set[strings.TrimSpace(v)] = true
		}
		return func(v string) bool { return !set[v] }, nil
	}
	return nil, fmt.Errorf("%w: string op %q", provider.ErrUnsupportedFilter, op)
}

// SpecialFilter has no FHIR-generic operand: this provider has no
// grammar-based special filters (those belong to BCP-47/UCUM/SNOMED).
func (p *Provider) SpecialFilter(_ *provider.FilterContext, _ string) error {
	return fmt.Errorf("%w: specialFilter", provider.ErrNotSupported)
}

func (p *Provider) ExecuteFilters(_ context.Context, fctx *provider.FilterContext) ([]provider.FilterSet, error) {
	return fctx.Sets, nil
}

// FiltersNotClosed is always false: every filter this provider supports
// produces a materialised, countable set (spec §4.3 has no grammar-based
// operator for FHIR-generic CodeSystems).
func (p *Provider) FiltersNotClosed(_ *provider.FilterContext) bool { return false }

// ---- search ----

type ratedMember struct {
	concept *fhircs.Concept
	rating  int
}

// SearchFilter assigns relevance ratings by match quality, per spec
// §4.3: exact code=100, code prefix=90, display prefix=80·(|needle|/
// |display|)+10, code substring=60, display substring=50, designation
// substring=40, definition substring=30. Results may optionally be
// sorted by descending rating.
func (p *Provider) SearchFilter(_ context.Context, fctx *provider.FilterContext, text string, sortResults bool) error {
	needle := strings.ToLower(text)
	var rated []ratedMember
	for _, c := range p.doc.Concepts() {
		rating := searchRating(c, needle)
		if rating > 0 {
			rated = append(rated, ratedMember{concept: c, rating: rating})
		}
	}
	if sortResults {
		sort.SliceStable(rated, func(i, j int) bool { return rated[i].rating > rated[j].rating })
	}
	members := make([]*fhircs.Concept, len(rated))
	ratings := make(map[string]int, len(rated))
	for i, r := range rated {
		members[i] = r.concept
		ratings[r.concept.Code] = r.rating
	}
	fctx.Sets = append(fctx.Sets, &closedSet{members: members, ratings: ratings})
	return nil
}

func searchRating(c *fhircs.Concept, needle string) int {
	code := strings.ToLower(c.Code)
	display := strings.ToLower(c.Display)
	switch {
	case code == needle:
		return 100
	case strings.HasPrefix(code, needle):
		return 90
	case display != "" && strings.HasPrefix(display, needle):
		return int(80*(float64(len(needle))/float64(len(display)))) + 10
	case strings.Contains(code, needle):
		return 60
	case strings.Contains(display, needle):
		return 50
	}
	for _, d := range c.Designation {
		if strings.Contains(strings.ToLower(d.Value), needle) {
			return 40
		}
	}
	if strings.Contains(strings.ToLower(c.Definition), needle) {
		return 30
	}
	return 0
}
