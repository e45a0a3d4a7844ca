// Package expression implements the SNOMED CT Compositional Grammar (CG):
// parsing, structural equivalence, normalisation and rendering of
// post-coordinated expressions built from SNOMED CT concepts.
//
// Expressions are usually multiple SNOMED CT concepts combined together,
// much like a sentence is made up of words. SNOMED CT also contains single
// concepts that actually represent whole expressions (usually for historic
// or ease-of-use reasons); normalising any arbitrary concept or expression
// into a normal form lets these be compared for equivalence.
//
// The grammar implemented here is the normative Compositional Grammar
// (https://confluence.ihtsdotools.org/display/DOCSCG/5.1+Normative+Specification);
// the separate Expression Constraint Language is out of scope.
package expression

import (
	"fmt"
	"strconv"
	"strings"
)

// Status records an expression's relationship to the concept(s) it refines:
// EquivalentTo is the default, omitted when rendered; SubsumedBy marks the
// expression as a subtype of its focus concepts rather than their exact
// equivalent.
type Status int

// Available statuses.
const (
	EquivalentTo Status = iota
	SubsumedBy
)

// Concept is a reference to a single SNOMED CT concept within an
// expression, with an optional cosmetic term carried for human readability.
type Concept struct {
	Code int64
	Term string
}

// Refinement is a name/value attribute pair: name must resolve to a
// descendant of "Concept model attribute", value is itself an expression
// (spec §4.7.2/§4.7.3).
type Refinement struct {
	Name  Concept
	Value *Expression
}

// RefinementGroup is a brace-delimited set of refinements that must be
// satisfied together by the same contextual instance.
type RefinementGroup struct {
	Refinements []Refinement
}

// Expression is a parsed SNOMED CT compositional expression.
type Expression struct {
	Status           Status
	Concepts         []Concept
	Refinements      []Refinement
	RefinementGroups []RefinementGroup
}

// IsComplex reports whether this expression carries any refinements,
// grouped or not (spec §4.7.2 "expression context").
func (e *Expression) IsComplex() bool {
	return len(e.Refinements) > 0 || len(e.RefinementGroups) > 0
}

// FromReference builds the simplest possible expression: a single,
// unrefined focus concept, as used when an expression context is simply a
// reference to a cached concept.
func FromReference(code int64) *Expression {
	return &Expression{Concepts: []Concept{{Code: code}}}
}

// Parse parses a SNOMED CT Compositional Grammar expression, per the
// grammar in spec §4.7.2:
//
//	expression     := status? concept ('+' concept)* refinementPart?
//	status         := '===' | '<<<'
//	concept        := sctid ('|' term '|')?
//	refinementPart := ':' (ungrouped | group)+
//	ungrouped      := refinement (',' refinement)*
//	group          := '{' refinement (',' refinement)* '}'
//	refinement     := concept '=' expression
//
// Whitespace between tokens is ignored. Parse errors identify the byte
// position at which they occurred.
func Parse(s string) (*Expression, error) {
	p := &parser{input: s}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected trailing character %q", p.input[p.pos])
	}
	return e, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("expression: %s at position %d", fmt.Sprintf(format, args...), p.pos)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peekHas(prefix string) bool {
	return strings.HasPrefix(p.input[p.pos:], prefix)
}

func (p *parser) parseExpression() (*Expression, error) {
	e := &Expression{Status: EquivalentTo}
	p.skipSpace()
	switch {
	case p.peekHas("==="):
		p.pos += 3
		e.Status = EquivalentTo
	case p.peekHas("<<<"):
		p.pos += 3
		e.Status = SubsumedBy
	}
	p.skipSpace()
	c, err := p.parseConcept()
	if err != nil {
		return nil, err
	}
	e.Concepts = append(e.Concepts, c)
	for {
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != '+' {
			break
		}
		p.pos++
		p.skipSpace()
		c, err := p.parseConcept()
		if err != nil {
			return nil, err
		}
		e.Concepts = append(e.Concepts, c)
	}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == ':' {
		p.pos++
		if err := p.parseRefinementPart(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (p *parser) parseRefinementPart(e *Expression) error {
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return p.errorf("expected a refinement or group")
		}
		if p.input[p.pos] == '{' {
			p.pos++
			group, err := p.parseRefinementList()
			if err != nil {
				return err
			}
			if p.pos >= len(p.input) || p.input[p.pos] != '}' {
				return p.errorf("unmatched '{' in refinement group")
			}
			p.pos++
			e.RefinementGroups = append(e.RefinementGroups, RefinementGroup{Refinements: group})
		} else {
			refs, err := p.parseRefinementList()
			if err != nil {
				return err
			}
			e.Refinements = append(e.Refinements, refs...)
		}
		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.pos < len(p.input) && p.input[p.pos] == '{' {
			continue
		}
		break
	}
	return nil
}

// parseRefinementList parses one or more comma-separated refinements,
// stopping at whatever follows: end of input, a closing '}', or the start
// of a new refinement group.
func (p *parser) parseRefinementList() ([]Refinement, error) {
	var out []Refinement
	for {
		r, err := p.parseRefinement()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			// Only consume the comma here if it is followed by another
			// refinement rather than a new group; groups are handled by
			// the caller.
			save := p.pos
			p.pos++
			p.skipSpace()
			if p.pos < len(p.input) && p.input[p.pos] == '{' {
				p.pos = save
				return out, nil
			}
			continue
		}
		return out, nil
	}
}

func (p *parser) parseRefinement() (Refinement, error) {
	name, err := p.parseConcept()
	if err != nil {
		return Refinement{}, err
	}
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '=' {
		return Refinement{}, p.errorf("expected '=' in refinement")
	}
	p.pos++
	p.skipSpace()
	var value *Expression
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		value, err = p.parseExpression()
		if err != nil {
			return Refinement{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return Refinement{}, p.errorf("unmatched '(' in refinement value")
		}
		p.pos++
	} else {
		c, err := p.parseConcept()
		if err != nil {
			return Refinement{}, err
		}
		value = &Expression{Status: EquivalentTo, Concepts: []Concept{c}}
	}
	return Refinement{Name: name, Value: value}, nil
}

func (p *parser) parseConcept() (Concept, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return Concept{}, p.errorf("expected a SNOMED CT identifier")
	}
	code, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
	if err != nil {
		return Concept{}, p.errorf("invalid SNOMED CT identifier %q", p.input[start:p.pos])
	}
	c := Concept{Code: code}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '|' {
		p.pos++
		termStart := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != '|' {
			p.pos++
		}
		if p.pos >= len(p.input) {
			return Concept{}, p.errorf("unmatched '|' in concept term")
		}
		c.Term = strings.TrimSpace(p.input[termStart:p.pos])
		p.pos++
	}
	return c, nil
}

// Equivalent reports whether a and b are structurally equivalent per spec
// §4.7.3: their status matches, their concept sets are equal by code, their
// ungrouped refinement sets are equal (recursively, by name and value), and
// their refinement-group sets are equal (order-insensitive, recursively).
func Equivalent(a, b *Expression) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Status != b.Status {
		return false
	}
	if !sameConceptSet(a.Concepts, b.Concepts) {
		return false
	}
	if !sameRefinementSet(a.Refinements, b.Refinements) {
		return false
	}
	return sameGroupSet(a.RefinementGroups, b.RefinementGroups)
}

func sameConceptSet(a, b []Concept) bool {
	if len(a) != len(b) {
		return false
	}
	remaining := append([]Concept{}, b...)
	for _, ca := range a {
		found := -1
		for i, cb := range remaining {
			if ca.Code == cb.Code {
				found = i
				break
			}
		}
		if found < 0 {
			return false
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	return true
}

func sameRefinementSet(a, b []Refinement) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ra := range a {
		found := false
		for i, rb := range b {
			if used[i] {
				continue
			}
			if ra.Name.Code == rb.Name.Code && Equivalent(ra.Value, rb.Value) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameGroupSet(a, b []RefinementGroup) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ga := range a {
		found := false
		for i, gb := range b {
			if used[i] {
				continue
			}
			if sameRefinementSet(ga.Refinements, gb.Refinements) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
