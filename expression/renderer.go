package expression

import (
	"sort"
	"strconv"
	"strings"
)

// DesignationLookup resolves a concept code to its preferred display term,
// used by an updating Renderer to refresh cosmetic terms from a live cache
// rather than trusting whatever term the expression was parsed with.
type DesignationLookup func(code int64) (string, error)

// Renderer renders a SNOMED CT expression as text such that it can be
// round-tripped back to an equivalent expression via Parse, meeting the
// syntax of the Compositional Grammar.
type Renderer struct {
	hideTerms   bool // Minimal rendering: omit terms entirely.
	updateTerms bool // Refresh terms via lookup rather than trusting the parsed term.
	sortParts   bool // Sort focus concepts, refinements and groups (canonical form).
	lookup      DesignationLookup
}

// NewDefaultRenderer returns a renderer that renders terms as-is (AsIs mode).
func NewDefaultRenderer() *Renderer {
	return &Renderer{}
}

// NewCanonicalRenderer returns a renderer producing the canonical
// representation (https://confluence.ihtsdotools.org/display/DOCTSG/12.4.29+Canonical+Representation):
// terms omitted, every multiset sorted into a deterministic order.
func NewCanonicalRenderer() *Renderer {
	return &Renderer{hideTerms: true, sortParts: true}
}

// NewUpdatingRenderer returns a renderer that replaces any parsed term with
// the current preferred term from lookup.
func NewUpdatingRenderer(lookup DesignationLookup) *Renderer {
	return &Renderer{updateTerms: true, lookup: lookup}
}

// Render renders e using a default (AsIs) renderer.
func Render(e *Expression) string {
	s, err := NewDefaultRenderer().Render(e)
	if err != nil {
		panic(err)
	}
	return s
}

// Render renders e according to the renderer's configured rules.
func (rn *Renderer) Render(e *Expression) (string, error) {
	var sb strings.Builder
	if e.Status == SubsumedBy {
		sb.WriteString("<<<")
	}
	// EquivalentTo is the default and is deliberately omitted.
	if err := rn.renderConcepts(&sb, e.Concepts); err != nil {
		return "", err
	}
	if len(e.Refinements) == 0 && len(e.RefinementGroups) == 0 {
		return sb.String(), nil
	}
	sb.WriteString(":")
	rr, err := rn.renderRefinements(e.Refinements)
	if err != nil {
		return "", err
	}
	sb.WriteString(rr)
	if len(e.Refinements) > 0 && len(e.RefinementGroups) > 0 {
		sb.WriteString(",")
	}
	rg, err := rn.renderGroups(e.RefinementGroups)
	if err != nil {
		return "", err
	}
	sb.WriteString(rg)
	return sb.String(), nil
}

func (rn *Renderer) renderConcept(c Concept) (string, error) {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(c.Code, 10))
	if rn.hideTerms {
		return sb.String(), nil
	}
	term := c.Term
	if rn.updateTerms && rn.lookup != nil {
		t, err := rn.lookup(c.Code)
		if err != nil {
			return "", err
		}
		term = t
	}
	sb.WriteString("|")
	sb.WriteString(term)
	sb.WriteString("|")
	return sb.String(), nil
}

func (rn *Renderer) renderConcepts(sb *strings.Builder, concepts []Concept) error {
	parts := make([]string, len(concepts))
	for i, c := range concepts {
		s, err := rn.renderConcept(c)
		if err != nil {
			return err
		}
		parts[i] = s
	}
	if rn.sortParts {
		sort.Strings(parts)
	}
	sb.WriteString(strings.Join(parts, "+"))
	return nil
}

func (rn *Renderer) renderRefinement(r Refinement) (string, error) {
	var sb strings.Builder
	name, err := rn.renderConcept(r.Name)
	if err != nil {
		return "", err
	}
	sb.WriteString(name)
	sb.WriteString("=")
	if r.Value != nil && (r.Value.IsComplex() || len(r.Value.Concepts) > 1) {
		sb.WriteString("(")
		nested, err := rn.Render(r.Value)
		if err != nil {
			return "", err
		}
		sb.WriteString(nested)
		sb.WriteString(")")
	} else if r.Value != nil && len(r.Value.Concepts) == 1 {
		c, err := rn.renderConcept(r.Value.Concepts[0])
		if err != nil {
			return "", err
		}
		sb.WriteString(c)
	}
	return sb.String(), nil
}

func (rn *Renderer) renderRefinements(refinements []Refinement) (string, error) {
	parts := make([]string, len(refinements))
	for i, r := range refinements {
		s, err := rn.renderRefinement(r)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	if rn.sortParts {
		sort.Strings(parts)
	}
	return strings.Join(parts, ","), nil
}

func (rn *Renderer) renderGroup(g RefinementGroup) (string, error) {
	refs, err := rn.renderRefinements(g.Refinements)
	if err != nil {
		return "", err
	}
	return "{" + refs + "}", nil
}

func (rn *Renderer) renderGroups(groups []RefinementGroup) (string, error) {
	parts := make([]string, len(groups))
	for i, g := range groups {
		s, err := rn.renderGroup(g)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	if rn.sortParts {
		sort.Strings(parts)
	}
	return strings.Join(parts, ""), nil
}
