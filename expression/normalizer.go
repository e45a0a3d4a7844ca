package expression

import (
	"fmt"

	"github.com/wardle/terminology/snomed"
)

// Normalize expands e into a normal form: every focus concept is replaced
// by its primitive supertype plus the defining attributes that
// distinguished it, making two expressions with different surface syntax
// but the same underlying meaning comparable via Equivalent. See
// https://confluence.ihtsdotools.org/display/DOCTSG/12.3.3+Building+Long+and+Short+Normal+Forms.
func Normalize(r *snomed.Reader, e *Expression) (*Expression, error) {
	exps := make([]*Expression, 0, len(e.Concepts))
	for _, c := range e.Concepts {
		ne, err := NormalizeConcept(r, c.Code)
		if err != nil {
			return nil, err
		}
		exps = append(exps, ne)
	}
	merged := mergeExpressions(exps)
	merged.Status = e.Status
	merged.Refinements = append(merged.Refinements, e.Refinements...)
	merged.RefinementGroups = append(merged.RefinementGroups, e.RefinementGroups...)
	return merged, nil
}

// mergeExpressions combines several expressions' focus concepts and
// refinements into one, deduplicating concepts by code and refinements by
// (name, value) pair.
func mergeExpressions(exps []*Expression) *Expression {
	out := &Expression{Status: EquivalentTo}
	seenConcepts := make(map[int64]bool)
	seenRefinements := make(map[string]bool)
	for _, e := range exps {
		for _, c := range e.Concepts {
			if !seenConcepts[c.Code] {
				seenConcepts[c.Code] = true
				out.Concepts = append(out.Concepts, c)
			}
		}
		for _, r := range e.Refinements {
			key := fmt.Sprintf("%d=%s", r.Name.Code, Render(r.Value))
			if !seenRefinements[key] {
				seenRefinements[key] = true
				out.Refinements = append(out.Refinements, r)
			}
		}
		out.RefinementGroups = append(out.RefinementGroups, e.RefinementGroups...)
	}
	return out
}

// NormalizeConcept turns a single concept into its primitive components: the
// nearest primitive ancestor of id, plus one refinement per non-Is-A
// defining relationship (itself recursively normalised to a primitive
// value), deduplicated by (type, value).
func NormalizeConcept(r *snomed.Reader, id int64) (*Expression, error) {
	primitiveID, err := r.Primitive(id)
	if err != nil {
		return nil, err
	}
	e := &Expression{Status: EquivalentTo, Concepts: []Concept{{Code: primitiveID}}}

	rels, err := r.ParentRelationships(id)
	if err != nil {
		return nil, err
	}
	unique := make(map[string]bool)
	for _, rel := range rels {
		if rel.TypeID == snomed.IsAConceptID.Integer() || !rel.IsDefiningRelationship() {
			continue
		}
		primitiveChild, err := r.Primitive(rel.DestinationID)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%d-%d", rel.TypeID, primitiveChild)
		if unique[key] {
			continue
		}
		unique[key] = true
		e.Refinements = append(e.Refinements, Refinement{
			Name:  Concept{Code: rel.TypeID},
			Value: &Expression{Status: EquivalentTo, Concepts: []Concept{{Code: primitiveChild}}},
		})
	}
	return e, nil
}
