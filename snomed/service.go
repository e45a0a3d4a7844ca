package snomed

import (
	"fmt"

	"github.com/wardle/terminology/lang"
)

// PreferredDescription returns the description for conceptID that is marked
// preferred in the British English language reference set, falling back to
// the concept's fully specified name if no preferred synonym matches a
// requested language.
// Matching to the requested languages follows lang.Tag.MatchesForDisplay:
// the first requested language (in quality order) with a preferred
// synonym wins.
func (r *Reader) PreferredDescription(conceptID int64, languages lang.Languages) (*Description, error) {
	c, ok := r.FindConcept(conceptID)
	if !ok {
		return nil, fmt.Errorf("snomed: concept %d not found", conceptID)
	}
	type candidate struct {
		d   *Description
		tag lang.Tag
	}
	var fsn *Description
	var candidates []candidate
	for _, idx := range c.Descriptions {
		d, ok := r.Description(idx)
		if !ok || !d.Active {
			continue
		}
		if d.IsFullySpecifiedName() {
			fsn = d
		}
		if !d.IsSynonym() {
			continue
		}
		members := r.ReferenceSetMembers(BritishEnglishLanguageReferenceSetConceptID.Integer(), d.ID)
		preferred := false
		for _, m := range members {
			if m.IsPreferred() {
				preferred = true
				break
			}
		}
		if !preferred {
			continue
		}
		tag, err := lang.Parse(d.LanguageCode)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{d: d, tag: tag})
	}
	for _, w := range languages {
		for _, cand := range candidates {
			if cand.tag.MatchesForDisplay(w.Tag) {
				return cand.d, nil
			}
		}
	}
	if fsn != nil {
		return fsn, nil
	}
	return nil, fmt.Errorf("snomed: concept %d has no usable description", conceptID)
}

// ParentRelationships returns every active relationship for which conceptID
// is the source.
func (r *Reader) ParentRelationships(conceptID int64) ([]*Relationship, error) {
	c, ok := r.FindConcept(conceptID)
	if !ok {
		return nil, fmt.Errorf("snomed: concept %d not found", conceptID)
	}
	out := make([]*Relationship, 0, len(c.Outbound))
	for _, idx := range c.Outbound {
		rel, ok := r.Relationship(idx)
		if ok && rel.Active {
			out = append(out, rel)
		}
	}
	return out, nil
}

// Primitive returns id if it is already primitive, or the nearest primitive
// ancestor reached by following active Is-A parents otherwise. Used when
// normalising an expression's focus concepts: a fully defined concept is
// replaced by its primitive supertype plus the defining attributes that
// distinguished it, per the SNOMED CT normal-form transformation.
func (r *Reader) Primitive(id int64) (int64, error) {
	c, ok := r.FindConcept(id)
	if !ok {
		return 0, fmt.Errorf("snomed: concept %d not found", id)
	}
	if !c.IsSufficientlyDefined() {
		return id, nil
	}
	seen := map[int64]bool{id: true}
	queue := append([]int64{}, c.ActiveParents...)
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		if seen[pid] {
			continue
		}
		seen[pid] = true
		pc, ok := r.FindConcept(pid)
		if !ok {
			continue
		}
		if !pc.IsSufficientlyDefined() {
			return pid, nil
		}
		queue = append(queue, pc.ActiveParents...)
	}
	return id, nil
}

// lateralisableRefsetID is the reference set recording which attribute
// values (body structures, procedure sites, finding sites) may validly be
// lateralised with a laterality refinement.
const lateralisableRefsetID int64 = 723264001

// IsLateralisable reports whether id appears in the lateralisable reference
// set, meaning it is a candidate for a laterality refinement when building
// refinement suggestions for an expression.
func (r *Reader) IsLateralisable(id int64) bool {
	for _, m := range r.ReferenceSetMembers(lateralisableRefsetID, id) {
		if m.Active {
			return true
		}
	}
	return false
}

// Ancestors returns every concept reachable from id by following active Is-A
// edges, per spec §4.7.4. The cache invariant (no cycles) means this always
// terminates.
func (r *Reader) Ancestors(id int64) ([]int64, error) {
	if _, ok := r.FindConcept(id); !ok {
		return nil, fmt.Errorf("snomed: concept %d not found", id)
	}
	seen := make(map[int64]bool)
	var walk func(int64)
	walk = func(cid int64) {
		cc, ok := r.FindConcept(cid)
		if !ok {
			return
		}
		for _, p := range cc.ActiveParents {
			if !seen[p] {
				seen[p] = true
				walk(p)
			}
		}
	}
	walk(id)
	out := make([]int64, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out, nil
}

// IsA reports whether child is a descendant of (or equal to) ancestor via
// active Is-A relationships.
func (r *Reader) IsA(child, ancestor int64) (bool, error) {
	if child == ancestor {
		return true, nil
	}
	ancestors, err := r.Ancestors(child)
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if a == ancestor {
			return true, nil
		}
	}
	return false, nil
}
