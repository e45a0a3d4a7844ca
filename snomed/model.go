// Copyright 2018 Mark Wardle / Eldrix Ltd
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.
//

// Package snomed provides read access to a pre-built SNOMED CT binary cache
// (see Reader) together with the small set of enumerations needed to
// interpret the RF2 concept model carried within it.
package snomed

// conceptFlag bits packed into a Concept record's Flags byte.
type conceptFlag uint8

const (
	flagActive  conceptFlag = 1 << 0
	flagDefined conceptFlag = 1 << 1
	flagPrimitive conceptFlag = 1 << 2
)

// Concept is the structured view of one Concepts table record.
type Concept struct {
	Identity       int64
	Flags          uint8
	ActiveParents  []int64
	ActiveChildren []int64
	Descriptions   []int64
	Inbound        []int64
	Outbound       []int64
	EffectiveDate  int32
	Depth          int32
	ModuleID       int64
}

// IsActive reports whether this concept is in active use.
func (c *Concept) IsActive() bool {
	return c.Flags&uint8(flagActive) != 0
}

// IsSufficientlyDefined reports whether this concept has a formal logic
// definition sufficient to distinguish its meaning from other similar
// concepts, rather than merely being primitive.
func (c *Concept) IsSufficientlyDefined() bool {
	return c.Flags&uint8(flagDefined) != 0
}

// DescriptionTypeID gives the type a description represents for its concept.
type DescriptionTypeID int64

// Available description type IDs.
const (
	DefinitionDescription DescriptionTypeID = 900000000000550004
	FullySpecifiedName    DescriptionTypeID = 900000000000003001
	Synonym               DescriptionTypeID = 900000000000013009
)

// CaseSignificanceID records whether a description's casing is significant.
type CaseSignificanceID int64

// Available case-significance options.
const (
	EntireTermCaseInsensitive     CaseSignificanceID = 900000000000448009
	EntireTermCaseSensitive       CaseSignificanceID = 900000000000017005
	InitialCharacterCaseSensitive CaseSignificanceID = 900000000000020002
)

// Description is a human-readable synonym for a concept.
type Description struct {
	ID               int64
	ConceptID        int64
	LanguageCode     string
	TypeID           int64
	Term             string
	CaseSignificance int64
	Active           bool
}

// IsFullySpecifiedName reports whether this is a fully specified name.
func (d *Description) IsFullySpecifiedName() bool {
	return d.TypeID == int64(FullySpecifiedName)
}

// IsSynonym reports whether this description is a synonym.
func (d *Description) IsSynonym() bool {
	return d.TypeID == int64(Synonym)
}

// Uncapitalized returns the term lower-cased at its first rune, unless case
// significance rules out doing so safely.
func (d *Description) Uncapitalized() string {
	switch CaseSignificanceID(d.CaseSignificance) {
	case EntireTermCaseSensitive, InitialCharacterCaseSensitive:
		return d.Term
	}
	if d.Term == "" {
		return d.Term
	}
	r := []rune(d.Term)
	return string(toLowerRune(r[0])) + string(r[1:])
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// Characteristic types for relationships.
const (
	additionalRelationship int64 = 900000000000227009
	definingRelationship   int64 = 900000000000006009
	inferredRelationship   int64 = 900000000000011006
	statedRelationship     int64 = 900000000000010007
	qualifyingRelationship int64 = 900000000000225001
)

// Relationship is a typed edge between a source and target concept.
type Relationship struct {
	ID                   int64
	SourceID             int64
	DestinationID        int64
	TypeID               int64
	CharacteristicTypeID int64
	Active               bool
}

// IsAdditionalRelationship reports whether this relationship is additional to
// the concept's defining characterisation.
func (r *Relationship) IsAdditionalRelationship() bool {
	return r.CharacteristicTypeID == additionalRelationship
}

// IsDefiningRelationship reports whether this relationship is always
// necessarily true of any instance of the source concept.
func (r *Relationship) IsDefiningRelationship() bool {
	switch r.CharacteristicTypeID {
	case definingRelationship, inferredRelationship, statedRelationship:
		return true
	}
	return false
}

// IsQualifyingRelationship reports whether this is a qualifying (not
// defining) relationship, used for post-coordination guidance rather than the
// concept's necessary meaning.
func (r *Relationship) IsQualifyingRelationship() bool {
	return r.CharacteristicTypeID == qualifyingRelationship
}

// Reference set type identifiers.
const (
	rootRefset             int64 = 900000000000455006
	refSetDescriptorRefset int64 = 900000000000456007
	simpleRefset           int64 = 446609009
	languageRefset         int64 = 900000000000506000
	simpleMapRefset        int64 = 900000000000496009
	complexMapRefset       int64 = 447250001
	extendedMapRefset      int64 = 609331003
)

// Acceptability values used within language reference set members.
const (
	acceptable int64 = 900000000000549004
	preferred  int64 = 900000000000548007
)

// ReferenceSetMember is one row of the ReferenceSetMembers table: a
// reference set's association of a referenced component with a set of
// additional, refset-type-specific fields. AcceptabilityID is populated only
// for language reference set members.
type ReferenceSetMember struct {
	ID                 int64
	RefsetID           int64
	ReferencedComponent int64
	Active             bool
	AcceptabilityID    int64
}

// IsPreferred reports whether the referenced description is preferred in
// this language reference set.
func (m *ReferenceSetMember) IsPreferred() bool {
	return m.Active && m.AcceptabilityID == preferred
}

// IsAcceptable reports whether the referenced description is acceptable (but
// not necessarily preferred) in this language reference set.
func (m *ReferenceSetMember) IsAcceptable() bool {
	return m.Active && m.AcceptabilityID == acceptable
}
