package snomed

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// fixtureBuilder assembles a tiny binary cache buffer matching the layout
// Open expects, standing in for the offline importer a real deployment would
// run once per SNOMED CT release.
type fixtureBuilder struct {
	buf     bytes.Buffer
	strings bytes.Buffer
	refs    bytes.Buffer
}

func (f *fixtureBuilder) putString(s string) uint32 {
	off := uint32(f.strings.Len())
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	f.strings.Write(lenBuf[:])
	f.strings.WriteString(s)
	return off
}

func (f *fixtureBuilder) putRefs(ids []int64) uint32 {
	if len(ids) == 0 {
		return 0
	}
	off := uint32(f.refs.Len())
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(ids)))
	f.refs.Write(lenBuf[:])
	for _, id := range ids {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(id))
		f.refs.Write(b[:])
	}
	return off
}

func putU64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeLenPrefixedTable(out *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out.Write(lenBuf[:])
	out.Write(data)
}

// buildFixture builds a minimal, internally-consistent cache: two concepts
// (a parent "finding" and a child "headache"), one description each, an
// Is-A relationship between them, and a language refset entry marking the
// child's description preferred.
func buildFixture(t *testing.T) []byte {
	t.Helper()
	f := &fixtureBuilder{}
	f.refs.Write([]byte{0, 0, 0, 0}) // offset 0 is reserved as the "no refs" sentinel

	langOffset := f.putString("en")
	findingTerm := f.putString("Finding")
	headacheTerm := f.putString("Headache")

	const findingID = 404684003
	const headacheID = 25064002
	const isAID = 116680003
	const descFindingID = 1000001
	const descHeadacheID = 1000002
	const relID = 2000001
	const langRefsetID = 900000000000508004
	const rsmID = 3000001

	childrenOfFindingRef := f.putRefs([]int64{headacheID})
	descOfFindingRef := f.putRefs([]int64{0}) // index 0 into Descriptions table
	descOfHeadacheRef := f.putRefs([]int64{1})
	parentsOfHeadacheRef := f.putRefs([]int64{findingID})
	outboundOfHeadacheRef := f.putRefs([]int64{0}) // index 0 into Relationships table
	inboundOfFindingRef := f.putRefs([]int64{0})

	var concepts bytes.Buffer
	// finding: active, no parents, one child, one description, one inbound rel, no outbound
	putU64(&concepts, findingID)
	concepts.WriteByte(byte(flagActive))
	putU32(&concepts, 0)                    // active parents ref
	putU32(&concepts, childrenOfFindingRef) // active children ref
	putU32(&concepts, descOfFindingRef)     // descriptions ref
	putU32(&concepts, inboundOfFindingRef)  // inbound ref
	putU32(&concepts, 0)                    // outbound ref
	putU32(&concepts, 20020131)             // effective date
	putU32(&concepts, 0)                    // depth
	putU64(&concepts, 0)                    // module id

	// headache: active, one parent, one description, one outbound rel (Is-A finding)
	putU64(&concepts, headacheID)
	concepts.WriteByte(byte(flagActive))
	putU32(&concepts, parentsOfHeadacheRef)
	putU32(&concepts, 0)
	putU32(&concepts, descOfHeadacheRef)
	putU32(&concepts, 0)
	putU32(&concepts, outboundOfHeadacheRef)
	putU32(&concepts, 20020131)
	putU32(&concepts, 1)
	putU64(&concepts, 0)

	var descriptions bytes.Buffer
	putU64(&descriptions, descFindingID)
	putU64(&descriptions, findingID)
	putU32(&descriptions, langOffset)
	putU64(&descriptions, int64(FullySpecifiedName))
	putU32(&descriptions, findingTerm)
	putU64(&descriptions, int64(EntireTermCaseInsensitive))
	descriptions.WriteByte(1)

	putU64(&descriptions, descHeadacheID)
	putU64(&descriptions, headacheID)
	putU32(&descriptions, langOffset)
	putU64(&descriptions, int64(Synonym))
	putU32(&descriptions, headacheTerm)
	putU64(&descriptions, int64(EntireTermCaseInsensitive))
	descriptions.WriteByte(1)

	var relationships bytes.Buffer
	putU64(&relationships, relID)
	putU64(&relationships, headacheID)
	putU64(&relationships, findingID)
	putU64(&relationships, isAID)
	putU64(&relationships, 900000000000011006) // inferred
	relationships.WriteByte(1)

	var refsetMembers bytes.Buffer
	putU64(&refsetMembers, rsmID)
	putU64(&refsetMembers, langRefsetID)
	putU64(&refsetMembers, descHeadacheID)
	refsetMembers.WriteByte(1)
	putU64(&refsetMembers, preferred)

	f.buf.WriteByte(cacheMagic)
	// header
	writeHeaderString(&f.buf, "http://snomed.info/sct/999999999999999/version/20020131")
	writeHeaderString(&f.buf, "999999999999999")
	writeHeaderString(&f.buf, "en")
	putU64(&f.buf, isAID)
	putU32(&f.buf, 1) // active roots count
	putU64(&f.buf, findingID)
	putU32(&f.buf, 0) // inactive roots count

	writeLenPrefixedTable(&f.buf, f.strings.Bytes())
	writeLenPrefixedTable(&f.buf, nil) // words
	writeLenPrefixedTable(&f.buf, nil) // stems
	writeLenPrefixedTable(&f.buf, f.refs.Bytes())
	writeLenPrefixedTable(&f.buf, concepts.Bytes())
	writeLenPrefixedTable(&f.buf, descriptions.Bytes())
	writeLenPrefixedTable(&f.buf, relationships.Bytes())
	writeLenPrefixedTable(&f.buf, refsetMembers.Bytes())

	return f.buf.Bytes()
}

func writeHeaderString(out *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	out.Write(lenBuf[:])
	out.WriteString(s)
}

func TestOpenAndFindConcept(t *testing.T) {
	buf := buildFixture(t)
	r, err := Open(buf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, want en", r.DefaultLanguage)
	}
	if r.IsAIndex != 116680003 {
		t.Errorf("IsAIndex = %d, want 116680003", r.IsAIndex)
	}

	finding, ok := r.FindConcept(404684003)
	if !ok {
		t.Fatal("FindConcept(404684003) not found")
	}
	if !finding.IsActive() {
		t.Error("finding concept should be active")
	}
	if len(finding.ActiveChildren) != 1 || finding.ActiveChildren[0] != 25064002 {
		t.Errorf("finding.ActiveChildren = %v, want [25064002]", finding.ActiveChildren)
	}

	headache, ok := r.FindConcept(25064002)
	if !ok {
		t.Fatal("FindConcept(25064002) not found")
	}
	if len(headache.ActiveParents) != 1 || headache.ActiveParents[0] != 404684003 {
		t.Errorf("headache.ActiveParents = %v, want [404684003]", headache.ActiveParents)
	}

	if _, ok := r.FindConcept(999); ok {
		t.Error("FindConcept(999) should not be found")
	}
}

func TestDescriptionAndRelationshipLookup(t *testing.T) {
	buf := buildFixture(t)
	r, err := Open(buf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	headache, _ := r.FindConcept(25064002)
	d, ok := r.Description(headache.Descriptions[0])
	if !ok {
		t.Fatal("Description lookup failed")
	}
	if d.Term != "Headache" {
		t.Errorf("term = %q, want Headache", d.Term)
	}
	if !d.IsSynonym() {
		t.Error("expected synonym description type")
	}

	byID, ok := r.DescriptionByID(1000002)
	if !ok || byID.Term != "Headache" {
		t.Error("DescriptionByID lookup failed")
	}

	rel, ok := r.Relationship(headache.Outbound[0])
	if !ok {
		t.Fatal("Relationship lookup failed")
	}
	if rel.TypeID != 116680003 {
		t.Errorf("relationship type = %d, want Is-A", rel.TypeID)
	}
	if !rel.IsDefiningRelationship() {
		t.Error("expected defining relationship")
	}

	members := r.ReferenceSetMembers(900000000000508004, 1000002)
	if len(members) != 1 || !members[0].IsPreferred() {
		t.Error("expected one preferred language refset member for description 1000002")
	}
}
