package snomed

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// cacheMagic is the single version byte every cache file must begin with.
// Bumped whenever the table layout changes incompatibly.
const cacheMagic byte = 0x03

// Reader gives structured access to a SNOMED CT binary cache: a single file
// of concatenated, length-prefixed tables built once by an offline importer
// (spec §4.7.1). The strings, words, stems and references tables stay as
// views into the original buffer; the concept, description, relationship and
// reference-set-member tables are decoded into Go structs when the cache is
// opened.
type Reader struct {
	buf []byte

	VersionURI      string
	EditionID       string
	DefaultLanguage string
	IsAIndex        int64
	ActiveRoots     []int64
	InactiveRoots   []int64

	strings table
	words   table
	stems   table
	refs    table

	concepts     conceptTable
	descriptions descriptionTable
	descByID     map[int64]int // DescriptionIndex, by description id
	relationships relationshipTable
	refsetMembers refsetMemberTable
	refsetIndex   map[int64][]int // ReferenceSetIndex: refset id -> member row indices
}

// table is a length-prefixed byte-region view into the cache buffer.
type table struct {
	data []byte
}

// Open validates the cache magic byte, then decodes the header and every
// table. Decoding the concept and description records dereferences every
// string and reference offset they hold, so Open fails if any of those
// offsets falls outside its table.
func Open(buf []byte) (*Reader, error) {
	if len(buf) == 0 || buf[0] != cacheMagic {
		return nil, fmt.Errorf("snomed: invalid or unrecognised cache magic byte")
	}
	r := &Reader{buf: buf}
	pos := 1

	readString := func() (string, error) {
		s, n, err := readLenPrefixedString(buf[pos:])
		if err != nil {
			return "", err
		}
		pos += n
		return s, nil
	}
	readInt64 := func() (int64, error) {
		if pos+8 > len(buf) {
			return 0, fmt.Errorf("snomed: truncated cache header")
		}
		v := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
		pos += 8
		return v, nil
	}
	readInt64List := func() ([]int64, error) {
		if pos+4 > len(buf) {
			return nil, fmt.Errorf("snomed: truncated cache header")
		}
		n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			v, err := readInt64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	var err error
	if r.VersionURI, err = readString(); err != nil {
		return nil, err
	}
	if r.EditionID, err = readString(); err != nil {
		return nil, err
	}
	if r.DefaultLanguage, err = readString(); err != nil {
		return nil, err
	}
	if r.IsAIndex, err = readInt64(); err != nil {
		return nil, err
	}
	if r.ActiveRoots, err = readInt64List(); err != nil {
		return nil, err
	}
	if r.InactiveRoots, err = readInt64List(); err != nil {
		return nil, err
	}

	readTable := func() (table, error) {
		if pos+4 > len(buf) {
			return table{}, fmt.Errorf("snomed: truncated table length")
		}
		n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if pos+n > len(buf) {
			return table{}, fmt.Errorf("snomed: table extends beyond cache file")
		}
		t := table{data: buf[pos : pos+n]}
		pos += n
		return t, nil
	}

	if r.strings, err = readTable(); err != nil {
		return nil, err
	}
	if r.words, err = readTable(); err != nil {
		return nil, err
	}
	if r.stems, err = readTable(); err != nil {
		return nil, err
	}
	if r.refs, err = readTable(); err != nil {
		return nil, err
	}

	conceptsT, err := readTable()
	if err != nil {
		return nil, err
	}
	if err := r.concepts.decode(conceptsT, r); err != nil {
		return nil, err
	}

	descT, err := readTable()
	if err != nil {
		return nil, err
	}
	if err := r.descriptions.decode(descT, r); err != nil {
		return nil, err
	}
	r.descByID = make(map[int64]int, len(r.descriptions.rows))
	for i, d := range r.descriptions.rows {
		r.descByID[d.ID] = i
	}

	relT, err := readTable()
	if err != nil {
		return nil, err
	}
	if err := r.relationships.decode(relT); err != nil {
		return nil, err
	}

	rsmT, err := readTable()
	if err != nil {
		return nil, err
	}
	if err := r.refsetMembers.decode(rsmT); err != nil {
		return nil, err
	}
	r.refsetIndex = make(map[int64][]int, 16)
	for i, m := range r.refsetMembers.rows {
		r.refsetIndex[m.RefsetID] = append(r.refsetIndex[m.RefsetID], i)
	}

	return r, nil
}

func readLenPrefixedString(b []byte) (string, int, error) {
	if len(b) < 4 {
		return "", 0, fmt.Errorf("snomed: truncated string length")
	}
	n := int(binary.LittleEndian.Uint32(b))
	if len(b) < 4+n {
		return "", 0, fmt.Errorf("snomed: truncated string data")
	}
	return string(b[4 : 4+n]), 4 + n, nil
}

// StringAt returns the UTF-8 string at the given byte offset in the Strings
// table.
func (r *Reader) StringAt(offset uint32) (string, error) {
	if int(offset) >= len(r.strings.data) {
		return "", fmt.Errorf("snomed: string offset %d out of range", offset)
	}
	s, _, err := readLenPrefixedString(r.strings.data[offset:])
	return s, err
}

// ReferencesAt decodes the array of 32-bit references stored at the given
// byte offset in the References table into a newly allocated int64 slice. Offset 0 is reserved by
// convention to mean "no references" (the table's first four bytes are
// always left as padding), so a Concept record can use the zero value of its
// reference fields to mean "empty" without a separate null flag.
func (r *Reader) ReferencesAt(offset uint32) ([]int64, error) {
	if offset == 0 {
		return nil, nil
	}
	if int(offset)+4 > len(r.refs.data) {
		return nil, fmt.Errorf("snomed: reference offset %d out of range", offset)
	}
	n := int(binary.LittleEndian.Uint32(r.refs.data[offset:]))
	start := int(offset) + 4
	if start+n*4 > len(r.refs.data) {
		return nil, fmt.Errorf("snomed: reference array at offset %d truncated", offset)
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(binary.LittleEndian.Uint32(r.refs.data[start+i*4:]))
	}
	return out, nil
}

// conceptTable is the decoded, sorted-by-identity Concepts table.
type conceptTable struct {
	rows []Concept
}

func (t *conceptTable) decode(tb table, r *Reader) error {
	const recordSize = 8 + 1 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 8 // identity,flags,5 refs,effdate,depth,moduleid
	n := len(tb.data) / recordSize
	t.rows = make([]Concept, 0, n)
	for i := 0; i < n; i++ {
		b := tb.data[i*recordSize:]
		identity := int64(binary.LittleEndian.Uint64(b[0:8]))
		flags := b[8]
		activeParentsRef := binary.LittleEndian.Uint32(b[9:13])
		activeChildrenRef := binary.LittleEndian.Uint32(b[13:17])
		descriptionsRef := binary.LittleEndian.Uint32(b[17:21])
		inboundRef := binary.LittleEndian.Uint32(b[21:25])
		outboundRef := binary.LittleEndian.Uint32(b[25:29])
		effectiveDate := int32(binary.LittleEndian.Uint32(b[29:33]))
		depth := int32(binary.LittleEndian.Uint32(b[33:37]))
		moduleID := int64(binary.LittleEndian.Uint64(b[37:45]))

		activeParents, err := r.ReferencesAt(activeParentsRef)
		if err != nil {
			return fmt.Errorf("concept %d: active parents: %w", identity, err)
		}
		activeChildren, err := r.ReferencesAt(activeChildrenRef)
		if err != nil {
			return fmt.Errorf("concept %d: active children: %w", identity, err)
		}
		descriptions, err := r.ReferencesAt(descriptionsRef)
		if err != nil {
			return fmt.Errorf("concept %d: descriptions: %w", identity, err)
		}
		inbound, err := r.ReferencesAt(inboundRef)
		if err != nil {
			return fmt.Errorf("concept %d: inbound relationships: %w", identity, err)
		}
		outbound, err := r.ReferencesAt(outboundRef)
		if err != nil {
			return fmt.Errorf("concept %d: outbound relationships: %w", identity, err)
		}

		t.rows = append(t.rows, Concept{
			Identity:       identity,
			Flags:          flags,
			ActiveParents:  activeParents,
			ActiveChildren: activeChildren,
			Descriptions:   descriptions,
			Inbound:        inbound,
			Outbound:       outbound,
			EffectiveDate:  effectiveDate,
			Depth:          depth,
			ModuleID:       moduleID,
		})
	}
	return nil
}

// FindConcept performs a binary search on the sorted Concepts table,
// O(log n) per spec §4.7.1.
func (r *Reader) FindConcept(identity int64) (*Concept, bool) {
	rows := r.concepts.rows
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Identity >= identity })
	if i < len(rows) && rows[i].Identity == identity {
		return &rows[i], true
	}
	return nil, false
}

type descriptionTable struct {
	rows []Description
}

func (t *descriptionTable) decode(tb table, r *Reader) error {
	const recordSize = 8 + 8 + 4 + 8 + 4 + 8 + 1 // id,conceptid,langoffset,typeid,termoffset,casesig,active
	n := len(tb.data) / recordSize
	t.rows = make([]Description, 0, n)
	for i := 0; i < n; i++ {
		b := tb.data[i*recordSize:]
		id := int64(binary.LittleEndian.Uint64(b[0:8]))
		conceptID := int64(binary.LittleEndian.Uint64(b[8:16]))
		langOffset := binary.LittleEndian.Uint32(b[16:20])
		typeID := int64(binary.LittleEndian.Uint64(b[20:28]))
		termOffset := binary.LittleEndian.Uint32(b[28:32])
		caseSig := int64(binary.LittleEndian.Uint64(b[32:40]))
		active := b[40] != 0

		lang, err := r.StringAt(langOffset)
		if err != nil {
			return fmt.Errorf("description %d: language: %w", id, err)
		}
		term, err := r.StringAt(termOffset)
		if err != nil {
			return fmt.Errorf("description %d: term: %w", id, err)
		}
		t.rows = append(t.rows, Description{
			ID:               id,
			ConceptID:        conceptID,
			LanguageCode:     lang,
			TypeID:           typeID,
			Term:             term,
			CaseSignificance: caseSig,
			Active:           active,
		})
	}
	return nil
}

// Description returns the description at the given References-table index
// (as stored in a Concept's Descriptions slice).
func (r *Reader) Description(index int64) (*Description, bool) {
	if index < 0 || int(index) >= len(r.descriptions.rows) {
		return nil, false
	}
	return &r.descriptions.rows[index], true
}

// DescriptionByID looks up a description by its own identifier via the
// DescriptionIndex.
func (r *Reader) DescriptionByID(id int64) (*Description, bool) {
	i, ok := r.descByID[id]
	if !ok {
		return nil, false
	}
	return &r.descriptions.rows[i], true
}

// AllActiveDescriptions returns every active description in the cache, for
// callers that build a full-text index over descriptive terms rather than
// walking the concept hierarchy.
func (r *Reader) AllActiveDescriptions() []Description {
	out := make([]Description, 0, len(r.descriptions.rows))
	for _, d := range r.descriptions.rows {
		if d.Active {
			out = append(out, d)
		}
	}
	return out
}

type relationshipTable struct {
	rows []Relationship
}

func (t *relationshipTable) decode(tb table) error {
	const recordSize = 8 + 8 + 8 + 8 + 8 + 1
	n := len(tb.data) / recordSize
	t.rows = make([]Relationship, 0, n)
	for i := 0; i < n; i++ {
		b := tb.data[i*recordSize:]
		t.rows = append(t.rows, Relationship{
			ID:                   int64(binary.LittleEndian.Uint64(b[0:8])),
			SourceID:             int64(binary.LittleEndian.Uint64(b[8:16])),
			DestinationID:        int64(binary.LittleEndian.Uint64(b[16:24])),
			TypeID:               int64(binary.LittleEndian.Uint64(b[24:32])),
			CharacteristicTypeID: int64(binary.LittleEndian.Uint64(b[32:40])),
			Active:               b[40] != 0,
		})
	}
	return nil
}

// Relationship returns the relationship at the given References-table index.
func (r *Reader) Relationship(index int64) (*Relationship, bool) {
	if index < 0 || int(index) >= len(r.relationships.rows) {
		return nil, false
	}
	return &r.relationships.rows[index], true
}

type refsetMemberTable struct {
	rows []ReferenceSetMember
}

func (t *refsetMemberTable) decode(tb table) error {
	const recordSize = 8 + 8 + 8 + 1 + 8
	n := len(tb.data) / recordSize
	t.rows = make([]ReferenceSetMember, 0, n)
	for i := 0; i < n; i++ {
		b := tb.data[i*recordSize:]
		t.rows = append(t.rows, ReferenceSetMember{
			ID:                  int64(binary.LittleEndian.Uint64(b[0:8])),
			RefsetID:            int64(binary.LittleEndian.Uint64(b[8:16])),
			ReferencedComponent: int64(binary.LittleEndian.Uint64(b[16:24])),
			Active:              b[24] != 0,
			AcceptabilityID:     int64(binary.LittleEndian.Uint64(b[25:33])),
		})
	}
	return nil
}

// ReferenceSetMembers returns every member of the given reference set that
// refers to component, via the ReferenceSetIndex.
func (r *Reader) ReferenceSetMembers(refsetID, component int64) []*ReferenceSetMember {
	var out []*ReferenceSetMember
	for _, i := range r.refsetIndex[refsetID] {
		m := &r.refsetMembers.rows[i]
		if m.ReferencedComponent == component {
			out = append(out, m)
		}
	}
	return out
}

// NewTestReader builds a Reader directly from in-memory rows, bypassing the
// binary cache format entirely. It exists so that other packages exercising
// a Reader in their own tests (e.g. expression normalisation) don't need to
// hand-encode a cache buffer; concepts' Descriptions/Inbound/Outbound fields
// must already hold indices into the descriptions/relationships slices as
// passed, since concepts (but not descriptions or relationships) are
// re-sorted by identity.
func NewTestReader(concepts []Concept, descriptions []Description, relationships []Relationship, members []ReferenceSetMember, isAIndex int64) *Reader {
	r := &Reader{IsAIndex: isAIndex}

	r.concepts.rows = append([]Concept{}, concepts...)
	sort.Slice(r.concepts.rows, func(i, j int) bool { return r.concepts.rows[i].Identity < r.concepts.rows[j].Identity })

	r.descriptions.rows = append([]Description{}, descriptions...)
	r.descByID = make(map[int64]int, len(r.descriptions.rows))
	for i, d := range r.descriptions.rows {
		r.descByID[d.ID] = i
	}

	r.relationships.rows = append([]Relationship{}, relationships...)

	r.refsetMembers.rows = append([]ReferenceSetMember{}, members...)
	r.refsetIndex = make(map[int64][]int, 8)
	for i, m := range r.refsetMembers.rows {
		r.refsetIndex[m.RefsetID] = append(r.refsetIndex[m.RefsetID], i)
	}

	return r
}
