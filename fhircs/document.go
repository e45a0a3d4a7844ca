// Package fhircs implements the FHIR CodeSystem document model (spec
// §4.3, §6): parsing a CodeSystem resource (JSON or XML, R3/R4/R5) into a
// Document, building its code/parent/child/ancestor/descendant maps once
// at construction, and overlaying supplement CodeSystems onto a host.
package fhircs

import "fmt"

// Content is a CodeSystem's content completeness mode (spec §3).
type Content string

// Available content modes.
const (
	ContentComplete   Content = "complete"
	ContentSupplement Content = "supplement"
	ContentFragment   Content = "fragment"
	ContentExample    Content = "example"
	ContentNotPresent Content = "not-present"
)

// Coding is a minimal FHIR Coding, used both for a designation's "use"
// and for a coded property value.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// Designation is one alternative textual form of a concept (spec §3).
type Designation struct {
	Language string  `json:"language,omitempty"`
	Use      *Coding `json:"use,omitempty"`
	Value    string  `json:"value" validate:"required"`
}

// IsDisplay reports whether this designation's use denotes a display, as
// opposed to a synonym/definition/other coded use (spec §3).
func (d Designation) IsDisplay() bool {
	return d.Use == nil || d.Use.Code == "" || d.Use.Code == "display"
}

// Property is one property value attached to a concept. FHIR allows
// exactly one of the value[x] fields to be populated; StringValue
// normalises whichever is present to a single string for display and
// filter purposes.
type Property struct {
	Code         string  `json:"code" validate:"required"`
	ValueCode    *string `json:"valueCode,omitempty"`
	ValueString  *string `json:"valueString,omitempty"`
	ValueBoolean *bool   `json:"valueBoolean,omitempty"`
	ValueInteger *int    `json:"valueInteger,omitempty"`
	ValueCoding  *Coding `json:"valueCoding,omitempty"`
}

// StringValue returns whichever value[x] field is populated, formatted
// as a plain string.
func (p Property) StringValue() string {
	switch {
	case p.ValueCode != nil:
		return *p.ValueCode
	case p.ValueString != nil:
		return *p.ValueString
	case p.ValueBoolean != nil:
		if *p.ValueBoolean {
			return "true"
		}
		return "false"
	case p.ValueInteger != nil:
		return fmt.Sprintf("%d", *p.ValueInteger)
	case p.ValueCoding != nil:
		return p.ValueCoding.Code
	}
	return ""
}

// PropertyDefinition declares a property a CodeSystem's concepts may
// carry (spec §3 "property[]").
type PropertyDefinition struct {
	Code string `json:"code" validate:"required"`
	URI  string `json:"uri,omitempty"`
	Type string `json:"type" validate:"required"`
}

// Concept is one recursive node of a CodeSystem's concept tree (spec §3).
type Concept struct {
	Code        string        `json:"code" validate:"required"`
	Display     string        `json:"display,omitempty"`
	Definition  string        `json:"definition,omitempty"`
	Designation []Designation `json:"designation,omitempty"`
	Property    []Property    `json:"property,omitempty"`
	Concept     []*Concept    `json:"concept,omitempty"`
}

// Identifier is a minimal FHIR Identifier, used only to carry R3's single
// object-shaped identifier after it has been wrapped into an array (spec
// §6 "R3 → R4/R5 conversion").
type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Document is a parsed FHIR CodeSystem resource together with the
// derived maps built once at construction and immutable thereafter (spec
// §3 "CodeSystem document").
type Document struct {
	ResourceType string       `json:"resourceType" validate:"required,eq=CodeSystem"`
	URL          string       `json:"url" validate:"required"`
	Version      string       `json:"version,omitempty"`
	Name         string       `json:"name,omitempty"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Status       string       `json:"status,omitempty"`
	Content      Content      `json:"content" validate:"required"`
	Language     string       `json:"language,omitempty"`
	// Supplements names the host CodeSystem URL (optionally versioned)
	// this document overlays, populated only when Content is
	// ContentSupplement (spec §3 "Supplement").
	Supplements string               `json:"supplements,omitempty"`
	Identifier  []Identifier         `json:"identifier,omitempty"`
	Property    []PropertyDefinition `json:"property,omitempty"`
	Concept     []*Concept           `json:"concept,omitempty"`

	codeMap       map[string]*Concept
	parentMap     map[string][]string
	childMap      map[string][]string
	ancestorMap   map[string][]string
	descendantMap map[string][]string
}

// Concepts returns the flat list of every concept in the document,
// preorder, i.e. the deterministic iteration order spec §5 requires for
// FHIR-generic providers.
func (d *Document) Concepts() []*Concept {
	out := make([]*Concept, 0, len(d.codeMap))
	var walk func([]*Concept)
	walk = func(cs []*Concept) {
		for _, c := range cs {
			out = append(out, c)
			walk(c.Concept)
		}
	}
	walk(d.Concept)
	return out
}

// Lookup resolves a code to its concept, if present.
func (d *Document) Lookup(code string) (*Concept, bool) {
	c, ok := d.codeMap[code]
	return c, ok
}

// Parents returns code's direct parents (possibly empty).
func (d *Document) Parents(code string) []string { return d.parentMap[code] }

// Children returns code's direct children (possibly empty).
func (d *Document) Children(code string) []string { return d.childMap[code] }

// Ancestors returns the transitive closure of code's parents.
func (d *Document) Ancestors(code string) []string { return d.ancestorMap[code] }

// Descendants returns the transitive closure of code's children.
func (d *Document) Descendants(code string) []string { return d.descendantMap[code] }

// TotalCount is the number of distinct codes in the document. For a
// complete CodeSystem this equals spec §3's invariant totalCount =
// |codeMap|.
func (d *Document) TotalCount() int { return len(d.codeMap) }

// HasParents reports whether any concept in the document declares a
// parent.
func (d *Document) HasParents() bool {
	for _, p := range d.parentMap {
		if len(p) > 0 {
			return true
		}
	}
	return false
}
