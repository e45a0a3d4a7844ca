package fhircs

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// FHIR XML wraps every primitive in an element whose value lives in a
// "value" attribute rather than element text (spec §6 "XML ↔ JSON
// conversion"), e.g. <url value="http://example.org/cs"/>. xmlString
// unwraps that shape via custom UnmarshalXML, the same
// hand-rolled-unmarshaler-over-stdlib-xml approach used elsewhere in the
// pack for other HL7 XML dialects (see SPEC_FULL.md §4.3.2).
type xmlString struct{ Value string }

func (x *xmlString) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "value" {
			x.Value = a.Value
		}
	}
	return d.Skip()
}

// MarshalXML re-wraps a plain string as a FHIR primitive element, used
// when a Document is serialised back out to XML.
func (x xmlString) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "value"}, Value: x.Value})
	return e.EncodeElement(struct{}{}, start)
}

type xmlCoding struct {
	System  *xmlString `xml:"system"`
	Code    *xmlString `xml:"code"`
	Display *xmlString `xml:"display"`
}

func (c *xmlCoding) toCoding() *Coding {
	if c == nil {
		return nil
	}
	out := &Coding{}
	if c.System != nil {
		out.System = c.System.Value
	}
	if c.Code != nil {
		out.Code = c.Code.Value
	}
	if c.Display != nil {
		out.Display = c.Display.Value
	}
	return out
}

type xmlDesignation struct {
	Language *xmlString `xml:"language"`
	Use      *xmlCoding `xml:"use"`
	Value    *xmlString `xml:"value"`
}

type xmlPropertyValue struct {
	Code         *xmlString `xml:"code"`
	ValueCode    *xmlString `xml:"valueCode"`
	ValueString  *xmlString `xml:"valueString"`
	ValueBoolean *xmlString `xml:"valueBoolean"`
	ValueInteger *xmlString `xml:"valueInteger"`
	ValueCoding  *xmlCoding `xml:"valueCoding"`
}

type xmlConcept struct {
	Code        *xmlString         `xml:"code"`
	Display     *xmlString         `xml:"display"`
	Definition  *xmlString         `xml:"definition"`
	Designation []xmlDesignation   `xml:"designation"`
	Property    []xmlPropertyValue `xml:"property"`
	Concept     []*xmlConcept      `xml:"concept"`
}

type xmlPropertyDefinition struct {
	Code *xmlString `xml:"code"`
	URI  *xmlString `xml:"uri"`
	Type *xmlString `xml:"type"`
}

type xmlIdentifier struct {
	System *xmlString `xml:"system"`
	Value  *xmlString `xml:"value"`
}

type xmlDocument struct {
	XMLName     xml.Name                `xml:"CodeSystem"`
	URL         *xmlString              `xml:"url"`
	Version     *xmlString              `xml:"version"`
	Name        *xmlString              `xml:"name"`
	Title       *xmlString              `xml:"title"`
	Description *xmlString              `xml:"description"`
	Status      *xmlString              `xml:"status"`
	Content     *xmlString              `xml:"content"`
	Language    *xmlString              `xml:"language"`
	Supplements *xmlString              `xml:"supplements"`
	Identifier  []xmlIdentifier         `xml:"identifier"`
	Property    []xmlPropertyDefinition `xml:"property"`
	Concept     []*xmlConcept           `xml:"concept"`
}

func sval(x *xmlString) string {
	if x == nil {
		return ""
	}
	return x.Value
}

// ParseXML parses a FHIR CodeSystem resource from XML (R3/R4/R5) into a
// Document, unwrapping FHIR's primitive-attribute encoding and building
// the same derived maps ParseJSON does. Element arrays (identifier,
// property, concept, designation) are already repeatable elements in XML
// so no single/plural normalisation is needed in this direction, unlike
// JSON's identifier special case (spec §6).
func ParseXML(data []byte) (*Document, error) {
	var x xmlDocument
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("fhircs: decoding CodeSystem XML: %w", err)
	}
	doc := Document{
		ResourceType: "CodeSystem",
		URL:          sval(x.URL),
		Version:      sval(x.Version),
		Name:         sval(x.Name),
		Title:        sval(x.Title),
		Description:  sval(x.Description),
		Status:       sval(x.Status),
		Content:      Content(sval(x.Content)),
		Language:     sval(x.Language),
		Supplements:  sval(x.Supplements),
	}
	for _, id := range x.Identifier {
		doc.Identifier = append(doc.Identifier, Identifier{System: sval(id.System), Value: sval(id.Value)})
	}
	for _, p := range x.Property {
		doc.Property = append(doc.Property, PropertyDefinition{Code: sval(p.Code), URI: sval(p.URI), Type: sval(p.Type)})
	}
	for _, c := range x.Concept {
		doc.Concept = append(doc.Concept, toConcept(c))
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("fhircs: invalid CodeSystem: %w", err)
	}
	if err := doc.build(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func toConcept(x *xmlConcept) *Concept {
	c := &Concept{Code: sval(x.Code), Display: sval(x.Display), Definition: sval(x.Definition)}
	for _, d := range x.Designation {
		c.Designation = append(c.Designation, Designation{Language: sval(d.Language), Use: d.Use.toCoding(), Value: sval(d.Value)})
	}
	for _, p := range x.Property {
		prop := Property{Code: sval(p.Code)}
		if p.ValueCode != nil {
			v := sval(p.ValueCode)
			prop.ValueCode = &v
		}
		if p.ValueString != nil {
			v := sval(p.ValueString)
			prop.ValueString = &v
		}
		if p.ValueBoolean != nil {
			b := sval(p.ValueBoolean) == "true"
			prop.ValueBoolean = &b
		}
		if p.ValueInteger != nil {
			if i, err := strconv.Atoi(sval(p.ValueInteger)); err == nil {
				prop.ValueInteger = &i
			}
		}
		if p.ValueCoding != nil {
			prop.ValueCoding = p.ValueCoding.toCoding()
		}
		c.Property = append(c.Property, prop)
	}
	for _, nested := range x.Concept {
		c.Concept = append(c.Concept, toConcept(nested))
	}
	return c
}
